package models

import "time"

// DashboardSummary aggregates studio-wide counts for the landing page.
type DashboardSummary struct {
	TotalStudents     int        `json:"total_students"`
	ActiveStudents    int        `json:"active_students"`
	LessonsToday      int        `json:"lessons_today"`
	LessonsThisWeek   int        `json:"lessons_this_week"`
	IncompleteContent int        `json:"incomplete_content"`
	LatestReportDate  *time.Time `json:"latest_report_date,omitempty"`
	GeneratedAt       time.Time  `json:"generated_at"`
}
