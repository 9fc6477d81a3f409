package models

import "time"

// Report types accepted for progress reports.
const (
	ReportTypeWeekly    = "WEEKLY"
	ReportTypeMonthly   = "MONTHLY"
	ReportTypeQuarterly = "QUARTERLY"
	ReportTypeYearly    = "YEARLY"
)

// ReportTypes lists every valid report type.
var ReportTypes = []string{ReportTypeWeekly, ReportTypeMonthly, ReportTypeQuarterly, ReportTypeYearly}

// ValidReportType reports whether the given value is a known report type.
func ValidReportType(reportType string) bool {
	for _, t := range ReportTypes {
		if t == reportType {
			return true
		}
	}
	return false
}

// ProgressReport captures a periodic assessment of a student.
type ProgressReport struct {
	ID                  string    `db:"id" json:"id"`
	StudentID           string    `db:"student_id" json:"student_id"`
	ReportType          string    `db:"report_type" json:"report_type"`
	ReportPeriod        string    `db:"report_period" json:"report_period"`
	OverallProgress     float64   `db:"overall_progress" json:"overall_progress"`
	TechnicalSkills     *float64  `db:"technical_skills" json:"technical_skills,omitempty"`
	TheoryKnowledge     *float64  `db:"theory_knowledge" json:"theory_knowledge,omitempty"`
	RepertoireSkills    *float64  `db:"repertoire_skills" json:"repertoire_skills,omitempty"`
	PracticeHabits      *float64  `db:"practice_habits" json:"practice_habits,omitempty"`
	Strengths           string    `db:"strengths" json:"strengths"`
	AreasForImprovement string    `db:"areas_for_improvement" json:"areas_for_improvement"`
	Recommendations     string    `db:"recommendations" json:"recommendations"`
	NextGoals           string    `db:"next_goals" json:"next_goals"`
	TeacherNotes        string    `db:"teacher_notes" json:"teacher_notes"`
	ReportDate          time.Time `db:"report_date" json:"report_date"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// ProgressReportFilter describes query params for listing reports.
type ProgressReportFilter struct {
	StudentID    string
	ReportType   string
	ReportPeriod string
	From         *time.Time
	To           *time.Time
	MinProgress  *float64
	MaxProgress  *float64
	Page         int
	PageSize     int
}
