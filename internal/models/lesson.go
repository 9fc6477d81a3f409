package models

import "time"

// Lesson statuses derived from the lesson interval relative to now.
const (
	LessonStatusScheduled  = "SCHEDULED"
	LessonStatusInProgress = "IN_PROGRESS"
	LessonStatusCompleted  = "COMPLETED"
)

// Lesson represents a confirmed booking occupying a student's time interval.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	Location  string    `db:"location" json:"location"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the lesson length.
func (l Lesson) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}

// Status derives the lesson state from the provided reference time.
func (l Lesson) Status(now time.Time) string {
	switch {
	case now.Before(l.StartTime):
		return LessonStatusScheduled
	case now.After(l.EndTime):
		return LessonStatusCompleted
	default:
		return LessonStatusInProgress
	}
}

// OverlapsInterval reports whether the lesson intersects [start, end).
func (l Lesson) OverlapsInterval(start, end time.Time) bool {
	return Overlaps(l.StartTime, l.EndTime, start, end)
}

// Overlaps is the single half-open interval intersection test used by both
// conflict checks and candidate generation. Touching endpoints do not count.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

// LessonFilter describes query params for listing lessons. Status selects
// lessons by their interval relative to now, matching Lesson.Status.
type LessonFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
	Location  string
	Status    string
	Page      int
	PageSize  int
	SortOrder string
}

// LessonCount aggregates lesson totals per grouping key.
type LessonCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}
