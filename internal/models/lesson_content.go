package models

import "time"

// Content types assignable to lesson material.
const (
	ContentTypeExercise   = "EXERCISE"
	ContentTypeSong       = "SONG"
	ContentTypeTheory     = "THEORY"
	ContentTypeTechnique  = "TECHNIQUE"
	ContentTypeRepertoire = "REPERTOIRE"
	ContentTypeAssignment = "ASSIGNMENT"
)

// ContentTypes lists every valid content type.
var ContentTypes = []string{
	ContentTypeExercise,
	ContentTypeSong,
	ContentTypeTheory,
	ContentTypeTechnique,
	ContentTypeRepertoire,
	ContentTypeAssignment,
}

// ValidContentType reports whether the given value is a known content type.
func ValidContentType(contentType string) bool {
	for _, t := range ContentTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// LessonContent represents teaching material assigned to a student.
type LessonContent struct {
	ID                string     `db:"id" json:"id"`
	StudentID         string     `db:"student_id" json:"student_id"`
	Title             string     `db:"title" json:"title"`
	Description       string     `db:"description" json:"description"`
	ContentType       string     `db:"content_type" json:"content_type"`
	DifficultyLevel   int        `db:"difficulty_level" json:"difficulty_level"`
	EstimatedDuration int        `db:"estimated_duration" json:"estimated_duration"`
	Notes             string     `db:"notes" json:"notes"`
	Completed         bool       `db:"completed" json:"completed"`
	CompletionDate    *time.Time `db:"completion_date" json:"completion_date,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// DifficultyLabel maps the numeric level onto the studio's grading scale.
func (c LessonContent) DifficultyLabel() string {
	switch {
	case c.DifficultyLevel <= 0:
		return "Unknown"
	case c.DifficultyLevel <= 2:
		return "Beginner"
	case c.DifficultyLevel <= 4:
		return "Elementary"
	case c.DifficultyLevel <= 6:
		return "Intermediate"
	case c.DifficultyLevel <= 8:
		return "Advanced"
	default:
		return "Expert"
	}
}

// LessonContentFilter describes query params for listing content.
type LessonContentFilter struct {
	StudentID   string
	ContentType string
	Difficulty  *int
	Completed   *bool
	Search      string
	Page        int
	PageSize    int
}

// ContentStats summarises completion state for reporting endpoints.
type ContentStats struct {
	Total          int     `db:"total" json:"total"`
	Completed      int     `db:"completed" json:"completed"`
	Incomplete     int     `db:"incomplete" json:"incomplete"`
	CompletionRate float64 `json:"completion_rate"`
}
