package models

import "time"

// Student represents a learner enrolled at the studio. Pricing terms are
// flattened onto the student row; they are optional until agreed with the
// family.
type Student struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Age            int        `db:"age" json:"age"`
	Grade          string     `db:"grade" json:"grade"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone"`
	Notes          string     `db:"notes" json:"notes"`
	HourlyRate     *float64   `db:"hourly_rate" json:"hourly_rate,omitempty"`
	LessonDuration *int       `db:"lesson_duration" json:"lesson_duration,omitempty"`
	PaymentTerms   *string    `db:"payment_terms" json:"payment_terms,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	LastLessonAt   *time.Time `db:"last_lesson_at" json:"last_lesson_at,omitempty"`
}

// HasValidPricing reports whether billing can be computed for the student.
func (s Student) HasValidPricing() bool {
	return s.HourlyRate != nil && *s.HourlyRate > 0
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
