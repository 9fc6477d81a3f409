package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pianoteacher/studio-api/internal/models"
)

// ErrLessonOverlap is returned when a lesson write would double-book a student.
var ErrLessonOverlap = errors.New("lesson overlaps an existing lesson")

// Postgres exclusion_violation, raised by the (student_id, interval) exclusion
// constraint when two writers race past the in-transaction check.
const pgExclusionViolation = "23P01"

const lessonColumns = "id, student_id, start_time, end_time, location, notes, created_at, updated_at"

// LessonRepository manages persistence for lesson records.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns lessons matching the provided filters.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("end_time > $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(location) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
	}

	// Status is derived from the interval against now, mirroring
	// models.Lesson.Status: before the start it is scheduled, past the end
	// completed, in between in progress.
	switch strings.ToUpper(filter.Status) {
	case models.LessonStatusScheduled:
		conditions = append(conditions, fmt.Sprintf("start_time > $%d", len(args)+1))
		args = append(args, time.Now().UTC())
	case models.LessonStatusInProgress:
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("start_time <= $%d AND end_time >= $%d", n, n))
		args = append(args, time.Now().UTC())
	case models.LessonStatusCompleted:
		conditions = append(conditions, fmt.Sprintf("end_time < $%d", len(args)+1))
		args = append(args, time.Now().UTC())
	}

	where := strings.Join(conditions, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM lessons WHERE %s ORDER BY start_time %s LIMIT %d OFFSET %d",
		lessonColumns, where, order, size, offset)

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lessons WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}
	return lessons, total, nil
}

// FindByID fetches a lesson by ID.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListByStudent returns the student's entire lesson history in start order.
func (r *LessonRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE student_id = $1 ORDER BY start_time ASC", lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, studentID); err != nil {
		return nil, fmt.Errorf("list lessons by student: %w", err)
	}
	return lessons, nil
}

// ListByStudentInRange returns the student's lessons intersecting [from, to).
func (r *LessonRepository) ListByStudentInRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons
        WHERE student_id = $1 AND start_time < $3 AND end_time > $2
        ORDER BY start_time ASC`, lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list lessons in range: %w", err)
	}
	return lessons, nil
}

// FindOverlapping returns the student's lessons whose half-open interval
// intersects [start, end), optionally excluding one lesson id.
func (r *LessonRepository) FindOverlapping(ctx context.Context, studentID string, start, end time.Time, excludeID string) ([]models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons
        WHERE student_id = $1 AND start_time < $3 AND end_time > $2`, lessonColumns)
	args := []interface{}{studentID, start, end}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping lessons: %w", err)
	}
	return lessons, nil
}

// Create inserts a lesson after re-checking for overlaps inside a single
// transaction. The student's lesson rows are locked for the duration of the
// check so two concurrent writers cannot both pass it; the schema-level
// exclusion constraint backstops writers that bypass this path.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	return r.withConflictGuard(ctx, lesson, "", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO lessons (id, student_id, start_time, end_time, location, notes, created_at, updated_at)
            VALUES (:id, :student_id, :start_time, :end_time, :location, :notes, :created_at, :updated_at)`
		_, err := tx.NamedExecContext(ctx, query, lesson)
		return err
	})
}

// Update rewrites a lesson's interval and details under the same overlap
// guard as Create, excluding the lesson's own prior slot from the check.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()

	return r.withConflictGuard(ctx, lesson, lesson.ID, func(tx *sqlx.Tx) error {
		const query = `UPDATE lessons SET student_id = :student_id, start_time = :start_time, end_time = :end_time,
            location = :location, notes = :notes, updated_at = :updated_at WHERE id = :id`
		_, err := tx.NamedExecContext(ctx, query, lesson)
		return err
	})
}

// UpdateNotes changes only the lesson notes; no interval check is needed.
func (r *LessonRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	const query = `UPDATE lessons SET notes = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lesson notes: %w", err)
	}
	return nil
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// CountByStudent aggregates lesson totals per student.
func (r *LessonRepository) CountByStudent(ctx context.Context) ([]models.LessonCount, error) {
	const query = `SELECT student_id AS key, COUNT(*) AS count FROM lessons GROUP BY student_id ORDER BY count DESC`
	var counts []models.LessonCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count lessons by student: %w", err)
	}
	return counts, nil
}

// CountByLocation aggregates lesson totals per location.
func (r *LessonRepository) CountByLocation(ctx context.Context) ([]models.LessonCount, error) {
	const query = `SELECT location AS key, COUNT(*) AS count FROM lessons GROUP BY location ORDER BY count DESC`
	var counts []models.LessonCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count lessons by location: %w", err)
	}
	return counts, nil
}

// CountInRange returns the number of lessons starting within [from, to).
func (r *LessonRepository) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM lessons WHERE start_time >= $1 AND start_time < $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("count lessons in range: %w", err)
	}
	return total, nil
}

func (r *LessonRepository) withConflictGuard(ctx context.Context, lesson *models.Lesson, excludeID string, write func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin lesson tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lockQuery := `SELECT id FROM lessons WHERE student_id = $1 AND start_time < $3 AND end_time > $2`
	args := []interface{}{lesson.StudentID, lesson.StartTime, lesson.EndTime}
	if excludeID != "" {
		lockQuery += " AND id <> $4"
		args = append(args, excludeID)
	}
	lockQuery += " FOR UPDATE"

	var overlapping []string
	if err := tx.SelectContext(ctx, &overlapping, lockQuery, args...); err != nil {
		return fmt.Errorf("lock overlapping lessons: %w", err)
	}
	if len(overlapping) > 0 {
		return ErrLessonOverlap
	}

	if err := write(tx); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgExclusionViolation {
			return ErrLessonOverlap
		}
		return fmt.Errorf("write lesson: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lesson tx: %w", err)
	}
	return nil
}
