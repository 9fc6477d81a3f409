package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pianoteacher/studio-api/internal/models"
)

const contentColumns = "id, student_id, title, description, content_type, difficulty_level, estimated_duration, notes, completed, completion_date, created_at, updated_at"

// LessonContentRepository manages persistence for lesson material.
type LessonContentRepository struct {
	db *sqlx.DB
}

// NewLessonContentRepository constructs a LessonContentRepository.
func NewLessonContentRepository(db *sqlx.DB) *LessonContentRepository {
	return &LessonContentRepository{db: db}
}

// List returns lesson content matching the provided filters.
func (r *LessonContentRepository) List(ctx context.Context, filter models.LessonContentFilter) ([]models.LessonContent, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ContentType != "" {
		conditions = append(conditions, fmt.Sprintf("content_type = $%d", len(args)+1))
		args = append(args, filter.ContentType)
	}
	if filter.Difficulty != nil {
		conditions = append(conditions, fmt.Sprintf("difficulty_level = $%d", len(args)+1))
		args = append(args, *filter.Difficulty)
	}
	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("completed = $%d", len(args)+1))
		args = append(args, *filter.Completed)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM lesson_content WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		contentColumns, where, size, offset)

	var items []models.LessonContent
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lesson content: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lesson_content WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lesson content: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a content item by ID.
func (r *LessonContentRepository) FindByID(ctx context.Context, id string) (*models.LessonContent, error) {
	query := fmt.Sprintf("SELECT %s FROM lesson_content WHERE id = $1", contentColumns)
	var item models.LessonContent
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new content item.
func (r *LessonContentRepository) Create(ctx context.Context, item *models.LessonContent) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO lesson_content (id, student_id, title, description, content_type, difficulty_level, estimated_duration, notes, completed, completion_date, created_at, updated_at)
        VALUES (:id, :student_id, :title, :description, :content_type, :difficulty_level, :estimated_duration, :notes, :completed, :completion_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create lesson content: %w", err)
	}
	return nil
}

// Update modifies an existing content item.
func (r *LessonContentRepository) Update(ctx context.Context, item *models.LessonContent) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_content SET student_id = :student_id, title = :title, description = :description,
        content_type = :content_type, difficulty_level = :difficulty_level, estimated_duration = :estimated_duration,
        notes = :notes, completed = :completed, completion_date = :completion_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update lesson content: %w", err)
	}
	return nil
}

// SetCompleted flips the completion state and stamps the completion date.
func (r *LessonContentRepository) SetCompleted(ctx context.Context, id string, completed bool, completionDate *time.Time) error {
	const query = `UPDATE lesson_content SET completed = $2, completion_date = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, completed, completionDate, time.Now().UTC()); err != nil {
		return fmt.Errorf("set lesson content completion: %w", err)
	}
	return nil
}

// Delete removes a content item.
func (r *LessonContentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM lesson_content WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete lesson content: %w", err)
	}
	return nil
}

// Stats summarises completion counts, optionally scoped to one student.
func (r *LessonContentRepository) Stats(ctx context.Context, studentID string) (*models.ContentStats, error) {
	query := `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE completed) AS completed,
        COUNT(*) FILTER (WHERE NOT completed) AS incomplete
        FROM lesson_content`
	args := []interface{}{}
	if studentID != "" {
		query += " WHERE student_id = $1"
		args = append(args, studentID)
	}
	var stats models.ContentStats
	if err := r.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("lesson content stats: %w", err)
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return &stats, nil
}
