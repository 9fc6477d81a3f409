package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pianoteacher/studio-api/internal/models"
)

const reportColumns = `id, student_id, report_type, report_period, overall_progress, technical_skills, theory_knowledge,
        repertoire_skills, practice_habits, strengths, areas_for_improvement, recommendations, next_goals, teacher_notes,
        report_date, created_at, updated_at`

// ProgressReportRepository manages persistence for progress reports.
type ProgressReportRepository struct {
	db *sqlx.DB
}

// NewProgressReportRepository constructs a ProgressReportRepository.
func NewProgressReportRepository(db *sqlx.DB) *ProgressReportRepository {
	return &ProgressReportRepository{db: db}
}

// List returns reports matching the provided filters.
func (r *ProgressReportRepository) List(ctx context.Context, filter models.ProgressReportFilter) ([]models.ProgressReport, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ReportType != "" {
		conditions = append(conditions, fmt.Sprintf("report_type = $%d", len(args)+1))
		args = append(args, filter.ReportType)
	}
	if filter.ReportPeriod != "" {
		conditions = append(conditions, fmt.Sprintf("report_period = $%d", len(args)+1))
		args = append(args, filter.ReportPeriod)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("report_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("report_date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.MinProgress != nil {
		conditions = append(conditions, fmt.Sprintf("overall_progress >= $%d", len(args)+1))
		args = append(args, *filter.MinProgress)
	}
	if filter.MaxProgress != nil {
		conditions = append(conditions, fmt.Sprintf("overall_progress <= $%d", len(args)+1))
		args = append(args, *filter.MaxProgress)
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

	query := fmt.Sprintf("SELECT %s FROM progress_reports WHERE %s ORDER BY report_date DESC LIMIT %d OFFSET %d",
		reportColumns, where, size, offset)

	var reports []models.ProgressReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list progress reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM progress_reports WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count progress reports: %w", err)
	}
	return reports, total, nil
}

// FindByID fetches a report by ID.
func (r *ProgressReportRepository) FindByID(ctx context.Context, id string) (*models.ProgressReport, error) {
	query := fmt.Sprintf("SELECT %s FROM progress_reports WHERE id = $1", reportColumns)
	var report models.ProgressReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// LatestByStudent returns the student's most recent report, or nil when none exist.
func (r *ProgressReportRepository) LatestByStudent(ctx context.Context, studentID string) (*models.ProgressReport, error) {
	query := fmt.Sprintf("SELECT %s FROM progress_reports WHERE student_id = $1 ORDER BY report_date DESC LIMIT 1", reportColumns)
	var report models.ProgressReport
	if err := r.db.GetContext(ctx, &report, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest progress report: %w", err)
	}
	return &report, nil
}

// LatestReportDate returns the most recent report date across all students.
func (r *ProgressReportRepository) LatestReportDate(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, "SELECT MAX(report_date) FROM progress_reports"); err != nil {
		return nil, fmt.Errorf("latest report date: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// Create inserts a new report.
func (r *ProgressReportRepository) Create(ctx context.Context, report *models.ProgressReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	if report.ReportDate.IsZero() {
		report.ReportDate = now
	}
	report.UpdatedAt = now
	const query = `INSERT INTO progress_reports (id, student_id, report_type, report_period, overall_progress, technical_skills,
        theory_knowledge, repertoire_skills, practice_habits, strengths, areas_for_improvement, recommendations, next_goals,
        teacher_notes, report_date, created_at, updated_at)
        VALUES (:id, :student_id, :report_type, :report_period, :overall_progress, :technical_skills, :theory_knowledge,
        :repertoire_skills, :practice_habits, :strengths, :areas_for_improvement, :recommendations, :next_goals,
        :teacher_notes, :report_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create progress report: %w", err)
	}
	return nil
}

// Update modifies an existing report.
func (r *ProgressReportRepository) Update(ctx context.Context, report *models.ProgressReport) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE progress_reports SET student_id = :student_id, report_type = :report_type, report_period = :report_period,
        overall_progress = :overall_progress, technical_skills = :technical_skills, theory_knowledge = :theory_knowledge,
        repertoire_skills = :repertoire_skills, practice_habits = :practice_habits, strengths = :strengths,
        areas_for_improvement = :areas_for_improvement, recommendations = :recommendations, next_goals = :next_goals,
        teacher_notes = :teacher_notes, report_date = :report_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("update progress report: %w", err)
	}
	return nil
}

// Delete removes a report.
func (r *ProgressReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM progress_reports WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete progress report: %w", err)
	}
	return nil
}
