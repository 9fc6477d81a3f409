package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type progressReportRepository interface {
	List(ctx context.Context, filter models.ProgressReportFilter) ([]models.ProgressReport, int, error)
	FindByID(ctx context.Context, id string) (*models.ProgressReport, error)
	LatestByStudent(ctx context.Context, studentID string) (*models.ProgressReport, error)
	Create(ctx context.Context, report *models.ProgressReport) error
	Update(ctx context.Context, report *models.ProgressReport) error
	Delete(ctx context.Context, id string) error
}

// ProgressReportRequest holds payload for creating and updating reports.
type ProgressReportRequest struct {
	StudentID           string     `json:"student_id" validate:"required"`
	ReportType          string     `json:"report_type" validate:"required"`
	ReportPeriod        string     `json:"report_period" validate:"required,max=20"`
	OverallProgress     float64    `json:"overall_progress" validate:"gte=0,lte=100"`
	TechnicalSkills     *float64   `json:"technical_skills" validate:"omitempty,gte=0,lte=100"`
	TheoryKnowledge     *float64   `json:"theory_knowledge" validate:"omitempty,gte=0,lte=100"`
	RepertoireSkills    *float64   `json:"repertoire_skills" validate:"omitempty,gte=0,lte=100"`
	PracticeHabits      *float64   `json:"practice_habits" validate:"omitempty,gte=0,lte=100"`
	Strengths           string     `json:"strengths"`
	AreasForImprovement string     `json:"areas_for_improvement"`
	Recommendations     string     `json:"recommendations"`
	NextGoals           string     `json:"next_goals"`
	TeacherNotes        string     `json:"teacher_notes"`
	ReportDate          *time.Time `json:"report_date"`
}

// ProgressReportService handles progress report use-cases.
type ProgressReportService struct {
	repo      progressReportRepository
	students  lessonStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressReportService constructs the progress report service.
func NewProgressReportService(repo progressReportRepository, students lessonStudentRepository, validate *validator.Validate, logger *zap.Logger) *ProgressReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressReportService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns reports and pagination metadata.
func (s *ProgressReportService) List(ctx context.Context, filter models.ProgressReportFilter) ([]models.ProgressReport, *models.Pagination, error) {
	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress reports")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return reports, pagination, nil
}

// Get returns a single report.
func (s *ProgressReportService) Get(ctx context.Context, id string) (*models.ProgressReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "progress report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress report")
	}
	return report, nil
}

// Latest returns the student's most recent report.
func (s *ProgressReportService) Latest(ctx context.Context, studentID string) (*models.ProgressReport, error) {
	report, err := s.repo.LatestByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest report")
	}
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no reports for student")
	}
	return report, nil
}

// Create records a new report for a student.
func (s *ProgressReportService) Create(ctx context.Context, req ProgressReportRequest) (*models.ProgressReport, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	report := s.fromRequest(req)
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create progress report")
	}
	return report, nil
}

// Update modifies an existing report.
func (s *ProgressReportService) Update(ctx context.Context, id string, req ProgressReportRequest) (*models.ProgressReport, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "progress report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress report")
	}

	report := s.fromRequest(req)
	report.ID = existing.ID
	report.CreatedAt = existing.CreatedAt
	if req.ReportDate == nil {
		report.ReportDate = existing.ReportDate
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress report")
	}
	return report, nil
}

// Delete removes a report.
func (s *ProgressReportService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "progress report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress report")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete progress report")
	}
	return nil
}

func (s *ProgressReportService) validateRequest(req ProgressReportRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress report payload")
	}
	if !models.ValidReportType(req.ReportType) {
		return appErrors.Clone(appErrors.ErrValidation, "invalid report type")
	}
	return nil
}

func (s *ProgressReportService) fromRequest(req ProgressReportRequest) *models.ProgressReport {
	report := &models.ProgressReport{
		StudentID:           req.StudentID,
		ReportType:          req.ReportType,
		ReportPeriod:        req.ReportPeriod,
		OverallProgress:     req.OverallProgress,
		TechnicalSkills:     req.TechnicalSkills,
		TheoryKnowledge:     req.TheoryKnowledge,
		RepertoireSkills:    req.RepertoireSkills,
		PracticeHabits:      req.PracticeHabits,
		Strengths:           req.Strengths,
		AreasForImprovement: req.AreasForImprovement,
		Recommendations:     req.Recommendations,
		NextGoals:           req.NextGoals,
		TeacherNotes:        req.TeacherNotes,
	}
	if req.ReportDate != nil {
		report.ReportDate = *req.ReportDate
	}
	return report
}
