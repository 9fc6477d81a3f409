package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pianoteacher/studio-api/internal/models"
	"github.com/pianoteacher/studio-api/internal/repository"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	FindOverlapping(ctx context.Context, studentID string, start, end time.Time, excludeID string) ([]models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	UpdateNotes(ctx context.Context, id, notes string) error
	Delete(ctx context.Context, id string) error
	CountByStudent(ctx context.Context) ([]models.LessonCount, error)
	CountByLocation(ctx context.Context) ([]models.LessonCount, error)
}

type lessonStudentRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CreateLessonRequest holds payload for booking a lesson.
type CreateLessonRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Location  string    `json:"location" validate:"required,max=100"`
	Notes     string    `json:"notes"`
}

// UpdateLessonRequest holds payload for updating a lesson.
type UpdateLessonRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Location  string    `json:"location" validate:"required,max=100"`
	Notes     string    `json:"notes"`
}

// RescheduleLessonRequest moves a lesson to a new interval.
type RescheduleLessonRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

// LessonView decorates a lesson with its derived status.
type LessonView struct {
	models.Lesson
	Status string `json:"status"`
}

// LessonService handles lesson booking use-cases.
type LessonService struct {
	repo      lessonRepository
	students  lessonStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonService constructs the lesson service.
func NewLessonService(repo lessonRepository, students lessonStudentRepository, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, students: students, validator: validate, logger: logger, now: time.Now}
}

// List returns lessons and pagination metadata.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]LessonView, *models.Pagination, error) {
	if filter.Status != "" {
		filter.Status = strings.ToUpper(filter.Status)
		switch filter.Status {
		case models.LessonStatusScheduled, models.LessonStatusInProgress, models.LessonStatusCompleted:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be SCHEDULED, IN_PROGRESS or COMPLETED")
		}
	}
	lessons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
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
	return s.views(lessons), pagination, nil
}

// Get returns a single lesson.
func (s *LessonService) Get(ctx context.Context, id string) (*LessonView, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	view := s.view(*lesson)
	return &view, nil
}

// Create books a lesson after interval validation and conflict checks.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if err := s.checkInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.checkStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		StudentID: req.StudentID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrLessonOverlap) {
			return nil, appErrors.Clone(appErrors.ErrSchedulingConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	view := s.view(*lesson)
	return &view, nil
}

// Update rewrites a lesson's details, rejecting conflicting intervals.
func (s *LessonService) Update(ctx context.Context, id string, req UpdateLessonRequest) (*LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if err := s.checkInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.checkStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	lesson.StudentID = req.StudentID
	lesson.StartTime = req.StartTime
	lesson.EndTime = req.EndTime
	lesson.Location = req.Location
	lesson.Notes = req.Notes

	if err := s.repo.Update(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrLessonOverlap) {
			return nil, appErrors.Clone(appErrors.ErrSchedulingConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	view := s.view(*lesson)
	return &view, nil
}

// Reschedule moves a lesson to a new interval, keeping other details.
func (s *LessonService) Reschedule(ctx context.Context, id string, req RescheduleLessonRequest) (*LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	if err := s.checkInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	lesson.StartTime = req.StartTime
	lesson.EndTime = req.EndTime

	if err := s.repo.Update(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrLessonOverlap) {
			return nil, appErrors.Clone(appErrors.ErrSchedulingConflict, "cannot reschedule: conflicts with an existing lesson")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule lesson")
	}
	view := s.view(*lesson)
	return &view, nil
}

// UpdateNotes replaces only the lesson notes.
func (s *LessonService) UpdateNotes(ctx context.Context, id, notes string) (*LessonView, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson notes")
	}
	lesson.Notes = notes
	view := s.view(*lesson)
	return &view, nil
}

// Delete removes a lesson.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

// HasConflict reports whether [start, end) would double-book the student,
// optionally ignoring one lesson id (the reschedule case).
func (s *LessonService) HasConflict(ctx context.Context, studentID string, start, end time.Time, excludeID string) (bool, error) {
	overlapping, err := s.repo.FindOverlapping(ctx, studentID, start, end, excludeID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check conflicts")
	}
	return len(overlapping) > 0, nil
}

// CountByStudent aggregates lesson totals per student.
func (s *LessonService) CountByStudent(ctx context.Context) ([]models.LessonCount, error) {
	counts, err := s.repo.CountByStudent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count lessons")
	}
	return counts, nil
}

// CountByLocation aggregates lesson totals per location.
func (s *LessonService) CountByLocation(ctx context.Context) ([]models.LessonCount, error) {
	counts, err := s.repo.CountByLocation(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count lessons")
	}
	return counts, nil
}

func (s *LessonService) checkInterval(start, end time.Time) error {
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return nil
}

func (s *LessonService) checkStudent(ctx context.Context, studentID string) error {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

func (s *LessonService) view(lesson models.Lesson) LessonView {
	return LessonView{Lesson: lesson, Status: lesson.Status(s.now())}
}

func (s *LessonService) views(lessons []models.Lesson) []LessonView {
	views := make([]LessonView, 0, len(lessons))
	for _, lesson := range lessons {
		views = append(views, s.view(lesson))
	}
	return views
}
