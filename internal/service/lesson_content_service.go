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

type lessonContentRepository interface {
	List(ctx context.Context, filter models.LessonContentFilter) ([]models.LessonContent, int, error)
	FindByID(ctx context.Context, id string) (*models.LessonContent, error)
	Create(ctx context.Context, item *models.LessonContent) error
	Update(ctx context.Context, item *models.LessonContent) error
	SetCompleted(ctx context.Context, id string, completed bool, completionDate *time.Time) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, studentID string) (*models.ContentStats, error)
}

// CreateLessonContentRequest holds payload for assigning material.
type CreateLessonContentRequest struct {
	StudentID         string `json:"student_id" validate:"required"`
	Title             string `json:"title" validate:"required,min=1,max=200"`
	Description       string `json:"description" validate:"max=1000"`
	ContentType       string `json:"content_type" validate:"required"`
	DifficultyLevel   int    `json:"difficulty_level" validate:"required,gte=1,lte=10"`
	EstimatedDuration int    `json:"estimated_duration" validate:"required,gte=1"`
	Notes             string `json:"notes"`
}

// UpdateLessonContentRequest holds payload for editing material.
type UpdateLessonContentRequest struct {
	Title             string `json:"title" validate:"required,min=1,max=200"`
	Description       string `json:"description" validate:"max=1000"`
	ContentType       string `json:"content_type" validate:"required"`
	DifficultyLevel   int    `json:"difficulty_level" validate:"required,gte=1,lte=10"`
	EstimatedDuration int    `json:"estimated_duration" validate:"required,gte=1"`
	Notes             string `json:"notes"`
}

// LessonContentService handles lesson material use-cases.
type LessonContentService struct {
	repo      lessonContentRepository
	students  lessonStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonContentService constructs the lesson content service.
func NewLessonContentService(repo lessonContentRepository, students lessonStudentRepository, validate *validator.Validate, logger *zap.Logger) *LessonContentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonContentService{repo: repo, students: students, validator: validate, logger: logger, now: time.Now}
}

// List returns lesson content and pagination metadata.
func (s *LessonContentService) List(ctx context.Context, filter models.LessonContentFilter) ([]models.LessonContent, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lesson content")
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
	return items, pagination, nil
}

// Get returns a single content item.
func (s *LessonContentService) Get(ctx context.Context, id string) (*models.LessonContent, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson content")
	}
	return item, nil
}

// Create assigns new material to a student.
func (s *LessonContentService) Create(ctx context.Context, req CreateLessonContentRequest) (*models.LessonContent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson content payload")
	}
	if !models.ValidContentType(req.ContentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid content type")
	}
	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	item := &models.LessonContent{
		StudentID:         req.StudentID,
		Title:             req.Title,
		Description:       req.Description,
		ContentType:       req.ContentType,
		DifficultyLevel:   req.DifficultyLevel,
		EstimatedDuration: req.EstimatedDuration,
		Notes:             req.Notes,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson content")
	}
	return item, nil
}

// Update edits an existing content item.
func (s *LessonContentService) Update(ctx context.Context, id string, req UpdateLessonContentRequest) (*models.LessonContent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson content payload")
	}
	if !models.ValidContentType(req.ContentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid content type")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson content")
	}

	item.Title = req.Title
	item.Description = req.Description
	item.ContentType = req.ContentType
	item.DifficultyLevel = req.DifficultyLevel
	item.EstimatedDuration = req.EstimatedDuration
	item.Notes = req.Notes

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson content")
	}
	return item, nil
}

// MarkCompleted flips an item to completed with the current timestamp.
func (s *LessonContentService) MarkCompleted(ctx context.Context, id string) (*models.LessonContent, error) {
	return s.setCompletion(ctx, id, true)
}

// MarkIncomplete clears an item's completion state.
func (s *LessonContentService) MarkIncomplete(ctx context.Context, id string) (*models.LessonContent, error) {
	return s.setCompletion(ctx, id, false)
}

// Delete removes a content item.
func (s *LessonContentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson content not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson content")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson content")
	}
	return nil
}

// Stats summarises completion counts, optionally per student.
func (s *LessonContentService) Stats(ctx context.Context, studentID string) (*models.ContentStats, error) {
	stats, err := s.repo.Stats(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content stats")
	}
	return stats, nil
}

func (s *LessonContentService) setCompletion(ctx context.Context, id string, completed bool) (*models.LessonContent, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson content not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson content")
	}

	var completionDate *time.Time
	if completed {
		ts := s.now().UTC()
		completionDate = &ts
	}
	if err := s.repo.SetCompleted(ctx, id, completed, completionDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update completion state")
	}
	item.Completed = completed
	item.CompletionDate = completionDate
	return item, nil
}
