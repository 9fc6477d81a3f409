package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for enrolling students.
type CreateStudentRequest struct {
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Age            int      `json:"age" validate:"required,gte=5,lte=100"`
	Grade          string   `json:"grade" validate:"max=50"`
	Email          string   `json:"email" validate:"omitempty,email,max=100"`
	Phone          string   `json:"phone" validate:"max=20"`
	Notes          string   `json:"notes"`
	HourlyRate     *float64 `json:"hourly_rate" validate:"omitempty,gt=0"`
	LessonDuration *int     `json:"lesson_duration" validate:"omitempty,gte=30,lte=240"`
	PaymentTerms   *string  `json:"payment_terms"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Name           string   `json:"name" validate:"required,min=2,max=100"`
	Age            int      `json:"age" validate:"required,gte=5,lte=100"`
	Grade          string   `json:"grade" validate:"max=50"`
	Email          string   `json:"email" validate:"omitempty,email,max=100"`
	Phone          string   `json:"phone" validate:"max=20"`
	Notes          string   `json:"notes"`
	HourlyRate     *float64 `json:"hourly_rate" validate:"omitempty,gt=0"`
	LessonDuration *int     `json:"lesson_duration" validate:"omitempty,gte=30,lte=240"`
	PaymentTerms   *string  `json:"payment_terms"`
	Active         bool     `json:"active"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create enrolls a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		Name:           req.Name,
		Age:            req.Age,
		Grade:          req.Grade,
		Email:          req.Email,
		Phone:          req.Phone,
		Notes:          req.Notes,
		HourlyRate:     req.HourlyRate,
		LessonDuration: req.LessonDuration,
		PaymentTerms:   req.PaymentTerms,
		Active:         true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	student.Name = req.Name
	student.Age = req.Age
	student.Grade = req.Grade
	student.Email = req.Email
	student.Phone = req.Phone
	student.Notes = req.Notes
	student.HourlyRate = req.HourlyRate
	student.LessonDuration = req.LessonDuration
	student.PaymentTerms = req.PaymentTerms
	student.Active = req.Active

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate marks a student inactive without removing history.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}
