package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
	"github.com/pianoteacher/studio-api/pkg/export"
)

type exportLessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
}

type exportStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type exportReportRepository interface {
	List(ctx context.Context, filter models.ProgressReportFilter) ([]models.ProgressReport, int, error)
}

// ExportService renders lesson and report data into downloadable files.
type ExportService struct {
	lessons  exportLessonRepository
	students exportStudentRepository
	reports  exportReportRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(lessons exportLessonRepository, students exportStudentRepository, reports exportReportRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		lessons:  lessons,
		students: students,
		reports:  reports,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// LessonsCSV renders the filtered lesson list as CSV.
func (s *ExportService) LessonsCSV(ctx context.Context, filter models.LessonFilter) ([]byte, error) {
	filter.PageSize = 100
	if filter.Page < 1 {
		filter.Page = 1
	}
	lessons, _, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons for export")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Student", "Start", "End", "Duration (min)", "Location", "Notes", "Hourly Rate"},
	}
	rates := map[string]string{}
	for _, lesson := range lessons {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":             lesson.ID,
			"Student":        lesson.StudentID,
			"Start":          lesson.StartTime.Format(time.RFC3339),
			"End":            lesson.EndTime.Format(time.RFC3339),
			"Duration (min)": fmt.Sprintf("%.0f", lesson.Duration().Minutes()),
			"Location":       lesson.Location,
			"Notes":          lesson.Notes,
			"Hourly Rate":    s.hourlyRate(ctx, lesson.StudentID, rates),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render lessons csv")
	}
	return payload, nil
}

// ProgressReportsPDF renders a student's progress reports as a tabular PDF.
func (s *ExportService) ProgressReportsPDF(ctx context.Context, studentID string) ([]byte, error) {
	reports, _, err := s.reports.List(ctx, models.ProgressReportFilter{StudentID: studentID, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reports for export")
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Type", "Period", "Overall", "Technical", "Theory", "Repertoire", "Practice"},
	}
	for _, report := range reports {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":       report.ReportDate.Format("2006-01-02"),
			"Type":       report.ReportType,
			"Period":     report.ReportPeriod,
			"Overall":    fmt.Sprintf("%.1f", report.OverallProgress),
			"Technical":  formatScore(report.TechnicalSkills),
			"Theory":     formatScore(report.TheoryKnowledge),
			"Repertoire": formatScore(report.RepertoireSkills),
			"Practice":   formatScore(report.PracticeHabits),
		})
	}

	payload, err := s.pdf.Render(dataset, "Progress Reports")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render reports pdf")
	}
	return payload, nil
}

// hourlyRate resolves a student's billing rate for the export, looking each
// student up once per run. Students without agreed pricing render as "-".
func (s *ExportService) hourlyRate(ctx context.Context, studentID string, cache map[string]string) string {
	if rate, ok := cache[studentID]; ok {
		return rate
	}
	rate := "-"
	if student, err := s.students.FindByID(ctx, studentID); err == nil && student.HasValidPricing() {
		rate = fmt.Sprintf("%.2f", *student.HourlyRate)
	}
	cache[studentID] = rate
	return rate
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *score)
}
