package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianoteacher/studio-api/internal/models"
)

type exportLessonStub struct {
	lessons []models.Lesson
	filter  models.LessonFilter
}

func (s *exportLessonStub) List(_ context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	s.filter = filter
	return s.lessons, len(s.lessons), nil
}

type exportStudentStub struct {
	students map[string]*models.Student
	lookups  int
}

func (s *exportStudentStub) FindByID(_ context.Context, id string) (*models.Student, error) {
	s.lookups++
	if student, ok := s.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type exportReportStub struct {
	reports []models.ProgressReport
	filter  models.ProgressReportFilter
}

func (s *exportReportStub) List(_ context.Context, filter models.ProgressReportFilter) ([]models.ProgressReport, int, error) {
	s.filter = filter
	return s.reports, len(s.reports), nil
}

func TestLessonsCSV(t *testing.T) {
	rate := 45.0
	lessons := &exportLessonStub{lessons: []models.Lesson{
		{
			ID:        "lesson-1",
			StudentID: "student-1",
			StartTime: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC),
			Location:  "Studio A",
			Notes:     "scales, arpeggios",
		},
	}}
	students := &exportStudentStub{students: map[string]*models.Student{
		"student-1": {ID: "student-1", Name: "Ana", HourlyRate: &rate},
	}}
	svc := NewExportService(lessons, students, &exportReportStub{}, nil)

	payload, err := svc.LessonsCSV(context.Background(), models.LessonFilter{StudentID: "student-1"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Student,Start,End,Duration (min),Location,Notes,Hourly Rate", lines[0])
	assert.Contains(t, lines[1], "lesson-1")
	assert.Contains(t, lines[1], "60")
	assert.Contains(t, lines[1], `"scales, arpeggios"`)
	assert.Contains(t, lines[1], "45.00")
	assert.Equal(t, "student-1", lessons.filter.StudentID)
	assert.Equal(t, 100, lessons.filter.PageSize)
}

func TestLessonsCSVRateLookups(t *testing.T) {
	start := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	lessons := &exportLessonStub{lessons: []models.Lesson{
		{ID: "l1", StudentID: "student-1", StartTime: start, EndTime: start.Add(time.Hour)},
		{ID: "l2", StudentID: "student-1", StartTime: start.AddDate(0, 0, 7), EndTime: start.AddDate(0, 0, 7).Add(time.Hour)},
		{ID: "l3", StudentID: "student-2", StartTime: start.AddDate(0, 0, 1), EndTime: start.AddDate(0, 0, 1).Add(time.Hour)},
	}}
	zero := 0.0
	students := &exportStudentStub{students: map[string]*models.Student{
		"student-2": {ID: "student-2", Name: "Ben", HourlyRate: &zero},
	}}
	svc := NewExportService(lessons, students, &exportReportStub{}, nil)

	payload, err := svc.LessonsCSV(context.Background(), models.LessonFilter{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 4)
	// student-1 has no record, student-2 has no agreed rate; both render "-".
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, ",-"), "line %q should carry no rate", line)
	}
	assert.Equal(t, 2, students.lookups, "each student resolved once per run")
}

func TestLessonsCSVEmpty(t *testing.T) {
	svc := NewExportService(&exportLessonStub{}, &exportStudentStub{}, &exportReportStub{}, nil)

	payload, err := svc.LessonsCSV(context.Background(), models.LessonFilter{})
	require.NoError(t, err)
	assert.Equal(t, "ID,Student,Start,End,Duration (min),Location,Notes,Hourly Rate", strings.TrimSpace(string(payload)))
}

func TestProgressReportsPDF(t *testing.T) {
	score := 65.0
	reports := &exportReportStub{reports: []models.ProgressReport{
		{
			ID:              "report-1",
			StudentID:       "student-1",
			ReportType:      models.ReportTypeMonthly,
			ReportPeriod:    "2026-04",
			OverallProgress: 72.5,
			TechnicalSkills: &score,
			ReportDate:      time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		},
	}}
	svc := NewExportService(&exportLessonStub{}, &exportStudentStub{}, reports, nil)

	payload, err := svc.ProgressReportsPDF(context.Background(), "student-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"), "output must be a PDF document")
	assert.Equal(t, "student-1", reports.filter.StudentID)
}
