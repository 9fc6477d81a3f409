package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type reportRepoStub struct {
	reports []models.ProgressReport
	total   int
	byID    *models.ProgressReport
	latest  *models.ProgressReport
	created *models.ProgressReport
	updated *models.ProgressReport
}

func (s *reportRepoStub) List(_ context.Context, _ models.ProgressReportFilter) ([]models.ProgressReport, int, error) {
	return s.reports, s.total, nil
}

func (s *reportRepoStub) FindByID(_ context.Context, _ string) (*models.ProgressReport, error) {
	if s.byID == nil {
		return nil, sql.ErrNoRows
	}
	clone := *s.byID
	return &clone, nil
}

func (s *reportRepoStub) LatestByStudent(_ context.Context, _ string) (*models.ProgressReport, error) {
	return s.latest, nil
}

func (s *reportRepoStub) Create(_ context.Context, report *models.ProgressReport) error {
	report.ID = "report-new"
	s.created = report
	return nil
}

func (s *reportRepoStub) Update(_ context.Context, report *models.ProgressReport) error {
	s.updated = report
	return nil
}

func (s *reportRepoStub) Delete(_ context.Context, _ string) error {
	return nil
}

func validReportRequest() ProgressReportRequest {
	return ProgressReportRequest{
		StudentID:       "student-1",
		ReportType:      models.ReportTypeMonthly,
		ReportPeriod:    "2026-04",
		OverallProgress: 72.5,
	}
}

func TestReportCreate(t *testing.T) {
	repo := &reportRepoStub{}
	svc := NewProgressReportService(repo, &studentExistsStub{exists: true}, nil, nil)

	report, err := svc.Create(context.Background(), validReportRequest())
	require.NoError(t, err)
	assert.Equal(t, "report-new", report.ID)
	assert.Equal(t, models.ReportTypeMonthly, report.ReportType)
	assert.InDelta(t, 72.5, report.OverallProgress, 1e-9)
}

func TestReportCreateRejectsUnknownType(t *testing.T) {
	svc := NewProgressReportService(&reportRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	req := validReportRequest()
	req.ReportType = "DAILY"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "report type")
}

func TestReportCreateRejectsOutOfRangeScores(t *testing.T) {
	svc := NewProgressReportService(&reportRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	req := validReportRequest()
	req.OverallProgress = 120
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	req = validReportRequest()
	bad := -5.0
	req.TechnicalSkills = &bad
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestReportCreateUnknownStudent(t *testing.T) {
	svc := NewProgressReportService(&reportRepoStub{}, &studentExistsStub{exists: false}, nil, nil)

	_, err := svc.Create(context.Background(), validReportRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportUpdateKeepsDateWhenOmitted(t *testing.T) {
	reportDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	existing := models.ProgressReport{ID: "report-1", ReportDate: reportDate, CreatedAt: reportDate}
	repo := &reportRepoStub{byID: &existing}
	svc := NewProgressReportService(repo, &studentExistsStub{exists: true}, nil, nil)

	report, err := svc.Update(context.Background(), "report-1", validReportRequest())
	require.NoError(t, err)
	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, reportDate, report.ReportDate)
	assert.Equal(t, reportDate, report.CreatedAt)
}

func TestReportLatest(t *testing.T) {
	latest := models.ProgressReport{ID: "report-9"}
	svc := NewProgressReportService(&reportRepoStub{latest: &latest}, &studentExistsStub{exists: true}, nil, nil)

	report, err := svc.Latest(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "report-9", report.ID)
}

func TestReportLatestNone(t *testing.T) {
	svc := NewProgressReportService(&reportRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	_, err := svc.Latest(context.Background(), "student-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportDeleteNotFound(t *testing.T) {
	svc := NewProgressReportService(&reportRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
