package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianoteacher/studio-api/internal/models"
	"github.com/pianoteacher/studio-api/internal/repository"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type lessonRepoStub struct {
	lessons     []models.Lesson
	total       int
	byID        *models.Lesson
	overlapping []models.Lesson
	counts      []models.LessonCount

	createErr   error
	updateErr   error
	findErr     error
	deleteCalls int
	lastFilter  models.LessonFilter
	created     *models.Lesson
	updated     *models.Lesson
	notes       string
}

func (s *lessonRepoStub) List(_ context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	s.lastFilter = filter
	return s.lessons, s.total, nil
}

func (s *lessonRepoStub) FindByID(_ context.Context, _ string) (*models.Lesson, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.byID == nil {
		return nil, sql.ErrNoRows
	}
	clone := *s.byID
	return &clone, nil
}

func (s *lessonRepoStub) FindOverlapping(_ context.Context, _ string, _, _ time.Time, _ string) ([]models.Lesson, error) {
	return s.overlapping, nil
}

func (s *lessonRepoStub) Create(_ context.Context, lesson *models.Lesson) error {
	if s.createErr != nil {
		return s.createErr
	}
	lesson.ID = "lesson-new"
	s.created = lesson
	return nil
}

func (s *lessonRepoStub) Update(_ context.Context, lesson *models.Lesson) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = lesson
	return nil
}

func (s *lessonRepoStub) UpdateNotes(_ context.Context, _ string, notes string) error {
	s.notes = notes
	return nil
}

func (s *lessonRepoStub) Delete(_ context.Context, _ string) error {
	s.deleteCalls++
	return nil
}

func (s *lessonRepoStub) CountByStudent(_ context.Context) ([]models.LessonCount, error) {
	return s.counts, nil
}

func (s *lessonRepoStub) CountByLocation(_ context.Context) ([]models.LessonCount, error) {
	return s.counts, nil
}

type studentExistsStub struct {
	exists bool
	err    error
}

func (s *studentExistsStub) Exists(_ context.Context, _ string) (bool, error) {
	return s.exists, s.err
}

func validCreateLessonRequest() CreateLessonRequest {
	return CreateLessonRequest{
		StudentID: "student-1",
		StartTime: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC),
		Location:  "Studio A",
	}
}

func TestLessonCreate(t *testing.T) {
	repo := &lessonRepoStub{}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC) }

	view, err := svc.Create(context.Background(), validCreateLessonRequest())
	require.NoError(t, err)
	assert.Equal(t, "lesson-new", view.ID)
	assert.Equal(t, "student-1", view.StudentID)
	assert.Equal(t, models.LessonStatusScheduled, view.Status)
	require.NotNil(t, repo.created)
}

func TestLessonCreateConflictMapped(t *testing.T) {
	repo := &lessonRepoStub{createErr: repository.ErrLessonOverlap}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	_, err := svc.Create(context.Background(), validCreateLessonRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSchedulingConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestLessonCreateRejectsInvertedInterval(t *testing.T) {
	svc := NewLessonService(&lessonRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	req := validCreateLessonRequest()
	req.StartTime, req.EndTime = req.EndTime, req.StartTime
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLessonCreateUnknownStudent(t *testing.T) {
	svc := NewLessonService(&lessonRepoStub{}, &studentExistsStub{exists: false}, nil, nil)

	_, err := svc.Create(context.Background(), validCreateLessonRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLessonRescheduleConflictMapped(t *testing.T) {
	existing := models.Lesson{
		ID:        "lesson-1",
		StudentID: "student-1",
		StartTime: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC),
		Location:  "Studio A",
	}
	repo := &lessonRepoStub{byID: &existing, updateErr: repository.ErrLessonOverlap}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	_, err := svc.Reschedule(context.Background(), "lesson-1", RescheduleLessonRequest{
		StartTime: time.Date(2026, 4, 7, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 7, 11, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchedulingConflict.Code, appErrors.FromError(err).Code)
}

func TestLessonRescheduleKeepsDetails(t *testing.T) {
	existing := models.Lesson{
		ID:        "lesson-1",
		StudentID: "student-1",
		StartTime: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC),
		Location:  "Studio A",
		Notes:     "scales",
	}
	repo := &lessonRepoStub{byID: &existing}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	view, err := svc.Reschedule(context.Background(), "lesson-1", RescheduleLessonRequest{
		StartTime: time.Date(2026, 4, 7, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 7, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Studio A", view.Location)
	assert.Equal(t, "scales", view.Notes)
	assert.Equal(t, 14, view.StartTime.Hour())
	require.NotNil(t, repo.updated)
	assert.Equal(t, "student-1", repo.updated.StudentID)
}

func TestLessonGetNotFound(t *testing.T) {
	svc := NewLessonService(&lessonRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLessonViewStatusDerived(t *testing.T) {
	inProgress := models.Lesson{
		ID:        "lesson-1",
		StartTime: time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC),
	}
	repo := &lessonRepoStub{byID: &inProgress}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 4, 6, 10, 30, 0, 0, time.UTC) }

	view, err := svc.Get(context.Background(), "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusInProgress, view.Status)
}

func TestLessonUpdateNotes(t *testing.T) {
	existing := models.Lesson{ID: "lesson-1", Notes: "old"}
	repo := &lessonRepoStub{byID: &existing}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	view, err := svc.UpdateNotes(context.Background(), "lesson-1", "worked on arpeggios")
	require.NoError(t, err)
	assert.Equal(t, "worked on arpeggios", view.Notes)
	assert.Equal(t, "worked on arpeggios", repo.notes)
}

func TestLessonHasConflict(t *testing.T) {
	repo := &lessonRepoStub{overlapping: []models.Lesson{{ID: "lesson-1"}}}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	conflict, err := svc.HasConflict(context.Background(), "student-1",
		time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.True(t, conflict)

	repo.overlapping = nil
	conflict, err = svc.HasConflict(context.Background(), "student-1",
		time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 6, 11, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestLessonListPagination(t *testing.T) {
	repo := &lessonRepoStub{lessons: []models.Lesson{{ID: "a"}, {ID: "b"}}, total: 12}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	views, pagination, err := svc.List(context.Background(), models.LessonFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, views, 2)
	require.NotNil(t, pagination)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 12, pagination.TotalCount)
}

func TestLessonListStatusNormalized(t *testing.T) {
	repo := &lessonRepoStub{}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	_, _, err := svc.List(context.Background(), models.LessonFilter{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusCompleted, repo.lastFilter.Status)

	_, _, err = svc.List(context.Background(), models.LessonFilter{Status: "in_progress"})
	require.NoError(t, err)
	assert.Equal(t, models.LessonStatusInProgress, repo.lastFilter.Status)
}

func TestLessonListRejectsUnknownStatus(t *testing.T) {
	svc := NewLessonService(&lessonRepoStub{}, &studentExistsStub{exists: true}, nil, nil)

	_, _, err := svc.List(context.Background(), models.LessonFilter{Status: "CANCELLED"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestLessonDelete(t *testing.T) {
	existing := models.Lesson{ID: "lesson-1"}
	repo := &lessonRepoStub{byID: &existing}
	svc := NewLessonService(repo, &studentExistsStub{exists: true}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "lesson-1"))
	assert.Equal(t, 1, repo.deleteCalls)

	repo.byID = nil
	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
