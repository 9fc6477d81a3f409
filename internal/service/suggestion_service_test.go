package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

type suggestionLessonRepoStub struct {
	inRange    []models.Lesson
	history    []models.Lesson
	inRangeErr error
	historyErr error
}

func (s *suggestionLessonRepoStub) ListByStudent(_ context.Context, _ string) ([]models.Lesson, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *suggestionLessonRepoStub) ListByStudentInRange(_ context.Context, _ string, _, _ time.Time) ([]models.Lesson, error) {
	if s.inRangeErr != nil {
		return nil, s.inRangeErr
	}
	return s.inRange, nil
}

type suggestionStudentRepoStub struct {
	exists bool
	err    error
}

func (s *suggestionStudentRepoStub) Exists(_ context.Context, _ string) (bool, error) {
	return s.exists, s.err
}

func newSuggestionServiceForTest(lessons *suggestionLessonRepoStub, students *suggestionStudentRepoStub, now time.Time) *SuggestionService {
	svc := NewSuggestionService(lessons, students, nil)
	svc.now = func() time.Time { return now }
	return svc
}

// 2026-01-06 is a Tuesday.
var (
	testNow      = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testTuesday  = time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	tuesdayNight = time.Date(2026, 1, 6, 23, 59, 0, 0, time.UTC)
)

func tuesdayAt(hour int) time.Time {
	return time.Date(2026, 1, 6, hour, 0, 0, 0, time.UTC)
}

func TestSuggestHourlySlotsWithinTeachingHours(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	// Starts 08:00 through 19:00, one per hour.
	require.Len(t, suggestions, 12)

	starts := make(map[int]models.Suggestion, len(suggestions))
	for _, s := range suggestions {
		assert.Equal(t, 60, s.Duration)
		assert.Equal(t, s.StartTime.Add(60*time.Minute), s.EndTime)
		assert.Equal(t, time.Tuesday, s.StartTime.Weekday())
		starts[s.StartTime.Hour()] = s
	}
	for hour := 8; hour <= 19; hour++ {
		s, ok := starts[hour]
		require.True(t, ok, "missing slot at hour %d", hour)
		if hour < 10 || hour > 18 {
			assert.InDelta(t, 0.3, s.Confidence, 1e-9)
		} else {
			assert.InDelta(t, 0.6, s.Confidence, 1e-9)
		}
		assert.Equal(t, "Available time slot with no conflicts", s.Reason)
	}
}

func TestSuggestOrderedByConfidenceThenTime(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, suggestions, 12)

	for i := 1; i < len(suggestions); i++ {
		assert.GreaterOrEqual(t, suggestions[i-1].Confidence, suggestions[i].Confidence)
		if suggestions[i-1].Confidence == suggestions[i].Confidence {
			assert.True(t, suggestions[i-1].StartTime.Before(suggestions[i].StartTime),
				"equal confidence must keep chronological order")
		}
	}

	// Mid-day slots outrank the off-peak ones.
	assert.Equal(t, 10, suggestions[0].StartTime.Hour())
	assert.Equal(t, 8, suggestions[9].StartTime.Hour())
}

func TestSuggestSkipsConflictingSlots(t *testing.T) {
	booked := models.Lesson{
		ID:        "lesson-1",
		StudentID: "student-1",
		StartTime: tuesdayAt(10),
		EndTime:   tuesdayAt(11),
	}
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{inRange: []models.Lesson{booked}}, &suggestionStudentRepoStub{exists: true}, testNow)

	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, suggestions, 11)

	for _, s := range suggestions {
		assert.NotEqual(t, 10, s.StartTime.Hour(), "booked slot must be excluded")
	}
	// Intervals are half-open: a lesson ending at 11:00 leaves 11:00 free,
	// and one starting at 10:00 leaves the 09:00-10:00 slot free.
	hours := map[int]bool{}
	for _, s := range suggestions {
		hours[s.StartTime.Hour()] = true
	}
	assert.True(t, hours[9])
	assert.True(t, hours[11])
}

func TestSuggestPatternBonusesFromHistory(t *testing.T) {
	history := []models.Lesson{
		{StartTime: time.Date(2025, 12, 2, 14, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 12, 2, 15, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2025, 12, 9, 14, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 12, 9, 15, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2025, 12, 16, 14, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 12, 16, 15, 0, 0, 0, time.UTC)},
	}
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{history: history}, &suggestionStudentRepoStub{exists: true}, testNow)

	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)

	// Three Tuesday 14:00 lessons: every Tuesday slot gets +0.3 for the day
	// pattern and the 14:00 slot another +0.3, clamped to 1.
	top := suggestions[0]
	assert.Equal(t, 14, top.StartTime.Hour())
	assert.InDelta(t, 1.0, top.Confidence, 1e-9)
	assert.Equal(t, "Available time slot with no conflicts (Matches preferred day pattern) (Matches preferred time pattern)", top.Reason)

	for _, s := range suggestions {
		if s.StartTime.Hour() == 14 {
			continue
		}
		assert.Contains(t, s.Reason, "(Matches preferred day pattern)")
		assert.NotContains(t, s.Reason, "(Matches preferred time pattern)")
	}
}

func TestSuggestRejectsInvalidDuration(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	for _, duration := range []int{0, 15, 29, 241, 300} {
		_, err := svc.Suggest(context.Background(), SuggestionRequest{
			StudentID:       "student-1",
			WindowStart:     testTuesday,
			WindowEnd:       tuesdayNight,
			DurationMinutes: duration,
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidDuration.Code, appErr.Code, "duration %d", duration)
	}
}

func TestSuggestRejectsInvertedWindow(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	_, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     tuesdayNight,
		WindowEnd:       testTuesday,
		DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWindow.Code, appErrors.FromError(err).Code)
}

func TestSuggestRejectsPastWindow(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, tuesdayAt(12))

	_, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     tuesdayAt(8),
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidWindow.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "past")
}

func TestSuggestUnknownStudent(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: false}, testNow)

	_, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "nope",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSuggestRepositoryErrorsWrapped(t *testing.T) {
	boom := errors.New("db down")

	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{inRangeErr: boom}, &suggestionStudentRepoStub{exists: true}, testNow)
	_, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	svc = newSuggestionServiceForTest(&suggestionLessonRepoStub{historyErr: boom}, &suggestionStudentRepoStub{exists: true}, testNow)
	_, err = svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestSuggestWeekendOnlyWindowIsEmpty(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	// 2026-01-10 and 2026-01-11 are Saturday and Sunday.
	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		WindowEnd:       time.Date(2026, 1, 11, 23, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestCapsAtTwenty(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	// A full week yields 60 weekday candidates.
	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		WindowEnd:       time.Date(2026, 1, 11, 23, 59, 0, 0, time.UTC),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Len(t, suggestions, 20)
}

func TestSuggestLongDurationLimitsStarts(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 240,
	})
	require.NoError(t, err)

	// Four-hour slots must still end by 20:00, so starts run 08:00-16:00.
	require.Len(t, suggestions, 9)
	for _, s := range suggestions {
		assert.LessOrEqual(t, s.StartTime.Hour(), 16)
		assert.False(t, s.EndTime.After(tuesdayAt(20)))
	}
}

func TestSuggestWindowBoundariesRespected(t *testing.T) {
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{}, &suggestionStudentRepoStub{exists: true}, testNow)

	// Window starting mid-morning drops earlier aligned slots; an exclusive
	// end at 15:00 drops the 15:00 start.
	suggestions, err := svc.Suggest(context.Background(), SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     tuesdayAt(10),
		WindowEnd:       tuesdayAt(15),
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	require.Len(t, suggestions, 5)
	for _, s := range suggestions {
		assert.GreaterOrEqual(t, s.StartTime.Hour(), 10)
		assert.LessOrEqual(t, s.StartTime.Hour(), 14)
	}
}

func TestSuggestDeterministic(t *testing.T) {
	history := []models.Lesson{
		{StartTime: time.Date(2025, 12, 2, 14, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 12, 2, 15, 0, 0, 0, time.UTC)},
	}
	svc := newSuggestionServiceForTest(&suggestionLessonRepoStub{history: history}, &suggestionStudentRepoStub{exists: true}, testNow)

	req := SuggestionRequest{
		StudentID:       "student-1",
		WindowStart:     testTuesday,
		WindowEnd:       tuesdayNight,
		DurationMinutes: 45,
	}
	first, err := svc.Suggest(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateCandidatesHourlyStepOverlap(t *testing.T) {
	// Ninety-minute slots still start at every hour mark, so consecutive
	// candidates overlap each other.
	candidates := generateCandidates(testTuesday, tuesdayNight, 90, nil)
	require.NotEmpty(t, candidates)

	for i := 1; i < len(candidates); i++ {
		assert.Equal(t, time.Hour, candidates[i].StartTime.Sub(candidates[i-1].StartTime))
	}
	last := candidates[len(candidates)-1]
	assert.False(t, last.EndTime.After(tuesdayAt(20)))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.42, clamp01(0.42))
}
