package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

// Scheduling constants. Teaching hours and the suggestion cap are studio
// policy, fixed rather than configurable.
const (
	minSuggestionDuration = 30  // minutes
	maxSuggestionDuration = 240 // minutes

	teachingStartHour = 8
	teachingEndHour   = 20

	maxSuggestions = 20

	baseConfidence   = 0.5
	midDayBonus      = 0.1
	offPeakPenalty   = 0.2
	patternBonusStep = 0.1
)

const baseSuggestionReason = "Available time slot with no conflicts"

type suggestionLessonRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Lesson, error)
	ListByStudentInRange(ctx context.Context, studentID string, from, to time.Time) ([]models.Lesson, error)
}

type suggestionStudentRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// SuggestionRequest carries the parameters of one suggestion run.
type SuggestionRequest struct {
	StudentID       string
	WindowStart     time.Time
	WindowEnd       time.Time
	DurationMinutes int
}

// SuggestionService recommends open lesson slots for a student based on
// their existing bookings and historical booking patterns. Each invocation
// is pure over a snapshot of the student's lessons; there is no shared
// state between runs.
type SuggestionService struct {
	lessons  suggestionLessonRepository
	students suggestionStudentRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewSuggestionService constructs the suggestion service.
func NewSuggestionService(lessons suggestionLessonRepository, students suggestionStudentRepository, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuggestionService{lessons: lessons, students: students, logger: logger, now: time.Now}
}

// Suggest validates the request, generates conflict-free candidate slots
// within the window, scores them against the student's booking history and
// returns at most 20 suggestions ordered by confidence.
func (s *SuggestionService) Suggest(ctx context.Context, req SuggestionRequest) ([]models.Suggestion, error) {
	if req.DurationMinutes < minSuggestionDuration || req.DurationMinutes > maxSuggestionDuration {
		return nil, appErrors.Clone(appErrors.ErrInvalidDuration, "")
	}
	if !req.WindowStart.Before(req.WindowEnd) {
		return nil, appErrors.Clone(appErrors.ErrInvalidWindow, "window start must be before window end")
	}
	if req.WindowStart.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidWindow, "window start cannot be in the past")
	}

	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	existing, err := s.lessons.ListByStudentInRange(ctx, req.StudentID, req.WindowStart, req.WindowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons in window")
	}

	history, err := s.lessons.ListByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson history")
	}

	candidates := generateCandidates(req.WindowStart, req.WindowEnd, req.DurationMinutes, existing)
	suggestions := scoreCandidates(candidates, history)
	rankSuggestions(suggestions)

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	s.logger.Debug("suggestions computed",
		zap.String("student_id", req.StudentID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(suggestions)),
	)
	return suggestions, nil
}

// generateCandidates enumerates hourly-aligned slots of the requested
// duration across the window, restricted to teaching hours on weekdays and
// excluding slots that overlap an existing lesson. Output is chronological.
//
// Starts step by one hour regardless of duration, so durations over an hour
// yield overlapping candidates at every hour mark; the density gives the
// ranking step a full hour-granularity grid to choose from.
func generateCandidates(windowStart, windowEnd time.Time, durationMinutes int, existing []models.Lesson) []models.CandidateSlot {
	var candidates []models.CandidateSlot

	duration := time.Duration(durationMinutes) * time.Minute
	loc := windowStart.Location()

	day := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(windowEnd.Year(), windowEnd.Month(), windowEnd.Day(), 0, 0, 0, 0, loc)

	for ; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), teachingEndHour, 0, 0, 0, loc)

		for hour := teachingStartHour; ; hour++ {
			slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
			slotEnd := slotStart.Add(duration)
			if slotEnd.After(dayEnd) {
				break
			}
			if slotStart.Before(windowStart) || !slotStart.Before(windowEnd) {
				continue
			}
			if overlapsAny(slotStart, slotEnd, existing) {
				continue
			}
			candidates = append(candidates, models.CandidateSlot{
				StartTime: slotStart,
				EndTime:   slotEnd,
				Duration:  durationMinutes,
			})
		}
	}

	return candidates
}

func overlapsAny(start, end time.Time, lessons []models.Lesson) bool {
	for _, lesson := range lessons {
		if models.Overlaps(start, end, lesson.StartTime, lesson.EndTime) {
			return true
		}
	}
	return false
}

// scoreCandidates annotates each candidate with a confidence value and a
// reason string. Order of operations: base, flat time-of-day adjustment,
// additive pattern bonuses (uncapped), final clamp to [0, 1].
func scoreCandidates(candidates []models.CandidateSlot, history []models.Lesson) []models.Suggestion {
	table := models.NewFrequencyTable(history)

	suggestions := make([]models.Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		hour := candidate.StartTime.Hour()
		weekday := candidate.StartTime.Weekday()

		confidence := baseConfidence
		if hour < 10 || hour > 18 {
			confidence -= offPeakPenalty
		} else {
			confidence += midDayBonus
		}

		dayCount := table.Weekday[weekday]
		hourCount := table.Hour[hour]
		confidence += patternBonusStep*float64(dayCount) + patternBonusStep*float64(hourCount)

		confidence = clamp01(confidence)

		reason := baseSuggestionReason
		if dayCount > 0 {
			reason += " (Matches preferred day pattern)"
		}
		if hourCount > 0 {
			reason += " (Matches preferred time pattern)"
		}

		suggestions = append(suggestions, models.Suggestion{
			StartTime:  candidate.StartTime,
			EndTime:    candidate.EndTime,
			Duration:   candidate.Duration,
			Confidence: confidence,
			Reason:     reason,
		})
	}
	return suggestions
}

// rankSuggestions orders by confidence descending. The sort is stable so
// equal confidences keep the chronological order from generation.
func rankSuggestions(suggestions []models.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
