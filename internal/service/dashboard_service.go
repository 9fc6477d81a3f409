package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pianoteacher/studio-api/internal/models"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardStudentRepository interface {
	Count(ctx context.Context) (total int, active int, err error)
}

type dashboardLessonRepository interface {
	CountInRange(ctx context.Context, from, to time.Time) (int, error)
}

type dashboardContentRepository interface {
	Stats(ctx context.Context, studentID string) (*models.ContentStats, error)
}

type dashboardReportRepository interface {
	LatestReportDate(ctx context.Context) (*time.Time, error)
}

// DashboardService assembles the studio summary shown on the landing page.
type DashboardService struct {
	students dashboardStudentRepository
	lessons  dashboardLessonRepository
	content  dashboardContentRepository
	reports  dashboardReportRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(students dashboardStudentRepository, lessons dashboardLessonRepository, content dashboardContentRepository, reports dashboardReportRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: students,
		lessons:  lessons,
		content:  content,
		reports:  reports,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Summary returns the aggregate studio counts, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekEnd := dayStart.AddDate(0, 0, 7)

	total, active, err := s.students.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	lessonsToday, err := s.lessons.CountInRange(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's lessons")
	}

	lessonsWeek, err := s.lessons.CountInRange(ctx, dayStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count this week's lessons")
	}

	stats, err := s.content.Stats(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content stats")
	}

	latestReport, err := s.reports.LatestReportDate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest report date")
	}

	summary := &models.DashboardSummary{
		TotalStudents:     total,
		ActiveStudents:    active,
		LessonsToday:      lessonsToday,
		LessonsThisWeek:   lessonsWeek,
		IncompleteContent: stats.Incomplete,
		LatestReportDate:  latestReport,
		GeneratedAt:       now.UTC(),
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, nil
}

// InvalidateCache drops the cached summary so the next Summary call
// recomputes it. Writes do not invalidate automatically; staleness is
// bounded by the cache TTL, and the refresh endpoint calls this for
// callers that need current numbers sooner.
func (s *DashboardService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
