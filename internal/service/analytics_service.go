package service

import (
	"context"
	"encoding/json"
	"errors"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultSeriesDays = 30
	maxSeriesDays     = 365
)

type AnalyticsService struct {
	CourseRepo    *repository.CourseRepository
	SessionRepo   *repository.SessionRepository
	AnalyticsRepo *repository.AnalyticsRepository
	Location      *time.Location
	Now           func() time.Time
}

func NewAnalyticsService(
	courseRepo *repository.CourseRepository,
	sessionRepo *repository.SessionRepository,
	analyticsRepo *repository.AnalyticsRepository,
	loc *time.Location,
) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{
		CourseRepo:    courseRepo,
		SessionRepo:   sessionRepo,
		AnalyticsRepo: analyticsRepo,
		Location:      loc,
		Now:           time.Now,
	}
}

// GetCourseAnalytics 统计当前用户在课程中的全部会话，并覆盖写入 CourseAnalytics
func (s *AnalyticsService) GetCourseAnalytics(ctx context.Context, userID, courseID uint) (*model.CourseAnalyticsReport, error) {
	ctx, span := tracing.Tracer.Start(ctx, "analytics.course", trace.WithAttributes(
		attribute.Int64("course.id", int64(courseID)),
	))
	defer span.End()

	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, err
	}

	sessions, err := s.SessionRepo.ListByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}

	var (
		views  []model.SlideView
		events []model.InteractionEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = s.SessionRepo.ListSlideViews(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.SessionRepo.ListInteractions(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := AggregateCourse(courseID, sessions, views, events, s.Location)
	span.SetAttributes(
		attribute.Int("analytics.sessions", len(sessions)),
		attribute.Int("analytics.slide_views", len(views)),
	)

	snapshot, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	row := &model.CourseAnalytics{
		UserID:                 userID,
		CourseID:               courseID,
		TotalSessions:          report.Sessions.TotalSessions,
		CompletedSessions:      report.Sessions.CompletedSessions,
		AverageSessionDuration: report.Sessions.AverageSessionDuration,
		TotalTimeSpent:         report.Sessions.TotalTimeSpent,
		Snapshot:               datatypes.JSON(snapshot),
		ComputedAt:             s.Now(),
	}
	if err := s.AnalyticsRepo.Upsert(ctx, row); err != nil {
		return nil, err
	}

	logger.Log.Debug("course analytics computed",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.Int("sessions", len(sessions)),
		zap.Int("slideViews", len(views)),
		zap.Int("interactions", len(events)),
	)
	return &report, nil
}

// GetProgressSeries days 缺省 30，超出 [1, 365] 返回 400
func (s *AnalyticsService) GetProgressSeries(ctx context.Context, userID uint, days int) (*model.ProgressSeries, error) {
	if days == 0 {
		days = defaultSeriesDays
	}
	if days < 1 || days > maxSeriesDays {
		return nil, apperr.Validationf("days must be between 1 and %d", maxSeriesDays)
	}

	now := s.Now()
	since := startOfDay(now, s.Location).AddDate(0, 0, -(days - 1))
	sessions, err := s.SessionRepo.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	series := BuildProgressSeries(sessions, days, now, s.Location)
	return &series, nil
}
