package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 上报事件类型
const (
	EventSessionStart  = "session_start"
	EventSlideView     = "slide_view"
	EventInteraction   = "interaction"
	EventSlideComplete = "slide_complete"
	EventSessionEnd    = "session_end"
)

const (
	maxEventTypeLen = 64
	maxEventNameLen = 128
)

// ProgressEventRequest POST /api/progress 请求体，字段按 type 取用
type ProgressEventRequest struct {
	Type        string            `json:"type" binding:"required"`
	CourseID    uint              `json:"courseId,omitempty"`
	TotalSlides *int              `json:"totalSlides,omitempty"`
	SessionID   uint              `json:"sessionId,omitempty"`
	SlideID     uint              `json:"slideId,omitempty"`
	ModuleID    uint              `json:"moduleId,omitempty"`
	LessonID    uint              `json:"lessonId,omitempty"`
	TimeSpent   *int              `json:"timeSpent,omitempty"`
	ScrollDepth *float64          `json:"scrollDepth,omitempty"`
	Completed   bool              `json:"completed,omitempty"`
	EventType   string            `json:"eventType,omitempty"`
	EventName   string            `json:"eventName,omitempty"`
	EventData   json.RawMessage   `json:"eventData,omitempty" swaggertype:"object"`
	Events      []json.RawMessage `json:"events,omitempty" swaggertype:"array,object"`
	Duration    *int              `json:"duration,omitempty"` // 客户端计算的时长，服务端忽略
}

// InteractionInput 单条交互事件
type InteractionInput struct {
	EventType string          `json:"eventType"`
	EventName string          `json:"eventName"`
	EventData json.RawMessage `json:"eventData,omitempty" swaggertype:"object"`
}

// RejectedEvent 批量上报中被跳过的事件
type RejectedEvent struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type ProgressResult struct {
	SessionID       uint                    `json:"sessionId,omitempty"`
	Inserted        int                     `json:"inserted,omitempty"`
	Rejected        []RejectedEvent         `json:"rejected,omitempty"`
	LessonCompleted bool                    `json:"lessonCompleted,omitempty"`
	ProgressPercent *float64                `json:"progressPercent,omitempty"`
	Achievements    []model.UserAchievement `json:"achievements,omitempty"`
	TotalDuration   *int                    `json:"totalDuration,omitempty"`
	StreakDays      int                     `json:"streakDays,omitempty"`
}

type ProgressService struct {
	DB                 *gorm.DB
	SessionRepo        *repository.SessionRepository
	ProgressRepo       *repository.ProgressRepository
	CourseRepo         *repository.CourseRepository
	UserRepo           *repository.UserRepository
	CourseService      *CourseService
	AchievementService *AchievementService
	Location           *time.Location
	Now                func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	sessionRepo *repository.SessionRepository,
	progressRepo *repository.ProgressRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	courseService *CourseService,
	achievementService *AchievementService,
	loc *time.Location,
) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		DB:                 db,
		SessionRepo:        sessionRepo,
		ProgressRepo:       progressRepo,
		CourseRepo:         courseRepo,
		UserRepo:           userRepo,
		CourseService:      courseService,
		AchievementService: achievementService,
		Location:           loc,
		Now:                time.Now,
	}
}

// Ingest 按事件类型分发，并记录 progress_events_total
func (s *ProgressService) Ingest(ctx context.Context, userID uint, req *ProgressEventRequest) (*ProgressResult, error) {
	var (
		result *ProgressResult
		err    error
	)
	switch req.Type {
	case EventSessionStart:
		result, err = s.startSession(ctx, userID, req)
	case EventSlideView:
		result, err = s.recordSlideView(ctx, userID, req)
	case EventInteraction:
		result, err = s.recordInteractions(ctx, userID, req)
	case EventSlideComplete:
		result, err = s.completeSlide(ctx, userID, req)
	case EventSessionEnd:
		result, err = s.endSession(ctx, userID, req)
	default:
		monitoring.ProgressEvents.WithLabelValues("unknown", "rejected").Inc()
		return nil, apperr.Validationf("unknown event type %q", req.Type)
	}

	monitoring.ProgressEvents.WithLabelValues(req.Type, metricResult(err)).Inc()
	return result, err
}

func metricResult(err error) string {
	if err == nil {
		return "ok"
	}
	switch status := apperr.StatusOf(err); {
	case status == http.StatusConflict:
		return "conflict"
	case status < http.StatusInternalServerError:
		return "rejected"
	default:
		return "error"
	}
}

func (s *ProgressService) startSession(ctx context.Context, userID uint, req *ProgressEventRequest) (*ProgressResult, error) {
	if req.CourseID == 0 {
		return nil, apperr.Validation("courseId is required")
	}
	if req.TotalSlides == nil {
		return nil, apperr.Validation("totalSlides is required")
	}
	if *req.TotalSlides < 0 {
		return nil, apperr.Validation("totalSlides must be >= 0")
	}
	if _, err := s.CourseRepo.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, err
	}

	now := s.Now()
	session := &model.CourseSession{
		UserID:      userID,
		CourseID:    req.CourseID,
		TotalSlides: *req.TotalSlides,
		StartedAt:   now,
	}
	var streak int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.SessionRepo.WithTx(tx).Create(ctx, session); err != nil {
			return err
		}
		var err error
		streak, err = s.touchStreak(ctx, tx, userID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Debug("session started",
		zap.Uint("sessionId", session.ID),
		zap.Uint("userId", userID),
		zap.Uint("courseId", req.CourseID),
	)
	return &ProgressResult{SessionID: session.ID, StreakDays: streak}, nil
}

// touchStreak 以统计时区的自然日更新连续学习天数
func (s *ProgressService) touchStreak(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) (int, error) {
	userRepo := s.UserRepo.WithTx(tx)
	user, err := userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.Unauthenticated("user not found")
	}
	if err != nil {
		return 0, err
	}

	streak, longest, today := NextStreak(user.StreakDays, user.LongestStreak, user.LastActiveDate, now, s.Location)
	if streak == user.StreakDays && longest == user.LongestStreak && user.LastActiveDate != nil && user.LastActiveDate.Equal(today) {
		return streak, nil
	}
	if err := userRepo.UpdateStreak(ctx, userID, streak, longest, today); err != nil {
		return 0, err
	}
	return streak, nil
}

// NextStreak 返回新的连续天数、最长纪录以及当天零点
// 昨天活跃则 +1，今天已活跃保持不变，否则重置为 1
func NextStreak(current, longest int, lastActive *time.Time, now time.Time, loc *time.Location) (int, int, time.Time) {
	today := startOfDay(now, loc)
	streak := 1
	if lastActive != nil {
		last := startOfDay(*lastActive, loc)
		switch {
		case last.Equal(today):
			streak = current
			if streak < 1 {
				streak = 1
			}
		case last.AddDate(0, 0, 1).Equal(today):
			streak = current + 1
		}
	}
	if streak > longest {
		longest = streak
	}
	return streak, longest, today
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ownedSession 非本人的会话与不存在的会话一样返回 404
func (s *ProgressService) ownedSession(ctx context.Context, userID, sessionID uint) (*model.CourseSession, error) {
	if sessionID == 0 {
		return nil, apperr.Validation("sessionId is required")
	}
	session, err := s.SessionRepo.FindByIDAndUserID(ctx, sessionID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ProgressService) recordSlideView(ctx context.Context, userID uint, req *ProgressEventRequest) (*ProgressResult, error) {
	if req.SlideID == 0 {
		return nil, apperr.Validation("slideId is required")
	}
	delta := 0
	if req.TimeSpent != nil {
		if *req.TimeSpent < 0 {
			return nil, apperr.Validation("timeSpent must be >= 0")
		}
		delta = *req.TimeSpent
	}
	depth := 0.0
	if req.ScrollDepth != nil {
		if *req.ScrollDepth < 0 || *req.ScrollDepth > 100 {
			return nil, apperr.Validation("scrollDepth must be between 0 and 100")
		}
		depth = *req.ScrollDepth
	}

	session, err := s.ownedSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.SessionRepo.WithTx(tx).UpsertSlideView(ctx, repository.SlideViewDelta{
			SessionID:   session.ID,
			SlideID:     req.SlideID,
			ModuleID:    req.ModuleID,
			LessonID:    req.LessonID,
			TimeSpent:   delta,
			ScrollDepth: depth,
			Completed:   req.Completed,
		})
		if err != nil {
			return err
		}
		if req.LessonID == 0 {
			return nil
		}
		progressRepo := s.ProgressRepo.WithTx(tx)
		if err := progressRepo.TouchAccess(ctx, userID, req.LessonID, delta, now); err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		// 已完成课时的复习时长直接计入学习时间，未完成的在完成时一次性计入
		progress, err := progressRepo.Find(ctx, userID, req.LessonID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !progress.Completed {
			return nil
		}
		return s.UserRepo.WithTx(tx).AddLearningSeconds(ctx, userID, delta)
	})
	if err != nil {
		return nil, err
	}
	return &ProgressResult{SessionID: session.ID}, nil
}

func (s *ProgressService) recordInteractions(ctx context.Context, userID uint, req *ProgressEventRequest) (*ProgressResult, error) {
	var (
		events   []model.InteractionEvent
		rejected []RejectedEvent
	)

	if req.Events == nil {
		ev, reason := buildInteraction(InteractionInput{
			EventType: req.EventType,
			EventName: req.EventName,
			EventData: req.EventData,
		})
		if reason != "" {
			return nil, apperr.Validation(reason)
		}
		events = append(events, ev)
	} else {
		for i, raw := range req.Events {
			var in InteractionInput
			if err := json.Unmarshal(raw, &in); err != nil {
				rejected = append(rejected, RejectedEvent{Index: i, Reason: "event must be an object"})
				continue
			}
			ev, reason := buildInteraction(in)
			if reason != "" {
				rejected = append(rejected, RejectedEvent{Index: i, Reason: reason})
				continue
			}
			events = append(events, ev)
		}
	}

	session, err := s.ownedSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].SessionID = session.ID
	}

	if err := s.SessionRepo.CreateInteractions(ctx, events); err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		logger.Log.Debug("interaction batch partially rejected",
			zap.Uint("sessionId", session.ID),
			zap.Int("rejected", len(rejected)),
		)
	}
	return &ProgressResult{SessionID: session.ID, Inserted: len(events), Rejected: rejected}, nil
}

// buildInteraction 校验单条事件，返回非空 reason 表示不合法
func buildInteraction(in InteractionInput) (model.InteractionEvent, string) {
	switch {
	case in.EventType == "":
		return model.InteractionEvent{}, "eventType is required"
	case in.EventName == "":
		return model.InteractionEvent{}, "eventName is required"
	case len(in.EventType) > maxEventTypeLen:
		return model.InteractionEvent{}, "eventType is too long"
	case len(in.EventName) > maxEventNameLen:
		return model.InteractionEvent{}, "eventName is too long"
	}

	ev := model.InteractionEvent{
		EventType: in.EventType,
		EventName: in.EventName,
	}
	data := bytes.TrimSpace(in.EventData)
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		var obj map[string]interface{}
		if err := json.Unmarshal(data, &obj); err != nil {
			return model.InteractionEvent{}, "eventData must be an object"
		}
		ev.EventData = datatypes.JSON(data)
	}
	return ev, ""
}

func (s *ProgressService) completeSlide(ctx context.Context, userID uint, req *ProgressEventRequest) (*ProgressResult, error) {
	if req.SlideID == 0 {
		return nil, apperr.Validation("slideId is required")
	}
	session, err := s.ownedSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	result := &ProgressResult{SessionID: session.ID}
	var awards *AwardResult

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.SessionRepo.WithTx(tx).MarkSlideCompleted(ctx, session.ID, req.SlideID, req.LessonID); err != nil {
			return err
		}
		if req.LessonID == 0 {
			return nil
		}

		progressRepo := s.ProgressRepo.WithTx(tx)
		updated, err := progressRepo.MarkCompleted(ctx, userID, req.LessonID, now)
		if err != nil {
			return err
		}
		if !updated {
			if _, err := progressRepo.Find(ctx, userID, req.LessonID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("progress not found")
				}
				return err
			}
			return apperr.Conflict("lesson already completed")
		}

		progress, err := progressRepo.Find(ctx, userID, req.LessonID)
		if err != nil {
			return err
		}

		if err := s.UserRepo.WithTx(tx).AddLearningSeconds(ctx, userID, progress.TimeSpent); err != nil {
			return err
		}

		percent, err := s.CourseService.RecomputePercent(ctx, tx, userID, progress.CourseID)
		if err != nil {
			return err
		}

		awards, err = s.AchievementService.EvaluateLessonCompletion(ctx, tx, userID, progress.CourseID)
		if err != nil {
			return err
		}

		result.LessonCompleted = true
		result.ProgressPercent = &percent
		result.Achievements = awards.Awarded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.AchievementService.Publish(ctx, awards)
	return result, nil
}

func (s *ProgressService) endSession(ctx context.Context, userID uint, req *ProgressEventRequest) (*ProgressResult, error) {
	session, err := s.ownedSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Ended() {
		return nil, apperr.Conflict("session already ended")
	}

	now := s.Now()
	duration := int(now.Sub(session.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	ended, err := s.SessionRepo.End(ctx, session.ID, now, duration)
	if err != nil {
		return nil, err
	}
	if !ended {
		return nil, apperr.Conflict("session already ended")
	}

	logger.Log.Debug("session ended",
		zap.Uint("sessionId", session.ID),
		zap.Int("duration", duration),
	)
	return &ProgressResult{SessionID: session.ID, TotalDuration: &duration}, nil
}
