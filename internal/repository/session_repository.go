package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) WithTx(tx *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: tx}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.CourseSession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) FindByIDAndUserID(ctx context.Context, sessionID, userID uint) (*model.CourseSession, error) {
	var session model.CourseSession
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// End 只结束尚未结束的会话，返回 false 表示已被结束
func (r *SessionRepository) End(ctx context.Context, sessionID uint, endedAt time.Time, duration int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.CourseSession{}).
		Where("id = ? AND ended_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"ended_at":       endedAt,
			"total_duration": duration,
			"updated_at":     endedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SessionRepository) ListByUserCourse(ctx context.Context, userID, courseID uint) ([]model.CourseSession, error) {
	var sessions []model.CourseSession
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("id ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListByUserSince 用户在 since 之后开始的全部会话
func (r *SessionRepository) ListByUserSince(ctx context.Context, userID uint, since time.Time) ([]model.CourseSession, error) {
	var sessions []model.CourseSession
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND started_at >= ?", userID, since).
		Order("started_at ASC").
		Order("id ASC").
		Find(&sessions).Error
	return sessions, err
}

// SlideViewDelta 一次幻灯片浏览上报，TimeSpent 为增量
type SlideViewDelta struct {
	SessionID   uint
	SlideID     uint
	ModuleID    uint
	LessonID    uint
	TimeSpent   int
	ScrollDepth float64
	Completed   bool
}

// UpsertSlideView (session, slide) 冲突时累加时长与次数，滚动深度取最大
func (r *SessionRepository) UpsertSlideView(ctx context.Context, d SlideViewDelta) error {
	now := time.Now()
	view := &model.SlideView{
		SessionID:   d.SessionID,
		SlideID:     d.SlideID,
		ModuleID:    d.ModuleID,
		LessonID:    d.LessonID,
		TimeSpent:   d.TimeSpent,
		ScrollDepth: d.ScrollDepth,
		ViewCount:   1,
		Completed:   d.Completed,
	}

	updates := map[string]interface{}{
		"time_spent": gorm.Expr("slide_views.time_spent + ?", d.TimeSpent),
		"view_count": gorm.Expr("slide_views.view_count + ?", 1),
		"scroll_depth": gorm.Expr(
			"CASE WHEN slide_views.scroll_depth < ? THEN ? ELSE slide_views.scroll_depth END",
			d.ScrollDepth, d.ScrollDepth,
		),
		"updated_at": now,
	}
	if d.Completed {
		updates["completed"] = true
	}

	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "slide_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(view).Error
}

// MarkSlideCompleted 标记完成，记录不存在时创建；并发重复上报由唯一索引冲突合并
func (r *SessionRepository) MarkSlideCompleted(ctx context.Context, sessionID, slideID, lessonID uint) (*model.SlideView, error) {
	db := r.DB.WithContext(ctx)
	row := &model.SlideView{
		SessionID: sessionID,
		SlideID:   slideID,
		LessonID:  lessonID,
		ViewCount: 1,
		Completed: true,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "slide_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed":  true,
			"updated_at": time.Now(),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	var view model.SlideView
	if err := db.Where("session_id = ? AND slide_id = ?", sessionID, slideID).First(&view).Error; err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *SessionRepository) ListSlideViews(ctx context.Context, sessionIDs []uint) ([]model.SlideView, error) {
	var views []model.SlideView
	if len(sessionIDs) == 0 {
		return views, nil
	}
	err := r.DB.WithContext(ctx).Where("session_id IN ?", sessionIDs).Order("id ASC").Find(&views).Error
	return views, err
}

func (r *SessionRepository) CreateInteractions(ctx context.Context, events []model.InteractionEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(events, 100).Error
}

func (r *SessionRepository) ListInteractions(ctx context.Context, sessionIDs []uint) ([]model.InteractionEvent, error) {
	var events []model.InteractionEvent
	if len(sessionIDs) == 0 {
		return events, nil
	}
	err := r.DB.WithContext(ctx).Where("session_id IN ?", sessionIDs).Order("id ASC").Find(&events).Error
	return events, err
}
