package model

import (
	"time"

	"gorm.io/datatypes"
)

// CourseSession 一次学习会话（进入课程到离开）
// swagger:model CourseSession
type CourseSession struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"userId"`
	CourseID      uint       `gorm:"index;not null" json:"courseId"`
	TotalSlides   int        `gorm:"default:0" json:"totalSlides"`
	StartedAt     time.Time  `gorm:"index" json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	TotalDuration int        `gorm:"default:0" json:"totalDuration"` // 秒，服务端计算
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (CourseSession) TableName() string {
	return "course_sessions"
}

// Ended 会话是否已结束
func (s *CourseSession) Ended() bool {
	return s.EndedAt != nil
}

// SlideView 每个 (session, slide) 一条，时长按增量累加
type SlideView struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   uint      `gorm:"uniqueIndex:idx_slide_view_session_slide;not null" json:"sessionId"`
	SlideID     uint      `gorm:"uniqueIndex:idx_slide_view_session_slide;not null" json:"slideId"`
	ModuleID    uint      `gorm:"index" json:"moduleId"`
	LessonID    uint      `gorm:"index" json:"lessonId"`
	TimeSpent   int       `gorm:"default:0" json:"timeSpent"`   // 秒
	ScrollDepth float64   `gorm:"default:0" json:"scrollDepth"` // 0-100，取最大值
	ViewCount   int       `gorm:"default:0" json:"viewCount"`
	Completed   bool      `gorm:"default:false" json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (SlideView) TableName() string {
	return "slide_views"
}

// InteractionEvent 交互日志，只追加不更新
type InteractionEvent struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID uint           `gorm:"index;not null" json:"sessionId"`
	EventType string         `gorm:"size:64;not null" json:"eventType"`
	EventName string         `gorm:"size:128;not null" json:"eventName"`
	EventData datatypes.JSON `json:"eventData,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (InteractionEvent) TableName() string {
	return "interaction_events"
}
