package model

import (
	"time"

	"gorm.io/datatypes"
)

// CourseAnalytics 每个 (user, course) 一条汇总，读取时重新计算并覆盖
type CourseAnalytics struct {
	ID                     uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                 uint           `gorm:"uniqueIndex:idx_course_analytics_user_course;not null" json:"userId"`
	CourseID               uint           `gorm:"uniqueIndex:idx_course_analytics_user_course;not null" json:"courseId"`
	TotalSessions          int            `json:"totalSessions"`
	CompletedSessions      int            `json:"completedSessions"`
	AverageSessionDuration float64        `json:"averageSessionDuration"`
	TotalTimeSpent         int            `json:"totalTimeSpent"`
	Snapshot               datatypes.JSON `json:"snapshot,omitempty"`
	ComputedAt             time.Time      `json:"computedAt"`
}

func (CourseAnalytics) TableName() string {
	return "course_analytics"
}
