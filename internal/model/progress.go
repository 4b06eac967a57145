package model

import "time"

// Progress 每个 (user, lesson) 恰好一条，选课时批量创建
// swagger:model Progress
type Progress struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint       `gorm:"uniqueIndex:idx_progress_user_lesson;not null" json:"userId"`
	LessonID       uint       `gorm:"uniqueIndex:idx_progress_user_lesson;not null" json:"lessonId"`
	CourseID       uint       `gorm:"index;not null" json:"courseId"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	TimeSpent      int        `gorm:"default:0" json:"timeSpent"` // 秒
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Progress) TableName() string {
	return "progress"
}
