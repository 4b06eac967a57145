package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuizAttempt 每次测验提交一条，分数 0-100
type QuizAttempt struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"userId"`
	LessonID  uint           `gorm:"index;not null" json:"lessonId"`
	Answers   datatypes.JSON `json:"answers,omitempty"`
	Score     int            `gorm:"not null" json:"score"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
