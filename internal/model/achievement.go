package model

import "time"

// 内置成就编码
const (
	AchievementFirstLesson    = "first_lesson"
	AchievementFiveLessons    = "five_lessons"
	AchievementTenLessons     = "ten_lessons"
	AchievementQuarterCentury = "twenty_five_lessons"
	AchievementCourseComplete = "course_complete"
)

// Achievement 成就目录
type Achievement struct {
	BaseModel
	Code     string `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Icon     string `gorm:"size:255" json:"icon"`
	EarnedXP int    `gorm:"default:0" json:"earnedXp"`
	// PerCourse 为 true 时按课程区分，CourseID 参与唯一约束
	PerCourse bool `gorm:"default:false" json:"perCourse"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement (user, achievement, course) 唯一，重复插入即冲突
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint        `gorm:"uniqueIndex:idx_user_achievement;not null" json:"userId"`
	AchievementID uint        `gorm:"uniqueIndex:idx_user_achievement;not null" json:"achievementId"`
	CourseID      uint        `gorm:"uniqueIndex:idx_user_achievement;default:0" json:"courseId"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
	EarnedAt      time.Time   `json:"earnedAt"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
