package model

import (
	"time"
)

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

// XPPerLevel 每级所需经验
const XPPerLevel = 200

// swagger:model User
type User struct {
	BaseModel
	Name            string     `gorm:"size:100;not null" json:"name"`
	Email           string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password        string     `gorm:"size:100;not null" json:"-"`
	Role            UserRole   `gorm:"size:20;default:'student'" json:"role"`
	XP              int        `gorm:"default:0" json:"xp"`
	Level           int        `gorm:"default:0" json:"level"`
	StreakDays      int        `gorm:"default:0" json:"streakDays"`    // 当前连续学习天数
	LongestStreak   int        `gorm:"default:0" json:"longestStreak"` // 历史最长连续天数
	LastActiveDate  *time.Time `json:"lastActiveDate,omitempty"`
	LearningMinutes int        `gorm:"default:0" json:"learningMinutes"`
	LearningSeconds int        `gorm:"default:0" json:"-"` // 分钟数由累计秒数折算
	Disabled        bool       `gorm:"default:false" json:"disabled"`
}

func (User) TableName() string {
	return "users"
}

// LevelForXP 简单等级计算：每 XPPerLevel 经验升一级
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 0
	}
	return xp / XPPerLevel
}
