package model

import "time"

// swagger:model Course
type Course struct {
	BaseModel
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Published   bool           `gorm:"default:true" json:"published"`
	Modules     []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule 课程章节，按 OrderIndex 升序排列
type CourseModule struct {
	BaseModel
	CourseID   uint     `gorm:"index;not null" json:"courseId"`
	Title      string   `gorm:"size:255;not null" json:"title"`
	OrderIndex int      `gorm:"default:0" json:"orderIndex"`
	Lessons    []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// Lesson 章节下的课时（前端称 sub-module）
type Lesson struct {
	BaseModel
	ModuleID   uint   `gorm:"index;not null" json:"moduleId"`
	CourseID   uint   `gorm:"index;not null" json:"courseId"`
	Title      string `gorm:"size:255;not null" json:"title"`
	OrderIndex int    `gorm:"default:0" json:"orderIndex"`
	SlideCount int    `gorm:"default:0" json:"slideCount"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Enrollment 每个 (user, course) 至多一条
type Enrollment struct {
	BaseModel
	UserID          uint      `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"userId"`
	CourseID        uint      `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"courseId"`
	ProgressPercent float64   `gorm:"default:0" json:"progressPercent"`
	EnrolledAt      time.Time `json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
