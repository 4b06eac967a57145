package model

import "time"

// Certificate 课程结业证书，ID 作为公开校验码
type Certificate struct {
	UUIDBase
	UserID   uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"userId"`
	CourseID uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"courseId"`
	FileURL  string    `gorm:"size:512" json:"fileUrl"`
	IssuedAt time.Time `json:"issuedAt"`
}

func (Certificate) TableName() string {
	return "certificates"
}
