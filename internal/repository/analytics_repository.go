package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// Upsert 覆盖 (user, course) 的汇总行
func (r *AnalyticsRepository) Upsert(ctx context.Context, row *model.CourseAnalytics) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_sessions",
			"completed_sessions",
			"average_session_duration",
			"total_time_spent",
			"snapshot",
			"computed_at",
		}),
	}).Create(row).Error
}

func (r *AnalyticsRepository) Find(ctx context.Context, userID, courseID uint) (*model.CourseAnalytics, error) {
	var row model.CourseAnalytics
	err := r.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
