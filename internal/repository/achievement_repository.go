package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

func (r *AchievementRepository) FindByCode(ctx context.Context, code string) (*model.Achievement, error) {
	var a model.Achievement
	err := r.DB.WithContext(ctx).Where("code = ?", code).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Award 插入获得记录，(user, achievement, course) 重复时返回 gorm.ErrDuplicatedKey
func (r *AchievementRepository) Award(ctx context.Context, userID, achievementID, courseID uint, at time.Time) (*model.UserAchievement, error) {
	ua := &model.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		CourseID:      courseID,
		EarnedAt:      at,
	}
	if err := r.DB.WithContext(ctx).Create(ua).Error; err != nil {
		return nil, err
	}
	return ua, nil
}

func (r *AchievementRepository) Has(ctx context.Context, userID, achievementID, courseID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND course_id = ?", userID, achievementID, courseID).
		Count(&count).Error
	return count > 0, err
}

func (r *AchievementRepository) FindByUserID(ctx context.Context, userID uint) ([]model.UserAchievement, error) {
	var list []model.UserAchievement
	err := r.DB.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Order("id DESC").
		Find(&list).Error
	return list, err
}
