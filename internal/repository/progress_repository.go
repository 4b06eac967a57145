package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

func (r *ProgressRepository) CreateBatch(ctx context.Context, rows []model.Progress) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(rows, 100).Error
}

func (r *ProgressRepository) ListByUserCourse(ctx context.Context, userID, courseID uint) ([]model.Progress, error) {
	var rows []model.Progress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *ProgressRepository) Find(ctx context.Context, userID, lessonID uint) (*model.Progress, error) {
	var p model.Progress
	err := r.DB.WithContext(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkCompleted 条件更新：只有 completed=false 的行会被修改
// 返回 false 表示该行已完成（或不存在），由调用方区分
func (r *ProgressRepository) MarkCompleted(ctx context.Context, userID, lessonID uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Progress{}).
		Where("user_id = ? AND lesson_id = ? AND completed = ?", userID, lessonID, false).
		Updates(map[string]interface{}{
			"completed":        true,
			"completed_at":     at,
			"last_accessed_at": at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TouchAccess 累加学习时长并刷新最近访问时间
func (r *ProgressRepository) TouchAccess(ctx context.Context, userID, lessonID uint, delta int, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Progress{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Updates(map[string]interface{}{
			"time_spent":       gorm.Expr("time_spent + ?", delta),
			"last_accessed_at": at,
			"updated_at":       at,
		}).Error
}

func (r *ProgressRepository) CountCompleted(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Progress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) CountCourse(ctx context.Context, userID, courseID uint) (total, completed int64, err error) {
	db := r.DB.WithContext(ctx).Model(&model.Progress{})
	if err = db.Where("user_id = ? AND course_id = ?", userID, courseID).Count(&total).Error; err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&model.Progress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&completed).Error
	return
}

func (r *ProgressRepository) DeleteByUserCourse(ctx context.Context, userID, courseID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Progress{}).Error
}
