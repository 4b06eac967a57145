package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) WithTx(tx *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: tx}
}

// Create 依赖 (user_id, course_id) 唯一索引，重复选课返回 gorm.ErrDuplicatedKey
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EnrollmentRepository) Find(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	var list []model.Enrollment
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("enrolled_at DESC").Find(&list).Error
	return list, err
}

// Delete 物理删除，以便重新选课时唯一索引不受软删除记录影响
func (r *EnrollmentRepository) Delete(ctx context.Context, userID, courseID uint) (bool, error) {
	res := r.DB.WithContext(ctx).Unscoped().
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{})
	return res.RowsAffected > 0, res.Error
}

func (r *EnrollmentRepository) UpdatePercent(ctx context.Context, userID, courseID uint, percent float64) error {
	return r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("progress_percent", percent).Error
}
