package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// AddXP 原子增加经验并同步等级，返回更新后的用户
func (r *UserRepository) AddXP(ctx context.Context, userID uint, xp int) (*model.User, error) {
	db := r.DB.WithContext(ctx)
	res := db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", xp))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	level := model.LevelForXP(user.XP)
	if level != user.Level {
		if err := db.Model(&user).Update("level", level).Error; err != nil {
			return nil, err
		}
		user.Level = level
	}
	return &user, nil
}

// AddLearningSeconds 累加学习秒数，并按整分钟折算 learning_minutes
func (r *UserRepository) AddLearningSeconds(ctx context.Context, userID uint, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	db := r.DB.WithContext(ctx)
	res := db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("learning_seconds", gorm.Expr("learning_seconds + ?", seconds))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	var user model.User
	if err := db.Select("id", "learning_seconds", "learning_minutes").First(&user, userID).Error; err != nil {
		return err
	}
	minutes := user.LearningSeconds / 60
	if minutes == user.LearningMinutes {
		return nil
	}
	return db.Model(&model.User{}).Where("id = ?", userID).Update("learning_minutes", minutes).Error
}

// UpdateStreak 写入重新计算后的连续学习天数
func (r *UserRepository) UpdateStreak(ctx context.Context, userID uint, streak, longest int, activeDate time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"streak_days":      streak,
			"longest_streak":   longest,
			"last_active_date": activeDate,
		}).Error
}

func (r *UserRepository) FindTopByXP(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Order("xp DESC").Order("id ASC").Limit(limit).Find(&users).Error
	return users, err
}
