package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).Where("published = ?", true).Order("id ASC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByID(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// FindWithOutline 加载章节与课时，均按 order_index 升序
func (r *CourseRepository) FindWithOutline(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ListLessonsInOrder 按 章节顺序 -> 课时顺序 返回课程全部课时
func (r *CourseRepository) ListLessonsInOrder(ctx context.Context, courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.WithContext(ctx).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lessons.course_id = ? AND course_modules.deleted_at IS NULL", courseID).
		Order("course_modules.order_index ASC").
		Order("course_modules.id ASC").
		Order("lessons.order_index ASC").
		Order("lessons.id ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) FindLesson(ctx context.Context, lessonID uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).First(&lesson, lessonID).Error
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}
