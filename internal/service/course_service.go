package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"math"
	"time"

	"gorm.io/gorm"
)

type CourseService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
	Now            func() time.Time
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
) *CourseService {
	return &CourseService{
		DB:             db,
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
		Now:            time.Now,
	}
}

func (s *CourseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.CourseRepo.List(ctx)
}

func (s *CourseService) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindWithOutline(ctx, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("course not found")
	}
	return course, err
}

// Enroll 选课并为每个课时创建一条未完成的进度
func (s *CourseService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, err
	}

	now := s.Now()
	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: now}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.EnrollmentRepo.WithTx(tx).Create(ctx, enrollment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("already enrolled")
			}
			return err
		}

		lessons, err := s.CourseRepo.WithTx(tx).ListLessonsInOrder(ctx, courseID)
		if err != nil {
			return err
		}
		rows := make([]model.Progress, 0, len(lessons))
		for _, l := range lessons {
			rows = append(rows, model.Progress{
				UserID:   userID,
				LessonID: l.ID,
				CourseID: courseID,
			})
		}
		if err := s.ProgressRepo.WithTx(tx).CreateBatch(ctx, rows); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("already enrolled")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Unenroll 删除选课记录与该课程的全部进度
func (s *CourseService) Unenroll(ctx context.Context, userID, courseID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := s.EnrollmentRepo.WithTx(tx).Delete(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("enrollment not found")
		}
		return s.ProgressRepo.WithTx(tx).DeleteByUserCourse(ctx, userID, courseID)
	})
}

func (s *CourseService) ListEnrollments(ctx context.Context, userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(ctx, userID)
}

// RecomputePercent 按已完成课时比例更新选课进度，需在调用方事务内执行
func (s *CourseService) RecomputePercent(ctx context.Context, tx *gorm.DB, userID, courseID uint) (float64, error) {
	total, completed, err := s.ProgressRepo.WithTx(tx).CountCourse(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	percent := completionPercent(total, completed)
	if err := s.EnrollmentRepo.WithTx(tx).UpdatePercent(ctx, userID, courseID, percent); err != nil {
		return 0, err
	}
	return percent, nil
}

func completionPercent(total, completed int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)*10000/float64(total)) / 100
}
