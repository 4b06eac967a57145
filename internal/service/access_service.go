package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"

	"gorm.io/gorm"
)

type LessonAccess struct {
	LessonID  uint `json:"lessonId"`
	ModuleID  uint `json:"moduleId"`
	Completed bool `json:"completed"`
	Unlocked  bool `json:"unlocked"`
}

type CourseAccess struct {
	CourseID          uint           `json:"courseId"`
	UnlockedLessonIDs []uint         `json:"unlockedLessonIds"`
	Lessons           []LessonAccess `json:"lessons"`
}

type AccessService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
}

func NewAccessService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository) *AccessService {
	return &AccessService{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
	}
}

func (s *AccessService) GetAccess(ctx context.Context, userID, courseID uint) (*CourseAccess, error) {
	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, err
	}

	lessons, err := s.CourseRepo.ListLessonsInOrder(ctx, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ProgressRepo.ListByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	completed := make(map[uint]bool, len(rows))
	for _, p := range rows {
		if p.Completed {
			completed[p.LessonID] = true
		}
	}

	states := ResolveAccess(lessons, completed)
	access := &CourseAccess{
		CourseID:          courseID,
		UnlockedLessonIDs: make([]uint, 0, len(states)),
		Lessons:           states,
	}
	for _, st := range states {
		if st.Unlocked {
			access.UnlockedLessonIDs = append(access.UnlockedLessonIDs, st.LessonID)
		}
	}
	return access, nil
}

// ResolveAccess 前缀解锁：lessons 须按 章节顺序 -> 课时顺序 排好，跨章节不重置
// 一旦出现未完成的课时，之后的课时全部锁定，即使其本身已完成
func ResolveAccess(lessons []model.Lesson, completed map[uint]bool) []LessonAccess {
	out := make([]LessonAccess, 0, len(lessons))
	prevCompleted := true
	for _, l := range lessons {
		done := completed[l.ID]
		out = append(out, LessonAccess{
			LessonID:  l.ID,
			ModuleID:  l.ModuleID,
			Completed: done,
			Unlocked:  prevCompleted,
		})
		prevCompleted = prevCompleted && done
	}
	return out
}
