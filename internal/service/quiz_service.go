package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizAttemptRequest struct {
	LessonID uint            `json:"lessonId" binding:"required"`
	Score    *int            `json:"score" binding:"required"`
	Answers  json.RawMessage `json:"answers,omitempty" swaggertype:"object"`
}

type QuizAttemptResult struct {
	Attempt  *model.QuizAttempt `json:"attempt"`
	EarnedXP int                `json:"earnedXp"`
	TotalXP  int                `json:"totalXp"`
	Level    int                `json:"level"`
}

type QuizService struct {
	DB          *gorm.DB
	QuizRepo    *repository.QuizRepository
	CourseRepo  *repository.CourseRepository
	UserRepo    *repository.UserRepository
	Leaderboard *repository.LeaderboardCache
	Now         func() time.Time
}

func NewQuizService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	leaderboard *repository.LeaderboardCache,
) *QuizService {
	return &QuizService{
		DB:          db,
		QuizRepo:    quizRepo,
		CourseRepo:  courseRepo,
		UserRepo:    userRepo,
		Leaderboard: leaderboard,
		Now:         time.Now,
	}
}

// SubmitAttempt 记录测验成绩，并在同一事务中奖励 score/10 经验
func (s *QuizService) SubmitAttempt(ctx context.Context, userID uint, req *QuizAttemptRequest) (*QuizAttemptResult, error) {
	if req.Score == nil {
		return nil, apperr.Validation("score is required")
	}
	score := *req.Score
	if score < 0 || score > 100 {
		return nil, apperr.Validation("score must be between 0 and 100")
	}
	if _, err := s.CourseRepo.FindLesson(ctx, req.LessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("lesson not found")
		}
		return nil, err
	}

	attempt := &model.QuizAttempt{
		UserID:    userID,
		LessonID:  req.LessonID,
		Score:     score,
		CreatedAt: s.Now(),
	}
	if answers := bytes.TrimSpace(req.Answers); len(answers) > 0 && !bytes.Equal(answers, []byte("null")) {
		if !json.Valid(answers) {
			return nil, apperr.Validation("answers must be valid JSON")
		}
		attempt.Answers = datatypes.JSON(answers)
	}

	earned := score / 10
	var user *model.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.QuizRepo.WithTx(tx).Create(ctx, attempt); err != nil {
			return err
		}
		var err error
		user, err = s.UserRepo.WithTx(tx).AddXP(ctx, userID, earned)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Unauthenticated("user not found")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Leaderboard.SetXP(ctx, user.ID, user.XP)
	return &QuizAttemptResult{
		Attempt:  attempt,
		EarnedXP: earned,
		TotalXP:  user.XP,
		Level:    user.Level,
	}, nil
}
