package service

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderboardRebuildSize = 1000

// lessonMilestones 完成课时数达到阈值时颁发的成就
var lessonMilestones = []struct {
	Code      string
	Threshold int64
}{
	{model.AchievementFirstLesson, 1},
	{model.AchievementFiveLessons, 5},
	{model.AchievementTenLessons, 10},
	{model.AchievementQuarterCentury, 25},
}

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	UserRepo        *repository.UserRepository
	ProgressRepo    *repository.ProgressRepository
	Leaderboard     *repository.LeaderboardCache
	Now             func() time.Time
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	userRepo *repository.UserRepository,
	progressRepo *repository.ProgressRepository,
	leaderboard *repository.LeaderboardCache,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		UserRepo:        userRepo,
		ProgressRepo:    progressRepo,
		Leaderboard:     leaderboard,
		Now:             time.Now,
	}
}

type UserAchievements struct {
	TotalXP      int                     `json:"totalXp"`
	CurrentLevel int                     `json:"currentLevel"`
	NextLevelXP  int                     `json:"nextLevelXp"`
	StreakDays   int                     `json:"streakDays"`
	Longest      int                     `json:"longestStreak"`
	Badges       []model.UserAchievement `json:"badges"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"userId"`
	User   string `json:"user"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
}

type awardCandidate struct {
	code     string
	courseID uint
}

// AwardResult 一次事务内颁发的成就以及更新后的用户
type AwardResult struct {
	Awarded []model.UserAchievement
	User    *model.User
}

func (s *AchievementService) GetUserAchievements(ctx context.Context, userID uint) (*UserAchievements, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	badges, err := s.AchievementRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserAchievements{
		TotalXP:      user.XP,
		CurrentLevel: user.Level,
		NextLevelXP:  (user.Level + 1) * model.XPPerLevel,
		StreakDays:   user.StreakDays,
		Longest:      user.LongestStreak,
		Badges:       badges,
	}, nil
}

// GetLeaderboard 优先读 Redis，缓存为空或不可用时回落到数据库并回填
func (s *AchievementService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	cached, err := s.Leaderboard.Top(ctx, limit)
	if err != nil {
		logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
	}
	if len(cached) > 0 {
		ids := make([]uint, 0, len(cached))
		for _, e := range cached {
			ids = append(ids, e.UserID)
		}
		users, err := s.UserRepo.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uint]model.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		entries := make([]LeaderboardEntry, 0, len(cached))
		for _, e := range cached {
			u, ok := byID[e.UserID]
			if !ok {
				continue
			}
			entries = append(entries, LeaderboardEntry{
				Rank:   len(entries) + 1,
				UserID: u.ID,
				User:   u.Name,
				XP:     e.XP,
				Level:  model.LevelForXP(e.XP),
			})
		}
		return entries, nil
	}

	users, err := s.UserRepo.FindTopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.Leaderboard.Warm(ctx, users)

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Rank:   i + 1,
			UserID: u.ID,
			User:   u.Name,
			XP:     u.XP,
			Level:  u.Level,
		}
	}
	return entries, nil
}

// RebuildLeaderboard 从数据库全量重建缓存，返回写入人数
func (s *AchievementService) RebuildLeaderboard(ctx context.Context) (int, error) {
	if !s.Leaderboard.Enabled() {
		return 0, nil
	}
	users, err := s.UserRepo.FindTopByXP(ctx, leaderboardRebuildSize)
	if err != nil {
		return 0, err
	}
	if err := s.Leaderboard.Reset(ctx); err != nil {
		return 0, apperr.Upstream("leaderboard cache unavailable", err)
	}
	s.Leaderboard.Warm(ctx, users)
	return len(users), nil
}

// EvaluateLessonCompletion 在调用方事务内评估课时完成后的成就
// 每个成就插入一条 UserAchievement 并增加经验；唯一索引冲突返回 409
func (s *AchievementService) EvaluateLessonCompletion(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*AwardResult, error) {
	progressRepo := s.ProgressRepo.WithTx(tx)
	achievementRepo := s.AchievementRepo.WithTx(tx)
	userRepo := s.UserRepo.WithTx(tx)
	now := s.Now()

	completed, err := progressRepo.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	var candidates []awardCandidate
	for _, m := range lessonMilestones {
		if completed >= m.Threshold {
			candidates = append(candidates, awardCandidate{m.Code, 0})
		}
	}

	total, done, err := progressRepo.CountCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if total > 0 && done == total {
		candidates = append(candidates, awardCandidate{model.AchievementCourseComplete, courseID})
	}

	result := &AwardResult{}
	for _, c := range candidates {
		ach, err := achievementRepo.FindByCode(ctx, c.code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Warn("achievement not seeded", zap.String("code", c.code))
			continue
		}
		if err != nil {
			return nil, err
		}

		has, err := achievementRepo.Has(ctx, userID, ach.ID, c.courseID)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}

		ua, err := achievementRepo.Award(ctx, userID, ach.ID, c.courseID, now)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("achievement already awarded")
		}
		if err != nil {
			return nil, fmt.Errorf("award %s: %w", c.code, err)
		}
		ua.Achievement = *ach

		if ach.EarnedXP > 0 {
			user, err := userRepo.AddXP(ctx, userID, ach.EarnedXP)
			if err != nil {
				return nil, err
			}
			result.User = user
		}
		result.Awarded = append(result.Awarded, *ua)
	}
	return result, nil
}

// Publish 事务提交后调用：记录指标并刷新排行榜缓存
func (s *AchievementService) Publish(ctx context.Context, result *AwardResult) {
	if result == nil {
		return
	}
	for _, ua := range result.Awarded {
		monitoring.AchievementsAwarded.WithLabelValues(ua.Achievement.Code).Inc()
		logger.Log.Info("achievement awarded",
			zap.Uint("userId", ua.UserID),
			zap.String("code", ua.Achievement.Code),
			zap.Uint("courseId", ua.CourseID),
		)
	}
	if result.User != nil {
		s.Leaderboard.SetXP(ctx, result.User.ID, result.User.XP)
	}
}
