package service

import (
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/testutil"
	"testing"
	"time"

	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	clock       *fakeClock
	courses     *CourseService
	progress    *ProgressService
	access      *AccessService
	analytics   *AnalyticsService
	adaptive    *AdaptiveService
	achievement *AchievementService
	quiz        *QuizService
	certs       *CertificateService
	ai          *AIService
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	clock := &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	leaderboard := repository.NewLeaderboardCache(nil)

	env := &testEnv{db: db, clock: clock}
	env.courses = NewCourseService(db, courseRepo, enrollmentRepo, progressRepo)
	env.courses.Now = clock.Now
	env.achievement = NewAchievementService(achievementRepo, userRepo, progressRepo, leaderboard)
	env.achievement.Now = clock.Now
	env.progress = NewProgressService(db, sessionRepo, progressRepo, courseRepo, userRepo, env.courses, env.achievement, time.UTC)
	env.progress.Now = clock.Now
	env.access = NewAccessService(courseRepo, progressRepo)
	env.analytics = NewAnalyticsService(courseRepo, sessionRepo, analyticsRepo, time.UTC)
	env.analytics.Now = clock.Now
	env.ai = NewAIService(config.AIConfig{})
	env.adaptive = NewAdaptiveService(courseRepo, progressRepo, quizRepo, env.ai)
	env.adaptive.Now = clock.Now
	env.quiz = NewQuizService(db, quizRepo, courseRepo, userRepo, leaderboard)
	env.quiz.Now = clock.Now
	storage := NewStorageService(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	env.certs = NewCertificateService(certRepo, courseRepo, progressRepo, userRepo, storage)
	env.certs.Now = clock.Now
	return env
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
