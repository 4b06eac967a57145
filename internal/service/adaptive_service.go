package service

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ModeReview    = "review"
	ModeChallenge = "challenge"

	recentQuizWindow = 5
	reviewThreshold  = 70
)

// spacedIntervals 间隔重复的复习天数，必须精确命中
var spacedIntervals = map[int]bool{1: true, 3: true, 7: true, 14: true, 30: true}

type NextLesson struct {
	LessonID uint   `json:"lessonId"`
	ModuleID uint   `json:"moduleId"`
	Title    string `json:"title"`
}

type AdaptiveSuggestion struct {
	CourseID    uint        `json:"courseId"`
	NextLesson  *NextLesson `json:"nextLesson"`
	Mode        string      `json:"mode"`
	RecentScore []int       `json:"recentScores"`
	Explanation string      `json:"explanation,omitempty"`
}

type SpacedItem struct {
	LessonID       uint      `json:"lessonId"`
	Title          string    `json:"title"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	DaysSince      int       `json:"daysSince"`
}

type AdaptiveService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
	QuizRepo     *repository.QuizRepository
	AI           *AIService
	Now          func() time.Time
}

func NewAdaptiveService(
	courseRepo *repository.CourseRepository,
	progressRepo *repository.ProgressRepository,
	quizRepo *repository.QuizRepository,
	ai *AIService,
) *AdaptiveService {
	return &AdaptiveService{
		CourseRepo:   courseRepo,
		ProgressRepo: progressRepo,
		QuizRepo:     quizRepo,
		AI:           ai,
		Now:          time.Now,
	}
}

func (s *AdaptiveService) ensureCourse(ctx context.Context, courseID uint) error {
	if courseID == 0 {
		return apperr.Validation("courseId is required")
	}
	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("course not found")
		}
		return err
	}
	return nil
}

// Suggest 下一课时取顺序上第一个未完成的课时
// 最近 5 次测验（不限课时）中有低于 70 分的则为 review，否则 challenge
func (s *AdaptiveService) Suggest(ctx context.Context, userID, courseID uint, explain bool) (*AdaptiveSuggestion, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
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

	attempts, err := s.QuizRepo.RecentByUser(ctx, userID, recentQuizWindow)
	if err != nil {
		return nil, err
	}
	scores := make([]int, len(attempts))
	for i, a := range attempts {
		scores[i] = a.Score
	}

	suggestion := &AdaptiveSuggestion{
		CourseID:    courseID,
		NextLesson:  firstIncomplete(lessons, completed),
		Mode:        pickMode(scores),
		RecentScore: scores,
	}

	if explain && suggestion.NextLesson != nil {
		text, err := s.AI.Chat(ctx, "You are a concise learning coach.", explainPrompt(suggestion))
		if err != nil {
			logger.Log.Error("adaptive explanation failed", zap.Uint("userId", userID), zap.Error(err))
			return nil, apperr.Upstream("failed to generate explanation", err)
		}
		suggestion.Explanation = text
	}
	return suggestion, nil
}

func firstIncomplete(lessons []model.Lesson, completed map[uint]bool) *NextLesson {
	for _, l := range lessons {
		if !completed[l.ID] {
			return &NextLesson{LessonID: l.ID, ModuleID: l.ModuleID, Title: l.Title}
		}
	}
	return nil
}

func pickMode(recentScores []int) string {
	for _, score := range recentScores {
		if score < reviewThreshold {
			return ModeReview
		}
	}
	return ModeChallenge
}

func explainPrompt(sg *AdaptiveSuggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The learner's next lesson is %q. ", sg.NextLesson.Title)
	if len(sg.RecentScore) == 0 {
		b.WriteString("They have not taken any quizzes yet. ")
	} else {
		fmt.Fprintf(&b, "Their most recent quiz scores are %v. ", sg.RecentScore)
	}
	fmt.Fprintf(&b, "The suggested mode is %q. ", sg.Mode)
	b.WriteString("In one short paragraph, explain to the learner why this is the right next step.")
	return b.String()
}

// SpacedRepetition 距最近访问恰好 1/3/7/14/30 天的课时，按天数降序
func (s *AdaptiveService) SpacedRepetition(ctx context.Context, userID, courseID uint) ([]SpacedItem, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}

	rows, err := s.ProgressRepo.ListByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.CourseRepo.ListLessonsInOrder(ctx, courseID)
	if err != nil {
		return nil, err
	}
	titles := make(map[uint]string, len(lessons))
	for _, l := range lessons {
		titles[l.ID] = l.Title
	}

	items := DueForReview(rows, s.Now())
	for i := range items {
		items[i].Title = titles[items[i].LessonID]
	}
	return items, nil
}

// DueForReview daysSince = floor((now - lastAccessedAt) / 24h)
func DueForReview(rows []model.Progress, now time.Time) []SpacedItem {
	items := make([]SpacedItem, 0)
	for _, p := range rows {
		if p.LastAccessedAt == nil {
			continue
		}
		elapsed := now.Sub(*p.LastAccessedAt)
		if elapsed < 0 {
			continue
		}
		days := int(elapsed / (24 * time.Hour))
		if !spacedIntervals[days] {
			continue
		}
		items = append(items, SpacedItem{
			LessonID:       p.LessonID,
			LastAccessedAt: *p.LastAccessedAt,
			DaysSince:      days,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysSince > items[j].DaysSince
	})
	return items
}
