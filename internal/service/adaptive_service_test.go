package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/testutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func seedQuiz(t *testing.T, env *testEnv, userID, lessonID uint, scores ...int) {
	t.Helper()
	for _, score := range scores {
		env.clock.Advance(time.Minute)
		if _, err := env.quiz.SubmitAttempt(context.Background(), userID, &QuizAttemptRequest{LessonID: lessonID, Score: intPtr(score)}); err != nil {
			t.Fatalf("quiz: %v", err)
		}
	}
}

func TestSuggestNextLessonAndMode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "ad@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 2, 2)
	l := course.Lessons
	testutil.SeedProgress(t, env.db, user.ID, l[0], true, nil)
	testutil.SeedProgress(t, env.db, user.ID, l[1], true, nil)
	testutil.SeedProgress(t, env.db, user.ID, l[2], false, nil)

	sg, err := env.adaptive.Suggest(ctx, user.ID, course.Course.ID, false)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sg.NextLesson == nil || sg.NextLesson.LessonID != l[2].ID {
		t.Fatalf("next lesson: want=%d got=%+v", l[2].ID, sg.NextLesson)
	}
	if sg.Mode != ModeChallenge {
		t.Fatalf("mode without quizzes: want=%s got=%s", ModeChallenge, sg.Mode)
	}

	seedQuiz(t, env, user.ID, l[0].ID, 65, 90, 95, 88, 91)
	sg, _ = env.adaptive.Suggest(ctx, user.ID, course.Course.ID, false)
	if sg.Mode != ModeReview {
		t.Fatalf("mode with low score in window: want=%s got=%s", ModeReview, sg.Mode)
	}

	// 新提交把 65 分挤出最近 5 次
	seedQuiz(t, env, user.ID, l[1].ID, 80)
	sg, _ = env.adaptive.Suggest(ctx, user.ID, course.Course.ID, false)
	if sg.Mode != ModeChallenge {
		t.Fatalf("mode after low score leaves window: want=%s got=%s (scores %v)", ModeChallenge, sg.Mode, sg.RecentScore)
	}
}

func TestSuggestAllCompleted(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "done@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)
	testutil.SeedProgress(t, env.db, user.ID, course.Lessons[0], true, nil)

	sg, err := env.adaptive.Suggest(context.Background(), user.ID, course.Course.ID, true)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sg.NextLesson != nil {
		t.Fatalf("next lesson: want nil got %+v", sg.NextLesson)
	}
	raw, _ := json.Marshal(sg)
	var decoded map[string]interface{}
	json.Unmarshal(raw, &decoded)
	if v, ok := decoded["nextLesson"]; !ok || v != nil {
		t.Fatalf("nextLesson should serialize as null: %s", raw)
	}
}

func TestSuggestExplain(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "ex@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Start with lesson 1.1. "}}]}`))
	}))
	defer srv.Close()
	env.ai.UpdateConfig(config.AIConfig{Enabled: true, BaseURL: srv.URL, Model: "test"})

	sg, err := env.adaptive.Suggest(context.Background(), user.ID, course.Course.ID, true)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if sg.Explanation != "Start with lesson 1.1." {
		t.Fatalf("explanation: %q", sg.Explanation)
	}
}

func TestSuggestExplainFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "fail@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	env.ai.UpdateConfig(config.AIConfig{Enabled: true, BaseURL: srv.URL})

	_, err := env.adaptive.Suggest(context.Background(), user.ID, course.Course.ID, true)
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("want 500 got %v", err)
	}

	// 未启用 AI 同样视为依赖不可用
	env.ai.UpdateConfig(config.AIConfig{})
	_, err = env.adaptive.Suggest(context.Background(), user.ID, course.Course.ID, true)
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("disabled: want 500 got %v", err)
	}
}

func TestDueForReviewExactIntervals(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}
	day := 24 * time.Hour
	rows := []model.Progress{
		{LessonID: 1, LastAccessedAt: at(6 * day)},
		{LessonID: 2, LastAccessedAt: at(7 * day)},
		{LessonID: 3, LastAccessedAt: at(8 * day)},
		{LessonID: 4, LastAccessedAt: at(day + 23*time.Hour)},
		{LessonID: 5, LastAccessedAt: at(30 * day)},
		{LessonID: 6, LastAccessedAt: nil},
		{LessonID: 7, LastAccessedAt: at(23 * time.Hour)},
	}

	items := DueForReview(rows, now)
	want := []struct {
		lesson uint
		days   int
	}{{5, 30}, {2, 7}, {4, 1}}
	if len(items) != len(want) {
		t.Fatalf("due: want=%v got=%+v", want, items)
	}
	for i, w := range want {
		if items[i].LessonID != w.lesson || items[i].DaysSince != w.days {
			t.Fatalf("due[%d]: want lesson=%d days=%d got %+v", i, w.lesson, w.days, items[i])
		}
	}
}

func TestSpacedRepetitionUnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.adaptive.SpacedRepetition(context.Background(), 1, 99); apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("want 404 got %v", err)
	}
	if _, err := env.adaptive.SpacedRepetition(context.Background(), 1, 0); apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("missing courseId: want 400 got %v", err)
	}
}
