package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/testutil"
	"net/http"
	"sync"
	"testing"
	"time"
)

func startSession(t *testing.T, env *testEnv, userID, courseID uint) uint {
	t.Helper()
	res, err := env.progress.Ingest(context.Background(), userID, &ProgressEventRequest{
		Type:        EventSessionStart,
		CourseID:    courseID,
		TotalSlides: intPtr(12),
	})
	if err != nil {
		t.Fatalf("session_start: %v", err)
	}
	if res.SessionID == 0 {
		t.Fatalf("session_start: missing sessionId")
	}
	return res.SessionID
}

func TestSessionStartEndRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "round@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)

	sessionID := startSession(t, env, user.ID, course.Course.ID)
	env.clock.Advance(95 * time.Second)

	res, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventSessionEnd,
		SessionID: sessionID,
		Duration:  intPtr(99999),
	})
	if err != nil {
		t.Fatalf("session_end: %v", err)
	}
	if res.TotalDuration == nil || *res.TotalDuration != 95 {
		t.Fatalf("duration: want=95 got=%v", res.TotalDuration)
	}

	var session model.CourseSession
	env.db.First(&session, sessionID)
	if session.EndedAt == nil || session.TotalDuration != 95 {
		t.Fatalf("stored session: %+v", session)
	}

	_, err = env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{Type: EventSessionEnd, SessionID: sessionID})
	if apperr.StatusOf(err) != http.StatusConflict {
		t.Fatalf("second end: want 409 got %v", err)
	}
}

func TestSessionStartValidation(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "v@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)

	tests := []struct {
		name   string
		req    ProgressEventRequest
		status int
	}{
		{"missing course", ProgressEventRequest{Type: EventSessionStart, TotalSlides: intPtr(1)}, http.StatusBadRequest},
		{"missing totalSlides", ProgressEventRequest{Type: EventSessionStart, CourseID: course.Course.ID}, http.StatusBadRequest},
		{"negative totalSlides", ProgressEventRequest{Type: EventSessionStart, CourseID: course.Course.ID, TotalSlides: intPtr(-1)}, http.StatusBadRequest},
		{"unknown course", ProgressEventRequest{Type: EventSessionStart, CourseID: 999, TotalSlides: intPtr(1)}, http.StatusNotFound},
		{"unknown type", ProgressEventRequest{Type: "bogus"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.progress.Ingest(context.Background(), user.ID, &req)
			if apperr.StatusOf(err) != tt.status {
				t.Fatalf("want %d got %v", tt.status, err)
			}
		})
	}
}

func TestForeignSessionIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.SeedUser(t, env.db, "owner@example.com")
	other := testutil.SeedUser(t, env.db, "other@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)
	sessionID := startSession(t, env, owner.ID, course.Course.ID)

	for _, typ := range []string{EventSlideView, EventInteraction, EventSlideComplete, EventSessionEnd} {
		req := &ProgressEventRequest{
			Type:      typ,
			SessionID: sessionID,
			SlideID:   1,
			EventType: "click",
			EventName: "next",
		}
		_, err := env.progress.Ingest(context.Background(), other.ID, req)
		if apperr.StatusOf(err) != http.StatusNotFound {
			t.Fatalf("%s by non-owner: want 404 got %v", typ, err)
		}
	}
}

func TestSlideViewAccumulatesAndTouchesProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "view@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)
	lesson := course.Lessons[0]
	testutil.SeedProgress(t, env.db, user.ID, lesson, false, nil)
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	for _, delta := range []int{12, 30} {
		_, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
			Type:        EventSlideView,
			SessionID:   sessionID,
			SlideID:     3,
			LessonID:    lesson.ID,
			TimeSpent:   intPtr(delta),
			ScrollDepth: floatPtr(55),
		})
		if err != nil {
			t.Fatalf("slide_view: %v", err)
		}
	}

	var view model.SlideView
	env.db.Where("session_id = ? AND slide_id = ?", sessionID, 3).First(&view)
	if view.TimeSpent != 42 || view.ViewCount != 2 {
		t.Fatalf("slide view: want time=42 views=2 got time=%d views=%d", view.TimeSpent, view.ViewCount)
	}

	var p model.Progress
	env.db.Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).First(&p)
	if p.TimeSpent != 42 || p.LastAccessedAt == nil {
		t.Fatalf("progress: want time=42 and lastAccessedAt set got %+v", p)
	}

	_, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:        EventSlideView,
		SessionID:   sessionID,
		SlideID:     3,
		ScrollDepth: floatPtr(120),
	})
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("scrollDepth 120: want 400 got %v", err)
	}
	_, err = env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventSlideView,
		SessionID: sessionID,
		SlideID:   3,
		TimeSpent: intPtr(-5),
	})
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("negative timeSpent: want 400 got %v", err)
	}
}

func TestInteractionSingleAndBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "ix@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	_, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventInteraction,
		SessionID: sessionID,
		EventName: "missing type",
	})
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("malformed single: want 400 got %v", err)
	}

	_, err = env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventInteraction,
		SessionID: sessionID,
		EventType: "click",
		EventName: "next",
		EventData: json.RawMessage(`[1,2]`),
	})
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("array eventData: want 400 got %v", err)
	}

	res, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventInteraction,
		SessionID: sessionID,
		Events: []json.RawMessage{
			json.RawMessage(`{"eventType":"click","eventName":"next"}`),
			json.RawMessage(`{"eventName":"orphan"}`),
			json.RawMessage(`"not an object"`),
			json.RawMessage(`{"eventType":"quiz","eventName":"answer","eventData":{"choice":"b"}}`),
			json.RawMessage(`{"eventType":"quiz","eventName":"answer","eventData":"text"}`),
		},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if res.Inserted != 2 {
		t.Fatalf("inserted: want=2 got=%d", res.Inserted)
	}
	wantRejected := []int{1, 2, 4}
	if len(res.Rejected) != len(wantRejected) {
		t.Fatalf("rejected: want=%v got=%+v", wantRejected, res.Rejected)
	}
	for i, r := range res.Rejected {
		if r.Index != wantRejected[i] || r.Reason == "" {
			t.Fatalf("rejected[%d]: want index=%d got %+v", i, wantRejected[i], r)
		}
	}

	var count int64
	env.db.Model(&model.InteractionEvent{}).Where("session_id = ?", sessionID).Count(&count)
	if count != 2 {
		t.Fatalf("stored events: want=2 got=%d", count)
	}
}

func TestSlideCompleteAwardsOnceThenConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "complete@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 2)
	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	lesson := course.Lessons[0]
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	_, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventSlideView,
		SessionID: sessionID,
		SlideID:   10,
		LessonID:  lesson.ID,
		TimeSpent: intPtr(150),
	})
	if err != nil {
		t.Fatalf("slide_view: %v", err)
	}

	complete := &ProgressEventRequest{Type: EventSlideComplete, SessionID: sessionID, SlideID: 10, LessonID: lesson.ID}
	res, err := env.progress.Ingest(ctx, user.ID, complete)
	if err != nil {
		t.Fatalf("first slide_complete: %v", err)
	}
	if !res.LessonCompleted || res.ProgressPercent == nil || *res.ProgressPercent != 50 {
		t.Fatalf("result: %+v", res)
	}
	if len(res.Achievements) != 1 || res.Achievements[0].Achievement.Code != model.AchievementFirstLesson {
		t.Fatalf("achievements: %+v", res.Achievements)
	}

	_, err = env.progress.Ingest(ctx, user.ID, complete)
	if apperr.StatusOf(err) != http.StatusConflict {
		t.Fatalf("second slide_complete: want 409 got %v", err)
	}

	var stored model.User
	env.db.First(&stored, user.ID)
	if stored.XP != 20 {
		t.Fatalf("xp: want=20 got=%d", stored.XP)
	}
	if stored.LearningMinutes != 2 {
		t.Fatalf("learning minutes: want=2 got=%d", stored.LearningMinutes)
	}
	var awards int64
	env.db.Model(&model.UserAchievement{}).Where("user_id = ?", user.ID).Count(&awards)
	if awards != 1 {
		t.Fatalf("awards: want=1 got=%d", awards)
	}
}

func TestLearningMinutesCountShortSlides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "short@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 2)
	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	lesson := course.Lessons[0]
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	view := func(slideID uint, seconds int) {
		t.Helper()
		_, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
			Type:      EventSlideView,
			SessionID: sessionID,
			SlideID:   slideID,
			LessonID:  lesson.ID,
			TimeSpent: intPtr(seconds),
		})
		if err != nil {
			t.Fatalf("slide_view %d: %v", slideID, err)
		}
	}
	for slideID := uint(1); slideID <= 4; slideID++ {
		view(slideID, 50)
	}
	_, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
		Type:      EventSlideComplete,
		SessionID: sessionID,
		SlideID:   4,
		LessonID:  lesson.ID,
	})
	if err != nil {
		t.Fatalf("slide_complete: %v", err)
	}

	var stored model.User
	env.db.First(&stored, user.ID)
	if stored.LearningMinutes != 3 {
		t.Fatalf("after completion: want=3 got=%d", stored.LearningMinutes)
	}

	// 复习已完成课时同样计入
	view(2, 30)
	env.db.First(&stored, user.ID)
	if stored.LearningMinutes != 3 || stored.LearningSeconds != 230 {
		t.Fatalf("after review: want minutes=3 seconds=230 got minutes=%d seconds=%d", stored.LearningMinutes, stored.LearningSeconds)
	}
	view(3, 10)
	env.db.First(&stored, user.ID)
	if stored.LearningMinutes != 4 {
		t.Fatalf("after second review: want=4 got=%d", stored.LearningMinutes)
	}
}

func TestConcurrentSlideCompleteAwardsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "twice@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 2)
	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	lesson := course.Lessons[0]
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
				Type:      EventSlideComplete,
				SessionID: sessionID,
				SlideID:   10,
				LessonID:  lesson.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.StatusOf(err) == http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("slide_complete: unexpected error %v", err)
		}
	}
	if succeeded != 1 || conflicts != 1 {
		t.Fatalf("want one success and one conflict got success=%d conflict=%d", succeeded, conflicts)
	}

	var stored model.User
	env.db.First(&stored, user.ID)
	if stored.XP != 20 {
		t.Fatalf("xp: want=20 got=%d", stored.XP)
	}
	var views int64
	env.db.Model(&model.SlideView{}).Where("session_id = ? AND slide_id = ?", sessionID, 10).Count(&views)
	if views != 1 {
		t.Fatalf("slide views: want=1 got=%d", views)
	}
}

func TestCompletingLastLessonAwardsCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "finish@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1, 1)
	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	var last *ProgressResult
	for i, lesson := range course.Lessons {
		res, err := env.progress.Ingest(ctx, user.ID, &ProgressEventRequest{
			Type:      EventSlideComplete,
			SessionID: sessionID,
			SlideID:   uint(100 + i),
			LessonID:  lesson.ID,
		})
		if err != nil {
			t.Fatalf("slide_complete %d: %v", i, err)
		}
		last = res
	}

	if *last.ProgressPercent != 100 {
		t.Fatalf("percent: want=100 got=%v", *last.ProgressPercent)
	}
	if len(last.Achievements) != 1 || last.Achievements[0].Achievement.Code != model.AchievementCourseComplete {
		t.Fatalf("achievements: %+v", last.Achievements)
	}
	if last.Achievements[0].CourseID != course.Course.ID {
		t.Fatalf("course achievement course id: want=%d got=%d", course.Course.ID, last.Achievements[0].CourseID)
	}

	var enrollment model.Enrollment
	env.db.Where("user_id = ? AND course_id = ?", user.ID, course.Course.ID).First(&enrollment)
	if enrollment.ProgressPercent != 100 {
		t.Fatalf("enrollment percent: want=100 got=%v", enrollment.ProgressPercent)
	}

	var stored model.User
	env.db.First(&stored, user.ID)
	if stored.XP != 220 || stored.Level != 1 {
		t.Fatalf("user: want xp=220 level=1 got xp=%d level=%d", stored.XP, stored.Level)
	}
}

func TestSlideCompleteWithoutProgressRow(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "np@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)
	sessionID := startSession(t, env, user.ID, course.Course.ID)

	_, err := env.progress.Ingest(context.Background(), user.ID, &ProgressEventRequest{
		Type:      EventSlideComplete,
		SessionID: sessionID,
		SlideID:   1,
		LessonID:  course.Lessons[0].ID,
	})
	if apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("want 404 got %v", err)
	}

	// 事务回滚，幻灯片不应被标记完成
	var count int64
	env.db.Model(&model.SlideView{}).Where("session_id = ?", sessionID).Count(&count)
	if count != 0 {
		t.Fatalf("slide views after rollback: want=0 got=%d", count)
	}
}

func TestNextStreak(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, loc)
	day := func(offset int) *time.Time {
		d := time.Date(2024, 3, 10+offset, 0, 0, 0, 0, loc)
		return &d
	}

	tests := []struct {
		name        string
		current     int
		longest     int
		last        *time.Time
		wantStreak  int
		wantLongest int
	}{
		{"first activity", 0, 0, nil, 1, 1},
		{"same day", 4, 6, day(0), 4, 6},
		{"consecutive day", 4, 4, day(-1), 5, 5},
		{"gap resets", 9, 9, day(-3), 1, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streak, longest, today := NextStreak(tt.current, tt.longest, tt.last, now, loc)
			if streak != tt.wantStreak || longest != tt.wantLongest {
				t.Fatalf("want (%d,%d) got (%d,%d)", tt.wantStreak, tt.wantLongest, streak, longest)
			}
			if !today.Equal(*day(0)) {
				t.Fatalf("today: got %v", today)
			}
		})
	}
}

func TestSessionStartUpdatesStreak(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "streak@example.com")
	course := testutil.SeedCourse(t, env.db, "c", 1)

	startSession(t, env, user.ID, course.Course.ID)
	env.clock.Advance(24 * time.Hour)
	startSession(t, env, user.ID, course.Course.ID)

	var stored model.User
	env.db.First(&stored, user.ID)
	if stored.StreakDays != 2 || stored.LongestStreak != 2 {
		t.Fatalf("streak: want 2/2 got %d/%d", stored.StreakDays, stored.LongestStreak)
	}
}
