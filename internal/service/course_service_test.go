package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/testutil"
	"net/http"
	"testing"
)

func TestEnrollCreatesOneProgressRowPerLesson(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "enroll@example.com")
	course := testutil.SeedCourse(t, env.db, "go basics", 2, 3)

	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	var rows []model.Progress
	env.db.Where("user_id = ? AND course_id = ?", user.ID, course.Course.ID).Find(&rows)
	if len(rows) != len(course.Lessons) {
		t.Fatalf("progress rows: want=%d got=%d", len(course.Lessons), len(rows))
	}
	for _, r := range rows {
		if r.Completed {
			t.Fatalf("lesson %d should start incomplete", r.LessonID)
		}
	}

	_, err := env.courses.Enroll(ctx, user.ID, course.Course.ID)
	if apperr.StatusOf(err) != http.StatusConflict {
		t.Fatalf("second enroll: want 409 got %v", err)
	}
}

func TestUnenrollRemovesProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, "unenroll@example.com")
	course := testutil.SeedCourse(t, env.db, "go basics", 2)

	if err := env.courses.Unenroll(ctx, user.ID, course.Course.ID); apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("unenroll before enroll: want 404 got %v", err)
	}

	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := env.courses.Unenroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("unenroll: %v", err)
	}

	var count int64
	env.db.Model(&model.Progress{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 0 {
		t.Fatalf("progress rows after unenroll: want=0 got=%d", count)
	}

	// 退课后可以重新选课
	if _, err := env.courses.Enroll(ctx, user.ID, course.Course.ID); err != nil {
		t.Fatalf("re-enroll: %v", err)
	}
}

func TestEnrollUnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, "x@example.com")
	_, err := env.courses.Enroll(context.Background(), user.ID, 999)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Status != http.StatusNotFound {
		t.Fatalf("want 404 got %v", err)
	}
}

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		total, completed int64
		want             float64
	}{
		{0, 0, 0},
		{3, 1, 33.33},
		{4, 4, 100},
		{8, 3, 37.5},
	}
	for _, tt := range tests {
		if got := completionPercent(tt.total, tt.completed); got != tt.want {
			t.Fatalf("completionPercent(%d, %d): want=%v got=%v", tt.total, tt.completed, tt.want, got)
		}
	}
}
