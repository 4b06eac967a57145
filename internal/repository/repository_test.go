package repository_test

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/testutil"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestUpsertSlideViewAccumulatesDeltas(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewSessionRepository(db)

	user := testutil.SeedUser(t, db, "a@example.com")
	course := testutil.SeedCourse(t, db, "c", 1)
	session := &model.CourseSession{UserID: user.ID, CourseID: course.Course.ID, StartedAt: time.Now()}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	deltas := []repository.SlideViewDelta{
		{SessionID: session.ID, SlideID: 7, TimeSpent: 10, ScrollDepth: 40},
		{SessionID: session.ID, SlideID: 7, TimeSpent: 15, ScrollDepth: 20},
		{SessionID: session.ID, SlideID: 7, TimeSpent: 5, ScrollDepth: 90},
	}
	for _, d := range deltas {
		if err := repo.UpsertSlideView(ctx, d); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	views, err := repo.ListSlideViews(ctx, []uint{session.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views: want=1 got=%d", len(views))
	}
	v := views[0]
	if v.TimeSpent != 30 {
		t.Fatalf("timeSpent: want=30 got=%d", v.TimeSpent)
	}
	if v.ViewCount != 3 {
		t.Fatalf("viewCount: want=3 got=%d", v.ViewCount)
	}
	if v.ScrollDepth != 90 {
		t.Fatalf("scrollDepth: want=90 got=%v", v.ScrollDepth)
	}
	if v.Completed {
		t.Fatalf("completed: want=false")
	}
}

func TestMarkSlideCompletedConcurrentCallsShareOneRow(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewSessionRepository(db)
	user := testutil.SeedUser(t, db, "race@example.com")
	course := testutil.SeedCourse(t, db, "c", 1)
	session := &model.CourseSession{UserID: user.ID, CourseID: course.Course.ID, StartedAt: time.Now()}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := repo.MarkSlideCompleted(ctx, session.ID, 9, course.Lessons[0].ID)
			if err == nil && !view.Completed {
				err = errors.New("view not completed")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("MarkSlideCompleted: %v", err)
		}
	}

	views, err := repo.ListSlideViews(ctx, []uint{session.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || !views[0].Completed {
		t.Fatalf("views: want one completed row got %+v", views)
	}
}

func TestMarkSlideCompletedKeepsAccumulatedTime(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewSessionRepository(db)
	user := testutil.SeedUser(t, db, "keep@example.com")
	course := testutil.SeedCourse(t, db, "c", 1)
	session := &model.CourseSession{UserID: user.ID, CourseID: course.Course.ID, StartedAt: time.Now()}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := repo.UpsertSlideView(ctx, repository.SlideViewDelta{SessionID: session.ID, SlideID: 4, TimeSpent: 33, ScrollDepth: 70}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	view, err := repo.MarkSlideCompleted(ctx, session.ID, 4, 0)
	if err != nil {
		t.Fatalf("MarkSlideCompleted: %v", err)
	}
	if !view.Completed || view.TimeSpent != 33 || view.ViewCount != 1 || view.ScrollDepth != 70 {
		t.Fatalf("view: %+v", view)
	}
}

func TestSessionEndOnlyOnce(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewSessionRepository(db)
	user := testutil.SeedUser(t, db, "b@example.com")
	course := testutil.SeedCourse(t, db, "c", 1)

	start := time.Now().Add(-time.Minute)
	session := &model.CourseSession{UserID: user.ID, CourseID: course.Course.ID, StartedAt: start}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := repo.End(ctx, session.ID, time.Now(), 60)
	if err != nil || !ok {
		t.Fatalf("first end: ok=%v err=%v", ok, err)
	}
	ok, err = repo.End(ctx, session.ID, time.Now(), 90)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if ok {
		t.Fatalf("second end: expected no update")
	}

	if _, err := repo.FindByIDAndUserID(ctx, session.ID, user.ID+1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("foreign owner: want ErrRecordNotFound got=%v", err)
	}
}

func TestEnrollmentUniquePerUserCourse(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewEnrollmentRepository(db)
	user := testutil.SeedUser(t, db, "c@example.com")
	course := testutil.SeedCourse(t, db, "c", 1)

	if err := repo.Create(ctx, &model.Enrollment{UserID: user.ID, CourseID: course.Course.ID, EnrolledAt: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, &model.Enrollment{UserID: user.ID, CourseID: course.Course.ID, EnrolledAt: time.Now()})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate: want ErrDuplicatedKey got=%v", err)
	}
}

func TestListLessonsInOrderFollowsModuleThenLesson(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "c", 2, 2)

	// 调换章节顺序：第二章排到前面
	db.Model(course.Modules[0]).Update("order_index", 5)

	lessons, err := repository.NewCourseRepository(db).ListLessonsInOrder(ctx, course.Course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []uint{course.Lessons[2].ID, course.Lessons[3].ID, course.Lessons[0].ID, course.Lessons[1].ID}
	if len(lessons) != len(want) {
		t.Fatalf("lessons: want=%d got=%d", len(want), len(lessons))
	}
	for i, l := range lessons {
		if l.ID != want[i] {
			t.Fatalf("lesson[%d]: want=%d got=%d", i, want[i], l.ID)
		}
	}
}

func TestAddXPKeepsLevelInSync(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)
	user := testutil.SeedUser(t, db, "d@example.com")

	updated, err := repo.AddXP(ctx, user.ID, 450)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if updated.XP != 450 || updated.Level != 2 {
		t.Fatalf("user: want xp=450 level=2 got xp=%d level=%d", updated.XP, updated.Level)
	}
	if _, err := repo.AddXP(ctx, 9999, 10); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing user: want ErrRecordNotFound got=%v", err)
	}
}

func TestAddLearningSecondsCarriesRemainder(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)
	user := testutil.SeedUser(t, db, "minutes@example.com")

	for _, seconds := range []int{50, 50, 0, 50, -10, 50} {
		if err := repo.AddLearningSeconds(ctx, user.ID, seconds); err != nil {
			t.Fatalf("AddLearningSeconds(%d): %v", seconds, err)
		}
	}

	var stored model.User
	db.First(&stored, user.ID)
	if stored.LearningSeconds != 200 || stored.LearningMinutes != 3 {
		t.Fatalf("user: want seconds=200 minutes=3 got seconds=%d minutes=%d", stored.LearningSeconds, stored.LearningMinutes)
	}
	if err := repo.AddLearningSeconds(ctx, 9999, 10); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing user: want ErrRecordNotFound got=%v", err)
	}
}

func TestLeaderboardCacheDisabledIsNoop(t *testing.T) {
	cache := repository.NewLeaderboardCache(nil)
	cache.SetXP(context.Background(), 1, 10)
	entries, err := cache.Top(context.Background(), 5)
	if err != nil || entries != nil {
		t.Fatalf("disabled cache: entries=%v err=%v", entries, err)
	}
}
