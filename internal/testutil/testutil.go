package testutil

import (
	"context"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/database"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB 每个测试独立的内存 sqlite，已迁移并写入默认成就
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// 单连接避免内存库在事务中互相锁住
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, email string) *model.User {
	tb.Helper()
	u := &model.User{
		Name:     "learner",
		Email:    email,
		Password: "pw",
		Role:     model.Student,
	}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeededCourse 课程及按顺序排列的课时
type SeededCourse struct {
	Course  *model.Course
	Modules []*model.CourseModule
	Lessons []*model.Lesson
}

// SeedCourse lessonsPerModule 的每一项对应一个章节的课时数
func SeedCourse(tb testing.TB, db *gorm.DB, title string, lessonsPerModule ...int) *SeededCourse {
	tb.Helper()
	course := &model.Course{Title: title, Published: true}
	if err := db.Create(course).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	out := &SeededCourse{Course: course}
	for mi, n := range lessonsPerModule {
		m := &model.CourseModule{CourseID: course.ID, Title: fmt.Sprintf("module %d", mi+1), OrderIndex: mi + 1}
		if err := db.Create(m).Error; err != nil {
			tb.Fatalf("seed module: %v", err)
		}
		out.Modules = append(out.Modules, m)
		for li := 0; li < n; li++ {
			l := &model.Lesson{
				ModuleID:   m.ID,
				CourseID:   course.ID,
				Title:      fmt.Sprintf("lesson %d.%d", mi+1, li+1),
				OrderIndex: li + 1,
				SlideCount: 3,
			}
			if err := db.Create(l).Error; err != nil {
				tb.Fatalf("seed lesson: %v", err)
			}
			out.Lessons = append(out.Lessons, l)
		}
	}
	return out
}

// SeedProgress 直接写入课时进度，用于绕过选课流程构造场景
func SeedProgress(tb testing.TB, db *gorm.DB, userID uint, lesson *model.Lesson, completed bool, lastAccessed *time.Time) *model.Progress {
	tb.Helper()
	p := &model.Progress{
		UserID:         userID,
		LessonID:       lesson.ID,
		CourseID:       lesson.CourseID,
		Completed:      completed,
		LastAccessedAt: lastAccessed,
	}
	if completed {
		now := time.Now()
		p.CompletedAt = &now
	}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}
