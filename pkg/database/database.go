package database

import (
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	applog "learnhub_backend/pkg/logger"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据配置选择驱动建立连接
func Open(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
		)
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			os.MkdirAll(dir, 0755)
		}
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
}

// Models 需要迁移的全部表
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Course{},
		&model.CourseModule{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Progress{},
		&model.CourseSession{},
		&model.SlideView{},
		&model.InteractionEvent{},
		&model.QuizAttempt{},
		&model.CourseAnalytics{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.Certificate{},
	}
}

// Migrate 建表并写入默认数据
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	return SeedDefaults(db)
}

// SeedDefaults 默认成就目录，已存在的编码不会重复写入
func SeedDefaults(db *gorm.DB) error {
	defaults := []model.Achievement{
		{Code: model.AchievementFirstLesson, Name: "初次完成课时", Icon: "🎯", EarnedXP: 20},
		{Code: model.AchievementFiveLessons, Name: "完成 5 个课时", Icon: "📘", EarnedXP: 50},
		{Code: model.AchievementTenLessons, Name: "完成 10 个课时", Icon: "📚", EarnedXP: 100},
		{Code: model.AchievementQuarterCentury, Name: "完成 25 个课时", Icon: "🏅", EarnedXP: 250},
		{Code: model.AchievementCourseComplete, Name: "完成整门课程", Icon: "🎓", EarnedXP: 200, PerCourse: true},
	}
	for _, a := range defaults {
		var count int64
		if err := db.Model(&model.Achievement{}).Where("code = ?", a.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		a := a
		if err := db.Create(&a).Error; err != nil {
			return err
		}
	}
	return nil
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, err
	}

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Database.Driver))

	// release 模式下默认不自动迁移，需显式 -migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		applog.Log.Info("Database migration completed")
	}

	return db, nil
}
