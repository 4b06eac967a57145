// @title LearnHub 后端 API
// @version 1.0
// @description 在线学习平台：学习会话、进度上报、课时解锁、学习分析与复习建议。

// @contact.name API支持
// @contact.email support@learnhub.local

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"learnhub_backend/internal/app"
	"learnhub_backend/internal/config"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"log"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	seedFile := flag.String("seed", "", "导入课程目录 YAML 文件后退出")
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly || *seedFile != ""
	cfg.MigrateOnly = *migrateOnly
	cfg.SeedFile = *seedFile

	application := app.NewApp(cfg)
	application.ConfigDir = *configDir
	defer logger.Log.Sync()

	if cfg.SeedFile != "" {
		n, err := database.SeedCatalogFile(application.DB, cfg.SeedFile)
		if err != nil {
			logger.Log.Fatal("Failed to seed catalog", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
		logger.Log.Info("课程目录导入完成", zap.Int("courses", n))
		return
	}

	// 迁移完成后直接退出
	if cfg.MigrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}
