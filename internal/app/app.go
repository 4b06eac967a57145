package app

import (
	"context"
	"errors"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/controller"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/configwatcher"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/security"
	"learnhub_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	limiter         *security.RateLimiter
	shutdownTracing func(context.Context) error
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	enrollment  *repository.EnrollmentRepository
	progress    *repository.ProgressRepository
	session     *repository.SessionRepository
	quiz        *repository.QuizRepository
	achievement *repository.AchievementRepository
	analytics   *repository.AnalyticsRepository
	certificate *repository.CertificateRepository
	leaderboard *repository.LeaderboardCache
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	course      *service.CourseService
	access      *service.AccessService
	achievement *service.AchievementService
	progress    *service.ProgressService
	analytics   *service.AnalyticsService
	ai          *service.AIService
	adaptive    *service.AdaptiveService
	quiz        *service.QuizService
	certificate *service.CertificateService
}

type controllers struct {
	auth        *controller.AuthController
	course      *controller.CourseController
	progress    *controller.ProgressController
	analytics   *controller.AnalyticsController
	ai          *controller.AIController
	quiz        *controller.QuizController
	achievement *controller.AchievementController
	certificate *controller.CertificateController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		progress:    repository.NewProgressRepository(db),
		session:     repository.NewSessionRepository(db),
		quiz:        repository.NewQuizRepository(db),
		achievement: repository.NewAchievementRepository(db),
		analytics:   repository.NewAnalyticsRepository(db),
		certificate: repository.NewCertificateRepository(db),
		leaderboard: repository.NewLeaderboardCache(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}
	loc := cfg.Analytics.Location()

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(db, repos.course, repos.enrollment, repos.progress)
	s.access = service.NewAccessService(repos.course, repos.progress)
	s.achievement = service.NewAchievementService(repos.achievement, repos.user, repos.progress, repos.leaderboard)
	s.progress = service.NewProgressService(db, repos.session, repos.progress, repos.course, repos.user, s.course, s.achievement, loc)
	s.analytics = service.NewAnalyticsService(repos.course, repos.session, repos.analytics, loc)
	s.ai = service.NewAIService(cfg.AI)
	s.adaptive = service.NewAdaptiveService(repos.course, repos.progress, repos.quiz, s.ai)
	s.quiz = service.NewQuizService(db, repos.quiz, repos.course, repos.user, repos.leaderboard)
	s.certificate = service.NewCertificateService(repos.certificate, repos.course, repos.progress, repos.user, s.storage)

	// AI 配置支持热更新
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
	})
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		course:      controller.NewCourseController(s.course, s.access),
		progress:    controller.NewProgressController(s.progress),
		analytics:   controller.NewAnalyticsController(s.analytics),
		ai:          controller.NewAIController(s.adaptive),
		quiz:        controller.NewQuizController(s.quiz),
		achievement: controller.NewAchievementController(s.achievement),
		certificate: controller.NewCertificateController(s.certificate),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, window)
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 基于已建立的连接组装路由，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config:    cfg,
		ConfigDir: "configs",
		DB:        db,
		Redis:     rdb,
	}

	repos := app.initRepositories(db, rdb)
	app.services = app.initServices(repos, cfg, db)
	controllers := app.initControllers(app.services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == gin.DebugMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 排行榜缓存可选，连接失败时退回数据库
		logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		rdb = nil
	}

	var shutdown func(context.Context) error
	if cfg.Tracing.Enabled {
		shutdown, err = tracing.InitTracer(context.Background(), &cfg.Tracing)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)
	app.shutdownTracing = shutdown
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopCleanup := make(chan struct{})
	a.limiter.StartCleanup(stopCleanup)
	defer close(stopCleanup)

	if err := configwatcher.WatchConfig(ctx, a.ConfigDir, a.applyConfig); err != nil {
		logger.Log.Warn("Config watcher disabled", zap.Error(err))
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("listen failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}
