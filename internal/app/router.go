package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.Config.JWT.Secret))
	{
		a.registerLearnerRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/certificates/:id/verify", c.certificate.Verify)
	}
}

func (a *App) registerLearnerRoutes(api *gin.RouterGroup, c *controllers) {
	api.GET("/me", c.auth.Me)

	// 课程
	api.GET("/courses", c.course.ListCourses)
	api.GET("/courses/:courseId", c.course.GetCourse)
	api.POST("/courses/:courseId/enroll", c.course.Enroll)
	api.DELETE("/courses/:courseId/enroll", c.course.Unenroll)
	api.GET("/courses/:courseId/access", c.course.GetAccess)
	api.POST("/courses/:courseId/certificate", c.certificate.Issue)
	api.GET("/enrollments", c.course.ListEnrollments)

	// 学习进度
	api.POST("/progress", c.progress.Track)
	api.POST("/quizzes/attempts", c.quiz.SubmitAttempt)

	analytics := api.Group("/analytics")
	{
		analytics.GET("/course/:courseId", c.analytics.GetCourseAnalytics)
		analytics.GET("/progress", c.analytics.GetProgressSeries)
	}

	ai := api.Group("/ai")
	{
		ai.GET("/adaptive", c.ai.Adaptive)
		ai.GET("/spaced", c.ai.Spaced)
	}

	achievements := api.Group("/achievements")
	{
		achievements.GET("", c.achievement.GetUserAchievements)
		achievements.GET("/leaderboard", c.achievement.GetLeaderboard)
	}

	api.GET("/certificates", c.certificate.List)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(a.Config.JWT.Secret), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/leaderboard/rebuild", c.achievement.RebuildLeaderboard)
	}
}
