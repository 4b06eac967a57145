package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 课程学习分析
// @Description 汇总当前用户在该课程的会话、幻灯片和交互数据
// @Tags 学习分析
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.CourseAnalyticsReport}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/analytics/course/{courseId} [get]
func (c *AnalyticsController) GetCourseAnalytics(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	report, err := c.AnalyticsService.GetCourseAnalytics(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary 学习进度曲线
// @Tags 学习分析
// @Produce json
// @Security ApiKeyAuth
// @Param days query int false "天数" default(30)
// @Success 200 {object} util.Response{data=model.ProgressSeries}
// @Failure 400 {object} util.ErrorResponse
// @Router /api/analytics/progress [get]
func (c *AnalyticsController) GetProgressSeries(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	days := 0
	if raw := ctx.Query("days"); raw != "" {
		days = util.ParseIntDefault(raw, -1)
	}

	series, err := c.AnalyticsService.GetProgressSeries(ctx.Request.Context(), userID, days)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, series)
}
