package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AIController struct {
	AdaptiveService *service.AdaptiveService
}

func NewAIController(adaptiveService *service.AdaptiveService) *AIController {
	return &AIController{AdaptiveService: adaptiveService}
}

// @Summary 自适应学习建议
// @Description 返回下一个未完成课时以及 review/challenge 模式，explain=true 时附带说明
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int true "课程ID"
// @Param explain query bool false "是否生成说明"
// @Success 200 {object} util.Response{data=service.AdaptiveSuggestion}
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/ai/adaptive [get]
func (c *AIController) Adaptive(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	courseID := util.MustParseUint(ctx.Query("courseId"))
	explain := ctx.Query("explain") == "true"

	suggestion, err := c.AdaptiveService.Suggest(ctx.Request.Context(), userID, courseID, explain)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, suggestion)
}

// @Summary 间隔复习
// @Description 距上次学习恰好 1/3/7/14/30 天的课时
// @Tags AI
// @Produce json
// @Security ApiKeyAuth
// @Param courseId query int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.SpacedItem}
// @Router /api/ai/spaced [get]
func (c *AIController) Spaced(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	courseID := util.MustParseUint(ctx.Query("courseId"))
	items, err := c.AdaptiveService.SpacedRepetition(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, items)
}
