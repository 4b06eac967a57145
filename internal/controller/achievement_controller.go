package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary 获取用户成就
// @Description 获取用户的成就、经验和等级
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UserAchievements}
// @Router /api/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 获取排行榜
// @Description 获取用户经验排行榜
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/achievements/leaderboard [get]
func (c *AchievementController) GetLeaderboard(ctx *gin.Context) {
	limit := util.ParseIntDefault(ctx.Query("limit"), 10)

	leaderboard, err := c.AchievementService.GetLeaderboard(ctx.Request.Context(), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}

// @Summary 重建排行榜缓存
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 403 {object} util.ErrorResponse
// @Router /api/admin/leaderboard/rebuild [post]
func (c *AchievementController) RebuildLeaderboard(ctx *gin.Context) {
	n, err := c.AchievementService.RebuildLeaderboard(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"entries": n})
}
