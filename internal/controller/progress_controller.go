package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// @Summary 上报学习进度
// @Description type 取值 session_start / slide_view / interaction / slide_complete / session_end
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ProgressEventRequest true "进度事件"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse "会话不存在或不属于当前用户"
// @Failure 409 {object} util.ErrorResponse "重复完成或会话已结束"
// @Router /api/progress [post]
func (c *ProgressController) Track(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req service.ProgressEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.Ingest(ctx.Request.Context(), userID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
