package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// @Summary 提交测验
// @Description 记录测验成绩，按 score/10 发放经验
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizAttemptRequest true "测验结果"
// @Success 201 {object} util.Response{data=service.QuizAttemptResult}
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/quizzes/attempts [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req service.QuizAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SubmitAttempt(ctx.Request.Context(), userID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}
