package controller

import (
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// courseIDParam 解析路径参数 courseId，非法时直接写 400
func courseIDParam(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("courseId"))
	if id == 0 {
		util.BadRequest(ctx, "invalid courseId")
		return 0, false
	}
	return id, true
}

// currentUserID 读取已认证用户，缺失时写 401
func currentUserID(ctx *gin.Context) (uint, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return user.UserID, true
}
