package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	AccessService *service.AccessService
}

func NewCourseController(courseService *service.CourseService, accessService *service.AccessService) *CourseController {
	return &CourseController{
		CourseService: courseService,
		AccessService: accessService,
	}
}

// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListCourses(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 课程详情
// @Description 返回课程及按顺序排列的模块和课时
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	course, err := c.CourseService.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 报名课程
// @Description 创建报名记录并为每个课时生成未完成的进度
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 409 {object} util.ErrorResponse "已报名"
// @Router /api/courses/{courseId}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	enrollment, err := c.CourseService.Enroll(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// @Summary 取消报名
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.ErrorResponse "未报名"
// @Router /api/courses/{courseId}/enroll [delete]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	if err := c.CourseService.Unenroll(ctx.Request.Context(), userID, courseID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courseId": courseID})
}

// @Summary 我的报名
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/enrollments [get]
func (c *CourseController) ListEnrollments(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	enrollments, err := c.CourseService.ListEnrollments(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// @Summary 课时解锁状态
// @Description 按模块、课时顺序计算前缀解锁
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseAccess}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/courses/{courseId}/access [get]
func (c *CourseController) GetAccess(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	access, err := c.AccessService.GetAccess(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, access)
}
