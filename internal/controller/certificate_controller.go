package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// @Summary 颁发结业证书
// @Description 课程全部课时完成后生成证书图片
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Certificate}
// @Failure 400 {object} util.ErrorResponse "课程未完成"
// @Failure 409 {object} util.ErrorResponse "证书已颁发"
// @Router /api/courses/{courseId}/certificate [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(ctx)
	if !ok {
		return
	}

	cert, err := c.CertificateService.Issue(ctx.Request.Context(), userID, courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, cert)
}

// @Summary 我的证书
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Certificate}
// @Router /api/certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	certs, err := c.CertificateService.List(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// @Summary 校验证书
// @Description 公开接口，按证书编号查询
// @Tags 证书
// @Produce json
// @Param id path string true "证书编号"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/certificates/{id}/verify [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	cert, err := c.CertificateService.Verify(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}
