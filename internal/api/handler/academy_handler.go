package handler

import (
	"github.com/gin-gonic/gin"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/service"
	"seatboard/backend/pkg/jwt"
	"seatboard/backend/pkg/response"
)

// AcademyHandler 学院总览与候课区 HTTP 处理器
type AcademyHandler struct {
	overviewSvc service.OverviewService
}

// NewAcademyHandler 创建 AcademyHandler
func NewAcademyHandler(overviewSvc service.OverviewService) *AcademyHandler {
	return &AcademyHandler{overviewSvc: overviewSvc}
}

// GetOverview 院长总览
// GET /api/v1/academies/:academy/overview?date=YYYY-MM-DD
func (h *AcademyHandler) GetOverview(c *gin.Context) {
	academy, ok := MustMatchAcademy(c)
	if !ok {
		return
	}
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	overview, err := h.overviewSvc.GetAcademyOverview(c.Request.Context(), academy, q.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, overview)
}

// EnterWaiting 进入候课区
// POST /api/v1/academies/:academy/waiting/:student_id
func (h *AcademyHandler) EnterWaiting(c *gin.Context) {
	academy, studentID, ok := h.waitingTarget(c)
	if !ok {
		return
	}

	if err := h.overviewSvc.EnterWaiting(c.Request.Context(), academy, studentID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// LeaveWaiting 离开候课区
// DELETE /api/v1/academies/:academy/waiting/:student_id
func (h *AcademyHandler) LeaveWaiting(c *gin.Context) {
	academy, studentID, ok := h.waitingTarget(c)
	if !ok {
		return
	}

	if err := h.overviewSvc.LeaveWaiting(c.Request.Context(), academy, studentID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// waitingTarget 学生只能操作自己的候课状态
func (h *AcademyHandler) waitingTarget(c *gin.Context) (int, string, bool) {
	academy, ok := MustMatchAcademy(c)
	if !ok {
		return 0, "", false
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return 0, "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return 0, "", false
	}

	studentID := c.Param("student_id")
	if role == jwt.RoleStudent && studentID != callerID {
		response.Forbidden(c, 10003, "学生只能操作自己的候课状态")
		return 0, "", false
	}
	return academy, studentID, true
}
