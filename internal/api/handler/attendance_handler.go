package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/service"
	"seatboard/backend/pkg/jwt"
	"seatboard/backend/pkg/response"
)

// AttendanceHandler 签到 / 出勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 签到
// POST /api/v1/classes/:class_id/check-in
// 学生只能为自己签到（可不带请求体）；教师 / 院长代签时必须指定 student_id。
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	switch {
	case role == jwt.RoleStudent:
		if req.StudentID != "" && req.StudentID != callerID {
			response.Forbidden(c, 10003, "学生只能为自己签到")
			return
		}
		req.StudentID = callerID
	case isStaff(role):
		if req.StudentID == "" {
			response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "代签时 student_id 不能为空", ReasonValidation)
			return
		}
		if req.Source == "" {
			req.Source = "manual"
		}
	default:
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), c.Param("class_id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// GetAttendance 查询出勤
// GET /api/v1/classes/:class_id/attendance?date=YYYY-MM-DD
func (h *AttendanceHandler) GetAttendance(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	record, err := h.attendanceSvc.GetAttendance(c.Request.Context(), c.Param("class_id"), q.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, record)
}

// SetStatus 手动修改学生出勤状态
// PUT /api/v1/classes/:class_id/attendance/:student_id
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	record, err := h.attendanceSvc.SetStatus(c.Request.Context(), c.Param("class_id"), c.Param("student_id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, record)
}
