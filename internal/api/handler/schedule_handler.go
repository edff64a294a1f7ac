package handler

import (
	"github.com/gin-gonic/gin"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/service"
	"seatboard/backend/pkg/response"
)

// ScheduleHandler 排课查询与单日例外 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// GetOccurrence 查询某天是否上课及教室、时间
// GET /api/v1/classes/:class_id/schedule/dates/:date
func (h *ScheduleHandler) GetOccurrence(c *gin.Context) {
	occ, err := h.scheduleSvc.GetOccurrence(c.Request.Context(), c.Param("class_id"), c.Param("date"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, occ)
}

// SetDateException 设置单日例外（停课 / 加课 / 调教室 / 调时间）
// PUT /api/v1/classes/:class_id/schedule/dates/:date
func (h *ScheduleHandler) SetDateException(c *gin.Context) {
	var req dto.DateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	occ, err := h.scheduleSvc.SetDateException(c.Request.Context(), c.Param("class_id"), c.Param("date"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, occ)
}

// ClassScope 课程路由的学院隔离：课程所属学院须与 Token 中的学院一致。
// class_id 取路径参数，缺省时取查询参数；两者都为空时交给后续 handler 校验。
func (h *ScheduleHandler) ClassScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		classID := c.Param("class_id")
		if classID == "" {
			classID = c.Query("class_id")
		}
		if classID == "" {
			c.Next()
			return
		}

		own, ok := mustGetAcademy(c)
		if !ok {
			c.Abort()
			return
		}
		academy, err := h.scheduleSvc.CourseAcademy(c.Request.Context(), classID)
		if err != nil {
			handleServiceError(c, err)
			c.Abort()
			return
		}
		if academy != own {
			response.Forbidden(c, 10003, "无权访问其他学院的课程")
			c.Abort()
			return
		}
		c.Next()
	}
}
