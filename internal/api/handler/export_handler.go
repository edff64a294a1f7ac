package handler

import (
	"github.com/gin-gonic/gin"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/service"
	"seatboard/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance 导出出勤表
// GET /api/v1/export/attendance?class_id=xxx&date=YYYY-MM-DD
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.BadRequest(c, codeValidation, "class_id 不能为空")
		return
	}
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), classID, q.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, filename, response.XLSXContentType, buf.Bytes())
}

// ExportCalendar 导出课程上课日历
// GET /api/v1/classes/:class_id/calendar.ics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), c.Param("class_id"), q.From, q.To)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Attachment(c, filename, response.CalendarContentType, buf.Bytes())
}
