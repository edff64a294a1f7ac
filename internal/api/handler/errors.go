package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"seatboard/backend/internal/service"
	pkgerrors "seatboard/backend/pkg/errors"
	"seatboard/backend/pkg/response"
)

// ── 业务错误码 ──
//
// details 字段携带机器可读的原因，客户端据此区分“太早 / 太晚 / 今天没课”。

const (
	codeValidation     = 10001
	codeBodyTooLarge   = 10005
	codeClassNotFound  = 20101
	codeRoomNotFound   = 20102
	codeRecordNotFound = 20103
	codeNotScheduled   = 20201
	codeWindowNotOpen  = 20202
	codeWindowClosed   = 20203
	codeConflict       = 20301
	codeWaitingRoom    = 20401
)

// 原因码
const (
	ReasonValidation     = "VALIDATION_ERROR"
	ReasonClassNotFound  = "CLASS_NOT_FOUND"
	ReasonRoomNotFound   = "ROOM_NOT_FOUND"
	ReasonRecordNotFound = "RECORD_NOT_FOUND"
	ReasonNotScheduled   = "NOT_SCHEDULED_TODAY"
	ReasonWindowNotOpen  = "WINDOW_NOT_OPEN"
	ReasonWindowClosed   = "WINDOW_CLOSED"
)

// bindFailed 参数绑定 / 校验失败
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, "参数校验失败", ReasonValidation)
	_ = c.Error(err)
}

// handleServiceError 将 service 层错误映射为统一响应
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, err.Error(), ReasonValidation)
	case errors.Is(err, service.ErrClassNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, codeClassNotFound, "课程不存在", ReasonClassNotFound)
	case errors.Is(err, service.ErrRoomNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, codeRoomNotFound, "教室不存在", ReasonRoomNotFound)
	case errors.Is(err, service.ErrRecordNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, codeRecordNotFound, "出勤记录不存在", ReasonRecordNotFound)
	case errors.Is(err, service.ErrNotScheduledToday):
		response.UnprocessableEntity(c, codeNotScheduled, "该日期没有这门课", ReasonNotScheduled)
	case errors.Is(err, service.ErrWindowNotOpen):
		response.UnprocessableEntity(c, codeWindowNotOpen, "签到尚未开放", ReasonWindowNotOpen)
	case errors.Is(err, service.ErrWindowClosed):
		response.UnprocessableEntity(c, codeWindowClosed, "签到已截止", ReasonWindowClosed)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeConflict, "数据已被他人修改，请刷新后重试")
	case errors.Is(err, service.ErrWaitingRoomUnavailable):
		response.ServiceUnavailable(c, codeWaitingRoom, "候课区暂不可用")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
