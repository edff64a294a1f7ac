package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/service"
	"seatboard/backend/pkg/response"
)

// SeatBoardHandler 座位看板 HTTP 处理器
type SeatBoardHandler struct {
	seatBoardSvc service.SeatBoardService
}

// NewSeatBoardHandler 创建 SeatBoardHandler
func NewSeatBoardHandler(seatBoardSvc service.SeatBoardService) *SeatBoardHandler {
	return &SeatBoardHandler{seatBoardSvc: seatBoardSvc}
}

// GetClassBoard 按课程查看座位看板
// GET /api/v1/classes/:class_id/seat-board?date=YYYY-MM-DD
func (h *SeatBoardHandler) GetClassBoard(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	board, err := h.seatBoardSvc.GetClassBoard(c.Request.Context(), c.Param("class_id"), q.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, board)
}

// GetRoomBoard 按教室查看座位看板；当天无课时返回空教室
// GET /api/v1/academies/:academy/rooms/:room/seat-board?date=YYYY-MM-DD
func (h *SeatBoardHandler) GetRoomBoard(c *gin.Context) {
	academy, ok := MustMatchAcademy(c)
	if !ok {
		return
	}
	room, err := strconv.Atoi(c.Param("room"))
	if err != nil || room <= 0 {
		response.BadRequest(c, codeValidation, "教室编号无效")
		return
	}
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	board, err := h.seatBoardSvc.GetRoomBoard(c.Request.Context(), academy, room, q.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, board)
}

// AssignSeat 分配 / 清空座位
// PUT /api/v1/classes/:class_id/seats/:label
func (h *SeatBoardHandler) AssignSeat(c *gin.Context) {
	var req dto.AssignSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	board, err := h.seatBoardSvc.AssignSeat(c.Request.Context(), c.Param("class_id"), c.Param("label"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, board)
}
