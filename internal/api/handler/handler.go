package handler

import "seatboard/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Attendance *AttendanceHandler
	SeatBoard  *SeatBoardHandler
	Academy    *AcademyHandler
	Schedule   *ScheduleHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Attendance: NewAttendanceHandler(svc.Attendance),
		SeatBoard:  NewSeatBoardHandler(svc.SeatBoard),
		Academy:    NewAcademyHandler(svc.Overview),
		Schedule:   NewScheduleHandler(svc.Schedule),
		Export:     NewExportHandler(svc.Export),
	}
}
