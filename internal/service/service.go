package service

import (
	"go.uber.org/zap"

	"seatboard/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Attendance AttendanceService
	SeatBoard  SeatBoardService
	Overview   OverviewService
	Schedule   ScheduleService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	repo *repository.Repository,
	policy *AttendancePolicy,
	logger *zap.Logger,
) *Service {
	attendance := NewAttendanceService(repo, policy, logger)
	return &Service{
		Attendance: attendance,
		SeatBoard:  NewSeatBoardService(repo, policy, logger),
		Overview:   NewOverviewService(repo, policy, logger),
		Schedule:   NewScheduleService(repo, policy, logger),
		Export:     NewExportService(repo, policy, attendance, logger),
	}
}
