package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/repository"
)

// ErrWaitingRoomUnavailable Redis 未配置或连接失败
var ErrWaitingRoomUnavailable = errors.New("候课区不可用")

// OverviewService 院长总览与候课区业务接口
type OverviewService interface {
	GetAcademyOverview(ctx context.Context, academyNumber int, date string) (*dto.OverviewResponse, error)
	EnterWaiting(ctx context.Context, academyNumber int, studentID string) error
	LeaveWaiting(ctx context.Context, academyNumber int, studentID string) error
}

type overviewService struct {
	repo     *repository.Repository
	composer *boardComposer
	policy   *AttendancePolicy
	logger   *zap.Logger
}

// NewOverviewService 创建 OverviewService 实例
func NewOverviewService(repo *repository.Repository, policy *AttendancePolicy, logger *zap.Logger) OverviewService {
	return &overviewService{
		repo:     repo,
		composer: newBoardComposer(repo, policy, logger),
		policy:   policy,
		logger:   logger,
	}
}

// GetAcademyOverview 逐个教室组装看板并附上候课区名单
// 单个教室组装失败时该教室以空座位、零计数返回，不影响其他教室。
func (s *overviewService) GetAcademyOverview(ctx context.Context, academyNumber int, date string) (*dto.OverviewResponse, error) {
	day, err := s.policy.resolveDay(date)
	if err != nil {
		return nil, err
	}
	dayStr := day.Format(dateLayout)

	rooms, err := s.repo.Room.ListByAcademy(ctx, academyNumber)
	if err != nil {
		s.logger.Error("查询学院教室失败", zap.Int("academy_number", academyNumber), zap.Error(err))
		return nil, err
	}
	courses, err := s.repo.Course.ListByAcademy(ctx, academyNumber)
	if err != nil {
		s.logger.Error("查询学院课程失败", zap.Int("academy_number", academyNumber), zap.Error(err))
		return nil, err
	}
	byRoom, skipped := OccupantsByRoom(courses, day, s.policy.DefaultPeriod)
	if len(skipped) > 0 {
		s.logger.Warn("课程时间配置无效，已跳过", zap.Strings("class_ids", skipped))
	}

	now := s.policy.now()
	resp := &dto.OverviewResponse{
		AcademyNumber: academyNumber,
		Date:          dayStr,
		Rooms:         make([]dto.RoomStatusResponse, 0, len(rooms)),
	}

	for i := range rooms {
		room := &rooms[i]
		occupant, ok := PickOccupant(byRoom[room.RoomNumber], now)
		if !ok {
			resp.Rooms = append(resp.Rooms, dto.RoomStatusResponse{SeatBoardResponse: *s.composer.emptyBoard(room, dayStr)})
			continue
		}

		board, err := s.composer.composeForCourse(ctx, occupant.Course, occupant.Occurrence, room)
		if err != nil {
			s.logger.Warn("教室看板组装失败",
				zap.Int("room_number", room.RoomNumber),
				zap.String("class_id", occupant.Course.ClassID),
				zap.Error(err),
			)
			resp.Rooms = append(resp.Rooms, dto.RoomStatusResponse{
				SeatBoardResponse: dto.SeatBoardResponse{
					AcademyNumber: academyNumber,
					RoomNumber:    room.RoomNumber,
					RoomName:      room.Name,
					Date:          dayStr,
					ClassID:       occupant.Course.ClassID,
					CourseName:    occupant.Course.Name,
					Seats:         []dto.SeatResponse{},
				},
				Error: err.Error(),
			})
			continue
		}
		resp.Rooms = append(resp.Rooms, dto.RoomStatusResponse{SeatBoardResponse: *board})
	}

	resp.Waiting = s.waitingList(ctx, academyNumber)
	return resp, nil
}

// waitingList 候课区名单；Redis 不可用或读取失败时降级为空列表
func (s *overviewService) waitingList(ctx context.Context, academyNumber int) []dto.WaitingItemResponse {
	out := []dto.WaitingItemResponse{}
	if s.repo.WaitingRoom == nil {
		return out
	}
	entries, err := s.repo.WaitingRoom.ListWaiting(ctx, academyNumber)
	if err != nil {
		s.logger.Warn("读取候课区失败", zap.Int("academy_number", academyNumber), zap.Error(err))
		return out
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.StudentID)
	}
	names := studentNames(ctx, s.repo, ids, s.logger)
	for _, e := range entries {
		out = append(out, dto.WaitingItemResponse{
			StudentID: e.StudentID,
			Name:      names[e.StudentID],
			EnteredAt: e.EnteredAt,
		})
	}
	return out
}

// ────────────────────── 候课区 ──────────────────────

func (s *overviewService) EnterWaiting(ctx context.Context, academyNumber int, studentID string) error {
	if studentID == "" {
		return fmt.Errorf("%w: student_id 不能为空", ErrInvalidInput)
	}
	if s.repo.WaitingRoom == nil {
		return ErrWaitingRoomUnavailable
	}
	return s.repo.WaitingRoom.EnterWaiting(ctx, academyNumber, studentID, s.policy.now())
}

func (s *overviewService) LeaveWaiting(ctx context.Context, academyNumber int, studentID string) error {
	if studentID == "" {
		return fmt.Errorf("%w: student_id 不能为空", ErrInvalidInput)
	}
	if s.repo.WaitingRoom == nil {
		return ErrWaitingRoomUnavailable
	}
	return s.repo.WaitingRoom.LeaveWaiting(ctx, academyNumber, studentID)
}
