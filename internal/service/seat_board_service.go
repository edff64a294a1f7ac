package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
	pkgerrors "seatboard/backend/pkg/errors"
)

// ── 座位看板模块业务错误 ──

var (
	ErrRoomNotFound = errors.New("教室不存在")
)

// courseUpdateAttempts 课程乐观锁冲突时的最大尝试次数
const courseUpdateAttempts = 3

// SeatBoardService 座位看板业务接口
type SeatBoardService interface {
	GetClassBoard(ctx context.Context, classID, date string) (*dto.SeatBoardResponse, error)
	GetRoomBoard(ctx context.Context, academyNumber, roomNumber int, date string) (*dto.SeatBoardResponse, error)
	AssignSeat(ctx context.Context, classID, label string, req *dto.AssignSeatRequest, callerID string) (*dto.SeatBoardResponse, error)
}

type seatBoardService struct {
	repo     *repository.Repository
	composer *boardComposer
	policy   *AttendancePolicy
	logger   *zap.Logger
}

// NewSeatBoardService 创建 SeatBoardService 实例
func NewSeatBoardService(repo *repository.Repository, policy *AttendancePolicy, logger *zap.Logger) SeatBoardService {
	return &seatBoardService{
		repo:     repo,
		composer: newBoardComposer(repo, policy, logger),
		policy:   policy,
		logger:   logger,
	}
}

// ────────────────────── GetClassBoard ──────────────────────

func (s *seatBoardService) GetClassBoard(ctx context.Context, classID, date string) (*dto.SeatBoardResponse, error) {
	course, err := loadCourse(ctx, s.repo, classID)
	if err != nil {
		return nil, err
	}
	day, err := s.policy.resolveDay(date)
	if err != nil {
		return nil, err
	}
	occ, err := ResolveSchedule(course, day, s.policy.DefaultPeriod)
	if err != nil {
		return nil, err
	}
	return s.composer.composeForCourse(ctx, course, occ, nil)
}

// ────────────────────── GetRoomBoard ──────────────────────

// GetRoomBoard 以教室为中心：当天有课则按占用课程组装，否则返回空教室看板
func (s *seatBoardService) GetRoomBoard(ctx context.Context, academyNumber, roomNumber int, date string) (*dto.SeatBoardResponse, error) {
	day, err := s.policy.resolveDay(date)
	if err != nil {
		return nil, err
	}
	room, err := s.composer.loadRoom(ctx, academyNumber, roomNumber)
	if err != nil {
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

	if occupant, ok := PickOccupant(byRoom[roomNumber], s.policy.now()); ok {
		return s.composer.composeForCourse(ctx, occupant.Course, occupant.Occurrence, room)
	}
	return s.composer.emptyBoard(room, day.Format(dateLayout)), nil
}

// ────────────────────── AssignSeat ──────────────────────

// AssignSeat 分配或清空座位
// 同一教室内一个学生最多占一个座位，分配新座位时移除其原座位；
// 座位分配不影响出勤状态。
func (s *seatBoardService) AssignSeat(ctx context.Context, classID, label string, req *dto.AssignSeatRequest, callerID string) (*dto.SeatBoardResponse, error) {
	label = strings.TrimSpace(label)
	if label == "" || len(label) > 32 {
		return nil, fmt.Errorf("%w: 座位标签无效", ErrInvalidInput)
	}
	var studentID string
	if req.StudentID != nil {
		studentID = strings.TrimSpace(*req.StudentID)
		if studentID == "" {
			return nil, fmt.Errorf("%w: student_id 不能为空字符串", ErrInvalidInput)
		}
	}

	day, err := s.policy.resolveDay(req.Date)
	if err != nil {
		return nil, err
	}

	var (
		course *model.Course
		occ    Occurrence
	)
	for attempt := 0; ; attempt++ {
		course, err = loadCourse(ctx, s.repo, classID)
		if err != nil {
			return nil, err
		}
		occ, err = ResolveSchedule(course, day, s.policy.DefaultPeriod)
		if err != nil {
			return nil, err
		}
		if occ.RoomNumber == nil {
			return nil, ErrRoomNotFound
		}

		seats := course.SeatsInRoom(*occ.RoomNumber)
		if studentID == "" {
			delete(seats, label)
		} else {
			for l, sid := range seats {
				if sid == studentID && l != label {
					delete(seats, l)
				}
			}
			seats[label] = studentID
		}
		course.SetSeatsInRoom(*occ.RoomNumber, seats)
		course.UpdatedBy = &callerID

		err = s.repo.Course.Update(ctx, course)
		if err == nil {
			break
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) || attempt+1 >= courseUpdateAttempts {
			s.logger.Error("更新座位分配失败",
				zap.String("class_id", classID),
				zap.String("label", label),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if studentID != "" && s.repo.WaitingRoom != nil {
		if err := s.repo.WaitingRoom.LeaveWaiting(ctx, course.AcademyNumber, studentID); err != nil {
			s.logger.Warn("移出候课区失败", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	s.logger.Info("座位分配已更新",
		zap.String("class_id", classID),
		zap.Int("room_number", *occ.RoomNumber),
		zap.String("label", label),
		zap.String("student_id", studentID),
		zap.String("operator", callerID),
	)

	return s.composer.composeForCourse(ctx, course, occ, nil)
}
