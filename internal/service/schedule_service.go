package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
	pkgerrors "seatboard/backend/pkg/errors"
)

// ScheduleService 排课查询与单日例外业务接口
type ScheduleService interface {
	GetOccurrence(ctx context.Context, classID, date string) (*dto.OccurrenceResponse, error)
	SetDateException(ctx context.Context, classID, date string, req *dto.DateExceptionRequest, callerID string) (*dto.OccurrenceResponse, error)
	CourseAcademy(ctx context.Context, classID string) (int, error)
}

type scheduleService struct {
	repo   *repository.Repository
	policy *AttendancePolicy
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, policy *AttendancePolicy, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, policy: policy, logger: logger}
}

// CourseAcademy 课程所属学院，用于按 Token 学院限定课程路由
func (s *scheduleService) CourseAcademy(ctx context.Context, classID string) (int, error) {
	course, err := loadCourse(ctx, s.repo, classID)
	if err != nil {
		return 0, err
	}
	return course.AcademyNumber, nil
}

// ────────────────────── GetOccurrence ──────────────────────

func (s *scheduleService) GetOccurrence(ctx context.Context, classID, date string) (*dto.OccurrenceResponse, error) {
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
	return toOccurrenceResponse(classID, occ), nil
}

// ────────────────────── SetDateException ──────────────────────

// SetDateException 设置单日例外：停课 / 加课 / 当天教室与时间覆盖
// 已存在的 attendance 记录不受影响（session 时间只在创建时固化）。
func (s *scheduleService) SetDateException(ctx context.Context, classID, date string, req *dto.DateExceptionRequest, callerID string) (*dto.OccurrenceResponse, error) {
	day, err := ParseDate(date, s.policy.Location)
	if err != nil {
		return nil, err
	}
	if err := validateException(req); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		course, err := loadCourse(ctx, s.repo, classID)
		if err != nil {
			return nil, err
		}

		applyException(course, date, req)
		course.UpdatedBy = &callerID

		// 写入前先解析一次，拒绝产生无效时间的组合
		occ, err := ResolveSchedule(course, day, s.policy.DefaultPeriod)
		if err != nil {
			return nil, err
		}

		err = s.repo.Course.Update(ctx, course)
		if err == nil {
			s.logger.Info("单日排课例外已更新",
				zap.String("class_id", classID),
				zap.String("date", date),
				zap.Bool("active", occ.Active),
				zap.String("operator", callerID),
			)
			return toOccurrenceResponse(classID, occ), nil
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) || attempt+1 >= courseUpdateAttempts {
			s.logger.Error("更新排课例外失败", zap.String("class_id", classID), zap.Error(err))
			return nil, err
		}
	}
}

func validateException(req *dto.DateExceptionRequest) error {
	if req.Cancelled != nil && req.Extra != nil && *req.Cancelled && *req.Extra {
		return fmt.Errorf("%w: cancelled 与 extra 不能同时为 true", ErrInvalidInput)
	}
	var start, end *int64
	if req.StartTime != nil {
		d, err := parseClock(*req.StartTime)
		if err != nil {
			return err
		}
		v := int64(d)
		start = &v
	}
	if req.EndTime != nil {
		d, err := parseClock(*req.EndTime)
		if err != nil {
			return err
		}
		v := int64(d)
		end = &v
	}
	if start != nil && end != nil && *end <= *start {
		return fmt.Errorf("%w: 结束时间必须晚于开始时间", ErrInvalidInput)
	}
	return nil
}

// applyException 将例外合并到课程；取消与加课互斥，设置其一时移除另一个
func applyException(course *model.Course, date string, req *dto.DateExceptionRequest) {
	if req.Cancelled != nil {
		course.CancelledDates = removeDate(course.CancelledDates, date)
		if *req.Cancelled {
			course.CancelledDates = append(course.CancelledDates, date)
			course.ExtraDates = removeDate(course.ExtraDates, date)
		}
	}
	if req.Extra != nil {
		course.ExtraDates = removeDate(course.ExtraDates, date)
		if *req.Extra {
			course.ExtraDates = append(course.ExtraDates, date)
			course.CancelledDates = removeDate(course.CancelledDates, date)
		}
	}

	if req.ClearOverride {
		course.SetOverride(date, nil)
	}
	if req.RoomNumber == nil && req.StartTime == nil && req.EndTime == nil {
		return
	}
	o := course.Overrides()[date]
	if req.RoomNumber != nil {
		room := *req.RoomNumber
		o.RoomNumber = &room
	}
	if req.StartTime != nil {
		v := *req.StartTime
		o.StartTime = &v
	}
	if req.EndTime != nil {
		v := *req.EndTime
		o.EndTime = &v
	}
	course.SetOverride(date, &o)
}

func removeDate(dates []string, date string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != date {
			out = append(out, d)
		}
	}
	return out
}

func toOccurrenceResponse(classID string, occ Occurrence) *dto.OccurrenceResponse {
	return &dto.OccurrenceResponse{
		ClassID:    classID,
		Date:       occ.Date,
		Active:     occ.Active,
		RoomNumber: occ.RoomNumber,
		StartTime:  occ.StartTime,
		EndTime:    occ.EndTime,
	}
}
