package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
)

// ── 出勤模块业务错误 ──

var (
	ErrClassNotFound     = errors.New("课程不存在")
	ErrRecordNotFound    = errors.New("出勤记录不存在")
	ErrNotScheduledToday = errors.New("该日期没有这门课")
	ErrWindowNotOpen     = errors.New("签到尚未开放")
	ErrWindowClosed      = errors.New("签到已截止")
	ErrInvalidInput      = errors.New("参数无效")
)

// AttendanceService 签到与出勤业务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, classID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
	GetAttendance(ctx context.Context, classID, date string) (*dto.AttendanceRecordResponse, error)
	SetStatus(ctx context.Context, classID, studentID string, req *dto.SetStatusRequest) (*dto.AttendanceRecordResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	store  *recordStore
	policy *AttendancePolicy
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, policy *AttendancePolicy, logger *zap.Logger) AttendanceService {
	return &attendanceService{
		repo:   repo,
		store:  newRecordStore(repo, logger),
		policy: policy,
		logger: logger,
	}
}

// ────────────────────── CheckIn ──────────────────────

// CheckIn 学生签到
// 课程不存在、当天无课、窗口未开放或已截止时直接拒绝，不写入任何条目。
func (s *attendanceService) CheckIn(ctx context.Context, classID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	if classID == "" || req.StudentID == "" {
		return nil, fmt.Errorf("%w: class_id 与 student_id 不能为空", ErrInvalidInput)
	}

	course, err := loadCourse(ctx, s.repo, classID)
	if err != nil {
		return nil, err
	}

	// 记录日期始终取服务器时间在固定时区的日历日
	now := s.policy.now()
	at := s.checkInInstant(now, req.ClientTimestamp)
	day := startOfDay(now, s.policy.Location)

	occ, err := ResolveSchedule(course, day, s.policy.DefaultPeriod)
	if err != nil {
		return nil, err
	}
	if !occ.Active {
		return nil, ErrNotScheduledToday
	}

	start, err := At(day, occ.StartTime)
	if err != nil {
		return nil, err
	}
	status, err := ClassifyCheckIn(start, at, s.policy.windowFor(course))
	if err != nil {
		return nil, err
	}

	source := model.CheckInSource(req.Source)
	if source == "" {
		source = model.SourceApp
	}
	if !course.HasStudent(req.StudentID) {
		s.logger.Warn("花名册外学生签到",
			zap.String("class_id", classID),
			zap.String("student_id", req.StudentID),
		)
	}

	rec, err := s.store.upsertEntry(ctx, course, occ, &model.AttendanceEntry{
		StudentID:   req.StudentID,
		Status:      status,
		CheckInTime: &at,
		Source:      &source,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckInResponse{
		Status:       string(status),
		ClassID:      classID,
		Date:         occ.Date,
		SessionStart: rec.SessionStart,
		SessionEnd:   rec.SessionEnd,
		CheckInTime:  at,
	}, nil
}

// checkInInstant 客户端时间落在 [now-偏差, now+偏差] 内时采用客户端时间，否则用服务器时间
func (s *attendanceService) checkInInstant(now time.Time, client *time.Time) time.Time {
	if client == nil || client.IsZero() {
		return now
	}
	skew := s.policy.ClientClockSkew
	if client.Before(now.Add(-skew)) || client.After(now.Add(skew)) {
		return now
	}
	return client.In(s.policy.Location)
}

// ────────────────────── GetAttendance ──────────────────────

// GetAttendance 查询某课某天的出勤
// 上课日首次读取时以花名册创建记录；窗口关闭后未记录者按缺勤展示（不回写）。
func (s *attendanceService) GetAttendance(ctx context.Context, classID, date string) (*dto.AttendanceRecordResponse, error) {
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

	var rec *model.AttendanceRecord
	if occ.Active {
		rec, err = s.store.ensureRecord(ctx, course, occ)
	} else {
		// 已取消的日期若此前产生过记录仍可查询
		rec, err = s.repo.Attendance.Get(ctx, classID, occ.Date)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotScheduledToday
		}
	}
	if err != nil {
		return nil, err
	}

	closed := false
	if occ.Active {
		closed, err = s.windowClosed(course, day, rec.SessionStart)
		if err != nil {
			return nil, err
		}
	}
	return s.toRecordResponse(ctx, course, occ, rec, closed), nil
}

// windowClosed 以记录创建时固化的 session_start 判断签到窗口是否已关闭
func (s *attendanceService) windowClosed(course *model.Course, day time.Time, sessionStart string) (bool, error) {
	start, err := At(day, sessionStart)
	if err != nil {
		return false, err
	}
	return WindowClosed(start, s.policy.now(), s.policy.windowFor(course)), nil
}

// ────────────────────── SetStatus ──────────────────────

// SetStatus 教师 / 院长手动修改出勤状态，来源记为 manual
func (s *attendanceService) SetStatus(ctx context.Context, classID, studentID string, req *dto.SetStatusRequest) (*dto.AttendanceRecordResponse, error) {
	status := model.AttendanceStatus(req.Status)
	if studentID == "" || !status.Storable() {
		return nil, fmt.Errorf("%w: 无效的学生或状态", ErrInvalidInput)
	}

	course, err := loadCourse(ctx, s.repo, classID)
	if err != nil {
		return nil, err
	}
	day, err := s.policy.resolveDay(req.Date)
	if err != nil {
		return nil, err
	}
	occ, err := ResolveSchedule(course, day, s.policy.DefaultPeriod)
	if err != nil {
		return nil, err
	}
	if !occ.Active {
		return nil, ErrNotScheduledToday
	}

	entry := &model.AttendanceEntry{StudentID: studentID, Status: status}
	if status == model.StatusPresent || status == model.StatusLate {
		now := s.policy.now()
		src := model.SourceManual
		entry.CheckInTime = &now
		entry.Source = &src
	}

	rec, err := s.store.upsertEntry(ctx, course, occ, entry)
	if err != nil {
		return nil, err
	}

	s.logger.Info("手动修改出勤状态",
		zap.String("class_id", classID),
		zap.String("date", occ.Date),
		zap.String("student_id", studentID),
		zap.String("status", string(status)),
	)

	closed, err := s.windowClosed(course, day, rec.SessionStart)
	if err != nil {
		return nil, err
	}
	return s.toRecordResponse(ctx, course, occ, rec, closed), nil
}

// ────────────────────── 内部方法 ──────────────────────

func (s *attendanceService) toRecordResponse(ctx context.Context, course *model.Course, occ Occurrence, rec *model.AttendanceRecord, closed bool) *dto.AttendanceRecordResponse {
	ids := make([]string, 0, len(rec.Entries))
	for _, e := range rec.Entries {
		ids = append(ids, e.StudentID)
	}
	names := studentNames(ctx, s.repo, ids, s.logger)

	seatOf := map[string]string{}
	if occ.RoomNumber != nil {
		for label, sid := range course.SeatsInRoom(*occ.RoomNumber) {
			seatOf[sid] = label
		}
	}

	resp := &dto.AttendanceRecordResponse{
		ClassID:      course.ClassID,
		CourseName:   course.Name,
		Date:         rec.Date,
		SessionStart: rec.SessionStart,
		SessionEnd:   rec.SessionEnd,
		WindowClosed: closed,
		Entries:      make([]dto.AttendanceEntryResponse, 0, len(rec.Entries)),
	}
	for _, e := range rec.Entries {
		status := EffectiveStatus(e.Status, closed)
		item := dto.AttendanceEntryResponse{
			StudentID:   e.StudentID,
			Name:        names[e.StudentID],
			SeatLabel:   seatOf[e.StudentID],
			Status:      string(status),
			CheckInTime: e.CheckInTime,
		}
		if e.Source != nil {
			item.Source = string(*e.Source)
		}
		resp.Entries = append(resp.Entries, item)
		resp.Counts.Add(string(status))
	}
	return resp
}

// loadCourse 按 class_id 读取课程，不存在时返回 ErrClassNotFound
func loadCourse(ctx context.Context, repo *repository.Repository, classID string) (*model.Course, error) {
	course, err := repo.Course.GetByClassID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return course, nil
}

// studentNames 批量查询学生姓名；查询失败只记日志，姓名留空
func studentNames(ctx context.Context, repo *repository.Repository, ids []string, logger *zap.Logger) map[string]string {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	students, err := repo.Student.GetByIDs(ctx, ids)
	if err != nil {
		logger.Warn("查询学生姓名失败", zap.Error(err))
		return names
	}
	for _, st := range students {
		names[st.StudentID] = st.Name
	}
	return names
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
