package service

import (
	"time"

	"seatboard/backend/config"
	"seatboard/backend/internal/model"
)

// AttendancePolicy 签到窗口与时区策略
// Location 与 Now 均可注入，测试可使用固定时钟。
type AttendancePolicy struct {
	Location        *time.Location
	OpenBefore      time.Duration
	LateGrace       time.Duration
	AbsentGrace     time.Duration
	DefaultPeriod   time.Duration
	ClientClockSkew time.Duration
	Now             func() time.Time
}

// NewAttendancePolicy 从配置构建策略（时区已在 config.Validate 中校验）
func NewAttendancePolicy(cfg *config.AttendanceConfig) (*AttendancePolicy, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &AttendancePolicy{
		Location:        loc,
		OpenBefore:      time.Duration(cfg.OpenBeforeMinutes) * time.Minute,
		LateGrace:       time.Duration(cfg.LateGraceMinutes) * time.Minute,
		AbsentGrace:     time.Duration(cfg.AbsentGraceMinutes) * time.Minute,
		DefaultPeriod:   time.Duration(cfg.DefaultPeriodMinutes) * time.Minute,
		ClientClockSkew: cfg.ClientClockSkew,
		Now:             time.Now,
	}, nil
}

func (p *AttendancePolicy) now() time.Time {
	if p.Now == nil {
		return time.Now().In(p.Location)
	}
	return p.Now().In(p.Location)
}

// today 当前时区的零点
func (p *AttendancePolicy) today() time.Time {
	n := p.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, p.Location)
}

// resolveDay 空字符串表示今天
func (p *AttendancePolicy) resolveDay(date string) (time.Time, error) {
	if date == "" {
		return p.today(), nil
	}
	return ParseDate(date, p.Location)
}

// windowFor 课程级宽限分钟覆盖全局默认值
func (p *AttendancePolicy) windowFor(course *model.Course) GraceWindow {
	w := GraceWindow{
		OpenBefore:  p.OpenBefore,
		LateGrace:   p.LateGrace,
		AbsentGrace: p.AbsentGrace,
	}
	if course.LateGraceMinutes != nil {
		w.LateGrace = time.Duration(*course.LateGraceMinutes) * time.Minute
	}
	if course.AbsentGraceMinutes != nil {
		w.AbsentGrace = time.Duration(*course.AbsentGraceMinutes) * time.Minute
	}
	if w.AbsentGrace < w.LateGrace {
		w.AbsentGrace = w.LateGrace
	}
	return w
}

// ── 出勤状态判定 ──

// GraceWindow 相对于有效开始时间的签到窗口
type GraceWindow struct {
	OpenBefore  time.Duration
	LateGrace   time.Duration
	AbsentGrace time.Duration
}

// ClassifyCheckIn 根据签到时刻判定出勤状态
//
//	at <  start-OpenBefore        → NOT_OPEN, ErrWindowNotOpen
//	at <= start+LateGrace         → PRESENT
//	at <= start+AbsentGrace       → LATE
//	at >  start+AbsentGrace       → ABSENT,   ErrWindowClosed
//
// 两端边界均为闭区间。
func ClassifyCheckIn(start, at time.Time, w GraceWindow) (model.AttendanceStatus, error) {
	open := start.Add(-w.OpenBefore)
	presentUntil := start.Add(w.LateGrace)
	lateUntil := start.Add(w.AbsentGrace)

	switch {
	case at.Before(open):
		return model.StatusNotOpen, ErrWindowNotOpen
	case at.After(lateUntil):
		return model.StatusAbsent, ErrWindowClosed
	case !at.After(presentUntil):
		return model.StatusPresent, nil
	default:
		return model.StatusLate, nil
	}
}

// WindowClosed 签到窗口是否已关闭
func WindowClosed(start, now time.Time, w GraceWindow) bool {
	return now.After(start.Add(w.AbsentGrace))
}

// EffectiveStatus 读取时惰性补记缺勤：窗口关闭后仍未记录的学生视为 ABSENT（不回写）
func EffectiveStatus(stored model.AttendanceStatus, windowClosed bool) model.AttendanceStatus {
	if stored == "" {
		stored = model.StatusUnrecorded
	}
	if windowClosed && stored == model.StatusUnrecorded {
		return model.StatusAbsent
	}
	return stored
}
