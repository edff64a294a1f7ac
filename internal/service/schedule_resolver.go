package service

import (
	"fmt"
	"sort"
	"time"

	"seatboard/backend/internal/model"
)

// ── 排课解析 ──────────────────────────────────────────────
//
// 纯计算，不做任何 I/O：
//   - 取消日期优先于加课日期与每周重复；
//   - 教室：单日覆盖 → 课程默认教室 → 无教室；
//   - 时间：单日覆盖 → 课程默认时间；无结束时间时按默认课时推算。
// ─────────────────────────────────────────────────────────────

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Occurrence 某门课在某一天的解析结果
type Occurrence struct {
	Active     bool
	Date       string
	RoomNumber *int
	StartTime  string // HH:MM
	EndTime    string // HH:MM
}

// Bounds 返回 day 当天的起止时刻；结束不晚于开始时视为跨午夜，结束顺延一天
func (o Occurrence) Bounds(day time.Time) (start, end time.Time, err error) {
	if start, err = At(day, o.StartTime); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = At(day, o.EndTime); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// ParseDate 在指定时区解析 YYYY-MM-DD，返回当天零点
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日期格式应为 YYYY-MM-DD", ErrInvalidInput)
	}
	return d, nil
}

// FormatDate 返回 t 在指定时区的日历日期
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// ISOWeekday 1=周一 … 7=周日
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// parseClock 解析 HH:MM，返回自零点起的偏移
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: 时间格式应为 HH:MM (%q)", ErrInvalidInput, s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// At 返回 date 当天 clock 时刻（date 须为所在时区的零点）
func At(date time.Time, clock string) (time.Time, error) {
	off, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()).Add(off), nil
}

func containsDate(dates []string, d string) bool {
	for _, x := range dates {
		if x == d {
			return true
		}
	}
	return false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// ResolveSchedule 计算课程在 date 当天是否上课、所用教室与有效起止时间
func ResolveSchedule(course *model.Course, date time.Time, defaultPeriod time.Duration) (Occurrence, error) {
	day := date.Format(dateLayout)
	occ := Occurrence{Date: day}

	switch {
	case containsDate(course.CancelledDates, day):
		occ.Active = false
	case containsDate(course.ExtraDates, day):
		occ.Active = true
	default:
		occ.Active = containsInt(course.DaysOfWeek, ISOWeekday(date))
	}

	override, hasOverride := course.Overrides()[day]

	// 教室
	switch {
	case hasOverride && override.RoomNumber != nil:
		room := *override.RoomNumber
		occ.RoomNumber = &room
	case course.RoomNumber != nil:
		room := *course.RoomNumber
		occ.RoomNumber = &room
	}

	// 时间
	occ.StartTime = course.StartTime
	end := course.EndTime
	if hasOverride && override.StartTime != nil {
		occ.StartTime = *override.StartTime
		// 覆盖了开始时间但未覆盖结束时间时，结束时间按默认课时重新推算
		end = nil
	}
	if hasOverride && override.EndTime != nil {
		end = override.EndTime
	}

	start, err := parseClock(occ.StartTime)
	if err != nil {
		return Occurrence{}, err
	}
	if end != nil && *end != "" {
		if _, err := parseClock(*end); err != nil {
			return Occurrence{}, err
		}
		occ.EndTime = *end
	} else {
		occ.EndTime = formatClock(start + defaultPeriod)
	}

	return occ, nil
}

func formatClock(d time.Duration) string {
	d %= 24 * time.Hour
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ── 教室占用仲裁 ──

// RoomOccupant 某教室某天的一个候选课程
type RoomOccupant struct {
	Course     *model.Course
	Occurrence Occurrence
	Start      time.Time
}

// PickOccupant 同一教室同一天有多门课时，选开始时间距 now 最近者；距离相同取开始较早者
func PickOccupant(candidates []RoomOccupant, now time.Time) (*RoomOccupant, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	sorted := make([]RoomOccupant, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := absDuration(sorted[i].Start.Sub(now)), absDuration(sorted[j].Start.Sub(now))
		if di != dj {
			return di < dj
		}
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].Course.ClassID < sorted[j].Course.ClassID
	})
	return &sorted[0], true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// OccupantsByRoom 解析学院全部课程在 date 当天的教室占用，按教室号分组
// 解析失败（时间配置损坏）的课程被跳过并通过 skipped 返回。
func OccupantsByRoom(courses []model.Course, date time.Time, defaultPeriod time.Duration) (byRoom map[int][]RoomOccupant, skipped []string) {
	byRoom = make(map[int][]RoomOccupant)
	for i := range courses {
		c := &courses[i]
		occ, err := ResolveSchedule(c, date, defaultPeriod)
		if err != nil {
			skipped = append(skipped, c.ClassID)
			continue
		}
		if !occ.Active || occ.RoomNumber == nil {
			continue
		}
		start, _, err := occ.Bounds(date)
		if err != nil {
			skipped = append(skipped, c.ClassID)
			continue
		}
		byRoom[*occ.RoomNumber] = append(byRoom[*occ.RoomNumber], RoomOccupant{
			Course:     c,
			Occurrence: occ,
			Start:      start,
		})
	}
	return byRoom, skipped
}
