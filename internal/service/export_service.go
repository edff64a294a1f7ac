package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"seatboard/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const (
	calendarDefaultDays = 28
	calendarMaxDays     = 186
	calendarProductID   = "-//seatboard//attendance//ZH"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出某课某天的出勤表为 Excel (.xlsx)，数据与 GetAttendance 完全一致（含惰性缺勤）
//   - 导出课程在某日期区间内的上课日历为 iCalendar (.ics)，供学生订阅
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportAttendance(ctx context.Context, classID, date string) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, classID, from, to string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo       *repository.Repository
	policy     *AttendancePolicy
	attendance AttendanceService
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, policy *AttendancePolicy, attendance AttendanceService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, policy: policy, attendance: attendance, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance — 导出出勤表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "出勤表"
//   - 第 1 行：课程名 / 日期 / 上课时间
//   - 第 2 行表头：学号 | 姓名 | 座位 | 状态 | 签到时间 | 来源
//   - 末尾汇总行：出勤 / 迟到 / 缺勤 / 未记录
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAttendance(ctx context.Context, classID, date string) (*bytes.Buffer, string, error) {
	rec, err := s.attendance.GetAttendance(ctx, classID, date)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "出勤表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 8)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 20)
	f.SetColWidth(sheetName, "F", "F", 8)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s  %s  %s-%s", rec.CourseName, rec.Date, rec.SessionStart, rec.SessionEnd))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"学号", "姓名", "座位", "状态", "签到时间", "来源"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "F2", headerStyle)

	// 数据行
	row := 3
	for _, e := range rec.Entries {
		checkIn := "-"
		if e.CheckInTime != nil {
			checkIn = e.CheckInTime.Format("2006-01-02 15:04:05")
		}
		f.SetCellValue(sheetName, cell("A", row), e.StudentID)
		f.SetCellValue(sheetName, cell("B", row), e.Name)
		f.SetCellValue(sheetName, cell("C", row), e.SeatLabel)
		f.SetCellValue(sheetName, cell("D", row), statusLabel(e.Status))
		f.SetCellValue(sheetName, cell("E", row), checkIn)
		f.SetCellValue(sheetName, cell("F", row), e.Source)
		row++
	}

	// 汇总行
	row++
	f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("出勤 %d / 迟到 %d / 缺勤 %d / 未记录 %d",
		rec.Counts.Present, rec.Counts.Late, rec.Counts.Absent, rec.Counts.Unrecorded))
	f.MergeCell(sheetName, cell("A", row), cell("F", row))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("出勤表_%s_%s.xlsx", rec.ClassID, rec.Date)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar — 导出上课日历为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 区间为闭区间 [from, to]：from 缺省为今天，to 缺省为 from 起 4 周，最长约半年。
// 每个有课日期一个 VEVENT，UID 由 class_id + 日期构成，重复导出时客户端按 UID 覆盖。
// 当天的教室 / 时间覆盖已经由排课解析应用；取消的日期不输出。

func (s *exportService) ExportCalendar(ctx context.Context, classID, from, to string) (*bytes.Buffer, string, error) {
	start, end, err := s.calendarRange(from, to)
	if err != nil {
		return nil, "", err
	}
	course, err := loadCourse(ctx, s.repo, classID)
	if err != nil {
		return nil, "", err
	}

	loc := s.policy.Location
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(course.Name)
	cal.SetXWRTimezone(loc.String())

	stamp := s.policy.now()
	events := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		occ, err := ResolveSchedule(course, day, s.policy.DefaultPeriod)
		if err != nil {
			return nil, "", err
		}
		if !occ.Active {
			continue
		}
		begin, finish, err := occ.Bounds(day)
		if err != nil {
			return nil, "", err
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%s@seatboard", course.ClassID, occ.Date))
		event.SetDtStampTime(stamp)
		event.SetStartAt(begin)
		event.SetEndAt(finish)
		event.SetSummary(course.Name)
		if occ.RoomNumber != nil {
			event.SetLocation(fmt.Sprintf("%d 教室", *occ.RoomNumber))
		}
		events++
	}

	s.logger.Debug("导出上课日历",
		zap.String("class_id", classID),
		zap.String("from", FormatDate(start, loc)),
		zap.String("to", FormatDate(end, loc)),
		zap.Int("events", events),
	)

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("%s_%s_%s.ics", course.ClassID, FormatDate(start, loc), FormatDate(end, loc))
	return buf, filename, nil
}

// calendarRange 解析并校验日历导出区间
func (s *exportService) calendarRange(from, to string) (time.Time, time.Time, error) {
	start, err := s.policy.resolveDay(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.AddDate(0, 0, calendarDefaultDays-1)
	if to != "" {
		if end, err = ParseDate(to, s.policy.Location); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to 不能早于 from", ErrInvalidInput)
	}
	if end.After(start.AddDate(0, 0, calendarMaxDays-1)) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 区间不能超过 %d 天", ErrInvalidInput, calendarMaxDays)
	}
	return start, end, nil
}

// ── 辅助函数 ──

func statusLabel(status string) string {
	switch status {
	case "PRESENT":
		return "出勤"
	case "LATE":
		return "迟到"
	case "ABSENT":
		return "缺勤"
	default:
		return "未记录"
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
