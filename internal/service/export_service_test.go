package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testEnv) {
	env := newTestEnv()
	env.courses.add(mathCourse())
	env.students.add("stu001", "金民俊")
	env.students.add("stu002", "李书妍")
	att := NewAttendanceService(env.repo, env.policy, zap.NewNop())
	return NewExportService(env.repo, env.policy, att, zap.NewNop()), env
}

func TestExportService_ExportAttendance(t *testing.T) {
	svc, env := setupTestExportService()
	att := NewAttendanceService(env.repo, env.policy, zap.NewNop())

	env.setNow("2024-06-03 10:08")
	if _, err := att.CheckIn(context.Background(), "math-101", &dto.CheckInRequest{StudentID: "stu002"}); err != nil {
		t.Fatalf("CheckIn 失败: %v", err)
	}
	env.setNow("2024-06-03 11:00")

	buf, filename, err := svc.ExportAttendance(context.Background(), "math-101", "2024-06-03")
	if err != nil {
		t.Fatalf("ExportAttendance 失败: %v", err)
	}
	if filename != "出勤表_math-101_2024-06-03.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法解析导出的 Excel: %v", err)
	}
	defer f.Close()

	title, _ := f.GetCellValue("出勤表", "A1")
	if !strings.Contains(title, "数学") || !strings.Contains(title, "10:00-10:50") {
		t.Errorf("标题行错误: %q", title)
	}
	header, _ := f.GetCellValue("出勤表", "D2")
	if header != "状态" {
		t.Errorf("表头错误: %q", header)
	}

	rows, err := f.GetRows("出勤表")
	if err != nil {
		t.Fatalf("读取行失败: %v", err)
	}
	got := map[string]string{}
	for _, r := range rows[2:] {
		if len(r) >= 4 && strings.HasPrefix(r[0], "stu") {
			got[r[0]] = r[3]
		}
	}
	if got["stu002"] != "迟到" || got["stu001"] != "缺勤" || got["stu003"] != "缺勤" {
		t.Errorf("状态列错误: %v", got)
	}

	summary := rows[len(rows)-1][0]
	if summary != "出勤 0 / 迟到 1 / 缺勤 2 / 未记录 0" {
		t.Errorf("汇总行错误: %q", summary)
	}
}

func TestExportService_ExportAttendance_NotScheduled(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportAttendance(context.Background(), "math-101", "2024-06-04")
	if !errors.Is(err, ErrNotScheduledToday) {
		t.Errorf("期望 ErrNotScheduledToday，实际 %v", err)
	}
}

func TestExportService_ExportCalendar(t *testing.T) {
	env := newTestEnv()
	course := mathCourse()
	course.CancelledDates = datatypes.JSONSlice[string]{"2024-06-05"}
	course.ExtraDates = datatypes.JSONSlice[string]{"2024-06-08"}
	course.SetOverride("2024-06-07", &model.DateOverride{RoomNumber: intPtr(202), StartTime: strPtr("14:00")})
	env.courses.add(course)
	env.setNow("2024-06-01 09:00")
	svc := NewExportService(env.repo, env.policy, NewAttendanceService(env.repo, env.policy, zap.NewNop()), zap.NewNop())

	buf, filename, err := svc.ExportCalendar(context.Background(), "math-101", "2024-06-03", "2024-06-09")
	if err != nil {
		t.Fatalf("ExportCalendar 失败: %v", err)
	}
	if filename != "math-101_2024-06-03_2024-06-09.ics" {
		t.Errorf("文件名错误: %s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("无法解析导出的日历: %v", err)
	}
	events := cal.Events()
	// 周一、周五（周三取消）+ 周六加课
	if len(events) != 3 {
		t.Fatalf("期望 3 个事件，实际 %d", len(events))
	}

	want := map[string]struct {
		start    string
		location string
	}{
		"math-101-2024-06-03@seatboard": {"2024-06-03 10:00", "101 教室"},
		"math-101-2024-06-07@seatboard": {"2024-06-07 14:00", "202 教室"},
		"math-101-2024-06-08@seatboard": {"2024-06-08 10:00", "101 教室"},
	}
	for _, evt := range events {
		w, ok := want[evt.Id()]
		if !ok {
			t.Errorf("意外的事件 %s", evt.Id())
			continue
		}
		start, err := evt.GetStartAt()
		if err != nil || !start.Equal(kst(w.start)) {
			t.Errorf("%s 开始时间错误: %v %v", evt.Id(), start, err)
		}
		if loc := evt.GetProperty(ics.ComponentPropertyLocation); loc == nil || loc.Value != w.location {
			t.Errorf("%s 地点错误: %+v", evt.Id(), loc)
		}
		if sum := evt.GetProperty(ics.ComponentPropertySummary); sum == nil || sum.Value != "数学" {
			t.Errorf("%s 标题错误: %+v", evt.Id(), sum)
		}
	}
}

func TestExportService_ExportCalendar_CrossesMidnight(t *testing.T) {
	env := newTestEnv()
	course := mathCourse()
	course.StartTime = "23:30"
	env.courses.add(course)
	svc := NewExportService(env.repo, env.policy, NewAttendanceService(env.repo, env.policy, zap.NewNop()), zap.NewNop())

	buf, _, err := svc.ExportCalendar(context.Background(), "math-101", "2024-06-03", "2024-06-03")
	if err != nil {
		t.Fatalf("ExportCalendar 失败: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("无法解析导出的日历: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际 %d", len(events))
	}
	start, _ := events[0].GetStartAt()
	end, err := events[0].GetEndAt()
	if err != nil {
		t.Fatalf("读取 DTEND 失败: %v", err)
	}
	if !end.After(start) || !end.Equal(kst("2024-06-04 00:20")) {
		t.Errorf("DTEND 应为次日 00:20，实际 %v - %v", start, end)
	}
}

func TestExportService_ExportCalendar_Range(t *testing.T) {
	svc, env := setupTestExportService()
	env.setNow("2024-06-03 09:00")

	tests := []struct {
		name     string
		from, to string
		wantErr  error
	}{
		{"缺省区间", "", "", nil},
		{"终点早于起点", "2024-06-10", "2024-06-03", ErrInvalidInput},
		{"区间过长", "2024-01-01", "2024-12-31", ErrInvalidInput},
		{"日期格式错误", "2024/06/03", "", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ExportCalendar(context.Background(), "math-101", tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}

	_, filename, _ := svc.ExportCalendar(context.Background(), "math-101", "", "")
	if filename != "math-101_2024-06-03_2024-06-30.ics" {
		t.Errorf("缺省区间应为 4 周: %s", filename)
	}

	if _, _, err := svc.ExportCalendar(context.Background(), "nope", "", ""); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际 %v", err)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := map[string]string{
		"PRESENT":    "出勤",
		"LATE":       "迟到",
		"ABSENT":     "缺勤",
		"UNRECORDED": "未记录",
	}
	for status, want := range tests {
		if got := statusLabel(status); got != want {
			t.Errorf("statusLabel(%s) = %s，期望 %s", status, got, want)
		}
	}
}
