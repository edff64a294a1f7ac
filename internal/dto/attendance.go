package dto

import "time"

// ── 签到 / 出勤模块 DTO ──

// CheckInRequest 签到请求
// 学生本人签到时 student_id 取自 Token；教师代签时必须填写
type CheckInRequest struct {
	StudentID       string     `json:"student_id"       binding:"omitempty,max=64"`
	ClientTimestamp *time.Time `json:"client_timestamp"`
	Source          string     `json:"source"           binding:"omitempty,oneof=app qr manual"`
}

// CheckInResponse 签到结果
type CheckInResponse struct {
	Status       string    `json:"status"`
	ClassID      string    `json:"class_id"`
	Date         string    `json:"date"`
	SessionStart string    `json:"session_start"`
	SessionEnd   string    `json:"session_end"`
	CheckInTime  time.Time `json:"check_in_time"`
}

// DateQuery 通用日期查询参数，缺省为当天（固定时区）
type DateQuery struct {
	Date string `form:"date" binding:"omitempty,isodate"`
}

// SetStatusRequest 手动修改出勤状态
type SetStatusRequest struct {
	Date   string `json:"date"   binding:"omitempty,isodate"`
	Status string `json:"status" binding:"required,oneof=PRESENT LATE ABSENT UNRECORDED"`
}

// AttendanceEntryResponse 出勤条目
type AttendanceEntryResponse struct {
	StudentID   string     `json:"student_id"`
	Name        string     `json:"name,omitempty"`
	SeatLabel   string     `json:"seat_label,omitempty"`
	Status      string     `json:"status"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// AttendanceRecordResponse 某课某天的出勤记录
type AttendanceRecordResponse struct {
	ClassID      string                    `json:"class_id"`
	CourseName   string                    `json:"course_name"`
	Date         string                    `json:"date"`
	SessionStart string                    `json:"session_start"`
	SessionEnd   string                    `json:"session_end"`
	WindowClosed bool                      `json:"window_closed"`
	Entries      []AttendanceEntryResponse `json:"entries"`
	Counts       StatusCounts              `json:"counts"`
}

// StatusCounts 各状态人数（组装时统计，不落库）
type StatusCounts struct {
	Present    int `json:"present"`
	Late       int `json:"late"`
	Absent     int `json:"absent"`
	Unrecorded int `json:"unrecorded"`
}

// Add 按状态计数
func (c *StatusCounts) Add(status string) {
	switch status {
	case "PRESENT":
		c.Present++
	case "LATE":
		c.Late++
	case "ABSENT":
		c.Absent++
	default:
		c.Unrecorded++
	}
}
