package model

import (
	"strconv"

	"gorm.io/datatypes"
)

// DateOverride 单日课程覆盖（教室 / 时间），字段为空表示沿用默认值
type DateOverride struct {
	RoomNumber *int    `json:"room_number,omitempty"`
	StartTime  *string `json:"start_time,omitempty"` // HH:MM
	EndTime    *string `json:"end_time,omitempty"`   // HH:MM
}

// DateOverrides 日期(YYYY-MM-DD) → 单日覆盖
type DateOverrides map[string]DateOverride

// SeatAssignment 座位标签 → 学生 ID
type SeatAssignment map[string]string

// SeatMap 教室号 → 座位分配，教室号以字符串作为 JSON 键
type SeatMap map[string]SeatAssignment

// Course 课程（班级）表 — 对应 courses
type Course struct {
	CourseID       string                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	ClassID        string                             `gorm:"type:varchar(64);uniqueIndex;not null"          json:"class_id"` // 对外稳定标识
	AcademyNumber  int                                `gorm:"not null;index"                                 json:"academy_number"`
	Name           string                             `gorm:"type:varchar(100);not null"                     json:"name"`
	TeacherID      string                             `gorm:"type:varchar(64)"                               json:"teacher_id,omitempty"`
	DaysOfWeek     IntArray                           `gorm:"type:int[];not null;default:'{}'"               json:"days_of_week"` // 1=周一 … 7=周日
	StartTime      string                             `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime        *string                            `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	RoomNumber     *int                               `json:"room_number,omitempty"`
	ExtraDates     datatypes.JSONSlice[string]        `gorm:"type:jsonb;not null;default:'[]'"               json:"extra_dates"`
	CancelledDates datatypes.JSONSlice[string]        `gorm:"type:jsonb;not null;default:'[]'"               json:"cancelled_dates"`
	DateOverrides  datatypes.JSONType[DateOverrides]  `gorm:"type:jsonb;not null;default:'{}'"               json:"date_overrides"`
	StudentIDs     datatypes.JSONSlice[string]        `gorm:"type:jsonb;not null;default:'[]'"               json:"student_ids"`
	SeatMap        datatypes.JSONType[SeatMap]        `gorm:"type:jsonb;not null;default:'{}'"               json:"seat_map"`

	LateGraceMinutes   *int `json:"late_grace_minutes,omitempty"`
	AbsentGraceMinutes *int `json:"absent_grace_minutes,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Overrides 返回单日覆盖表（不会返回 nil）
func (c *Course) Overrides() DateOverrides {
	m := c.DateOverrides.Data()
	if m == nil {
		return DateOverrides{}
	}
	return m
}

// SetOverride 写入或清除单日覆盖
func (c *Course) SetOverride(date string, o *DateOverride) {
	m := DateOverrides{}
	for k, v := range c.DateOverrides.Data() {
		m[k] = v
	}
	if o == nil {
		delete(m, date)
	} else {
		m[date] = *o
	}
	c.DateOverrides = datatypes.NewJSONType(m)
}

// SeatsInRoom 返回指定教室的座位分配副本
func (c *Course) SeatsInRoom(roomNumber int) SeatAssignment {
	out := SeatAssignment{}
	for label, studentID := range c.SeatMap.Data()[strconv.Itoa(roomNumber)] {
		out[label] = studentID
	}
	return out
}

// SetSeatsInRoom 覆盖指定教室的座位分配
func (c *Course) SetSeatsInRoom(roomNumber int, seats SeatAssignment) {
	m := SeatMap{}
	for k, v := range c.SeatMap.Data() {
		m[k] = v
	}
	key := strconv.Itoa(roomNumber)
	if len(seats) == 0 {
		delete(m, key)
	} else {
		m[key] = seats
	}
	c.SeatMap = datatypes.NewJSONType(m)
}

// HasStudent 判断学生是否在花名册中
func (c *Course) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
