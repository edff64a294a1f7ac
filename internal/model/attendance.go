package model

import "time"

// AttendanceStatus 出勤状态，按迟到程度递增排列
type AttendanceStatus string

const (
	StatusNotOpen    AttendanceStatus = "NOT_OPEN"
	StatusPresent    AttendanceStatus = "PRESENT"
	StatusLate       AttendanceStatus = "LATE"
	StatusAbsent     AttendanceStatus = "ABSENT"
	StatusUnrecorded AttendanceStatus = "UNRECORDED"
)

// Storable 可写入出勤记录的状态（NOT_OPEN 只用于拒绝签到，不落库）
func (s AttendanceStatus) Storable() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusUnrecorded:
		return true
	}
	return false
}

// CheckInSource 签到来源
type CheckInSource string

const (
	SourceApp    CheckInSource = "app"
	SourceQR     CheckInSource = "qr"
	SourceManual CheckInSource = "manual"
)

// Valid 校验签到来源
func (s CheckInSource) Valid() bool {
	switch s {
	case SourceApp, SourceQR, SourceManual:
		return true
	}
	return false
}

// AttendanceRecord 出勤记录表 — 对应 attendance_records，每个 (class_id, date) 一条
//
// SessionStart / SessionEnd 仅在创建时写入，之后任何更新都不会覆盖。
type AttendanceRecord struct {
	RecordID     string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                json:"record_id"     bson:"_id"`
	ClassID      string            `gorm:"type:varchar(64);not null;uniqueIndex:uq_attendance_class_date" json:"class_id"      bson:"classId"`
	Date         string            `gorm:"type:varchar(10);not null;uniqueIndex:uq_attendance_class_date" json:"date"          bson:"date"` // YYYY-MM-DD（固定时区）
	SessionStart string            `gorm:"type:varchar(5);not null;<-:create"                            json:"session_start" bson:"sessionStart"`
	SessionEnd   string            `gorm:"type:varchar(5);not null;<-:create"                            json:"session_end"   bson:"sessionEnd"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"                            json:"created_at"    bson:"createdAt"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"                            json:"updated_at"    bson:"updatedAt"`
	Entries      []AttendanceEntry `gorm:"foreignKey:RecordID;references:RecordID"                       json:"entries"       bson:"entries"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// Entry 按学生 ID 查找条目
func (r *AttendanceRecord) Entry(studentID string) (*AttendanceEntry, bool) {
	for i := range r.Entries {
		if r.Entries[i].StudentID == studentID {
			return &r.Entries[i], true
		}
	}
	return nil, false
}

// AttendanceEntry 出勤条目表 — 对应 attendance_entries，(record_id, student_id) 唯一
type AttendanceEntry struct {
	EntryID     string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                  json:"-"                       bson:"-"`
	RecordID    string           `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_entry_student"      json:"-"                       bson:"-"`
	StudentID   string           `gorm:"type:varchar(64);not null;uniqueIndex:uq_attendance_entry_student" json:"student_id"            bson:"studentId"`
	Status      AttendanceStatus `gorm:"type:varchar(16);not null;default:'UNRECORDED'"                  json:"status"                  bson:"status"`
	CheckInTime *time.Time       `json:"check_in_time,omitempty"                                         bson:"checkInTime,omitempty"`
	Source      *CheckInSource   `gorm:"type:varchar(10)"                                                json:"source,omitempty"        bson:"source,omitempty"`
	UpdatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"                              json:"updated_at"              bson:"updatedAt"`
}

// TableName 指定表名
func (AttendanceEntry) TableName() string { return "attendance_entries" }
