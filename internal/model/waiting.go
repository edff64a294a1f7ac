package model

import "time"

// WaitingEntry 候课区中的一名学生（已到校但尚未入座）
type WaitingEntry struct {
	StudentID string    `json:"student_id"`
	EnteredAt time.Time `json:"entered_at"`
}
