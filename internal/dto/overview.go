package dto

import "time"

// ── 院长总览 DTO ──

// RoomStatusResponse 单个教室的状态；组装失败时 Error 非空且座位为空
type RoomStatusResponse struct {
	SeatBoardResponse
	Error string `json:"error,omitempty"`
}

// WaitingItemResponse 候课区条目
type WaitingItemResponse struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	EnteredAt time.Time `json:"entered_at"`
}

// OverviewResponse 学院总览
type OverviewResponse struct {
	AcademyNumber int                   `json:"academy_number"`
	Date          string                `json:"date"`
	Rooms         []RoomStatusResponse  `json:"rooms"`
	Waiting       []WaitingItemResponse `json:"waiting"`
}
