package dto

// ── 座位看板 DTO ──

// AssignSeatRequest 分配 / 清空座位；student_id 为 null 表示清空
type AssignSeatRequest struct {
	Date      string  `json:"date"       binding:"omitempty,isodate"`
	StudentID *string `json:"student_id" binding:"omitempty,min=1,max=64"`
}

// SeatResponse 看板中的一个座位
type SeatResponse struct {
	Label     string   `json:"label"`
	Disabled  bool     `json:"disabled"`
	Placed    bool     `json:"placed"` // 布局中存在该座位；false 表示仅存在于座位分配中
	Row       *int     `json:"row,omitempty"`
	Col       *int     `json:"col,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	W         *float64 `json:"w,omitempty"`
	H         *float64 `json:"h,omitempty"`
	Rotation  *float64 `json:"rotation,omitempty"`
	StudentID *string  `json:"student_id"`
	Status    string   `json:"status"`
}

// SeatBoardResponse 座位看板（派生视图，不落库）
type SeatBoardResponse struct {
	AcademyNumber int            `json:"academy_number"`
	RoomNumber    int            `json:"room_number"`
	RoomName      string         `json:"room_name,omitempty"`
	Date          string         `json:"date"`
	LayoutType    string         `json:"layout_type,omitempty"`
	LayoutVersion int            `json:"layout_version,omitempty"`
	ClassID       string         `json:"class_id,omitempty"`
	CourseName    string         `json:"course_name,omitempty"`
	SessionStart  string         `json:"session_start,omitempty"`
	SessionEnd    string         `json:"session_end,omitempty"`
	Seats         []SeatResponse `json:"seats"`
	Counts        StatusCounts   `json:"counts"`
}
