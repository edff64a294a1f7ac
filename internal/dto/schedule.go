package dto

// ── 排课例外 DTO ──

// DateExceptionRequest 单日排课例外
// cancelled / extra 互斥；clear_override 为 true 时删除当天的教室 / 时间覆盖
type DateExceptionRequest struct {
	Cancelled     *bool   `json:"cancelled"`
	Extra         *bool   `json:"extra"`
	RoomNumber    *int    `json:"room_number"    binding:"omitempty,min=1"`
	StartTime     *string `json:"start_time"     binding:"omitempty,hhmm"`
	EndTime       *string `json:"end_time"       binding:"omitempty,hhmm"`
	ClearOverride bool    `json:"clear_override"`
}

// OccurrenceResponse 某课某天的排课解析结果
type OccurrenceResponse struct {
	ClassID    string `json:"class_id"`
	Date       string `json:"date"`
	Active     bool   `json:"active"`
	RoomNumber *int   `json:"room_number"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// CalendarQuery 上课日历导出区间，闭区间；缺省从今天起 4 周
type CalendarQuery struct {
	From string `form:"from" binding:"omitempty,isodate"`
	To   string `form:"to"   binding:"omitempty,isodate"`
}
