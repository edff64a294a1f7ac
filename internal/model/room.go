package model

import "gorm.io/datatypes"

// 教室布局类型
const (
	LayoutGrid   = "grid"
	LayoutVector = "vector"
)

// GridCell 网格布局中的一个座位格
type GridCell struct {
	Label    string `json:"label"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Disabled bool   `json:"disabled"`
}

// GridLayout 固定行列的网格布局
type GridLayout struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Cells []GridCell `json:"cells"`
}

// VectorSeat 自由布局中的一个座位（几何坐标 + 旋转角度）
type VectorSeat struct {
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Rotation float64 `json:"rotation"`
	Disabled bool    `json:"disabled"`
}

// VectorLayout 自由（矢量）布局
type VectorLayout struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Seats  []VectorSeat `json:"seats"`
}

// Room 教室表 — 对应 rooms，(academy_number, room_number) 唯一
type Room struct {
	RoomID        string                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"       json:"room_id"`
	AcademyNumber int                              `gorm:"not null;uniqueIndex:uq_rooms_academy_room,priority:1" json:"academy_number"`
	RoomNumber    int                              `gorm:"not null;uniqueIndex:uq_rooms_academy_room,priority:2" json:"room_number"`
	Name          string                           `gorm:"type:varchar(100)"                                    json:"name,omitempty"`
	LayoutType    string                           `gorm:"type:varchar(10);not null;default:'grid'"             json:"layout_type"` // grid | vector
	LayoutVersion int                              `gorm:"not null;default:1"                                   json:"layout_version"`
	GridLayout    datatypes.JSONType[GridLayout]   `gorm:"type:jsonb"                                           json:"grid_layout"`
	VectorLayout  datatypes.JSONType[VectorLayout] `gorm:"type:jsonb"                                           json:"vector_layout"`
	BaseModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }

// LayoutSeat 与布局类型无关的座位几何描述
type LayoutSeat struct {
	Label    string
	Disabled bool
	Row      *int
	Col      *int
	X        *float64
	Y        *float64
	W        *float64
	H        *float64
	Rotation *float64
}

// Seats 按当前生效的布局展开座位列表
func (r *Room) Seats() []LayoutSeat {
	if r.LayoutType == LayoutVector {
		v := r.VectorLayout.Data()
		seats := make([]LayoutSeat, 0, len(v.Seats))
		for _, s := range v.Seats {
			s := s
			seats = append(seats, LayoutSeat{
				Label:    s.Label,
				Disabled: s.Disabled,
				X:        &s.X,
				Y:        &s.Y,
				W:        &s.W,
				H:        &s.H,
				Rotation: &s.Rotation,
			})
		}
		return seats
	}

	g := r.GridLayout.Data()
	seats := make([]LayoutSeat, 0, len(g.Cells))
	for _, c := range g.Cells {
		c := c
		seats = append(seats, LayoutSeat{
			Label:    c.Label,
			Disabled: c.Disabled,
			Row:      &c.Row,
			Col:      &c.Col,
		})
	}
	return seats
}
