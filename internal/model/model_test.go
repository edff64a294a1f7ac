package model

import (
	"testing"

	"gorm.io/datatypes"
)

func TestIntArray_ScanValue(t *testing.T) {
	var a IntArray
	if err := a.Scan([]byte("{1,3,5}")); err != nil {
		t.Fatalf("Scan 失败: %v", err)
	}
	if len(a) != 3 || a[0] != 1 || a[2] != 5 {
		t.Errorf("Scan 结果错误: %v", a)
	}

	v, err := a.Value()
	if err != nil || v != "{1,3,5}" {
		t.Errorf("Value = %v, %v", v, err)
	}

	if err := a.Scan("{}"); err != nil || len(a) != 0 {
		t.Errorf("空数组解析错误: %v %v", a, err)
	}
	if err := a.Scan("{1,x}"); err == nil {
		t.Error("非法元素应返回错误")
	}
	if err := a.Scan(42); err == nil {
		t.Error("不支持的类型应返回错误")
	}
}

func TestRoom_Seats(t *testing.T) {
	grid := &Room{
		LayoutType: LayoutGrid,
		GridLayout: datatypes.NewJSONType(GridLayout{
			Rows: 1, Cols: 2,
			Cells: []GridCell{{Label: "A1", Row: 0, Col: 0}, {Label: "A2", Row: 0, Col: 1, Disabled: true}},
		}),
	}
	seats := grid.Seats()
	if len(seats) != 2 {
		t.Fatalf("期望 2 个座位，实际 %d", len(seats))
	}
	if *seats[1].Col != 1 || !seats[1].Disabled || seats[1].X != nil {
		t.Errorf("网格座位展开错误: %+v", seats[1])
	}
	// 每个座位持有独立的指针
	if seats[0].Col == seats[1].Col {
		t.Error("座位坐标指针不应共享")
	}

	vector := &Room{
		LayoutType: LayoutVector,
		VectorLayout: datatypes.NewJSONType(VectorLayout{
			Seats: []VectorSeat{{Label: "1", X: 5, Y: 6, W: 30, H: 30, Rotation: 90}},
		}),
	}
	vs := vector.Seats()
	if len(vs) != 1 || *vs[0].Rotation != 90 || vs[0].Row != nil {
		t.Errorf("矢量座位展开错误: %+v", vs)
	}
}

func TestCourse_SeatHelpers(t *testing.T) {
	c := &Course{}
	if len(c.SeatsInRoom(101)) != 0 {
		t.Error("未分配时应返回空映射")
	}

	c.SetSeatsInRoom(101, SeatAssignment{"A1": "stu001"})
	seats := c.SeatsInRoom(101)
	seats["A2"] = "stu002"
	if len(c.SeatsInRoom(101)) != 1 {
		t.Error("SeatsInRoom 应返回副本")
	}

	c.SetSeatsInRoom(101, nil)
	if _, ok := c.SeatMap.Data()["101"]; ok {
		t.Error("清空后应删除教室键")
	}
}

func TestCourse_Overrides(t *testing.T) {
	c := &Course{}
	if c.Overrides() == nil {
		t.Fatal("Overrides 不应返回 nil")
	}
	room := 202
	c.SetOverride("2024-06-03", &DateOverride{RoomNumber: &room})
	if o, ok := c.Overrides()["2024-06-03"]; !ok || *o.RoomNumber != 202 {
		t.Errorf("覆盖写入错误: %+v", c.Overrides())
	}
	c.SetOverride("2024-06-03", nil)
	if len(c.Overrides()) != 0 {
		t.Error("覆盖应被清除")
	}
}

func TestAttendanceStatus(t *testing.T) {
	if StatusNotOpen.Storable() {
		t.Error("NOT_OPEN 不可落库")
	}
	for _, s := range []AttendanceStatus{StatusPresent, StatusLate, StatusAbsent, StatusUnrecorded} {
		if !s.Storable() {
			t.Errorf("%s 应可落库", s)
		}
	}
	if !SourceQR.Valid() || CheckInSource("nfc").Valid() {
		t.Error("签到来源校验错误")
	}

	rec := &AttendanceRecord{Entries: []AttendanceEntry{{StudentID: "stu001"}}}
	e, ok := rec.Entry("stu001")
	if !ok {
		t.Fatal("应找到条目")
	}
	e.Status = StatusLate
	if rec.Entries[0].Status != StatusLate {
		t.Error("Entry 应返回可修改的指针")
	}
	if _, ok := rec.Entry("stu999"); ok {
		t.Error("不存在的学生不应找到")
	}
}
