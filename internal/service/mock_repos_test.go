package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
	pkgerrors "seatboard/backend/pkg/errors"
)

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[string]*model.Course
	// conflicts 接下来多少次 Update 模拟乐观锁冲突
	conflicts int
	updates   int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) add(c *model.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.CourseID == "" {
		c.CourseID = "course-" + c.ClassID
	}
	if c.Version == 0 {
		c.Version = 1
	}
	m.courses[c.ClassID] = cloneCourse(c)
}

func (m *mockCourseRepo) get(classID string) *model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneCourse(m.courses[classID])
}

func (m *mockCourseRepo) GetByClassID(_ context.Context, classID string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[classID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneCourse(c), nil
}

func (m *mockCourseRepo) ListByAcademy(_ context.Context, academyNumber int) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Course
	for _, c := range m.courses {
		if c.AcademyNumber == academyNumber {
			result = append(result, *cloneCourse(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClassID < result[j].ClassID })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.conflicts > 0 {
		m.conflicts--
		// 模拟其他请求抢先写入
		m.courses[course.ClassID].Version++
		return pkgerrors.ErrOptimisticLock
	}
	stored, ok := m.courses[course.ClassID]
	if !ok || stored.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version++
	m.courses[course.ClassID] = cloneCourse(course)
	return nil
}

func cloneCourse(c *model.Course) *model.Course {
	if c == nil {
		return nil
	}
	out := *c
	out.DaysOfWeek = append(model.IntArray(nil), c.DaysOfWeek...)
	out.ExtraDates = append(datatypes.JSONSlice[string](nil), c.ExtraDates...)
	out.CancelledDates = append(datatypes.JSONSlice[string](nil), c.CancelledDates...)
	out.StudentIDs = append(datatypes.JSONSlice[string](nil), c.StudentIDs...)

	overrides := model.DateOverrides{}
	for k, v := range c.DateOverrides.Data() {
		overrides[k] = v
	}
	out.DateOverrides = datatypes.NewJSONType(overrides)

	seatMap := model.SeatMap{}
	for room, seats := range c.SeatMap.Data() {
		cp := model.SeatAssignment{}
		for l, s := range seats {
			cp[l] = s
		}
		seatMap[room] = cp
	}
	out.SeatMap = datatypes.NewJSONType(seatMap)
	return &out
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms map[[2]int]*model.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[[2]int]*model.Room)}
}

func (m *mockRoomRepo) add(r *model.Room) {
	m.rooms[[2]int{r.AcademyNumber, r.RoomNumber}] = r
}

func (m *mockRoomRepo) Get(_ context.Context, academyNumber, roomNumber int) (*model.Room, error) {
	if r, ok := m.rooms[[2]int{academyNumber, roomNumber}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) ListByAcademy(_ context.Context, academyNumber int) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if r.AcademyNumber == academyNumber {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoomNumber < result[j].RoomNumber })
	return result, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]model.Student)}
}

func (m *mockStudentRepo) add(id, name string) {
	m.students[id] = model.Student{StudentID: id, Name: name}
}

func (m *mockStudentRepo) GetByIDs(_ context.Context, ids []string) ([]model.Student, error) {
	var result []model.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}

// ── Mock AttendanceRepository ──
//
// 与真实存储相同的契约：(class_id, date) 唯一、每个学生至多一个条目。

type mockAttendanceRepo struct {
	mu       sync.Mutex
	records  map[string]*model.AttendanceRecord
	ensures  int
	upserts  int
	failFor  map[string]error // class_id → Ensure 返回的错误
	sequence int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[string]*model.AttendanceRecord),
		failFor: make(map[string]error),
	}
}

func attendanceKey(classID, date string) string { return classID + "|" + date }

func (m *mockAttendanceRepo) Get(_ context.Context, classID, date string) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[attendanceKey(classID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (m *mockAttendanceRepo) Ensure(_ context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensures++
	if err := m.failFor[rec.ClassID]; err != nil {
		return nil, err
	}
	key := attendanceKey(rec.ClassID, rec.Date)
	if existing, ok := m.records[key]; ok {
		return cloneRecord(existing), nil
	}
	m.sequence++
	stored := cloneRecord(rec)
	stored.RecordID = fmt.Sprintf("rec-%d", m.sequence)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.records[key] = stored
	return cloneRecord(stored), nil
}

func (m *mockAttendanceRepo) UpsertEntry(_ context.Context, classID, date string, entry *model.AttendanceEntry) (*model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	rec, ok := m.records[attendanceKey(classID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	row := *entry
	row.UpdatedAt = time.Now()
	if e, found := rec.Entry(entry.StudentID); found {
		*e = row
	} else {
		rec.Entries = append(rec.Entries, row)
	}
	return cloneRecord(rec), nil
}

func cloneRecord(r *model.AttendanceRecord) *model.AttendanceRecord {
	out := *r
	out.Entries = append([]model.AttendanceEntry(nil), r.Entries...)
	return &out
}

// ── Mock WaitingRoomRepository ──

type mockWaitingRoom struct {
	mu      sync.Mutex
	entries map[int]map[string]time.Time
	listErr error
}

func newMockWaitingRoom() *mockWaitingRoom {
	return &mockWaitingRoom{entries: make(map[int]map[string]time.Time)}
}

func (m *mockWaitingRoom) EnterWaiting(_ context.Context, academyNumber int, studentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[academyNumber] == nil {
		m.entries[academyNumber] = make(map[string]time.Time)
	}
	m.entries[academyNumber][studentID] = at
	return nil
}

func (m *mockWaitingRoom) LeaveWaiting(_ context.Context, academyNumber int, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[academyNumber], studentID)
	return nil
}

func (m *mockWaitingRoom) ListWaiting(_ context.Context, academyNumber int) ([]model.WaitingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.WaitingEntry
	for id, at := range m.entries[academyNumber] {
		result = append(result, model.WaitingEntry{StudentID: id, EnteredAt: at})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EnteredAt.Equal(result[j].EnteredAt) {
			return result[i].EnteredAt.Before(result[j].EnteredAt)
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

// ═══════════════════════════════════════════════════════════
// 测试环境
// ═══════════════════════════════════════════════════════════

// testKST 固定 +09:00，避免依赖系统 tzdata
var testKST = time.FixedZone("KST", 9*60*60)

type testEnv struct {
	repo       *repository.Repository
	courses    *mockCourseRepo
	rooms      *mockRoomRepo
	students   *mockStudentRepo
	attendance *mockAttendanceRepo
	waiting    *mockWaitingRoom
	policy     *AttendancePolicy
	now        time.Time
}

func newTestEnv() *testEnv {
	e := &testEnv{
		courses:    newMockCourseRepo(),
		rooms:      newMockRoomRepo(),
		students:   newMockStudentRepo(),
		attendance: newMockAttendanceRepo(),
		waiting:    newMockWaitingRoom(),
	}
	e.repo = &repository.Repository{
		Course:      e.courses,
		Room:        e.rooms,
		Student:     e.students,
		Attendance:  e.attendance,
		WaitingRoom: e.waiting,
	}
	e.policy = &AttendancePolicy{
		Location:        testKST,
		OpenBefore:      5 * time.Minute,
		LateGrace:       5 * time.Minute,
		AbsentGrace:     20 * time.Minute,
		DefaultPeriod:   50 * time.Minute,
		ClientClockSkew: 2 * time.Minute,
		Now:             func() time.Time { return e.now },
	}
	e.setNow("2024-06-03 10:00")
	return e
}

// setNow 设置测试时钟，格式 "YYYY-MM-DD HH:MM"（KST）
func (e *testEnv) setNow(s string) {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, testKST)
	if err != nil {
		panic(err)
	}
	e.now = t
}

func kst(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, testKST)
	if err != nil {
		panic(err)
	}
	return t
}

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool { return &v }

// mathCourse 周一/三/五 10:00，101 教室，三名学生
func mathCourse() *model.Course {
	return &model.Course{
		ClassID:       "math-101",
		AcademyNumber: 1,
		Name:          "数学",
		DaysOfWeek:    model.IntArray{1, 3, 5},
		StartTime:     "10:00",
		RoomNumber:    intPtr(101),
		StudentIDs:    datatypes.JSONSlice[string]{"stu001", "stu002", "stu003"},
	}
}

// gridRoom 2×2 网格：A1 A2 / B1 B2
func gridRoom(academy, number int) *model.Room {
	return &model.Room{
		AcademyNumber: academy,
		RoomNumber:    number,
		Name:          fmt.Sprintf("%d 教室", number),
		LayoutType:    model.LayoutGrid,
		LayoutVersion: 1,
		GridLayout: datatypes.NewJSONType(model.GridLayout{
			Rows: 2,
			Cols: 2,
			Cells: []model.GridCell{
				{Label: "A1", Row: 0, Col: 0},
				{Label: "A2", Row: 0, Col: 1},
				{Label: "B1", Row: 1, Col: 0},
				{Label: "B2", Row: 1, Col: 1},
			},
		}),
	}
}
