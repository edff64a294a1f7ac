package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Course     CourseRepository
	Room       RoomRepository
	Student    StudentRepository
	Attendance AttendanceRepository
	// WaitingRoom 为 nil 表示 Redis 不可用，候课区降级为空
	WaitingRoom WaitingRoomRepository
}

// NewRepository 创建 Repository 聚合（出勤记录默认存 PostgreSQL）
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Course:     NewCourseRepo(db),
		Room:       NewRoomRepo(db),
		Student:    NewStudentRepo(db),
		Attendance: NewAttendanceRepo(db),
	}
}
