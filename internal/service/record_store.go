package service

import (
	"context"

	"go.uber.org/zap"

	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
)

// recordStore 出勤记录读写的唯一入口
// 记录以花名册为种子创建，session_start / session_end 取创建时解析出的有效时间。
type recordStore struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func newRecordStore(repo *repository.Repository, logger *zap.Logger) *recordStore {
	return &recordStore{repo: repo, logger: logger}
}

// ensureRecord 幂等：不存在则创建，已存在则原样返回（不修改任何条目）
func (s *recordStore) ensureRecord(ctx context.Context, course *model.Course, occ Occurrence) (*model.AttendanceRecord, error) {
	seed := &model.AttendanceRecord{
		ClassID:      course.ClassID,
		Date:         occ.Date,
		SessionStart: occ.StartTime,
		SessionEnd:   occ.EndTime,
		Entries:      make([]model.AttendanceEntry, 0, len(course.StudentIDs)),
	}
	seen := make(map[string]struct{}, len(course.StudentIDs))
	for _, id := range course.StudentIDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		seed.Entries = append(seed.Entries, model.AttendanceEntry{
			StudentID: id,
			Status:    model.StatusUnrecorded,
		})
	}

	rec, err := s.repo.Attendance.Ensure(ctx, seed)
	if err != nil {
		s.logger.Error("创建出勤记录失败",
			zap.String("class_id", course.ClassID),
			zap.String("date", occ.Date),
			zap.Error(err),
		)
		return nil, err
	}
	return rec, nil
}

// upsertEntry 确保记录存在后按学生 ID 原子写入条目；不在花名册中的学生会被追加
func (s *recordStore) upsertEntry(ctx context.Context, course *model.Course, occ Occurrence, entry *model.AttendanceEntry) (*model.AttendanceRecord, error) {
	if _, err := s.ensureRecord(ctx, course, occ); err != nil {
		return nil, err
	}
	rec, err := s.repo.Attendance.UpsertEntry(ctx, course.ClassID, occ.Date, entry)
	if err != nil {
		s.logger.Error("写入出勤条目失败",
			zap.String("class_id", course.ClassID),
			zap.String("date", occ.Date),
			zap.String("student_id", entry.StudentID),
			zap.Error(err),
		)
		return nil, err
	}
	return rec, nil
}
