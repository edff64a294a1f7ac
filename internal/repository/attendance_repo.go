package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"seatboard/backend/internal/model"
)

// AttendanceRepository 出勤记录数据访问接口
//
// 存储层需保证：
//   - 每个 (class_id, date) 至多一条记录，Ensure 为插入即返回、已存在则原样返回；
//   - 每条记录内每个学生至多一个条目，UpsertEntry 为按 student_id 的原子 upsert；
//   - session_start / session_end 仅在创建时写入。
type AttendanceRepository interface {
	Get(ctx context.Context, classID, date string) (*model.AttendanceRecord, error)
	Ensure(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error)
	UpsertEntry(ctx context.Context, classID, date string, entry *model.AttendanceEntry) (*model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建基于 PostgreSQL 的 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Get(ctx context.Context, classID, date string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("student_id ASC")
		}).
		Where("class_id = ? AND date = ?", classID, date).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Ensure 不存在时插入记录及花名册种子条目
// 并发创建时唯一索引冲突的一方放弃插入，直接读取胜出方的记录。
func (r *attendanceRepo) Ensure(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	existing, err := r.Get(ctx, rec.ClassID, rec.Date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		head := model.AttendanceRecord{
			ClassID:      rec.ClassID,
			Date:         rec.Date,
			SessionStart: rec.SessionStart,
			SessionEnd:   rec.SessionEnd,
		}
		if err := tx.Omit(clause.Associations).Create(&head).Error; err != nil {
			return err
		}
		if len(rec.Entries) == 0 {
			return nil
		}

		entries := make([]model.AttendanceEntry, 0, len(rec.Entries))
		for _, e := range rec.Entries {
			e.EntryID = ""
			e.RecordID = head.RecordID
			entries = append(entries, e)
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error
	})
	if err != nil && !isUniqueViolation(err) {
		return nil, err
	}

	return r.Get(ctx, rec.ClassID, rec.Date)
}

// UpsertEntry 单条 INSERT … ON CONFLICT (record_id, student_id) DO UPDATE
// 不同学生的并发写互不影响；同一学生的并发写以最后落库者为准，且不会产生重复条目。
func (r *attendanceRepo) UpsertEntry(ctx context.Context, classID, date string, entry *model.AttendanceEntry) (*model.AttendanceRecord, error) {
	var head model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Select("record_id").
		Where("class_id = ? AND date = ?", classID, date).
		First(&head).Error
	if err != nil {
		return nil, err
	}

	row := model.AttendanceEntry{
		RecordID:    head.RecordID,
		StudentID:   entry.StudentID,
		Status:      entry.Status,
		CheckInTime: entry.CheckInTime,
		Source:      entry.Source,
		UpdatedAt:   time.Now(),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "check_in_time", "source", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("record_id = ?", head.RecordID).
		Update("updated_at", gorm.Expr("NOW()")).Error; err != nil {
		return nil, err
	}

	return r.Get(ctx, classID, date)
}

// isUniqueViolation 判断是否为 PostgreSQL 唯一约束冲突（23505）
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
