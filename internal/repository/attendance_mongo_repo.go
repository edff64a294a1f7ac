package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"seatboard/backend/internal/model"
	pkgerrors "seatboard/backend/pkg/errors"
)

// upsertEntryAttempts 定位更新与守卫追加均未命中时的重试次数
const upsertEntryAttempts = 3

type attendanceMongoRepo struct {
	coll *mongo.Collection
}

// NewAttendanceMongoRepo 创建基于 MongoDB 的 AttendanceRepository 实例
// 每个 (classId, date) 一个文档，条目内嵌在 entries 数组中。
func NewAttendanceMongoRepo(coll *mongo.Collection) AttendanceRepository {
	return &attendanceMongoRepo{coll: coll}
}

// EnsureAttendanceIndexes 创建 (classId, date) 唯一索引
func EnsureAttendanceIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "classId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_class_date"),
	})
	return err
}

func (r *attendanceMongoRepo) Get(ctx context.Context, classID, date string) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.coll.FindOne(ctx, bson.M{"classId": classID, "date": date}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Ensure 以 upsert + $setOnInsert 实现插入即返回；已存在的文档不做任何修改
func (r *attendanceMongoRepo) Ensure(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	now := time.Now()
	entries := make([]model.AttendanceEntry, 0, len(rec.Entries))
	for _, e := range rec.Entries {
		e.UpdatedAt = now
		entries = append(entries, e)
	}

	filter := bson.M{"classId": rec.ClassID, "date": rec.Date}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          uuid.NewString(),
		"sessionStart": rec.SessionStart,
		"sessionEnd":   rec.SessionEnd,
		"entries":      entries,
		"createdAt":    now,
		"updatedAt":    now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out model.AttendanceRecord
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err != nil {
		// 两个并发 upsert 同时插入时，落败方收到 E11000，此时记录已存在
		if mongo.IsDuplicateKeyError(err) {
			return r.Get(ctx, rec.ClassID, rec.Date)
		}
		return nil, err
	}
	return &out, nil
}

// UpsertEntry 先按 entries.studentId 做定位更新；未命中时以 $ne 守卫追加，
// 守卫保证并发追加同一学生时只有一方成功，落败方回到定位更新。
func (r *attendanceMongoRepo) UpsertEntry(ctx context.Context, classID, date string, entry *model.AttendanceEntry) (*model.AttendanceRecord, error) {
	now := time.Now()
	row := *entry
	row.UpdatedAt = now

	for attempt := 0; attempt < upsertEntryAttempts; attempt++ {
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"classId": classID, "date": date, "entries.studentId": row.StudentID},
			bson.M{"$set": bson.M{
				"entries.$.status":      row.Status,
				"entries.$.checkInTime": row.CheckInTime,
				"entries.$.source":      row.Source,
				"entries.$.updatedAt":   now,
				"updatedAt":             now,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount > 0 {
			return r.Get(ctx, classID, date)
		}

		res, err = r.coll.UpdateOne(ctx,
			bson.M{"classId": classID, "date": date, "entries.studentId": bson.M{"$ne": row.StudentID}},
			bson.M{
				"$push": bson.M{"entries": row},
				"$set":  bson.M{"updatedAt": now},
			},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount > 0 {
			return r.Get(ctx, classID, date)
		}

		// 两步均未命中：记录不存在，或其他请求刚追加了该学生
		if _, err := r.Get(ctx, classID, date); err != nil {
			return nil, err
		}
	}
	return nil, pkgerrors.ErrOptimisticLock
}
