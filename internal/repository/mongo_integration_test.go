//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"seatboard/backend/config"
	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
	"seatboard/backend/pkg/mongodb"
)

// setupMongoStore 未设置 TEST_MONGO_URI 时跳过
func setupMongoStore(t *testing.T) (repository.AttendanceRepository, func()) {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("未设置 TEST_MONGO_URI，跳过 MongoDB 集成测试")
	}

	cfg := &config.MongoConfig{
		URI:                  uri,
		Database:             "seatboard_test",
		AttendanceCollection: fmt.Sprintf("attendance_%d", time.Now().UnixNano()),
	}
	client, err := mongodb.NewClient(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("连接 MongoDB 失败: %v", err)
	}
	coll := mongodb.AttendanceCollection(client, cfg)
	ctx := context.Background()
	if err := repository.EnsureAttendanceIndexes(ctx, coll); err != nil {
		t.Fatalf("创建索引失败: %v", err)
	}

	cleanup := func() {
		_ = coll.Drop(ctx)
		_ = client.Disconnect(ctx)
	}
	return repository.NewAttendanceMongoRepo(coll), cleanup
}

func TestMongoAttendance_EnsureKeepsSessionTimes(t *testing.T) {
	store, cleanup := setupMongoStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.Ensure(ctx, seedRecord("math-101"))
	if err != nil {
		t.Fatalf("Ensure 失败: %v", err)
	}
	again := seedRecord("math-101")
	again.SessionStart = "11:00"
	again.Entries = nil
	second, err := store.Ensure(ctx, again)
	if err != nil {
		t.Fatalf("第二次 Ensure 失败: %v", err)
	}
	if first.RecordID != second.RecordID || second.SessionStart != "10:00" || len(second.Entries) != 2 {
		t.Errorf("已存在的文档不应被修改: %+v", second)
	}
}

func TestMongoAttendance_ConcurrentUpsertEntry(t *testing.T) {
	store, cleanup := setupMongoStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.Ensure(ctx, seedRecord("math-101")); err != nil {
		t.Fatalf("Ensure 失败: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 10 个 goroutine 同时追加同一名新学生，10 个写不同学生
			sid := "late-joiner"
			if i%2 == 1 {
				sid = fmt.Sprintf("walkin%02d", i)
			}
			_, err := store.UpsertEntry(ctx, "math-101", "2024-06-03", &model.AttendanceEntry{
				StudentID: sid,
				Status:    model.StatusLate,
			})
			if err != nil {
				t.Errorf("UpsertEntry 失败: %v", err)
			}
		}(i)
	}
	wg.Wait()

	rec, err := store.Get(ctx, "math-101", "2024-06-03")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	counts := map[string]int{}
	for _, e := range rec.Entries {
		counts[e.StudentID]++
	}
	for sid, n := range counts {
		if n != 1 {
			t.Errorf("学生 %s 有 %d 个条目", sid, n)
		}
	}
	if len(counts) != 13 {
		t.Errorf("期望 2 + 1 + 10 名学生，实际 %d", len(counts))
	}
}

func TestMongoAttendance_MissingRecord(t *testing.T) {
	store, cleanup := setupMongoStore(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "nope", "2024-06-03")
	if err != gorm.ErrRecordNotFound {
		t.Errorf("期望 gorm.ErrRecordNotFound，实际 %v", err)
	}
}
