package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"seatboard/backend/pkg/redis"
)

type fakeWaitingStore struct {
	members []redis.WaitingMember
	err     error
	entered []string
	left    []string
}

func (f *fakeWaitingStore) EnterWaiting(_ context.Context, _ int, studentID string, _ time.Time) error {
	f.entered = append(f.entered, studentID)
	return f.err
}

func (f *fakeWaitingStore) LeaveWaiting(_ context.Context, _ int, studentID string) error {
	f.left = append(f.left, studentID)
	return f.err
}

func (f *fakeWaitingStore) ListWaiting(_ context.Context, _ int) ([]redis.WaitingMember, error) {
	return f.members, f.err
}

func TestWaitingRoomRepo_ListWaiting(t *testing.T) {
	t0 := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)
	store := &fakeWaitingStore{members: []redis.WaitingMember{
		{StudentID: "stu002", EnteredAt: t0},
		{StudentID: "stu001", EnteredAt: t0.Add(time.Minute)},
	}}
	repo := NewWaitingRoomRepo(store)

	entries, err := repo.ListWaiting(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListWaiting 失败: %v", err)
	}
	if len(entries) != 2 || entries[0].StudentID != "stu002" || !entries[1].EnteredAt.Equal(t0.Add(time.Minute)) {
		t.Errorf("名单映射错误或顺序被打乱: %+v", entries)
	}

	if err := repo.EnterWaiting(context.Background(), 1, "stu003", t0); err != nil {
		t.Fatalf("EnterWaiting 失败: %v", err)
	}
	if err := repo.LeaveWaiting(context.Background(), 1, "stu002"); err != nil {
		t.Fatalf("LeaveWaiting 失败: %v", err)
	}
	if len(store.entered) != 1 || store.entered[0] != "stu003" || len(store.left) != 1 || store.left[0] != "stu002" {
		t.Errorf("调用未透传到底层存储: entered=%v left=%v", store.entered, store.left)
	}
}

func TestWaitingRoomRepo_ListWaitingError(t *testing.T) {
	boom := errors.New("redis down")
	repo := NewWaitingRoomRepo(&fakeWaitingStore{err: boom})

	if _, err := repo.ListWaiting(context.Background(), 1); !errors.Is(err, boom) {
		t.Errorf("期望透传底层错误，实际 %v", err)
	}
}
