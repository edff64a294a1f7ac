package repository

import (
	"context"
	"time"

	"seatboard/backend/internal/model"
	"seatboard/backend/pkg/redis"
)

// WaitingRoomRepository 候课区名单
type WaitingRoomRepository interface {
	EnterWaiting(ctx context.Context, academyNumber int, studentID string, at time.Time) error
	LeaveWaiting(ctx context.Context, academyNumber int, studentID string) error
	ListWaiting(ctx context.Context, academyNumber int) ([]model.WaitingEntry, error)
}

// WaitingStore 候课区底层存储，由 pkg/redis.Client 实现
type WaitingStore interface {
	EnterWaiting(ctx context.Context, academyNumber int, studentID string, at time.Time) error
	LeaveWaiting(ctx context.Context, academyNumber int, studentID string) error
	ListWaiting(ctx context.Context, academyNumber int) ([]redis.WaitingMember, error)
}

type waitingRoomRepo struct {
	store WaitingStore
}

// NewWaitingRoomRepo 创建 WaitingRoomRepository 实例
func NewWaitingRoomRepo(store WaitingStore) WaitingRoomRepository {
	return &waitingRoomRepo{store: store}
}

func (r *waitingRoomRepo) EnterWaiting(ctx context.Context, academyNumber int, studentID string, at time.Time) error {
	return r.store.EnterWaiting(ctx, academyNumber, studentID, at)
}

func (r *waitingRoomRepo) LeaveWaiting(ctx context.Context, academyNumber int, studentID string) error {
	return r.store.LeaveWaiting(ctx, academyNumber, studentID)
}

// ListWaiting 保持底层存储的顺序（按进入时间升序）
func (r *waitingRoomRepo) ListWaiting(ctx context.Context, academyNumber int) ([]model.WaitingEntry, error) {
	members, err := r.store.ListWaiting(ctx, academyNumber)
	if err != nil {
		return nil, err
	}
	entries := make([]model.WaitingEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, model.WaitingEntry{StudentID: m.StudentID, EnteredAt: m.EnteredAt})
	}
	return entries, nil
}
