package repository

import (
	"context"

	"gorm.io/gorm"

	"seatboard/backend/internal/model"
)

// RoomRepository 教室布局数据访问接口
type RoomRepository interface {
	Get(ctx context.Context, academyNumber, roomNumber int) (*model.Room, error)
	ListByAcademy(ctx context.Context, academyNumber int) ([]model.Room, error)
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Get(ctx context.Context, academyNumber, roomNumber int) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).
		Where("academy_number = ? AND room_number = ?", academyNumber, roomNumber).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) ListByAcademy(ctx context.Context, academyNumber int) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Where("academy_number = ?", academyNumber).
		Order("room_number ASC").
		Find(&rooms).Error
	return rooms, err
}
