package repository

import (
	"context"

	"gorm.io/gorm"

	"seatboard/backend/internal/model"
)

// StudentRepository 学生名录数据访问接口（只读）
type StudentRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Student, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("student_id IN ?", ids).
		Find(&students).Error
	return students, err
}
