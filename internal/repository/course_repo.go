package repository

import (
	"context"

	"gorm.io/gorm"

	"seatboard/backend/internal/model"
	pkgerrors "seatboard/backend/pkg/errors"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	GetByClassID(ctx context.Context, classID string) (*model.Course, error)
	ListByAcademy(ctx context.Context, academyNumber int) ([]model.Course, error)
	// Update 更新排课例外与座位分配（乐观锁）
	Update(ctx context.Context, course *model.Course) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByClassID(ctx context.Context, classID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListByAcademy(ctx context.Context, academyNumber int) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("academy_number = ?", academyNumber).
		Order("start_time ASC, class_id ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oldVersion := course.Version
	result := r.db.WithContext(ctx).
		Model(course).
		Where("course_id = ? AND version = ?", course.CourseID, oldVersion).
		Updates(map[string]interface{}{
			"extra_dates":     course.ExtraDates,
			"cancelled_dates": course.CancelledDates,
			"date_overrides":  course.DateOverrides,
			"seat_map":        course.SeatMap,
			"updated_by":      course.UpdatedBy,
			"updated_at":      gorm.Expr("NOW()"),
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version = oldVersion + 1
	return nil
}
