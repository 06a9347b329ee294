package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"classbell/internal/model"
	pkgerrors "classbell/pkg/errors"
)

// CourseRepository 课程（周期规则）数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByUserAndID(ctx context.Context, userID, id string) (*model.Course, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	ListByUser(ctx context.Context, userID string) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByUserAndID(ctx context.Context, userID, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", id, userID).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Order("user_id ASC, day_of_week ASC, start_time ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListByUser(ctx context.Context, userID string) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC, start_time ASC").
		Find(&courses).Error
	return courses, err
}

// Update 乐观锁更新：版本号不匹配时返回 ErrOptimisticLock
func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oldVersion := course.Version
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND version = ?", course.CourseID, oldVersion).
		Updates(map[string]interface{}{
			"title":            course.Title,
			"location":         course.Location,
			"color":            course.Color,
			"day_of_week":      course.DayOfWeek,
			"start_time":       course.StartTime,
			"end_time":         course.EndTime,
			"semester_start":   course.SemesterStart,
			"total_weeks":      course.TotalWeeks,
			"week_type":        course.WeekType,
			"included_weeks":   course.IncludedWeeks,
			"reminder_minutes": course.ReminderMinutes,
			"updated_by":       course.UpdatedBy,
			"version":          oldVersion + 1,
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

func (r *courseRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		}).Error
}
