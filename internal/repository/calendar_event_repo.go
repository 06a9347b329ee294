package repository

import (
	"context"

	"gorm.io/gorm"

	"classbell/internal/model"
)

// CalendarEventRepository 日历镜像数据访问接口
type CalendarEventRepository interface {
	// ReplaceByMarker 事务内删除该用户带 marker 的全部事件后写入 events，返回删除条数
	ReplaceByMarker(ctx context.Context, userID, marker string, events []model.CalendarEvent) (int64, error)
	ListByUser(ctx context.Context, userID, marker string) ([]model.CalendarEvent, error)
}

type calendarEventRepo struct {
	db *gorm.DB
}

// NewCalendarEventRepo 创建 CalendarEventRepository 实例
func NewCalendarEventRepo(db *gorm.DB) CalendarEventRepository {
	return &calendarEventRepo{db: db}
}

func (r *calendarEventRepo) ReplaceByMarker(ctx context.Context, userID, marker string, events []model.CalendarEvent) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND marker = ?", userID, marker).
			Delete(&model.CalendarEvent{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected

		if len(events) == 0 {
			return nil
		}
		for i := range events {
			events[i].UserID = userID
			events[i].Marker = marker
		}
		return tx.CreateInBatches(events, 100).Error
	})
	return removed, err
}

func (r *calendarEventRepo) ListByUser(ctx context.Context, userID, marker string) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND marker = ?", userID, marker).
		Order("start_at ASC").
		Find(&events).Error
	return events, err
}
