package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"classbell/internal/model"
	pkgerrors "classbell/pkg/errors"
)

// NotificationRepository 提醒记录数据访问接口
type NotificationRepository interface {
	// Create 去重键冲突时返回 pkgerrors.ErrDuplicate
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.WithContext(ctx).Create(n).Error
	if isUniqueViolation(err) {
		return pkgerrors.ErrDuplicate
	}
	return err
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var (
		items []model.Notification
		total int64
	)
	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("occurrence_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation 兼容 PostgreSQL 与 SQLite 的唯一约束错误
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
