package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classbell/internal/model"
)

// SettingRepository 用户偏好数据访问接口
type SettingRepository interface {
	// Get 不存在时返回默认偏好（不落库）
	Get(ctx context.Context, userID string) (*model.UserSetting, error)
	Upsert(ctx context.Context, setting *model.UserSetting) error
	ListAutoSyncUserIDs(ctx context.Context) ([]string, error)
	TouchLastSync(ctx context.Context, userID string, at time.Time) error
}

type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepo 创建 SettingRepository 实例
func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context, userID string) (*model.UserSetting, error) {
	var setting model.UserSetting
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultUserSetting(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepo) Upsert(ctx context.Context, setting *model.UserSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"dark_theme", "notification_sound", "notification_vibrate",
				"fullscreen_alert", "auto_sync", "updated_at", "updated_by",
			}),
		}).
		Create(setting).Error
}

func (r *settingRepo) ListAutoSyncUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.UserSetting{}).
		Where("auto_sync = ?", true).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// TouchLastSync 记录最近一次同步时间；偏好行不存在时以默认值创建
func (r *settingRepo) TouchLastSync(ctx context.Context, userID string, at time.Time) error {
	setting := model.DefaultUserSetting(userID)
	setting.LastSyncAt = &at
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sync_at", "updated_at"}),
		}).
		Create(setting).Error
}
