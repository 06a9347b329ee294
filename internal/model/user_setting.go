package model

import "time"

// UserSetting 用户偏好：对应 user_settings（与 users 1:1）
// 布尔字段不带 gorm default 标签，避免 false 被数据库默认值覆盖
type UserSetting struct {
	UserID              string     `gorm:"type:uuid;primaryKey" json:"user_id"`
	DarkTheme           bool       `gorm:"not null"             json:"dark_theme"`
	NotificationSound   bool       `gorm:"not null"             json:"notification_sound"`
	NotificationVibrate bool       `gorm:"not null"             json:"notification_vibrate"`
	FullscreenAlert     bool       `gorm:"not null"             json:"fullscreen_alert"`
	AutoSync            bool       `gorm:"not null"             json:"auto_sync"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (UserSetting) TableName() string { return "user_settings" }

// DefaultUserSetting 新用户的默认偏好
func DefaultUserSetting(userID string) *UserSetting {
	return &UserSetting{
		UserID:              userID,
		NotificationSound:   true,
		NotificationVibrate: true,
	}
}

// Loud 是否以声音/振动通道提醒
func (s *UserSetting) Loud() bool {
	return s.NotificationSound || s.NotificationVibrate || s.FullscreenAlert
}
