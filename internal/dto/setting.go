package dto

// UpdateSettingRequest 更新偏好（字段均可选）
type UpdateSettingRequest struct {
	DarkTheme           *bool `json:"dark_theme"`
	NotificationSound   *bool `json:"notification_sound"`
	NotificationVibrate *bool `json:"notification_vibrate"`
	FullscreenAlert     *bool `json:"fullscreen_alert"`
	AutoSync            *bool `json:"auto_sync"`
}

// SettingResponse 偏好响应
type SettingResponse struct {
	DarkTheme           bool    `json:"dark_theme"`
	NotificationSound   bool    `json:"notification_sound"`
	NotificationVibrate bool    `json:"notification_vibrate"`
	FullscreenAlert     bool    `json:"fullscreen_alert"`
	AutoSync            bool    `json:"auto_sync"`
	LastSyncAt          *string `json:"last_sync_at,omitempty"`
}
