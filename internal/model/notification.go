package model

import (
	"time"

	"gorm.io/gorm"
)

// 提醒通道
const (
	ChannelLoud   = "loud"   // 声音或振动
	ChannelSilent = "silent" // 静默
)

// Notification 已触发的上课提醒：对应 notifications
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey"        json:"notification_id"`
	UserID         string    `gorm:"type:uuid;not null"          json:"user_id"`
	CourseID       string    `gorm:"type:uuid;not null"          json:"course_id"`
	Title          string    `gorm:"type:varchar(100);not null"  json:"title"`
	Content        string    `gorm:"type:text;not null"          json:"content"`
	Channel        string    `gorm:"type:varchar(10);not null"   json:"channel"` // loud | silent
	Fullscreen     bool      `gorm:"not null"                    json:"fullscreen"`
	OccurrenceAt   time.Time `gorm:"not null"                    json:"occurrence_at"`
	DedupKey       string    `gorm:"type:varchar(120);not null"  json:"dedup_key"`
	IsRead         bool      `gorm:"not null"                    json:"is_read"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// BeforeCreate 生成主键
func (n *Notification) BeforeCreate(*gorm.DB) error {
	newID(&n.NotificationID)
	return nil
}
