package model

import (
	"time"

	"gorm.io/gorm"
)

// CalendarEvent 镜像到日历的一次课：对应 calendar_events
// 同步时按 (user_id, marker) 整体替换
type CalendarEvent struct {
	EventID   string    `gorm:"type:uuid;primaryKey"       json:"event_id"`
	UserID    string    `gorm:"type:uuid;not null"         json:"user_id"`
	CourseID  string    `gorm:"type:uuid;not null"         json:"course_id"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	Location  string    `gorm:"type:varchar(200);not null" json:"location"`
	StartAt   time.Time `gorm:"not null"                   json:"start_at"`
	EndAt     time.Time `gorm:"not null"                   json:"end_at"`
	Timezone  string    `gorm:"type:varchar(64);not null"  json:"timezone"`
	Marker    string    `gorm:"type:varchar(50);not null"  json:"marker"`
	DedupKey  string    `gorm:"type:varchar(120);not null" json:"dedup_key"`
	CreatedAt time.Time `gorm:"not null"                   json:"created_at"`
}

// TableName 指定表名
func (CalendarEvent) TableName() string { return "calendar_events" }

// BeforeCreate 生成主键
func (e *CalendarEvent) BeforeCreate(*gorm.DB) error {
	newID(&e.EventID)
	return nil
}
