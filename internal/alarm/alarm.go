package alarm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrExactAlarmUnavailable 未开启精确闹钟，提醒不会被登记；调用方必须向用户展示
	ErrExactAlarmUnavailable = errors.New("精确闹钟不可用，上课提醒未登记")
	// ErrSchedulerStopped 调度器已停止
	ErrSchedulerStopped = errors.New("提醒调度器已停止")
)

// Alarm 一次待触发的上课提醒
type Alarm struct {
	CourseID        string
	UserID          string
	Title           string
	Location        string
	OccurrenceStart time.Time
	FireAt          time.Time
	LeadMinutes     int
	DedupKey        string
}

// Port 闹钟端口：每门课程最多一个待触发提醒
type Port interface {
	CanScheduleExact() bool
	// Schedule 登记提醒，替换该课程已有的待触发提醒
	Schedule(ctx context.Context, a Alarm) error
	// Cancel 取消课程的待触发提醒，返回是否存在
	Cancel(courseID string) bool
	Pending(courseID string) (Alarm, bool)
}

// FireFunc 提醒到点后的处理函数
type FireFunc func(ctx context.Context, a Alarm)

// Guard 触发去重：同一去重键仅首次 ClaimOnce 返回 true
// *redis.Client 直接满足该接口
type Guard interface {
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
