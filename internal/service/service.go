package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classbell/config"
	"classbell/internal/alarm"
	"classbell/internal/repository"
	"classbell/pkg/clock"
	"classbell/pkg/jwt"
)

// TokenBlacklist 登出时吊销 Token；*redis.Client 满足该接口
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Course       CourseService
	Reminder     ReminderService
	Calendar     CalendarService
	Upcoming     UpcomingService
	Setting      SettingService
	Notification NotificationService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（未配置 Redis 时登出仅由客户端丢弃 Token）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	port alarm.Port,
	clk clock.Clock,
	logger *zap.Logger,
) (*Service, error) {
	fallback, err := cfg.Reminder.Location()
	if err != nil {
		return nil, err
	}
	zones := newZoneResolver(repo.User, fallback, logger)

	reminder := NewReminderService(repo, port, zones, clk, logger)
	calendar := NewCalendarService(&cfg.Calendar, repo, zones, clk, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Course:       NewCourseService(&cfg.Reminder, repo, reminder, zones, clk, logger),
		Reminder:     reminder,
		Calendar:     calendar,
		Upcoming:     NewUpcomingService(repo, zones, clk, logger),
		Setting:      NewSettingService(repo, calendar, logger),
		Notification: NewNotificationService(repo, zones, logger),
	}, nil
}
