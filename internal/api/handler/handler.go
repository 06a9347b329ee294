package handler

import "classbell/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Course       *CourseHandler
	Upcoming     *UpcomingHandler
	Calendar     *CalendarHandler
	Setting      *SettingHandler
	Notification *NotificationHandler
	Health       *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, checks map[string]HealthCheck) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Course:       NewCourseHandler(svc.Course),
		Upcoming:     NewUpcomingHandler(svc.Upcoming),
		Calendar:     NewCalendarHandler(svc.Calendar),
		Setting:      NewSettingHandler(svc.Setting),
		Notification: NewNotificationHandler(svc.Notification),
		Health:       NewHealthHandler(checks),
	}
}
