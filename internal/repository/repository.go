package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User          UserRepository
	Course        CourseRepository
	Setting       SettingRepository
	CalendarEvent CalendarEventRepository
	Notification  NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:          NewUserRepo(db),
		Course:        NewCourseRepo(db),
		Setting:       NewSettingRepo(db),
		CalendarEvent: NewCalendarEventRepo(db),
		Notification:  NewNotificationRepo(db),
	}
}
