package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classbell/internal/dto"
	"classbell/internal/repository"
)

// ErrNotificationNotFound 提醒记录不存在
var ErrNotificationNotFound = errors.New("提醒记录不存在")

// NotificationService 已触发提醒的查询接口
type NotificationService interface {
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type notificationService struct {
	repo   *repository.Repository
	zones  *zoneResolver
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, zones *zoneResolver, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, zones: zones, logger: logger}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	items, total, err := s.repo.Notification.ListByUser(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询提醒列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	loc := s.zones.For(ctx, userID)
	result := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		result = append(result, dto.NotificationResponse{
			ID:           n.NotificationID,
			CourseID:     n.CourseID,
			Title:        n.Title,
			Content:      n.Content,
			Channel:      n.Channel,
			Fullscreen:   n.Fullscreen,
			OccurrenceAt: n.OccurrenceAt.In(loc).Format(dto.TimeLayout),
			IsRead:       n.IsRead,
			CreatedAt:    n.CreatedAt.In(loc).Format(dto.TimeLayout),
		})
	}
	return result, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.Notification.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记提醒已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
