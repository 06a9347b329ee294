package service

import (
	"context"

	"go.uber.org/zap"

	"classbell/internal/dto"
	"classbell/internal/model"
	"classbell/internal/repository"
)

// SettingService 用户偏好业务接口
type SettingService interface {
	Get(ctx context.Context, userID string) (*dto.SettingResponse, error)
	Update(ctx context.Context, userID string, req *dto.UpdateSettingRequest) (*dto.SettingResponse, error)
}

type settingService struct {
	repo     *repository.Repository
	calendar CalendarService
	logger   *zap.Logger
}

// NewSettingService 创建 SettingService 实例
func NewSettingService(repo *repository.Repository, calendar CalendarService, logger *zap.Logger) SettingService {
	return &settingService{repo: repo, calendar: calendar, logger: logger}
}

func (s *settingService) Get(ctx context.Context, userID string) (*dto.SettingResponse, error) {
	setting, err := s.repo.Setting.Get(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toSettingResponse(setting), nil
}

func (s *settingService) Update(ctx context.Context, userID string, req *dto.UpdateSettingRequest) (*dto.SettingResponse, error) {
	setting, err := s.repo.Setting.Get(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	wasAutoSync := setting.AutoSync

	if req.DarkTheme != nil {
		setting.DarkTheme = *req.DarkTheme
	}
	if req.NotificationSound != nil {
		setting.NotificationSound = *req.NotificationSound
	}
	if req.NotificationVibrate != nil {
		setting.NotificationVibrate = *req.NotificationVibrate
	}
	if req.FullscreenAlert != nil {
		setting.FullscreenAlert = *req.FullscreenAlert
	}
	if req.AutoSync != nil {
		setting.AutoSync = *req.AutoSync
	}
	setting.UpdatedBy = &userID

	if err := s.repo.Setting.Upsert(ctx, setting); err != nil {
		s.logger.Error("保存用户偏好失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 开启自动同步时立即同步一次
	if setting.AutoSync && !wasAutoSync {
		if _, err := s.calendar.Sync(ctx, userID); err != nil {
			s.logger.Warn("开启自动同步后首次同步失败", zap.String("user_id", userID), zap.Error(err))
		} else if fresh, err := s.repo.Setting.Get(ctx, userID); err == nil {
			setting = fresh
		}
	}

	return toSettingResponse(setting), nil
}

func toSettingResponse(s *model.UserSetting) *dto.SettingResponse {
	resp := &dto.SettingResponse{
		DarkTheme:           s.DarkTheme,
		NotificationSound:   s.NotificationSound,
		NotificationVibrate: s.NotificationVibrate,
		FullscreenAlert:     s.FullscreenAlert,
		AutoSync:            s.AutoSync,
	}
	if s.LastSyncAt != nil {
		v := s.LastSyncAt.Format(dto.TimeLayout)
		resp.LastSyncAt = &v
	}
	return resp
}
