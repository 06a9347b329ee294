package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classbell/internal/dto"
	"classbell/internal/model"
	"classbell/internal/occurrence"
	"classbell/internal/repository"
	"classbell/pkg/clock"
)

// ErrUpcomingNone 没有任何课程在未来一年内上课
var ErrUpcomingNone = errors.New("暂无即将开始的课程")

// UpcomingService 首页倒计时业务接口
type UpcomingService interface {
	Next(ctx context.Context, userID string) (*dto.UpcomingResponse, error)
}

type upcomingService struct {
	repo   *repository.Repository
	zones  *zoneResolver
	clock  clock.Clock
	logger *zap.Logger
}

// NewUpcomingService 创建 UpcomingService 实例
func NewUpcomingService(repo *repository.Repository, zones *zoneResolver, clk clock.Clock, logger *zap.Logger) UpcomingService {
	return &upcomingService{repo: repo, zones: zones, clock: clk, logger: logger}
}

func (s *upcomingService) Next(ctx context.Context, userID string) (*dto.UpcomingResponse, error) {
	courses, err := s.repo.Course.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("列出课程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	now := s.clock.Now().In(s.zones.For(ctx, userID))

	var (
		best     *model.Course
		bestRule occurrence.Rule
		bestOcc  occurrence.Occurrence
	)
	for i := range courses {
		rule, err := courses[i].Rule()
		if err != nil {
			s.logger.Warn("跳过规则无效的课程", zap.String("course_id", courses[i].CourseID), zap.Error(err))
			continue
		}
		occ, ok := occurrence.Next(rule, now).Get()
		if !ok {
			continue
		}
		if best == nil || occ.Start.Before(bestOcc.Start) {
			best, bestRule, bestOcc = &courses[i], rule, occ
		}
	}
	if best == nil {
		return nil, ErrUpcomingNone
	}

	// 提醒时刻未过时倒计时到提醒时刻，否则倒计时到开课
	target := occurrence.FireTime(bestOcc, bestRule.ReminderLeadMinutes)
	if !target.After(now) {
		target = bestOcc.Start
	}
	mins := int64(target.Sub(now) / time.Minute)

	return &dto.UpcomingResponse{
		Course: dto.CourseBrief{
			ID:       best.CourseID,
			Title:    best.Title,
			Location: best.Location,
			Color:    best.Color,
		},
		Occurrence:      toOccurrenceResponse(best.CourseID, bestRule, bestOcc),
		CountdownTarget: target.Format(dto.TimeLayout),
		MinutesLeft:     mins,
		Countdown:       CountdownText(mins),
	}, nil
}

// CountdownText 倒计时文案
func CountdownText(mins int64) string {
	hours := mins / 60
	switch {
	case mins <= 0:
		return "Starting now"
	case hours <= 0:
		return fmt.Sprintf("Starts in %d min", mins)
	default:
		return fmt.Sprintf("Starts in %d h %d min", hours, mins%60)
	}
}
