package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classbell/config"
	"classbell/internal/dto"
	"classbell/internal/model"
	"classbell/internal/occurrence"
	"classbell/internal/repository"
	"classbell/pkg/clock"
)

// ── 日历同步 ────────────────────────────────────────────────
//
// 职责：把未来 lookahead 窗口内的上课时间镜像为日历事件。
//
//   - 每次同步按 (user, marker) 整体替换，重复同步不会产生重复事件
//   - 窗口枚举与提醒调度共用 occurrence.Window / Next，周次规则只有一份
//   - 订阅源（ICS）见 calendar_feed.go
// ─────────────────────────────────────────────────────────────

// CalendarService 日历同步业务接口
type CalendarService interface {
	Sync(ctx context.Context, userID string) (*dto.CalendarSyncResponse, error)
	// SyncAll 为开启自动同步的用户执行同步，返回成功的用户数
	SyncAll(ctx context.Context) (int, error)
	ListEvents(ctx context.Context, userID string) ([]dto.CalendarEventResponse, error)
	// Feed 生成 iCalendar 订阅内容；includeTerm 时输出整学期的每周重复事件
	Feed(ctx context.Context, userID string, includeTerm bool) (string, error)
}

type calendarService struct {
	cfg    *config.CalendarConfig
	repo   *repository.Repository
	zones  *zoneResolver
	clock  clock.Clock
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(
	cfg *config.CalendarConfig,
	repo *repository.Repository,
	zones *zoneResolver,
	clk clock.Clock,
	logger *zap.Logger,
) CalendarService {
	return &calendarService{cfg: cfg, repo: repo, zones: zones, clock: clk, logger: logger}
}

func (s *calendarService) Sync(ctx context.Context, userID string) (*dto.CalendarSyncResponse, error) {
	courses, err := s.repo.Course.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("列出课程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	loc := s.zones.For(ctx, userID)
	now := s.clock.Now().In(loc)
	lookahead := s.cfg.Lookahead()

	var events []model.CalendarEvent
	for i := range courses {
		c := &courses[i]
		rule, err := c.Rule()
		if err != nil {
			s.logger.Warn("跳过规则无效的课程", zap.String("course_id", c.CourseID), zap.Error(err))
			continue
		}
		for _, occ := range occurrence.Window(rule, now, lookahead) {
			events = append(events, model.CalendarEvent{
				CourseID: c.CourseID,
				Title:    c.Title,
				Location: c.Location,
				StartAt:  occ.Start,
				EndAt:    occ.End,
				Timezone: loc.String(),
				DedupKey: occurrence.DedupKey(c.CourseID, occ),
			})
		}
	}

	removed, err := s.repo.CalendarEvent.ReplaceByMarker(ctx, userID, s.cfg.Marker, events)
	if err != nil {
		s.logger.Error("写入日历事件失败", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("日历同步失败: %w", err)
	}
	if err := s.repo.Setting.TouchLastSync(ctx, userID, now); err != nil {
		s.logger.Warn("记录同步时间失败", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("日历同步完成",
		zap.String("user_id", userID),
		zap.Int("inserted", len(events)),
		zap.Int64("removed", removed),
	)

	return &dto.CalendarSyncResponse{
		Inserted:    len(events),
		Removed:     removed,
		WindowStart: now.Format(dto.TimeLayout),
		WindowEnd:   now.Add(lookahead).Format(dto.TimeLayout),
		SyncedAt:    now.Format(dto.TimeLayout),
	}, nil
}

func (s *calendarService) SyncAll(ctx context.Context) (int, error) {
	userIDs, err := s.repo.Setting.ListAutoSyncUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("查询自动同步用户失败: %w", err)
	}

	var (
		synced int
		errs   []error
	)
	for _, id := range userIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Sync(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("用户 %s: %w", id, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

func (s *calendarService) ListEvents(ctx context.Context, userID string) ([]dto.CalendarEventResponse, error) {
	events, err := s.repo.CalendarEvent.ListByUser(ctx, userID, s.cfg.Marker)
	if err != nil {
		s.logger.Error("查询日历事件失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	loc := s.zones.For(ctx, userID)
	result := make([]dto.CalendarEventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, dto.CalendarEventResponse{
			ID:       e.EventID,
			CourseID: e.CourseID,
			Title:    e.Title,
			Location: e.Location,
			Start:    e.StartAt.In(loc).Format(dto.TimeLayout),
			End:      e.EndAt.In(loc).Format(dto.TimeLayout),
			Timezone: e.Timezone,
			DedupKey: e.DedupKey,
		})
	}
	return result, nil
}

func (s *calendarService) Feed(ctx context.Context, userID string, includeTerm bool) (string, error) {
	loc := s.zones.For(ctx, userID)
	feed := Feed{
		ProductID: s.cfg.ProductID,
		Name:      s.cfg.Marker,
		Location:  loc,
		Stamp:     s.clock.Now(),
	}

	if includeTerm {
		courses, err := s.repo.Course.ListByUser(ctx, userID)
		if err != nil {
			s.logger.Error("列出课程失败", zap.String("user_id", userID), zap.Error(err))
			return "", err
		}
		feed.Courses = courses
	} else {
		events, err := s.repo.CalendarEvent.ListByUser(ctx, userID, s.cfg.Marker)
		if err != nil {
			s.logger.Error("查询日历事件失败", zap.String("user_id", userID), zap.Error(err))
			return "", err
		}
		feed.Events = events
	}

	out, err := feed.Render()
	if err != nil {
		s.logger.Error("生成日历订阅失败", zap.String("user_id", userID), zap.Error(err))
		return "", err
	}
	return out, nil
}

// termEnd 学期最后一天的 23:59:59（loc 时区）
func termEnd(rule occurrence.Rule, loc *time.Location) time.Time {
	last := occurrence.MondayOf(rule.SemesterStart).AddDate(0, 0, rule.TotalWeeks*7-1)
	return time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, loc)
}
