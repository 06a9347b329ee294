package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classbell/internal/alarm"
	"classbell/internal/dto"
	"classbell/internal/model"
	"classbell/internal/occurrence"
	"classbell/internal/repository"
	"classbell/pkg/clock"
	pkgerrors "classbell/pkg/errors"
)

// ── 提醒调度 ────────────────────────────────────────────────
//
// 职责：把"下一次上课"换算成闹钟并登记到 alarm.Port。
//
//   - 每门课程同一时间只登记下一次课的提醒，触发后再链式登记下一次
//   - 精确闹钟不可用时返回 alarm.ErrExactAlarmUnavailable，由调用方展示给用户
//   - 触发时按用户偏好选择通道，写入 notifications（去重键唯一）
// ─────────────────────────────────────────────────────────────

// ReminderService 提醒调度业务接口
type ReminderService interface {
	// ScheduleNext 登记课程下一次上课的提醒
	ScheduleNext(ctx context.Context, course *model.Course) (*dto.ReminderStatus, error)
	// Cancel 取消课程的待触发提醒
	Cancel(courseID string)
	// RescheduleAll 启动时为全部课程恢复提醒，返回成功登记的数量
	RescheduleAll(ctx context.Context) (int, error)
	// HandleFire 闹钟到点回调
	HandleFire(ctx context.Context, a alarm.Alarm)
}

type reminderService struct {
	repo   *repository.Repository
	port   alarm.Port
	zones  *zoneResolver
	clock  clock.Clock
	logger *zap.Logger
}

// NewReminderService 创建 ReminderService 实例
func NewReminderService(
	repo *repository.Repository,
	port alarm.Port,
	zones *zoneResolver,
	clk clock.Clock,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{repo: repo, port: port, zones: zones, clock: clk, logger: logger}
}

func (s *reminderService) ScheduleNext(ctx context.Context, course *model.Course) (*dto.ReminderStatus, error) {
	loc := s.zones.For(ctx, course.UserID)
	return s.scheduleFrom(ctx, course, s.clock.Now().In(loc))
}

func (s *reminderService) scheduleFrom(ctx context.Context, course *model.Course, from time.Time) (*dto.ReminderStatus, error) {
	rule, err := course.Rule()
	if err != nil {
		return nil, err
	}

	occ, ok := occurrence.Next(rule, from).Get()
	if !ok {
		s.port.Cancel(course.CourseID)
		return &dto.ReminderStatus{Reason: dto.ReminderReasonNoUpcoming}, nil
	}

	if !s.port.CanScheduleExact() {
		s.port.Cancel(course.CourseID)
		return &dto.ReminderStatus{
			OccurrenceStart: occ.Start.Format(dto.TimeLayout),
			Reason:          dto.ReminderReasonExactUnavailable,
		}, alarm.ErrExactAlarmUnavailable
	}

	fireAt := occurrence.FireTime(occ, rule.ReminderLeadMinutes)
	a := alarm.Alarm{
		CourseID:        course.CourseID,
		UserID:          course.UserID,
		Title:           course.Title,
		Location:        course.Location,
		OccurrenceStart: occ.Start,
		FireAt:          fireAt,
		LeadMinutes:     rule.ReminderLeadMinutes,
		DedupKey:        occurrence.DedupKey(course.CourseID, occ),
	}
	if err := s.port.Schedule(ctx, a); err != nil {
		if errors.Is(err, alarm.ErrExactAlarmUnavailable) {
			return &dto.ReminderStatus{
				OccurrenceStart: occ.Start.Format(dto.TimeLayout),
				Reason:          dto.ReminderReasonExactUnavailable,
			}, err
		}
		return nil, fmt.Errorf("登记提醒失败: %w", err)
	}

	return &dto.ReminderStatus{
		Scheduled:       true,
		FireAt:          fireAt.Format(dto.TimeLayout),
		OccurrenceStart: occ.Start.Format(dto.TimeLayout),
	}, nil
}

func (s *reminderService) Cancel(courseID string) {
	s.port.Cancel(courseID)
}

func (s *reminderService) RescheduleAll(ctx context.Context) (int, error) {
	if !s.port.CanScheduleExact() {
		return 0, alarm.ErrExactAlarmUnavailable
	}

	courses, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("加载课程失败: %w", err)
	}

	scheduled := 0
	for i := range courses {
		status, err := s.ScheduleNext(ctx, &courses[i])
		if err != nil {
			s.logger.Warn("恢复提醒失败",
				zap.String("course_id", courses[i].CourseID),
				zap.Error(err),
			)
			continue
		}
		if status.Scheduled {
			scheduled++
		}
	}

	s.logger.Info("提醒恢复完成",
		zap.Int("courses", len(courses)),
		zap.Int("scheduled", scheduled),
	)
	return scheduled, nil
}

func (s *reminderService) HandleFire(ctx context.Context, a alarm.Alarm) {
	log := s.logger.With(zap.String("course_id", a.CourseID), zap.String("dedup_key", a.DedupKey))

	course, err := s.repo.Course.GetByID(ctx, a.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Info("课程已删除，停止提醒")
			return
		}
		log.Error("触发提醒时查询课程失败", zap.Error(err))
		return
	}

	setting, err := s.repo.Setting.Get(ctx, a.UserID)
	if err != nil {
		log.Warn("读取用户偏好失败，使用默认值", zap.Error(err))
		setting = model.DefaultUserSetting(a.UserID)
	}

	loc := s.zones.For(ctx, a.UserID)
	start := a.OccurrenceStart.In(loc)

	channel := model.ChannelSilent
	if setting.Loud() {
		channel = model.ChannelLoud
	}

	n := &model.Notification{
		UserID:       a.UserID,
		CourseID:     a.CourseID,
		Title:        course.Title,
		Content:      ReminderText(a.LeadMinutes, start, course.Location),
		Channel:      channel,
		Fullscreen:   setting.FullscreenAlert,
		OccurrenceAt: a.OccurrenceStart,
		DedupKey:     a.DedupKey,
	}
	switch err := s.repo.Notification.Create(ctx, n); {
	case errors.Is(err, pkgerrors.ErrDuplicate):
		log.Info("提醒已发送过，跳过")
	case err != nil:
		log.Error("保存提醒失败", zap.Error(err))
	default:
		log.Info("上课提醒已发送", zap.String("channel", channel), zap.Time("occurrence", start))
	}

	// 链式登记：从本次课开始时刻之后查找，避免提醒时刻早于开课时重复命中同一次课
	from := s.clock.Now().In(loc)
	if start.After(from) {
		from = start
	}
	if _, err := s.scheduleFrom(ctx, course, from); err != nil {
		log.Warn("登记下一次提醒失败", zap.Error(err))
	}
}

// ReminderText 提醒正文，如 "Starts in 10 min · 09:00 · A101"
func ReminderText(leadMinutes int, start time.Time, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Starts in %d min", leadMinutes)
	if !start.IsZero() {
		b.WriteString(" · " + start.Format("15:04"))
	}
	if strings.TrimSpace(location) != "" {
		b.WriteString(" · " + location)
	}
	return b.String()
}
