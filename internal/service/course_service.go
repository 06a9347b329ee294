package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classbell/config"
	"classbell/internal/alarm"
	"classbell/internal/dto"
	"classbell/internal/model"
	"classbell/internal/occurrence"
	"classbell/internal/repository"
	"classbell/pkg/clock"
	pkgerrors "classbell/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound   = errors.New("课程不存在")
	ErrInvalidCourse    = errors.New("课程参数不合法")
	ErrNoUpcomingCourse = errors.New("该课程在未来一年内没有上课安排")
)

const (
	defaultCourseColor   = "#FF80DEEA"
	defaultTotalWeeks    = 14
	defaultOccurrenceDay = 7
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, userID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Get(ctx context.Context, userID, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, userID string) ([]dto.CourseResponse, error)
	Update(ctx context.Context, userID, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, userID, id string) error
	// Next 单门课程的下一次上课
	Next(ctx context.Context, userID, id string) (*dto.OccurrenceResponse, error)
	// Occurrences 枚举未来 days 天内的上课时间
	Occurrences(ctx context.Context, userID, id string, days int) ([]dto.OccurrenceResponse, error)
}

type courseService struct {
	cfg      *config.ReminderConfig
	repo     *repository.Repository
	reminder ReminderService
	zones    *zoneResolver
	clock    clock.Clock
	logger   *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(
	cfg *config.ReminderConfig,
	repo *repository.Repository,
	reminder ReminderService,
	zones *zoneResolver,
	clk clock.Clock,
	logger *zap.Logger,
) CourseService {
	return &courseService{cfg: cfg, repo: repo, reminder: reminder, zones: zones, clock: clk, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, userID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	course := &model.Course{
		UserID:          userID,
		Title:           strings.TrimSpace(req.Title),
		Location:        strings.TrimSpace(req.Location),
		Color:           req.Color,
		DayOfWeek:       req.DayOfWeek,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TotalWeeks:      defaultTotalWeeks,
		WeekType:        req.WeekType,
		IncludedWeeks:   model.IntArray(req.IncludedWeeks),
		ReminderMinutes: s.cfg.DefaultLeadMinutes,
	}
	if req.TotalWeeks != nil {
		course.TotalWeeks = *req.TotalWeeks
	}
	if req.ReminderMinutes != nil {
		course.ReminderMinutes = *req.ReminderMinutes
	}

	start, err := parseSemesterStart(req.SemesterStart)
	if err != nil {
		return nil, err
	}
	course.SemesterStart = start

	if err := normalizeCourse(course); err != nil {
		return nil, err
	}
	course.CreatedBy = &userID
	course.UpdatedBy = &userID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	resp := s.toCourseResponse(ctx, course)
	resp.Reminder = s.schedule(ctx, course)
	return resp, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *courseService) Get(ctx context.Context, userID, id string) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.toCourseResponse(ctx, course), nil
}

func (s *courseService) List(ctx context.Context, userID string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("列出课程失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *s.toCourseResponse(ctx, &courses[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, userID, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Version != nil && *req.Version != course.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Location != nil {
		course.Location = strings.TrimSpace(*req.Location)
	}
	if req.Color != nil {
		course.Color = *req.Color
	}
	if req.DayOfWeek != nil {
		course.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		course.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		course.EndTime = *req.EndTime
	}
	if req.SemesterStart != nil {
		start, err := parseSemesterStart(*req.SemesterStart)
		if err != nil {
			return nil, err
		}
		course.SemesterStart = start
	}
	if req.TotalWeeks != nil {
		course.TotalWeeks = *req.TotalWeeks
	}
	if req.WeekType != nil {
		course.WeekType = *req.WeekType
	}
	if req.IncludedWeeks != nil {
		course.IncludedWeeks = model.IntArray(*req.IncludedWeeks)
	}
	if req.ReminderMinutes != nil {
		course.ReminderMinutes = *req.ReminderMinutes
	}

	if err := normalizeCourse(course); err != nil {
		return nil, err
	}
	course.UpdatedBy = &userID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := s.toCourseResponse(ctx, course)
	resp.Reminder = s.schedule(ctx, course)
	return resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.load(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Course.Delete(ctx, id, userID); err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.reminder.Cancel(id)
	return nil
}

// ────────────────────── Occurrences ──────────────────────

func (s *courseService) Next(ctx context.Context, userID, id string) (*dto.OccurrenceResponse, error) {
	course, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rule, err := course.Rule()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().In(s.zones.For(ctx, userID))
	occ, ok := occurrence.Next(rule, now).Get()
	if !ok {
		return nil, ErrNoUpcomingCourse
	}
	resp := toOccurrenceResponse(course.CourseID, rule, occ)
	return &resp, nil
}

func (s *courseService) Occurrences(ctx context.Context, userID, id string, days int) ([]dto.OccurrenceResponse, error) {
	course, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rule, err := course.Rule()
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultOccurrenceDay
	}

	now := s.clock.Now().In(s.zones.For(ctx, userID))
	occs := occurrence.Window(rule, now, time.Duration(days)*24*time.Hour)

	result := make([]dto.OccurrenceResponse, 0, len(occs))
	for _, occ := range occs {
		result = append(result, toOccurrenceResponse(course.CourseID, rule, occ))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *courseService) load(ctx context.Context, userID, id string) (*model.Course, error) {
	course, err := s.repo.Course.GetByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

// schedule 重新登记提醒；失败不影响课程保存，状态随响应返回
func (s *courseService) schedule(ctx context.Context, course *model.Course) *dto.ReminderStatus {
	s.reminder.Cancel(course.CourseID)

	status, err := s.reminder.ScheduleNext(ctx, course)
	if err != nil {
		if errors.Is(err, alarm.ErrExactAlarmUnavailable) {
			s.logger.Warn("精确闹钟不可用，课程提醒未登记", zap.String("course_id", course.CourseID))
			return status
		}
		s.logger.Error("登记课程提醒失败", zap.String("course_id", course.CourseID), zap.Error(err))
		return nil
	}
	return status
}

func (s *courseService) toCourseResponse(ctx context.Context, c *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:              c.CourseID,
		Title:           c.Title,
		Location:        c.Location,
		Color:           c.Color,
		DayOfWeek:       c.DayOfWeek,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		SemesterStart:   c.SemesterStart.Format(model.DateLayout),
		TotalWeeks:      c.TotalWeeks,
		WeekType:        c.WeekType,
		IncludedWeeks:   []int(c.IncludedWeeks),
		ReminderMinutes: c.ReminderMinutes,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:       c.UpdatedAt.Format(dto.TimeLayout),
	}
	if resp.IncludedWeeks == nil {
		resp.IncludedWeeks = []int{}
	}

	rule, err := c.Rule()
	if err != nil {
		s.logger.Warn("课程规则无效", zap.String("course_id", c.CourseID), zap.Error(err))
		return resp
	}
	now := s.clock.Now().In(s.zones.For(ctx, c.UserID))
	resp.CurrentWeek = occurrence.WeekIndex(rule.SemesterStart, now)
	resp.StartTime = rule.StartTime.String()
	resp.EndTime = rule.EndTime.String()
	if occ, ok := occurrence.Next(rule, now).Get(); ok {
		next := toOccurrenceResponse(c.CourseID, rule, occ)
		resp.Next = &next
	}
	return resp
}

func toOccurrenceResponse(courseID string, rule occurrence.Rule, occ occurrence.Occurrence) dto.OccurrenceResponse {
	return dto.OccurrenceResponse{
		Start:     occ.Start.Format(dto.TimeLayout),
		End:       occ.End.Format(dto.TimeLayout),
		WeekIndex: occ.WeekIndex,
		FireAt:    occurrence.FireTime(occ, rule.ReminderLeadMinutes).Format(dto.TimeLayout),
		DedupKey:  occurrence.DedupKey(courseID, occ),
	}
}

// parseSemesterStart 解析 YYYY-MM-DD 并对齐到所在周周一
func parseSemesterStart(s string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: semester_start 需为 YYYY-MM-DD", ErrInvalidCourse)
	}
	return occurrence.MondayOf(d), nil
}

// normalizeCourse 校验并规范化课程字段（时间统一为 HH:MM，周次去重排序）
func normalizeCourse(c *model.Course) error {
	if c.Title == "" {
		return fmt.Errorf("%w: 课程名称不能为空", ErrInvalidCourse)
	}
	if c.DayOfWeek < 1 || c.DayOfWeek > 7 {
		return fmt.Errorf("%w: day_of_week 需在 1-7 之间", ErrInvalidCourse)
	}

	start, err := occurrence.ParseTimeOfDay(c.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time 格式应为 HH:MM", ErrInvalidCourse)
	}
	end, err := occurrence.ParseTimeOfDay(c.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time 格式应为 HH:MM", ErrInvalidCourse)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: 结束时间必须晚于开始时间", ErrInvalidCourse)
	}
	c.StartTime = start.String()
	c.EndTime = end.String()

	if c.TotalWeeks < 1 {
		return fmt.Errorf("%w: total_weeks 至少为 1", ErrInvalidCourse)
	}

	filter, err := occurrence.ParseWeekFilter(c.WeekType)
	if err != nil {
		return fmt.Errorf("%w: week_type 仅支持 all/odd/even", ErrInvalidCourse)
	}
	c.WeekType = string(filter)

	weeks := make(model.IntArray, 0, len(c.IncludedWeeks))
	seen := make(map[int]bool, len(c.IncludedWeeks))
	for _, w := range c.IncludedWeeks {
		if w < 1 || w > c.TotalWeeks {
			return fmt.Errorf("%w: included_weeks 中的 %d 超出 1-%d", ErrInvalidCourse, w, c.TotalWeeks)
		}
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	sort.Ints(weeks)
	c.IncludedWeeks = weeks

	if c.ReminderMinutes < 0 {
		return fmt.Errorf("%w: reminder_minutes 不能为负数", ErrInvalidCourse)
	}

	if c.Color == "" {
		c.Color = defaultCourseColor
	}
	if !colorPattern.MatchString(c.Color) {
		return fmt.Errorf("%w: color 需为 #RRGGBB 或 #AARRGGBB", ErrInvalidCourse)
	}
	return nil
}
