package alarm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"classbell/pkg/clock"
)

// Options 调度器配置
type Options struct {
	Exact       bool          // false 时拒绝登记，返回 ErrExactAlarmUnavailable
	DedupTTL    time.Duration // 去重键保留时长
	FireTimeout time.Duration // 单次触发处理超时
	Guard       Guard         // nil 时使用 MemoryGuard
	Clock       clock.Clock
	Logger      *zap.Logger
}

type entry struct {
	alarm Alarm
	timer *time.Timer
	seq   uint64
}

// Scheduler 进程内闹钟：每门课程一个 time.AfterFunc
type Scheduler struct {
	opts    Options
	guard   Guard
	logger  *zap.Logger
	handler FireFunc

	mu      sync.Mutex
	pending map[string]*entry
	seq     uint64
	stopped bool
	wg      sync.WaitGroup
}

var _ Port = (*Scheduler)(nil)

// NewScheduler 创建调度器；需在登记前调用 SetHandler
func NewScheduler(opts Options) *Scheduler {
	if opts.Guard == nil {
		opts.Guard = NewMemoryGuard()
	}
	if opts.Clock == nil {
		opts.Clock = clock.System(time.Local)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FireTimeout <= 0 {
		opts.FireTimeout = 30 * time.Second
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = 48 * time.Hour
	}
	return &Scheduler{
		opts:    opts,
		guard:   opts.Guard,
		logger:  opts.Logger,
		pending: make(map[string]*entry),
	}
}

// SetHandler 设置触发回调
func (s *Scheduler) SetHandler(fn FireFunc) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

func (s *Scheduler) CanScheduleExact() bool { return s.opts.Exact }

func (s *Scheduler) Schedule(_ context.Context, a Alarm) error {
	if !s.opts.Exact {
		return ErrExactAlarmUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if old, ok := s.pending[a.CourseID]; ok {
		old.timer.Stop()
	}

	delay := a.FireAt.Sub(s.opts.Clock.Now())
	if delay < 0 {
		delay = 0 // 已过触发时刻但课程未开始：立即提醒
	}

	s.seq++
	seq := s.seq
	courseID := a.CourseID
	s.pending[courseID] = &entry{
		alarm: a,
		seq:   seq,
		timer: time.AfterFunc(delay, func() { s.trigger(courseID, seq) }),
	}

	s.logger.Debug("登记上课提醒",
		zap.String("course_id", a.CourseID),
		zap.Time("fire_at", a.FireAt),
		zap.Duration("delay", delay),
	)
	return nil
}

func (s *Scheduler) Cancel(courseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[courseID]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, courseID)
	return true
}

func (s *Scheduler) Pending(courseID string) (Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[courseID]
	if !ok {
		return Alarm{}, false
	}
	return e.alarm, true
}

// Len 待触发提醒数量
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop 取消全部待触发提醒并等待进行中的回调结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) trigger(courseID string, seq uint64) {
	s.mu.Lock()
	e, ok := s.pending[courseID]
	// 已被替换或取消的旧定时器
	if !ok || e.seq != seq || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, courseID)
	handler := s.handler
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.fire(e.alarm, handler)
}

func (s *Scheduler) fire(a Alarm, handler FireFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.FireTimeout)
	defer cancel()

	claimed, err := s.guard.ClaimOnce(ctx, a.DedupKey, s.opts.DedupTTL)
	if err != nil {
		// 去重存储不可用时仍然提醒，由 notifications 唯一键兜底
		s.logger.Warn("提醒去重失败", zap.String("dedup_key", a.DedupKey), zap.Error(err))
		claimed = true
	}
	if !claimed {
		s.logger.Info("提醒已由其他实例发送，跳过", zap.String("dedup_key", a.DedupKey))
		return
	}
	if handler == nil {
		s.logger.Warn("未设置提醒回调", zap.String("course_id", a.CourseID))
		return
	}

	handler(ctx, a)
}
