package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"classbell/config"
)

// CalendarSyncer 日历批量同步；service.CalendarService 满足该接口
type CalendarSyncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// Runner 定时任务调度器
//
// 当前只有一个任务：按 jobs.calendar_sync_spec 为开启自动同步的用户刷新日历窗口。
// 同一任务上一轮未结束时跳过本轮。
type Runner struct {
	cron     *cron.Cron
	calendar CalendarSyncer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRunner 创建定时任务调度器；spec 非法时返回错误
func NewRunner(cfg *config.JobsConfig, loc *time.Location, calendar CalendarSyncer, logger *zap.Logger) (*Runner, error) {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{logger.Sugar()}
	r := &Runner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		calendar: calendar,
		timeout:  10 * time.Minute,
		logger:   logger,
	}

	if _, err := r.cron.AddFunc(cfg.CalendarSyncSpec, r.syncCalendars); err != nil {
		return nil, fmt.Errorf("jobs.calendar_sync_spec 无效: %w", err)
	}
	return r, nil
}

// Start 启动调度（非阻塞）
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("定时任务已启动", zap.Int("jobs", len(r.cron.Entries())))
}

// Stop 停止调度并等待运行中的任务结束，ctx 到期则放弃等待
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.logger.Info("定时任务已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next 下一次计划执行时间，无任务时返回零值
func (r *Runner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (r *Runner) syncCalendars() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	n, err := r.calendar.SyncAll(ctx)
	if err != nil {
		r.logger.Warn("定时日历同步部分失败", zap.Int("synced", n), zap.Error(err))
		return
	}
	r.logger.Info("定时日历同步完成", zap.Int("synced", n), zap.Duration("cost", time.Since(start)))
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
