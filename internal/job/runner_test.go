package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classbell/config"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (s *countingSyncer) SyncAll(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestNewRunner_InvalidSpec(t *testing.T) {
	_, err := NewRunner(&config.JobsConfig{CalendarSyncSpec: "every tuesday"}, time.UTC, &countingSyncer{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunner_Next(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	r, err := NewRunner(&config.JobsConfig{CalendarSyncSpec: "@daily"}, shanghai, &countingSyncer{}, zap.NewNop())
	require.NoError(t, err)
	r.Start()
	defer func() { _ = r.Stop(context.Background()) }()

	next := r.Next().In(shanghai)
	assert.Equal(t, 0, next.Hour(), "@daily 应在所在时区零点执行")
	assert.Equal(t, 0, next.Minute())
}

func TestRunner_RunsCalendarSync(t *testing.T) {
	syncer := &countingSyncer{}
	r, err := NewRunner(&config.JobsConfig{CalendarSyncSpec: "@every 1s"}, time.UTC, syncer, zap.NewNop())
	require.NoError(t, err)

	r.Start()
	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, r.Stop(ctx))
}

func TestRunner_SyncErrorDoesNotPanic(t *testing.T) {
	syncer := &countingSyncer{err: errors.New("db down")}
	r, err := NewRunner(&config.JobsConfig{CalendarSyncSpec: "@hourly"}, time.UTC, syncer, zap.NewNop())
	require.NoError(t, err)

	assert.NotPanics(t, r.syncCalendars)
	assert.Equal(t, int32(1), syncer.calls.Load())
}
