package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"classbell/internal/repository"
)

// zoneResolver 按用户解析时区，"下一节课"始终在用户时区内计算
type zoneResolver struct {
	users    repository.UserRepository
	fallback *time.Location
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]*time.Location // IANA 名称 → Location
}

func newZoneResolver(users repository.UserRepository, fallback *time.Location, logger *zap.Logger) *zoneResolver {
	if fallback == nil {
		fallback = time.Local
	}
	return &zoneResolver{users: users, fallback: fallback, logger: logger, cache: make(map[string]*time.Location)}
}

// For 返回用户时区；用户不存在或时区无效时使用服务默认时区
func (z *zoneResolver) For(ctx context.Context, userID string) *time.Location {
	user, err := z.users.GetByID(ctx, userID)
	if err != nil || user.Timezone == "" {
		return z.fallback
	}
	return z.load(user.Timezone)
}

func (z *zoneResolver) load(name string) *time.Location {
	z.mu.Lock()
	defer z.mu.Unlock()

	if loc, ok := z.cache[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		z.logger.Warn("用户时区无效，使用默认时区", zap.String("timezone", name), zap.Error(err))
		loc = z.fallback
	}
	z.cache[name] = loc
	return loc
}
