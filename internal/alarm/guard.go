package alarm

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard 单进程去重，未配置 Redis 时使用
type MemoryGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time // key → 过期时间
	now  func() time.Time
}

// NewMemoryGuard 创建内存去重器
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{seen: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) ClaimOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.seen {
		if !exp.After(now) {
			delete(g.seen, k)
		}
	}
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = now.Add(ttl)
	return true, nil
}
