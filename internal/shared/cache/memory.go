package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter 进程内固定窗口限流器
// 单实例部署和测试用；多实例部署用 redis 实现共享计数
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time // 可注入，测试用
}

type window struct {
	start time.Time
	count int
}

// NewMemoryLimiter 创建内存限流器
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow 实现 RateLimiter
func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, windowDur time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= windowDur {
		l.windows[key] = &window{start: now, count: 1}
		return true, nil
	}
	w.count++
	return w.count <= limit, nil
}

var _ RateLimiter = (*MemoryLimiter)(nil)
