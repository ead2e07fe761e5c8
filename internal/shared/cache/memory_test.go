package cache

import (
	"context"
	"testing"
	"time"
)

// TestMemoryLimiter 测试固定窗口计数
func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	// 窗口内前 limit 次放行，之后拒绝
	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "ip-1", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}
	allowed, _ := l.Allow(ctx, "ip-1", 3, time.Minute)
	if allowed {
		t.Error("Request over limit should be rejected")
	}

	// 不同 key 互不影响
	allowed, _ = l.Allow(ctx, "ip-2", 3, time.Minute)
	if !allowed {
		t.Error("Different key should have its own window")
	}
}

// TestMemoryLimiter_WindowReset 测试窗口过期后计数重置
func TestMemoryLimiter_WindowReset(t *testing.T) {
	current := time.Now()
	l := NewMemoryLimiter()
	l.now = func() time.Time { return current }

	ctx := context.Background()

	// 打满窗口
	for i := 0; i < 2; i++ {
		l.Allow(ctx, "ip-1", 2, time.Minute)
	}
	if allowed, _ := l.Allow(ctx, "ip-1", 2, time.Minute); allowed {
		t.Error("Window should be exhausted")
	}

	// 时间推进到窗口之外
	current = current.Add(time.Minute + time.Second)
	if allowed, _ := l.Allow(ctx, "ip-1", 2, time.Minute); !allowed {
		t.Error("Expired window should reset the counter")
	}
}
