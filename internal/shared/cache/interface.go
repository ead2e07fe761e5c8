// Package cache 定义缓存层抽象接口
//
// 目前唯一的消费者是 API 层的请求限流。
// 具体实现：redis/（生产），memory.go（测试 / 无 Redis 的本地开发）。
package cache

import (
	"context"
	"time"
)

// RateLimiter 固定窗口限流器
type RateLimiter interface {
	// Allow 对 key 计数一次，窗口内不超过 limit 返回 true。
	// 实现出错时调用方应放行（fail-open）。
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
