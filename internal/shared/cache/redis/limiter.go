// Package redis Redis 缓存实现
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"socialnet/internal/shared/cache"
)

// 限流计数键前缀
const keyRateLimit = "social:ratelimit:"

// Limiter Redis 固定窗口限流器
// 计数通过 INCR + EXPIRE 维护，多实例共享
type Limiter struct {
	client *redis.Client
}

// NewLimiterFromURL 从 URL 创建 Redis 限流器
func NewLimiterFromURL(redisURL string) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/RateLimit] Connected to %s", opts.Addr)
	return &Limiter{client: client}, nil
}

// NewLimiterFromClient 从现有 Redis 客户端创建限流器
func NewLimiterFromClient(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Close 关闭 Redis 连接
func (l *Limiter) Close() error {
	return l.client.Close()
}

// Allow 实现 cache.RateLimiter
// 窗口首次计数时设置过期时间，键到期即窗口重置
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rkey := keyRateLimit + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.ExpireNX(ctx, rkey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return incr.Val() <= int64(limit), nil
}

var _ cache.RateLimiter = (*Limiter)(nil)
