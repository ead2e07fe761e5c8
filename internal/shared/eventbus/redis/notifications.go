// Package redis 通知事件总线的 Redis Stream 实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"socialnet/internal/shared/eventbus"
	"socialnet/internal/shared/model"
)

// 通知流键前缀，后接接收者用户 ID
const keyNotifications = "social:notify:"

// Bus 基于 Redis Stream 的通知总线
type Bus struct {
	client *redis.Client
}

// NewBusFromURL 从 URL 创建通知总线
func NewBusFromURL(redisURL string) (*Bus, error) {
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

	log.Printf("[Redis/EventBus] Connected to %s", opts.Addr)
	return &Bus{client: client}, nil
}

// NewBusFromClient 从现有 Redis 客户端创建通知总线
func NewBusFromClient(client *redis.Client) *Bus {
	return &Bus{client: client}
}

// Close 关闭 Redis 连接
func (b *Bus) Close() error {
	return b.client.Close()
}

func streamKey(userID string) string {
	return keyNotifications + userID
}

// Publish 实现 eventbus.NotificationBus
func (b *Bus) Publish(ctx context.Context, n *model.Notification) error {
	actorJSON, err := json.Marshal(n.Actor)
	if err != nil {
		return fmt.Errorf("failed to marshal actor: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey(n.Recipient),
		MaxLen: eventbus.MaxStreamLength,
		Approx: true,
		Values: map[string]interface{}{
			"type":      string(n.Type),
			"actor":     string(actorJSON),
			"post_id":   n.PostID,
			"timestamp": n.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Recent 实现 eventbus.NotificationBus
func (b *Bus) Recent(ctx context.Context, userID string, count int64) ([]*model.Notification, error) {
	msgs, err := b.client.XRevRangeN(ctx, streamKey(userID), "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return decodeMessages(userID, msgs), nil
}

// Since 实现 eventbus.NotificationBus
func (b *Bus) Since(ctx context.Context, userID, lastID string) ([]*model.Notification, error) {
	from := "-"
	if lastID != "" {
		from = "(" + lastID // 排他起点
	}
	msgs, err := b.client.XRange(ctx, streamKey(userID), from, "+").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return decodeMessages(userID, msgs), nil
}

// decodeMessages 将 Stream 条目解码为通知
func decodeMessages(userID string, msgs []redis.XMessage) []*model.Notification {
	notifications := make([]*model.Notification, 0, len(msgs))
	for _, msg := range msgs {
		n := &model.Notification{
			ID:        msg.ID,
			Recipient: userID,
		}
		if v, ok := msg.Values["type"].(string); ok {
			n.Type = model.NotificationType(v)
		}
		if v, ok := msg.Values["actor"].(string); ok {
			json.Unmarshal([]byte(v), &n.Actor)
		}
		if v, ok := msg.Values["post_id"].(string); ok {
			n.PostID = v
		}
		if v, ok := msg.Values["timestamp"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				n.CreatedAt = t
			}
		}
		notifications = append(notifications, n)
	}
	return notifications
}

var _ eventbus.NotificationBus = (*Bus)(nil)
