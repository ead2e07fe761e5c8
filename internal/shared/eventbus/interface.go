// Package eventbus 定义通知事件总线抽象接口
//
// 关注/点赞/评论触发的通知通过事件总线发布，按接收者划分流。
// 具体实现：redis/（Redis Stream），NoOpBus（无 Redis 的部署/测试）。
//
// 通知是尽力投递的：发布失败由调用方记录日志，不影响触发它的请求。
package eventbus

import (
	"context"

	"socialnet/internal/shared/model"
)

// MaxStreamLength 每个用户通知流的最大长度（近似裁剪）
const MaxStreamLength = 100

// NotificationBus 通知事件总线
type NotificationBus interface {
	// Publish 向接收者的通知流追加一条通知
	Publish(ctx context.Context, n *model.Notification) error
	// Recent 返回最新的 count 条通知（新→旧）
	Recent(ctx context.Context, userID string, count int64) ([]*model.Notification, error)
	// Since 返回 lastID 之后的通知（旧→新）；lastID 为空表示从头开始
	Since(ctx context.Context, userID, lastID string) ([]*model.Notification, error)
}

// ============================================================================
// NoOpBus - 空操作实现（测试 / 无 Redis 部署）
// ============================================================================

// NoOpBus 丢弃所有通知的空实现
type NoOpBus struct{}

// NewNoOpBus 创建 NoOpBus 实例
func NewNoOpBus() *NoOpBus { return &NoOpBus{} }

func (b *NoOpBus) Publish(ctx context.Context, n *model.Notification) error {
	return nil
}

func (b *NoOpBus) Recent(ctx context.Context, userID string, count int64) ([]*model.Notification, error) {
	return []*model.Notification{}, nil
}

func (b *NoOpBus) Since(ctx context.Context, userID, lastID string) ([]*model.Notification, error) {
	return []*model.Notification{}, nil
}

var _ NotificationBus = (*NoOpBus)(nil)
