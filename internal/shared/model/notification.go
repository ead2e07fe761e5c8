package model

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
)

// Notification 用户通知
//
// 通知是尽力投递的：写入失败只记录日志，不影响触发它的请求。
// 存储在按接收者划分的 Redis Stream 中，ID 为 Stream 条目 ID（读取时回填）。
type Notification struct {
	ID        string           `json:"id"`
	Recipient string           `json:"-"`
	Type      NotificationType `json:"type"`
	Actor     UserSummary      `json:"actor"`
	PostID    string           `json:"postId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
