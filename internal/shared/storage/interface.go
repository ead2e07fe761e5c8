// Package storage 持久化存储层抽象
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"socialnet/internal/shared/model"
)

// UserFilter 用户列表筛选条件
type UserFilter struct {
	Search    string // 全文搜索（姓名/简介）
	ExcludeID string // 排除的用户 ID（列表不含自己）
	Limit     int
	Offset    int
}

// ProfileUpdate 资料部分更新
// nil 字段表示不修改
type ProfileUpdate struct {
	Name *string
	Bio  *string
}

// UserStore 用户存储接口
type UserStore interface {
	// CreateUser 创建用户；邮箱唯一键冲突返回 ErrDuplicate
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail 按邮箱查找；不存在返回 (nil, nil)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByID 按 ID 查找；不存在返回 (nil, nil)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUsersByIDs 批量查找，返回 id -> user 映射（读取侧 join 用）
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	// ListUsers 列出活跃用户（创建时间倒序），返回本页数据和总数
	ListUsers(ctx context.Context, filter UserFilter) ([]*model.User, int, error)
	// UpdateUserProfile 部分更新资料，返回更新后的用户
	UpdateUserProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error)
	// UpdateUserAvatar 更新头像引用
	UpdateUserAvatar(ctx context.Context, id, avatar string) error
	// TouchLastLogin 记录最近登录时间
	TouchLastLogin(ctx context.Context, id string) error
	// ToggleFollow 切换关注关系
	//
	// 目标不存在或已停用时返回 ErrNotFound。
	// 双向写入（target.followers 与 actor.following）：第二次写入失败时
	// 回滚第一次写入并报告失败，不会把半完成状态当作成功返回。
	// 返回切换后的状态和目标的粉丝数。
	ToggleFollow(ctx context.Context, actorID, targetID string) (isFollowing bool, followerCount int, err error)
}

// PostStore 帖子存储接口
type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	// GetPost 按 ID 查找活跃帖子；不存在或已软删除返回 (nil, nil)
	GetPost(ctx context.Context, id string) (*model.Post, error)
	// ListPosts 按创建时间倒序列出活跃帖子，返回本页数据和总数
	ListPosts(ctx context.Context, limit, offset int) ([]*model.Post, int, error)
	// ToggleLike 切换点赞；帖子不存在或已软删除返回 ErrNotFound
	// 返回切换后的状态和点赞数
	ToggleLike(ctx context.Context, postID, userID string) (isLiked bool, likeCount int, err error)
	// AddComment 追加评论；帖子不存在或已软删除返回 ErrNotFound
	AddComment(ctx context.Context, postID string, comment *model.Comment) error
	// SoftDeletePost 软删除（is_active 置 false，终态）
	SoftDeletePost(ctx context.Context, id string) error
}

// PersistentStore 持久化存储的完整接口
type PersistentStore interface {
	UserStore
	PostStore

	Close() error
}
