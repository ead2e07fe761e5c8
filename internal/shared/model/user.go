// Package model 定义核心数据模型
//
// 所有模型同时携带 json 和 bson 标签：
//   - json: API 响应序列化（camelCase，与前端约定一致）
//   - bson: MongoDB 存储序列化（snake_case）
//
// 敏感字段（密码哈希）通过 json:"-" 保证永远不会出现在响应中。
package model

import "time"

// User 用户
//
// followers/following 双向存储用户 ID 列表，读取侧按需 join 为摘要。
// 两个列表不直接序列化到 API 响应，粉丝/关注数量通过 Profile() 派生。
//
// 不变式：用户永远不会出现在自己的 followers/following 中
// （自关注在操作入口即被拒绝）。
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"` // never expose in JSON
	Bio          string     `json:"bio" bson:"bio"`
	Avatar       string     `json:"avatar" bson:"avatar"`
	Followers    []string   `json:"-" bson:"followers"`
	Following    []string   `json:"-" bson:"following"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

// UserSummary 用户摘要（读取侧 join 的最小字段集）
type UserSummary struct {
	ID     string `json:"id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	Avatar string `json:"avatar" bson:"avatar"`
}

// UserProfile 用户资料视图（含派生计数）
type UserProfile struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Bio            string     `json:"bio"`
	Avatar         string     `json:"avatar"`
	FollowerCount  int        `json:"followerCount"`
	FollowingCount int        `json:"followingCount"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Summary 返回用户摘要
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// Profile 返回用户资料视图
// 粉丝/关注数量从关系列表长度派生，不单独存储
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Bio:            u.Bio,
		Avatar:         u.Avatar,
		FollowerCount:  len(u.Followers),
		FollowingCount: len(u.Following),
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
	}
}

// HasFollower 判断 userID 是否在粉丝列表中
func (u *User) HasFollower(userID string) bool {
	for _, id := range u.Followers {
		if id == userID {
			return true
		}
	}
	return false
}
