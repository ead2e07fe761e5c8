// memstore.go 提供内存版 PersistentStore 实现
//
// 用途：handler 层测试、无 MongoDB 的本地开发。
// 语义与 mongostore 保持一致（软删除过滤、领域错误、排序分页）。
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"socialnet/internal/shared/model"
)

// MemStore 内存存储，mutex 保护下并发安全
type MemStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
	posts map[string]*model.Post
}

// NewMemStore 创建内存存储实例
func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[string]*model.User),
		posts: make(map[string]*model.Post),
	}
}

// Close 实现 PersistentStore
func (s *MemStore) Close() error { return nil }

// 确保 MemStore 实现了 PersistentStore 接口
var _ PersistentStore = (*MemStore)(nil)

// ============================================================================
// UserStore
// ============================================================================

func (s *MemStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}

func (s *MemStore) ListUsers(ctx context.Context, filter UserFilter) ([]*model.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*model.User
	search := strings.ToLower(filter.Search)
	for _, u := range s.users {
		if !u.IsActive || u.ID == filter.ExcludeID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Bio), search) {
			continue
		}
		cp := *u
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	matched = paginate(matched, filter.Limit, filter.Offset)
	return matched, total, nil
}

func (s *MemStore) UpdateUserProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) UpdateUserAvatar(ctx context.Context, id, avatar string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Avatar = avatar
	return nil
}

func (s *MemStore) TouchLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func (s *MemStore) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.users[targetID]
	if !ok || !target.IsActive {
		return false, 0, ErrNotFound
	}
	actor, ok := s.users[actorID]
	if !ok {
		return false, 0, ErrNotFound
	}

	if contains(target.Followers, actorID) {
		target.Followers = remove(target.Followers, actorID)
		actor.Following = remove(actor.Following, targetID)
		return false, len(target.Followers), nil
	}
	target.Followers = append(target.Followers, actorID)
	actor.Following = append(actor.Following, targetID)
	return true, len(target.Followers), nil
}

// ============================================================================
// PostStore
// ============================================================================

func (s *MemStore) CreatePost(ctx context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *MemStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok || !p.IsActive {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) ListPosts(ctx context.Context, limit, offset int) ([]*model.Post, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*model.Post
	for _, p := range s.posts {
		if p.IsActive {
			cp := *p
			active = append(active, &cp)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	total := len(active)
	active = paginate(active, limit, offset)
	return active, total, nil
}

func (s *MemStore) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || !p.IsActive {
		return false, 0, ErrNotFound
	}
	if contains(p.Likes, userID) {
		p.Likes = remove(p.Likes, userID)
		return false, len(p.Likes), nil
	}
	p.Likes = append(p.Likes, userID)
	return true, len(p.Likes), nil
}

func (s *MemStore) AddComment(ctx context.Context, postID string, comment *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || !p.IsActive {
		return ErrNotFound
	}
	p.Comments = append(p.Comments, *comment)
	return nil
}

func (s *MemStore) SoftDeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.IsActive = false
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
