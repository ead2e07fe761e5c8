package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialnet/internal/shared/model"
)

func seedUser(t *testing.T, s *MemStore, id string, createdAt time.Time) *model.User {
	t.Helper()
	u := &model.User{
		ID:        id,
		Name:      "User " + id,
		Email:     id + "@example.com",
		IsActive:  true,
		Followers: []string{},
		Following: []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// TestCreateUser_DuplicateEmail 测试邮箱唯一性
func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	seedUser(t, s, "usr-1", time.Now())

	dup := &model.User{ID: "usr-2", Email: "usr-1@example.com", IsActive: true}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

// TestGetUser_Missing 测试不存在的用户返回 (nil, nil)
func TestGetUser_Missing(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	u, err := s.GetUserByID(ctx, "usr-ghost")
	if err != nil || u != nil {
		t.Errorf("GetUserByID = (%v, %v), want (nil, nil)", u, err)
	}
	u, err = s.GetUserByEmail(ctx, "ghost@example.com")
	if err != nil || u != nil {
		t.Errorf("GetUserByEmail = (%v, %v), want (nil, nil)", u, err)
	}
}

// TestListUsers 测试过滤、排序与分页
func TestListUsers(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	base := time.Now()

	seedUser(t, s, "usr-1", base)
	seedUser(t, s, "usr-2", base.Add(time.Second))
	seedUser(t, s, "usr-3", base.Add(2*time.Second))

	users, total, err := s.ListUsers(ctx, UserFilter{ExcludeID: "usr-1", Limit: 1, Offset: 0})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(users) != 1 || users[0].ID != "usr-3" {
		t.Errorf("users = %v, want [usr-3]", users)
	}
}

// TestListUsers_Search 测试名称/简介搜索
func TestListUsers_Search(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	seedUser(t, s, "usr-1", time.Now())
	bio := "gopher and gardener"
	if _, err := s.UpdateUserProfile(ctx, "usr-1", ProfileUpdate{Bio: &bio}); err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	seedUser(t, s, "usr-2", time.Now())

	users, total, err := s.ListUsers(ctx, UserFilter{Search: "gopher", Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].ID != "usr-1" {
		t.Errorf("search result = %v (total %d), want [usr-1]", users, total)
	}
}

// TestTouchLastLogin 测试登录时间戳写入
func TestTouchLastLogin(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	seedUser(t, s, "usr-1", time.Now())

	before := time.Now()
	if err := s.TouchLastLogin(ctx, "usr-1"); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}

	u, err := s.GetUserByID(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.LastLogin == nil {
		t.Fatal("LastLogin should be set")
	}
	if u.LastLogin.Before(before) {
		t.Errorf("LastLogin = %v, want >= %v", u.LastLogin, before)
	}

	if err := s.TouchLastLogin(ctx, "usr-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestToggleFollow 测试关注切换的双向写入
func TestToggleFollow(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	seedUser(t, s, "usr-a", time.Now())
	seedUser(t, s, "usr-b", time.Now())

	// 关注
	isFollowing, count, err := s.ToggleFollow(ctx, "usr-a", "usr-b")
	if err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}
	if !isFollowing || count != 1 {
		t.Errorf("= (%v, %d), want (true, 1)", isFollowing, count)
	}

	a, _ := s.GetUserByID(ctx, "usr-a")
	b, _ := s.GetUserByID(ctx, "usr-b")
	if len(a.Following) != 1 || a.Following[0] != "usr-b" {
		t.Errorf("actor.Following = %v", a.Following)
	}
	if len(b.Followers) != 1 || b.Followers[0] != "usr-a" {
		t.Errorf("target.Followers = %v", b.Followers)
	}

	// 取关：两侧都清空
	isFollowing, count, err = s.ToggleFollow(ctx, "usr-a", "usr-b")
	if err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}
	if isFollowing || count != 0 {
		t.Errorf("= (%v, %d), want (false, 0)", isFollowing, count)
	}

	a, _ = s.GetUserByID(ctx, "usr-a")
	b, _ = s.GetUserByID(ctx, "usr-b")
	if len(a.Following) != 0 || len(b.Followers) != 0 {
		t.Error("Unfollow must clear both sides")
	}
}

// TestToggleFollow_NotFound 测试目标不存在
func TestToggleFollow_NotFound(t *testing.T) {
	s := NewMemStore()
	seedUser(t, s, "usr-a", time.Now())

	if _, _, err := s.ToggleFollow(context.Background(), "usr-a", "usr-ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestSoftDeletePost 测试软删除语义
func TestSoftDeletePost(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	p := &model.Post{ID: "post-1", Content: "hello", Author: "usr-1", IsActive: true, CreatedAt: time.Now()}
	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := s.SoftDeletePost(ctx, "post-1"); err != nil {
		t.Fatalf("SoftDeletePost: %v", err)
	}

	// 软删除后对所有读取不可见
	got, err := s.GetPost(ctx, "post-1")
	if err != nil || got != nil {
		t.Errorf("GetPost = (%v, %v), want (nil, nil)", got, err)
	}
	posts, total, _ := s.ListPosts(ctx, 10, 0)
	if total != 0 || len(posts) != 0 {
		t.Errorf("ListPosts after delete = %d posts", total)
	}

	// 点赞/评论返回 ErrNotFound
	if _, _, err := s.ToggleLike(ctx, "post-1", "usr-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleLike err = %v, want ErrNotFound", err)
	}
	if err := s.AddComment(ctx, "post-1", &model.Comment{ID: "cmt-1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddComment err = %v, want ErrNotFound", err)
	}
}

// TestToggleLike 测试点赞集合语义
func TestToggleLike(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	p := &model.Post{ID: "post-1", Content: "hello", Author: "usr-1", IsActive: true, CreatedAt: time.Now()}
	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	isLiked, count, _ := s.ToggleLike(ctx, "post-1", "usr-2")
	if !isLiked || count != 1 {
		t.Errorf("= (%v, %d), want (true, 1)", isLiked, count)
	}
	isLiked, count, _ = s.ToggleLike(ctx, "post-1", "usr-2")
	if isLiked || count != 0 {
		t.Errorf("= (%v, %d), want (false, 0)", isLiked, count)
	}
}

// TestPaginate 测试分页边界
func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []int
	}{
		{"首页", 2, 0, []int{1, 2}},
		{"中间页", 2, 2, []int{3, 4}},
		{"末页不满", 2, 4, []int{5}},
		{"越界", 2, 10, nil},
		{"limit 为 0 取全部", 0, 0, []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paginate(items, tt.limit, tt.offset)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}
