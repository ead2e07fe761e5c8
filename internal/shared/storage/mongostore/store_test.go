package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"socialnet/internal/shared/model"
	"socialnet/internal/shared/storage"
)

// testStore 连接测试 MongoDB；未配置 MONGO_TEST_URI 时跳过
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping MongoDB integration tests")
	}

	dbName := fmt.Sprintf("socialnet_test_%d", time.Now().UnixNano())
	s, err := NewStore(uri, dbName)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.db.Drop(ctx)
		s.Close()
	})
	return s
}

func newTestUser(id string) *model.User {
	now := time.Now().Truncate(time.Millisecond)
	return &model.User{
		ID:        id,
		Name:      "User " + id,
		Email:     id + "@example.com",
		IsActive:  true,
		Followers: []string{},
		Following: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestUserCRUD 测试用户读写与唯一索引
func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	u := newTestUser("usr-1")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// 邮箱唯一索引
	dup := newTestUser("usr-dup")
	dup.Email = u.Email
	if err := s.CreateUser(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate err = %v, want ErrDuplicate", err)
	}

	got, err := s.GetUserByID(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got == nil || got.Email != u.Email {
		t.Errorf("got = %+v", got)
	}

	got, err = s.GetUserByEmail(ctx, u.Email)
	if err != nil || got == nil || got.ID != "usr-1" {
		t.Errorf("GetUserByEmail = (%v, %v)", got, err)
	}

	// 不存在返回 (nil, nil)
	got, err = s.GetUserByID(ctx, "usr-ghost")
	if err != nil || got != nil {
		t.Errorf("missing user = (%v, %v), want (nil, nil)", got, err)
	}
}

// TestUpdateUserProfile 测试部分更新
func TestUpdateUserProfile(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, newTestUser("usr-1")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	bio := "hello"
	updated, err := s.UpdateUserProfile(ctx, "usr-1", storage.ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if updated.Bio != "hello" {
		t.Errorf("Bio = %q", updated.Bio)
	}
	if updated.Name != "User usr-1" {
		t.Errorf("Name = %q, want unchanged", updated.Name)
	}
}

// TestToggleFollowMongo 测试关注切换的双向写入
func TestToggleFollowMongo(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, newTestUser("usr-a")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, newTestUser("usr-b")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	isFollowing, count, err := s.ToggleFollow(ctx, "usr-a", "usr-b")
	if err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}
	if !isFollowing || count != 1 {
		t.Errorf("= (%v, %d), want (true, 1)", isFollowing, count)
	}

	a, _ := s.GetUserByID(ctx, "usr-a")
	b, _ := s.GetUserByID(ctx, "usr-b")
	if len(a.Following) != 1 || len(b.Followers) != 1 {
		t.Errorf("Following = %v, Followers = %v", a.Following, b.Followers)
	}

	// 再次切换应取关
	isFollowing, count, err = s.ToggleFollow(ctx, "usr-a", "usr-b")
	if err != nil || isFollowing || count != 0 {
		t.Errorf("= (%v, %d, %v), want (false, 0, nil)", isFollowing, count, err)
	}

	// 目标不存在
	if _, _, err := s.ToggleFollow(ctx, "usr-a", "usr-ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestPostLifecycle 测试帖子生命周期：创建、点赞、评论、软删除
func TestPostLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Millisecond)
	p := &model.Post{
		ID:        "post-1",
		Content:   "hello",
		Author:    "usr-1",
		Likes:     []string{},
		Comments:  []model.Comment{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	// 点赞切换
	isLiked, count, err := s.ToggleLike(ctx, "post-1", "usr-2")
	if err != nil || !isLiked || count != 1 {
		t.Errorf("ToggleLike = (%v, %d, %v), want (true, 1, nil)", isLiked, count, err)
	}
	isLiked, count, err = s.ToggleLike(ctx, "post-1", "usr-2")
	if err != nil || isLiked || count != 0 {
		t.Errorf("ToggleLike = (%v, %d, %v), want (false, 0, nil)", isLiked, count, err)
	}

	// 评论追加
	c := &model.Comment{ID: "cmt-1", Text: "nice", Author: "usr-2", CreatedAt: now}
	if err := s.AddComment(ctx, "post-1", c); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	got, _ := s.GetPost(ctx, "post-1")
	if got == nil || len(got.Comments) != 1 || got.Comments[0].Text != "nice" {
		t.Errorf("post after comment = %+v", got)
	}

	// 软删除后不可见
	if err := s.SoftDeletePost(ctx, "post-1"); err != nil {
		t.Fatalf("SoftDeletePost: %v", err)
	}
	got, err = s.GetPost(ctx, "post-1")
	if err != nil || got != nil {
		t.Errorf("deleted post = (%v, %v), want (nil, nil)", got, err)
	}
	if _, _, err := s.ToggleLike(ctx, "post-1", "usr-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ToggleLike on deleted = %v, want ErrNotFound", err)
	}
	if err := s.AddComment(ctx, "post-1", c); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("AddComment on deleted = %v, want ErrNotFound", err)
	}
}

// TestListPostsMongo 测试信息流排序分页
func TestListPostsMongo(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		p := &model.Post{
			ID:        fmt.Sprintf("post-%d", i),
			Content:   fmt.Sprintf("post %d", i),
			Author:    "usr-1",
			Likes:     []string{},
			Comments:  []model.Comment{},
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}

	posts, total, err := s.ListPosts(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 3 || len(posts) != 2 {
		t.Fatalf("total = %d, len = %d, want 3/2", total, len(posts))
	}
	if posts[0].ID != "post-2" {
		t.Errorf("first = %s, want newest post-2", posts[0].ID)
	}
}
