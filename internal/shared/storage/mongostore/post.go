package mongostore

import (
	"context"
	"time"

	"socialnet/internal/shared/model"
	"socialnet/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// activePost 活跃帖子过滤条件
func activePost(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "is_active", Value: true}}
}

// ============================================================================
// PostStore
// ============================================================================

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	return insertOne(ctx, s.col(ColPosts), post)
}

func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return findOne[model.Post](ctx, s.col(ColPosts), activePost(id))
}

func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]*model.Post, int, error) {
	query := bson.D{{Key: "is_active", Value: true}}

	total, err := s.col(ColPosts).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	posts, err := findMany[model.Post](ctx, s.col(ColPosts), query, opts)
	if err != nil {
		return nil, 0, err
	}
	return posts, int(total), nil
}

// ToggleLike 切换点赞（单文档，$addToSet/$pull 各自原子）
func (s *Store) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	post, err := findOne[model.Post](ctx, s.col(ColPosts), activePost(postID))
	if err != nil {
		return false, 0, err
	}
	if post == nil {
		return false, 0, storage.ErrNotFound
	}

	liked := post.LikedBy(userID)
	op := "$addToSet"
	if liked {
		op = "$pull"
	}

	res, err := s.col(ColPosts).UpdateOne(ctx, activePost(postID),
		bson.D{
			{Key: op, Value: bson.D{{Key: "likes", Value: userID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
	if err != nil {
		return false, 0, wrapError(err)
	}
	if res.MatchedCount == 0 {
		return false, 0, storage.ErrNotFound
	}

	count := post.LikeCount()
	if liked {
		count--
	} else {
		count++
	}
	return !liked, count, nil
}

// AddComment 追加评论（只增不改）
func (s *Store) AddComment(ctx context.Context, postID string, comment *model.Comment) error {
	res, err := s.col(ColPosts).UpdateOne(ctx, activePost(postID),
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "comments", Value: comment}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SoftDeletePost 软删除（终态，无恢复路径）
func (s *Store) SoftDeletePost(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColPosts), id, bson.D{
		{Key: "is_active", Value: false},
		{Key: "updated_at", Value: time.Now()},
	})
}
