package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"socialnet/internal/shared/model"
	"socialnet/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	if len(ids) == 0 {
		return map[string]*model.User{}, nil
	}
	users, err := findMany[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	result := make(map[string]*model.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter) ([]*model.User, int, error) {
	query := bson.D{{Key: "is_active", Value: true}}
	if filter.ExcludeID != "" {
		query = append(query, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: filter.ExcludeID}}})
	}
	if filter.Search != "" {
		query = append(query, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: filter.Search}}})
	}

	total, err := s.col(ColUsers).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))
	users, err := findMany[model.User](ctx, s.col(ColUsers), query, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, int(total), nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd storage.ProfileUpdate) (*model.User, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Bio != nil {
		set = append(set, bson.E{Key: "bio", Value: *upd.Bio})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user model.User
	err := s.col(ColUsers).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&user)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

func (s *Store) UpdateUserAvatar(ctx context.Context, id, avatar string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "avatar", Value: avatar},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "last_login", Value: time.Now()},
	})
}

// ToggleFollow 切换关注关系
//
// 双向写入顺序：先 target.followers，后 actor.following。
// MongoDB 单文档更新各自原子；跨两个文档没有事务，第二次写入失败时
// 对第一次写入做补偿回滚，保证不把半完成状态当作成功报告。
// 同一 actor 对同一关系的并发切换是 last-write-wins，可接受。
func (s *Store) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, int, error) {
	target, err := findOne[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: targetID}, {Key: "is_active", Value: true}})
	if err != nil {
		return false, 0, err
	}
	if target == nil {
		return false, 0, storage.ErrNotFound
	}

	following := target.HasFollower(actorID)

	// $addToSet/$pull 保证集合语义：重复关注不产生重复条目
	op, undo := "$addToSet", "$pull"
	if following {
		op, undo = "$pull", "$addToSet"
	}

	now := time.Now()
	_, err = s.col(ColUsers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: targetID}},
		bson.D{
			{Key: op, Value: bson.D{{Key: "followers", Value: actorID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
		})
	if err != nil {
		return false, 0, wrapError(err)
	}

	_, err = s.col(ColUsers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: actorID}},
		bson.D{
			{Key: op, Value: bson.D{{Key: "following", Value: targetID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
		})
	if err != nil {
		// 补偿：回滚 target.followers 的写入
		if _, undoErr := s.col(ColUsers).UpdateOne(ctx,
			bson.D{{Key: "_id", Value: targetID}},
			bson.D{{Key: undo, Value: bson.D{{Key: "followers", Value: actorID}}}}); undoErr != nil {
			log.Printf("[mongostore] ToggleFollow rollback failed: target=%s actor=%s: %v", targetID, actorID, undoErr)
		}
		return false, 0, fmt.Errorf("update actor following: %w", wrapError(err))
	}

	count := len(target.Followers)
	if following {
		count--
	} else {
		count++
	}
	return !following, count, nil
}
