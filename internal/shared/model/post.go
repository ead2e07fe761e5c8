package model

import "time"

// 内容长度边界，在 HTTP 边界层校验
const (
	MaxPostContentLen = 2000
	MaxCommentLen     = 500
)

// Comment 帖子评论
// 评论只增不改：没有编辑/删除路径
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	Text      string    `json:"text" bson:"text"`
	Author    string    `json:"-" bson:"author"` // 用户 ID，响应中 join 为摘要
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Post 帖子
//
// likes 是用户 ID 集合（$addToSet 保证无重复），comments 为追加式数组。
// 软删除：is_active 置 false 后帖子从所有正常读取中消失，无恢复路径。
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	Content   string    `json:"content" bson:"content"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Author    string    `json:"-" bson:"author"` // 用户 ID，响应中 join 为摘要
	Likes     []string  `json:"likes" bson:"likes"`
	Comments  []Comment `json:"-" bson:"comments"`
	IsActive  bool      `json:"isActive" bson:"is_active"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// LikeCount 点赞数（派生）
func (p *Post) LikeCount() int { return len(p.Likes) }

// CommentCount 评论数（派生）
func (p *Post) CommentCount() int { return len(p.Comments) }

// LikedBy 判断 userID 是否已点赞
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
