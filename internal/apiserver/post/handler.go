// Package post 帖子领域 - HTTP 处理
//
// 信息流、发帖（可带配图）、点赞切换、评论、软删除。
package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"socialnet/internal/apiserver/auth"
	"socialnet/internal/shared/eventbus"
	objstore "socialnet/internal/shared/minio"
	"socialnet/internal/shared/model"
	"socialnet/internal/shared/storage"
)

// 帖子配图上传大小上限
const maxImageBytes = 10 << 20 // 10MB

// Store 帖子处理器依赖的存储能力
// 除帖子读写外还需要批量取用户做读取侧 join
type Store interface {
	storage.PostStore
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
}

// Handler 帖子领域 HTTP 处理器
type Handler struct {
	store Store
	bus   eventbus.NotificationBus
	obj   *objstore.Client // nil 表示未配置对象存储
}

// NewHandler 创建帖子处理器
func NewHandler(store Store, bus eventbus.NotificationBus, obj *objstore.Client) *Handler {
	return &Handler{store: store, bus: bus, obj: obj}
}

// RegisterRoutes 注册帖子相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/posts", h.List)
	mux.HandleFunc("POST /api/posts", h.Create)
	mux.HandleFunc("GET /api/posts/{id}", h.Get)
	mux.HandleFunc("PUT /api/posts/{id}/like", h.ToggleLike)
	mux.HandleFunc("POST /api/posts/{id}/comments", h.AddComment)
	mux.HandleFunc("DELETE /api/posts/{id}", h.Delete)
}

// ============================================================================
// 响应视图
// ============================================================================

// commentView 评论视图：作者 join 为摘要
type commentView struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Author    model.UserSummary `json:"author"`
	CreatedAt time.Time         `json:"createdAt"`
}

// postView 帖子视图：作者与评论作者均 join 为摘要，附带派生计数
type postView struct {
	ID           string            `json:"id"`
	Content      string            `json:"content"`
	Image        string            `json:"image,omitempty"`
	Author       model.UserSummary `json:"author"`
	Likes        []string          `json:"likes"`
	LikeCount    int               `json:"likeCount"`
	Comments     []commentView     `json:"comments"`
	CommentCount int               `json:"commentCount"`
	IsLiked      bool              `json:"isLiked"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// buildView 将帖子转换为响应视图
// users 是提前批量取好的 id -> user 映射；缺失的作者退化为仅含 ID 的摘要
func buildView(p *model.Post, viewerID string, users map[string]*model.User) postView {
	v := postView{
		ID:           p.ID,
		Content:      p.Content,
		Image:        p.Image,
		Author:       summaryOf(p.Author, users),
		Likes:        p.Likes,
		LikeCount:    p.LikeCount(),
		Comments:     make([]commentView, 0, len(p.Comments)),
		CommentCount: p.CommentCount(),
		IsLiked:      p.LikedBy(viewerID),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if v.Likes == nil {
		v.Likes = []string{}
	}
	for _, c := range p.Comments {
		v.Comments = append(v.Comments, commentView{
			ID:        c.ID,
			Text:      c.Text,
			Author:    summaryOf(c.Author, users),
			CreatedAt: c.CreatedAt,
		})
	}
	return v
}

func summaryOf(userID string, users map[string]*model.User) model.UserSummary {
	if u, ok := users[userID]; ok {
		return u.Summary()
	}
	return model.UserSummary{ID: userID}
}

// collectAuthorIDs 收集一批帖子涉及的作者 ID（帖子作者 + 评论作者），去重
func collectAuthorIDs(posts []*model.Post) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		add(p.Author)
		for _, c := range p.Comments {
			add(c.Author)
		}
	}
	return ids
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// List 信息流：全站活跃帖子，创建时间倒序
// GET /api/posts?page&limit
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	page, limit := parsePageQuery(r)

	posts, total, err := h.store.ListPosts(r.Context(), limit, (page-1)*limit)
	if err != nil {
		log.Printf("[post.list] ListPosts error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	users, err := h.store.GetUsersByIDs(r.Context(), collectAuthorIDs(posts))
	if err != nil {
		log.Printf("[post.list] GetUsersByIDs error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, buildView(p, viewer.ID, users))
	}
	writePaginated(w, views, newPagination(page, limit, total))
}

// Get 单帖详情
// GET /api/posts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())

	p, err := h.store.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[post.get] GetPost error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get post")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	users, err := h.store.GetUsersByIDs(r.Context(), collectAuthorIDs([]*model.Post{p}))
	if err != nil {
		log.Printf("[post.get] GetUsersByIDs error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get post")
		return
	}

	writeSuccess(w, http.StatusOK, "", buildView(p, viewer.ID, users))
}

type createPostRequest struct {
	Content string `json:"content"`
}

// Create 发帖
// POST /api/posts
//
// 两种载荷：application/json {content}，或 multipart/form-data
// （content 字段 + 可选 image 文件，配图上传到对象存储）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())

	var content, image string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			writeError(w, http.StatusBadRequest, "Image too large or malformed upload")
			return
		}
		content = r.FormValue("content")

		file, header, err := r.FormFile("image")
		switch {
		case err == http.ErrMissingFile:
			// 纯文字帖
		case err != nil:
			writeError(w, http.StatusBadRequest, "Malformed image upload")
			return
		default:
			defer file.Close()
			if h.obj == nil {
				writeError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
				return
			}
			contentType := header.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "image/") {
				writeError(w, http.StatusBadRequest, "Only image files are allowed")
				return
			}
			key := fmt.Sprintf("posts/%s-%s%s", viewer.ID, randomHex(6), path.Ext(header.Filename))
			if err := h.obj.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
				log.Printf("[post.create] Upload error: %v", err)
				writeError(w, http.StatusInternalServerError, "Failed to upload image")
				return
			}
			image = h.obj.PublicURL(key)
		}
	} else {
		var req createPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		content = req.Content
	}

	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > model.MaxPostContentLen {
		writeValidationError(w, []string{
			fmt.Sprintf("Content must be between 1 and %d characters", model.MaxPostContentLen),
		})
		return
	}

	now := time.Now()
	p := &model.Post{
		ID:        generateID("post"),
		Content:   content,
		Image:     image,
		Author:    viewer.ID,
		Likes:     []string{},
		Comments:  []model.Comment{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreatePost(r.Context(), p); err != nil {
		log.Printf("[post.create] CreatePost error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	users := map[string]*model.User{viewer.ID: viewer}
	writeSuccess(w, http.StatusCreated, "Post created successfully", buildView(p, viewer.ID, users))
}

// ToggleLike 切换点赞
// PUT /api/posts/{id}/like
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	postID := r.PathValue("id")

	// 先读帖子：404 判定 + 通知需要作者 ID
	p, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		log.Printf("[post.like] GetPost error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to toggle like")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	isLiked, likeCount, err := h.store.ToggleLike(r.Context(), postID, viewer.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		log.Printf("[post.like] ToggleLike error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to toggle like")
		return
	}

	message := "Post unliked"
	if isLiked {
		message = "Post liked"
		// 新点赞才通知；自己赞自己的帖子不通知
		if p.Author != viewer.ID {
			h.notify(r, &model.Notification{
				Recipient: p.Author,
				Type:      model.NotificationLike,
				Actor:     viewer.Summary(),
				PostID:    postID,
				CreatedAt: time.Now(),
			})
		}
	}

	writeSuccess(w, http.StatusOK, message, map[string]interface{}{
		"isLiked":   isLiked,
		"likeCount": likeCount,
	})
}

type addCommentRequest struct {
	Text string `json:"text"`
}

// AddComment 追加评论
// POST /api/posts/{id}/comments
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	postID := r.PathValue("id")

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" || utf8.RuneCountInString(text) > model.MaxCommentLen {
		writeValidationError(w, []string{
			fmt.Sprintf("Comment must be between 1 and %d characters", model.MaxCommentLen),
		})
		return
	}

	p, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		log.Printf("[post.comment] GetPost error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	c := &model.Comment{
		ID:        generateID("cmt"),
		Text:      text,
		Author:    viewer.ID,
		CreatedAt: time.Now(),
	}
	if err := h.store.AddComment(r.Context(), postID, c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		log.Printf("[post.comment] AddComment error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add comment")
		return
	}

	// 自己评论自己的帖子不通知
	if p.Author != viewer.ID {
		h.notify(r, &model.Notification{
			Recipient: p.Author,
			Type:      model.NotificationComment,
			Actor:     viewer.Summary(),
			PostID:    postID,
			CreatedAt: time.Now(),
		})
	}

	writeSuccess(w, http.StatusCreated, "Comment added successfully", commentView{
		ID:        c.ID,
		Text:      c.Text,
		Author:    viewer.Summary(),
		CreatedAt: c.CreatedAt,
	})
}

// Delete 软删除自己的帖子
// DELETE /api/posts/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	postID := r.PathValue("id")

	p, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		log.Printf("[post.delete] GetPost error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if p.Author != viewer.ID {
		writeError(w, http.StatusForbidden, "You can only delete your own posts")
		return
	}

	if err := h.store.SoftDeletePost(r.Context(), postID); err != nil {
		log.Printf("[post.delete] SoftDeletePost error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	writeSuccess(w, http.StatusOK, "Post deleted successfully", nil)
}

// notify 尽力发布通知，失败只记录日志
func (h *Handler) notify(r *http.Request, n *model.Notification) {
	if err := h.bus.Publish(r.Context(), n); err != nil {
		log.Printf("[post.notify] Publish error: %v", err)
	}
}
