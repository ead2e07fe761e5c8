// Package user 用户领域 - HTTP 处理
//
// 用户列表/搜索、资料读写、头像上传、关注切换。
package user

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
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

// 头像上传大小上限
const maxAvatarBytes = 5 << 20 // 5MB

// Handler 用户领域 HTTP 处理器
type Handler struct {
	store storage.UserStore
	bus   eventbus.NotificationBus
	obj   *objstore.Client // nil 表示未配置对象存储
}

// NewHandler 创建用户处理器
func NewHandler(store storage.UserStore, bus eventbus.NotificationBus, obj *objstore.Client) *Handler {
	return &Handler{store: store, bus: bus, obj: obj}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users", h.List)
	mux.HandleFunc("GET /api/users/{id}", h.Get)
	mux.HandleFunc("PUT /api/users/profile", h.UpdateProfile)
	mux.HandleFunc("PUT /api/users/avatar", h.UpdateAvatar)
	mux.HandleFunc("POST /api/users/{id}/follow", h.ToggleFollow)
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// List 列出/搜索用户（不含自己）
// GET /api/users?page&limit&search
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	page, limit := parsePageQuery(r)

	filter := storage.UserFilter{
		Search:    r.URL.Query().Get("search"),
		ExcludeID: viewer.ID,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	users, total, err := h.store.ListUsers(r.Context(), filter)
	if err != nil {
		log.Printf("[user.list] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	profiles := make([]model.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	writePaginated(w, profiles, newPagination(page, limit, total))
}

// userDetail 用户详情视图：资料 + join 后的粉丝/关注摘要
type userDetail struct {
	model.UserProfile
	Followers   []model.UserSummary `json:"followers"`
	Following   []model.UserSummary `json:"following"`
	IsFollowing bool                `json:"isFollowing"`
}

// Get 用户详情
// GET /api/users/{id}
//
// 粉丝/关注列表在这里显式 join 为用户摘要，存储层不做任何隐式展开
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	id := r.PathValue("id")

	u, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		log.Printf("[user.get] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	if u == nil || !u.IsActive {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	related, err := h.store.GetUsersByIDs(r.Context(), append(append([]string{}, u.Followers...), u.Following...))
	if err != nil {
		log.Printf("[user.get] GetUsersByIDs error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}

	detail := userDetail{
		UserProfile: u.Profile(),
		Followers:   summarize(u.Followers, related),
		Following:   summarize(u.Following, related),
		IsFollowing: u.HasFollower(viewer.ID),
	}
	writeSuccess(w, http.StatusOK, "", detail)
}

type updateProfileRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// UpdateProfile 更新自己的资料（部分更新，未提供的字段保持不变）
// PUT /api/users/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
		if n := utf8.RuneCountInString(trimmed); n < 2 || n > 50 {
			errs = append(errs, "Name must be between 2 and 50 characters")
		}
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > 500 {
		errs = append(errs, "Bio cannot exceed 500 characters")
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	updated, err := h.store.UpdateUserProfile(r.Context(), viewer.ID,
		storage.ProfileUpdate{Name: req.Name, Bio: req.Bio})
	if err != nil {
		log.Printf("[user.profile] UpdateUserProfile error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeSuccess(w, http.StatusOK, "Profile updated successfully", updated.Profile())
}

// UpdateAvatar 上传头像
// PUT /api/users/avatar (multipart/form-data, 字段名 avatar)
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())

	if h.obj == nil {
		writeError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Image too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Avatar file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	key := fmt.Sprintf("avatars/%s-%s%s", viewer.ID, randomHex(6), path.Ext(header.Filename))
	if err := h.obj.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Printf("[user.avatar] Upload error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to upload avatar")
		return
	}

	url := h.obj.PublicURL(key)
	if err := h.store.UpdateUserAvatar(r.Context(), viewer.ID, url); err != nil {
		log.Printf("[user.avatar] UpdateUserAvatar error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	writeSuccess(w, http.StatusOK, "Avatar updated successfully", map[string]string{"avatar": url})
}

// ToggleFollow 切换关注关系
// POST /api/users/{id}/follow
func (h *Handler) ToggleFollow(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())
	targetID := r.PathValue("id")

	// 自关注在触达存储之前即被拒绝，保证不变式：用户不在自己的关系列表中
	if targetID == viewer.ID {
		writeError(w, http.StatusBadRequest, "You cannot follow yourself")
		return
	}

	isFollowing, followerCount, err := h.store.ToggleFollow(r.Context(), viewer.ID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[user.follow] ToggleFollow error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to toggle follow")
		return
	}

	message := "User unfollowed"
	if isFollowing {
		message = "User followed"
		// 新关注才通知；取关不打扰
		h.notify(r, &model.Notification{
			Recipient: targetID,
			Type:      model.NotificationFollow,
			Actor:     viewer.Summary(),
			CreatedAt: time.Now(),
		})
	}

	writeSuccess(w, http.StatusOK, message, map[string]interface{}{
		"isFollowing":   isFollowing,
		"followerCount": followerCount,
	})
}

// notify 尽力发布通知，失败只记录日志
func (h *Handler) notify(r *http.Request, n *model.Notification) {
	if err := h.bus.Publish(r.Context(), n); err != nil {
		log.Printf("[user.notify] Publish error: %v", err)
	}
}

// summarize 按原始顺序将 ID 列表 join 为用户摘要，缺失/停用的用户被跳过
func summarize(ids []string, users map[string]*model.User) []model.UserSummary {
	out := make([]model.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok && u.IsActive {
			out = append(out, u.Summary())
		}
	}
	return out
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
