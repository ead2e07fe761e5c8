package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"socialnet/internal/shared/model"
	"socialnet/internal/shared/storage"
)

// UserStore 用户存储接口（本包所需的最小子集）
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store UserStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/me", h.Me)
}

// ============================================================================
// 请求类型
// ============================================================================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	var errs []string
	if n := utf8.RuneCountInString(req.Name); n < 2 || n > 50 {
		errs = append(errs, "Name must be between 2 and 50 characters")
	}
	if !isValidEmail(req.Email) {
		errs = append(errs, "Please enter a valid email")
	}
	if utf8.RuneCountInString(req.Password) < 6 {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	// 检查邮箱是否已注册（唯一索引兜底并发竞争）
	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.register] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "User already exists with this email")
		return
	}

	// 哈希密码：只存单向哈希，永不存明文
	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Followers:    []string{},
		Following:    []string{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.register] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.setTokenCookie(w, token)

	log.Printf("[auth] User registered: %s (%s)", user.Email, user.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User registered successfully",
		"data":    user.Profile(),
		"token":   token,
	})
}

// Login 用户登录
// POST /api/auth/login
//
// 不存在的邮箱、错误的密码、已停用的账号返回完全相同的 401 响应，
// 避免账号枚举信号。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	var errs []string
	if req.Email == "" {
		errs = append(errs, "Email is required")
	}
	if req.Password == "" {
		errs = append(errs, "Password is required")
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !user.IsActive || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// 最近登录时间是尽力更新，失败不阻断登录
	if err := h.store.TouchLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("[auth.login] TouchLastLogin error: %v", err)
	}

	token, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth.login] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.setTokenCookie(w, token)

	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"data":    user.Profile(),
		"token":   token,
	})
}

// Logout 退出登录
// POST /api/auth/logout
//
// 令牌无服务端状态，退出只清除客户端 Cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// Me 获取当前用户资料
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}
	writeSuccess(w, http.StatusOK, "", user.Profile())
}

// setTokenCookie 下发 httpOnly 会话 Cookie
func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.TokenTTL),
		MaxAge:   int(h.cfg.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// EnsureSecret 校验启动配置：JWT 密钥缺失直接拒绝启动
func EnsureSecret(cfg Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}
