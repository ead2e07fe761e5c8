package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// 免认证路由（前缀匹配）
var publicPrefixes = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/health",
	"/metrics",
}

func isPublicRoute(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractToken 从请求中提取令牌
// Cookie 优先于 Authorization: Bearer 头
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Middleware 创建认证中间件
//
// 对非公开路由：提取令牌 → 验证签名 → 按 sub 加载用户 → 校验 is_active，
// 通过后将用户注入 context 并放行；任一步失败返回 401，不再调用下游。
// 中间件只读存储，从不修改。
func Middleware(cfg Config, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			claims, err := ParseToken(cfg, token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, "Token expired. Please login again.")
					return
				}
				writeError(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			user, err := store.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				log.Printf("[auth] GetUserByID error: %v", err)
				writeError(w, http.StatusInternalServerError, "Server error during authentication.")
				return
			}
			if user == nil {
				writeError(w, http.StatusUnauthorized, "Invalid token. User not found.")
				return
			}
			if !user.IsActive {
				writeError(w, http.StatusUnauthorized, "Account has been deactivated.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), user)))
		})
	}
}
