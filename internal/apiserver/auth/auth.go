// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"socialnet/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyCurrentUser contextKey = "current_user"

// CookieName 会话令牌 Cookie 名称
const CookieName = "token"

// Config 认证配置
type Config struct {
	JWTSecret    string        // 签名密钥，启动时注入，之后只读
	TokenTTL     time.Duration // 令牌有效期（默认 7 天）
	SecureCookie bool          // 生产环境置 true（仅 HTTPS 发送）
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		TokenTTL: 7 * 24 * time.Hour,
	}
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
// 只携带 {sub, iat, exp}：令牌有效性完全由密钥和当前时间决定，无服务端状态
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken 生成会话令牌
func GenerateToken(cfg Config, userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
// 过期错误保留 jwt.ErrTokenExpired 语义，调用方据此区分提示
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithCurrentUser 将认证通过的用户注入 context
func WithCurrentUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeyCurrentUser, user)
}

// CurrentUser 从 context 获取当前用户
// 只在通过了认证中间件的 handler 中非 nil
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeyCurrentUser).(*model.User)
	return user
}
