package auth

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
}

// TestHashPassword 测试密码哈希与验证
func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret123" {
		t.Error("Hash should not equal plaintext")
	}

	if !CheckPassword("secret123", hash) {
		t.Error("CheckPassword should accept correct password")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword should reject wrong password")
	}
}

// TestTokenRoundtrip 测试令牌生成与解析
func TestTokenRoundtrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "usr-abc123")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.Subject != "usr-abc123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "usr-abc123")
	}
}

// TestParseToken_Invalid 测试无效令牌
func TestParseToken_Invalid(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name        string
		token       func() string
		wantExpired bool
	}{
		{
			name:  "乱码令牌",
			token: func() string { return "not-a-token" },
		},
		{
			name: "密钥不匹配",
			token: func() string {
				other := Config{JWTSecret: "other-secret", TokenTTL: time.Hour}
				tok, _ := GenerateToken(other, "usr-1")
				return tok
			},
		},
		{
			name: "已过期",
			token: func() string {
				expired := Config{JWTSecret: cfg.JWTSecret, TokenTTL: -time.Hour}
				tok, _ := GenerateToken(expired, "usr-1")
				return tok
			},
			wantExpired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(cfg, tt.token())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantExpired && !errors.Is(err, jwt.ErrTokenExpired) {
				t.Errorf("Expected jwt.ErrTokenExpired, got %v", err)
			}
		})
	}
}

// TestExtractToken 测试令牌提取：Cookie 优先于 Bearer 头
func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{name: "无令牌", want: ""},
		{name: "仅 Cookie", cookie: "cookie-token", want: "cookie-token"},
		{name: "仅 Bearer", header: "Bearer header-token", want: "header-token"},
		{name: "Cookie 优先", cookie: "cookie-token", header: "Bearer header-token", want: "cookie-token"},
		{name: "bearer 大小写不敏感", header: "bearer header-token", want: "header-token"},
		{name: "非 Bearer 方案", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "缺少令牌部分", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/api/posts", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			if got := extractToken(r); got != tt.want {
				t.Errorf("extractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestGenerateID 测试 ID 生成
func TestGenerateID(t *testing.T) {
	id := generateID("usr")
	if !strings.HasPrefix(id, "usr-") {
		t.Errorf("ID %q should start with usr-", id)
	}
	// 格式：prefix-xxxxxxxxxxxx（prefix + 1 + 12 字符）
	if len(id) != len("usr")+1+12 {
		t.Errorf("ID length = %d, want %d", len(id), len("usr")+1+12)
	}

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateID("usr")
		if ids[id] {
			t.Errorf("Duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

// TestNormalizeEmail 测试邮箱规范化
func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Alice@Example.COM  ", "alice@example.com"},
		{"bob@test.io", "bob@test.io"},
	}
	for _, tt := range tests {
		if got := normalizeEmail(tt.in); got != tt.want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestIsValidEmail 测试邮箱格式校验
func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b+c@sub.domain.io", true},
		{"no-at-sign", false},
		{"missing@tld", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isValidEmail(tt.email); got != tt.want {
			t.Errorf("isValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}
