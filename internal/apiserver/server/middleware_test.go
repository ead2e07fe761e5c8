package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestNormalizePath 测试指标路径规范化
func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/health", "/health"},
		{"/api/posts", "/api/posts"},
		{"/api/posts/post-a1b2c3d4e5f6", "/api/posts/{id}"},
		{"/api/posts/post-a1b2c3d4e5f6/like", "/api/posts/{id}/like"},
		{"/api/posts/post-a1b2c3d4e5f6/comments", "/api/posts/{id}/comments"},
		{"/api/users", "/api/users"},
		{"/api/users/usr-a1b2c3d4e5f6", "/api/users/{id}"},
		{"/api/users/usr-a1b2c3d4e5f6/follow", "/api/users/{id}/follow"},
		{"/api/users/profile", "/api/users/profile"},
		{"/api/users/avatar", "/api/users/avatar"},
		{"/api/notifications", "/api/notifications"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestClientIP 测试客户端 IP 提取
func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"RemoteAddr", "192.0.2.1:54321", "", "192.0.2.1"},
		{"XFF 单个", "10.0.0.1:80", "203.0.113.5", "203.0.113.5"},
		{"XFF 多个取第一个", "10.0.0.1:80", "203.0.113.5, 10.0.0.2, 10.0.0.3", "203.0.113.5"},
		{"XFF 带空格", "10.0.0.1:80", "  203.0.113.5  ", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/posts", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestCORSMiddleware 测试 CORS 头与预检请求
func TestCORSMiddleware(t *testing.T) {
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})
	handler := corsMiddleware("http://localhost:3000")(next)

	// 普通请求：带 CORS 头且继续处理
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/posts", nil))
	if !nextCalled {
		t.Error("Normal request should reach next handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true (cookie auth)", got)
	}

	// 预检请求：直接 200，不进入下游
	nextCalled = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/posts", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Preflight status = %d, want 200", rec.Code)
	}
	if nextCalled {
		t.Error("Preflight must not reach next handler")
	}
}
