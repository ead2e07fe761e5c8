// CORS 与限流中间件
package server

import (
	"log"
	"net"
	"net/http"
	"strings"
)

// corsMiddleware 添加 CORS 头支持跨域请求
//
// 凭据模式（cookie 鉴权）要求 Allow-Origin 是具体来源而非通配符。
func corsMiddleware(clientOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", clientOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware 按客户端 IP 做固定窗口限流
//
// 限流器故障时放行（fail-open）：限流是保护层，不应成为单点故障。
func (h *Handler) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := h.limiter.Allow(r.Context(), clientIP(r), h.cfg.RateLimit.Limit, h.cfg.RateLimit.Window)
		if err != nil {
			log.Printf("[ratelimit] Allow error: %v", err)
			allowed = true
		}
		if !allowed {
			h.metrics.RateLimitedTotal.Inc()
			writeError(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP 提取客户端 IP：优先 X-Forwarded-For 首项，其次 RemoteAddr
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
