// 路由配置
package server

import (
	"net/http"

	"socialnet/internal/apiserver/auth"
	"socialnet/internal/apiserver/notification"
	"socialnet/internal/apiserver/post"
	"socialnet/internal/apiserver/user"
	"socialnet/internal/config"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 认证 (Auth):
//   - POST /api/auth/register - 注册
//   - POST /api/auth/login    - 登录
//   - POST /api/auth/logout   - 登出
//   - GET  /api/auth/me       - 当前用户
//
// 用户 (User):
//   - GET  /api/users             - 列出/搜索用户
//   - GET  /api/users/{id}        - 用户详情
//   - PUT  /api/users/profile     - 更新资料
//   - PUT  /api/users/avatar      - 上传头像
//   - POST /api/users/{id}/follow - 切换关注
//
// 帖子 (Post):
//   - GET    /api/posts               - 信息流
//   - POST   /api/posts               - 发帖
//   - GET    /api/posts/{id}          - 帖子详情
//   - PUT    /api/posts/{id}/like     - 切换点赞
//   - POST   /api/posts/{id}/comments - 添加评论
//   - DELETE /api/posts/{id}          - 删除帖子
//
// 通知 (Notification):
//   - GET /api/notifications - 最近通知
//   - GET /ws/notifications  - WebSocket 实时推送
//
// 中间件链（外→内）：CORS → 限流 → 认证 → 指标 → 业务路由。
// WebSocket 路由绕过指标中间件（避免 http.Hijacker 问题）。
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	authCfg := auth.Config{
		JWTSecret:    h.cfg.JWTSecret,
		TokenTTL:     h.cfg.TokenTTL,
		SecureCookie: h.cfg.Env == config.EnvProduction,
	}

	// Auth 接口
	authHandler := auth.NewHandler(h.store, authCfg)
	authHandler.RegisterRoutes(mux)

	// User 接口
	userHandler := user.NewHandler(h.store, h.bus, h.obj)
	userHandler.RegisterRoutes(mux)

	// Post 接口
	postHandler := post.NewHandler(h.store, h.bus, h.obj)
	postHandler.RegisterRoutes(mux)

	// Notification 接口
	notifHandler := notification.NewHandler(h.bus)
	notifHandler.WS().OnConnChange = func(delta int) {
		if delta > 0 {
			h.metrics.WSConnectionOpened()
		} else {
			h.metrics.WSConnectionClosed()
		}
	}
	notifHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(authCfg, h.store)(apiHandler)

	// 应用限流中间件（认证之前，未认证请求同样计数）
	limitedHandler := h.rateLimitMiddleware(authedHandler)

	// 应用 CORS 中间件
	corsHandler := corsMiddleware(h.cfg.ClientOrigin)(limitedHandler)

	// 顶层路由：WebSocket 绕过 metrics 中间件（避免 http.Hijacker 问题），
	// 但仍经过认证（连接归属用户）
	topMux := http.NewServeMux()
	wsHandler := auth.Middleware(authCfg, h.store)(http.HandlerFunc(notifHandler.WS().HandleWebSocket))
	topMux.Handle("GET /ws/notifications", wsHandler)
	topMux.Handle("/", corsHandler)

	return topMux
}
