// Package server 路由配置与核心基础设施
//
// 本包是所有 HTTP API 的装配入口，负责：
//   - 将请求分发到各领域独立包（auth/user/post/notification）
//   - 管理存储层、事件总线、限流器、对象存储等依赖
//   - 中间件链（CORS、限流、认证、指标）
//
// 文件组织：
//   - common.go: Handler 定义与健康检查
//   - handler.go: 路由配置
//   - middleware.go: CORS 与限流中间件
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"socialnet/internal/config"
	"socialnet/internal/shared/cache"
	"socialnet/internal/shared/eventbus"
	objstore "socialnet/internal/shared/minio"
	"socialnet/internal/shared/storage"
)

// Handler API 装配器
//
// 依赖接口说明（接口隔离原则）：
//   - store: 持久化存储（用户/帖子）
//   - bus: 通知事件总线（关注/点赞/评论通知）
//   - limiter: 固定窗口限流器
//   - obj: 对象存储（头像/配图），nil 表示未配置
type Handler struct {
	cfg     *config.Config
	store   storage.PersistentStore
	bus     eventbus.NotificationBus
	limiter cache.RateLimiter
	obj     *objstore.Client

	metrics *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(cfg *config.Config, store storage.PersistentStore, bus eventbus.NotificationBus,
	limiter cache.RateLimiter, obj *objstore.Client) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   store,
		bus:     bus,
		limiter: limiter,
		obj:     obj,
		metrics: NewMetrics("socialnet"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError 将错误信息以统一响应格式写入
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
