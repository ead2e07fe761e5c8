// Package notification 通知领域 - HTTP 处理
//
// 通知列表查询 + WebSocket 实时推送。
// 通知由关注/点赞/评论处理器发布到事件总线，这里只负责读取。
package notification

import (
	"log"
	"net/http"
	"strconv"

	"socialnet/internal/apiserver/auth"
	"socialnet/internal/shared/eventbus"
)

// 列表查询默认/上限条数
const (
	defaultListCount = 20
	maxListCount     = 100
)

// Handler 通知领域 HTTP 处理器
type Handler struct {
	bus eventbus.NotificationBus
	ws  *WSHandler
}

// NewHandler 创建通知处理器
func NewHandler(bus eventbus.NotificationBus) *Handler {
	return &Handler{bus: bus, ws: NewWSHandler(bus)}
}

// WS 返回 WebSocket 子处理器（服务端装配时挂接连接计数等钩子）
func (h *Handler) WS() *WSHandler { return h.ws }

// RegisterRoutes 注册通知 REST 路由
// WebSocket 路由由服务端装配单独注册（绕过指标中间件）
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notifications", h.List)
}

// List 最近通知（新→旧）
// GET /api/notifications?count
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())

	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	if count <= 0 || count > maxListCount {
		count = defaultListCount
	}

	items, err := h.bus.Recent(r.Context(), viewer.ID, int64(count))
	if err != nil {
		log.Printf("[notification.list] Recent error: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	writeSuccess(w, http.StatusOK, "", items)
}
