// 通知 WebSocket 实时推送
//
// 每个连接对应一个已认证用户：先推送存量通知（旧→新），
// 之后轮询事件总线的增量并逐条下发。
package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"socialnet/internal/apiserver/auth"
	"socialnet/internal/shared/eventbus"
	"socialnet/internal/shared/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS 由中间件统一处理，这里不重复校验
	},
}

// 存量推送条数与增量轮询间隔
const (
	backlogCount = 20
	pollInterval = 3 * time.Second
)

// wsMessage WebSocket 下行消息
type wsMessage struct {
	Type      string              `json:"type"` // notification
	Data      *model.Notification `json:"data"`
	Timestamp time.Time           `json:"timestamp"`
}

// WSHandler 通知 WebSocket 连接处理器
type WSHandler struct {
	bus     eventbus.NotificationBus
	clients map[*websocket.Conn]string // conn -> 用户 ID
	mu      sync.RWMutex

	// OnConnChange 连接数变化钩子（服务端装配时挂接指标）
	OnConnChange func(delta int)
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(bus eventbus.NotificationBus) *WSHandler {
	return &WSHandler{
		bus:     bus,
		clients: make(map[*websocket.Conn]string),
	}
}

// HandleWebSocket 处理 WebSocket 连接
//
// 路由: GET /ws/notifications（经认证中间件，用户已在上下文中）
func (ws *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentUser(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[NotifyWS] Upgrade error: %v", err)
		return
	}

	ws.mu.Lock()
	ws.clients[conn] = viewer.ID
	total := len(ws.clients)
	ws.mu.Unlock()
	ws.connChange(1)

	log.Printf("[NotifyWS] Client connected (user=%s), total: %d", viewer.ID, total)

	done := make(chan struct{})
	go ws.writePump(conn, viewer.ID, done)
	go ws.readPump(conn, done)
}

// readPump 读取客户端消息（只用于保活与关闭检测）
func (ws *WSHandler) readPump(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		close(done)
		ws.mu.Lock()
		delete(ws.clients, conn)
		remaining := len(ws.clients)
		ws.mu.Unlock()
		ws.connChange(-1)
		conn.Close()
		log.Printf("[NotifyWS] Client disconnected, remaining: %d", remaining)
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[NotifyWS] Read error: %v", err)
			}
			break
		}
	}
}

// writePump 先推送存量，再按间隔轮询增量，并发送心跳
func (ws *WSHandler) writePump(conn *websocket.Conn, userID string, done chan struct{}) {
	ctx := context.Background()

	// 存量：Recent 返回新→旧，反转后按时间顺序下发
	lastID := ""
	backlog, err := ws.bus.Recent(ctx, userID, backlogCount)
	if err != nil {
		log.Printf("[NotifyWS] Recent error: %v", err)
	}
	for i := len(backlog) - 1; i >= 0; i-- {
		ws.send(conn, backlog[i])
	}
	if len(backlog) > 0 {
		lastID = backlog[0].ID // Recent 的首条是最新一条
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			items, err := ws.bus.Since(ctx, userID, lastID)
			if err != nil {
				log.Printf("[NotifyWS] Since error: %v", err)
				continue
			}
			for _, n := range items {
				ws.send(conn, n)
				lastID = n.ID
			}

			// 心跳
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ws *WSHandler) send(conn *websocket.Conn, n *model.Notification) {
	data, err := json.Marshal(wsMessage{
		Type:      "notification",
		Data:      n,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[NotifyWS] Marshal error: %v", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[NotifyWS] Write error: %v", err)
	}
}

func (ws *WSHandler) connChange(delta int) {
	if ws.OnConnChange != nil {
		ws.OnConnChange(delta)
	}
}
