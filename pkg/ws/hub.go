package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"SentriSafe/pkg/logger"
)

// Event 推送给前端的警报事件
type Event struct {
	Type      string    `json:"type"` // "safety_alert" | "sos_activated" | "sos_deactivated"
	UserID    uint      `json:"userId"`
	RiskLevel string    `json:"riskLevel,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Connection 单个 websocket 连接
type Connection struct {
	ID     string
	UserID uint
	conn   *websocket.Conn
	send   chan []byte
}

// Hub 管理警报推送连接，按用户分发
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	byUser      map[uint]map[string]*Connection
	upgrader    websocket.Upgrader
	closed      bool
}

// NewHub 创建推送中心
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		byUser:      make(map[uint]map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve 升级请求并挂接连接，阻塞直到连接关闭
func (h *Hub) Serve(c *gin.Context, userID uint) error {
	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return err
	}

	conn := &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   wsConn,
		send:   make(chan []byte, 64),
	}
	h.register(conn)
	defer h.unregister(conn)

	go h.writeLoop(conn)

	// 读循环只用于感知连接关闭
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn.ID] = conn
	if h.byUser[conn.UserID] == nil {
		h.byUser[conn.UserID] = make(map[string]*Connection)
	}
	h.byUser[conn.UserID][conn.ID] = conn
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	delete(h.byUser[conn.UserID], conn.ID)
	if len(h.byUser[conn.UserID]) == 0 {
		delete(h.byUser, conn.UserID)
	}
	close(conn.send)
	conn.conn.Close()
}

func (h *Hub) writeLoop(conn *Connection) {
	for msg := range conn.send {
		if err := conn.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Notify 向指定用户的所有连接推送事件，连接写满时丢弃
func (h *Hub) Notify(userID uint, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn("marshal ws event failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.byUser[userID] {
		select {
		case conn.send <- data:
		default:
		}
	}
}

// ConnectionCount 当前连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// UserConnections 指定用户的连接数
func (h *Hub) UserConnections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// Close 关闭所有连接
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, conn := range h.connections {
		delete(h.connections, id)
		delete(h.byUser[conn.UserID], id)
		close(conn.send)
		conn.conn.Close()
	}
}
