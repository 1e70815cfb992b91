package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/findash/backend/pkg/logger"
)

// Message types pushed to dashboard clients
const (
	TypeHello             = "hello"
	TypeMarketMovers      = "market_movers"
	TypeSectorPerformance = "sector_performance"
	TypeStockScore        = "stock_score"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is the envelope for every pushed update
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Hub fans refreshed market data out to connected websocket clients
// ⭐ SSOT: 실시간 push 는 Hub 에서만
type Hub struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*client
	mu       sync.RWMutex
	logger   *logger.Logger
	now      func() time.Time
}

// NewHub creates a hub accepting connections from the given origins.
// An empty list accepts any origin.
func NewHub(allowedOrigins []string, log *logger.Logger) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  log.WithComponent("realtime"),
		now:     time.Now,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}

	return h
}

// ServeWS upgrades the request and keeps the client registered until its
// connection closes
// GET /api/stream
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade WebSocket connection")
		return
	}

	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[conn] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", total).Debug("WebSocket client connected")

	defer h.remove(conn)

	if err := h.send(c, TypeHello, map[string]string{"status": "connected"}); err != nil {
		h.logger.WithError(err).Warn("Failed to greet WebSocket client")
		return
	}

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(c, done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Warn("WebSocket read failed")
			}
			return
		}
	}
}

func (h *Hub) keepAlive(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends a message to every connected client. Clients that fail
// to receive it are dropped. Returns the number of clients reached.
func (h *Hub) Broadcast(msgType string, payload interface{}) (int, error) {
	data, err := h.encode(msgType, payload)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.write(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).WithField("type", msgType).Warn("Failed to send to WebSocket client")
			h.remove(c.conn)
			continue
		}
		sent++
	}

	return sent, nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		c.conn.Close()
	}
}

func (h *Hub) send(c *client, msgType string, payload interface{}) error {
	data, err := h.encode(msgType, payload)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

func (h *Hub) encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msgType, err)
	}
	return data, nil
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.WithField("clients", remaining).Debug("WebSocket client disconnected")
	}
}
