package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ProgressEvent is one tick of a run's progress, pushed to every
// connected WebSocket client by ProgressHub.Broadcast.
// internal/pipeline.Run does not publish these events, and no engine
// code calls Broadcast.
type ProgressEvent struct {
	RunID     string `json:"run_id"`
	Analysed  int    `json:"analysed"`
	Total     int    `json:"total"`
	Ticker    string `json:"ticker,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Completed bool   `json:"completed"`
}

// ProgressHub fans out ProgressEvents to every connected client.
// A single client set guarded by a mutex, with no background loop
// goroutine, since this surface has no per-user routing.
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[*progressClient]bool
}

type progressClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: make(map[*progressClient]bool)}
}

// Broadcast marshals event and pushes it to every connected client,
// dropping slow clients rather than blocking the run.
func (h *ProgressHub) Broadcast(event ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *ProgressHub) register(c *progressClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *ProgressHub) unregister(c *progressClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (s *Server) handleProgressWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("progress websocket upgrade failed")
		return
	}

	client := &progressClient{conn: conn, send: make(chan []byte, 64)}
	s.hub.register(client)
	defer s.hub.unregister(client)

	go client.writeLoop()
	client.readLoop()
}

func (c *progressClient) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.Close()
}

// readLoop discards inbound messages; this is a push-only feed, but
// the read keeps the connection's control frames (ping/close) flowing
// per gorilla/websocket's documented contract.
func (c *progressClient) readLoop() {
	defer c.conn.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
