package handlers

import (
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"safeguard/internal/models"
	"safeguard/internal/services"
)

// WebSocketHandler streams notifications to connected clients.
type WebSocketHandler struct {
	connManager *services.ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(connManager *services.ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connManager: connManager}
}

// Handle handles a new WebSocket connection on /ws/alerts.
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	connID := uuid.New().String()
	clientIP, _ := c.Locals("client_ip").(string)

	conn := &models.StreamConn{
		ConnID:    connID,
		ClientIP:  clientIP,
		Conn:      c,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.Notification, 64),
		StopChan:  make(chan struct{}, 1),
	}

	h.connManager.Add(conn)
	defer h.connManager.Remove(connID)

	// Writer: pumps queued notifications to the client.
	go func() {
		for {
			select {
			case n, ok := <-conn.WriteChan:
				if !ok {
					return
				}
				if err := c.WriteJSON(n); err != nil {
					log.Printf("⚠️  Alert stream %s write failed: %v", connID, err)
					return
				}
			case <-conn.StopChan:
				return
			}
		}
	}()

	// Reader: the stream is one-way, but reading detects disconnects and
	// answers control frames.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
