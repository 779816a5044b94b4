package services

import (
	"log"
	"sync"

	"safeguard/internal/models"
)

// ConnectionManager manages all active alert stream WebSocket connections.
type ConnectionManager struct {
	connections map[string]*models.StreamConn
	mutex       sync.RWMutex
}

// NewConnectionManager creates a new connection manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*models.StreamConn),
	}
}

// Add adds a new connection.
func (cm *ConnectionManager) Add(conn *models.StreamConn) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.connections[conn.ConnID] = conn
	log.Printf("✅ Alert stream connected: %s (Total: %d)", conn.ConnID, len(cm.connections))
}

// Remove removes a connection and closes its channels.
func (cm *ConnectionManager) Remove(connID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if conn, exists := cm.connections[connID]; exists {
		conn.CloseChannels()
		delete(cm.connections, connID)
		log.Printf("❌ Alert stream disconnected: %s (Total: %d)", connID, len(cm.connections))
	}
}

// Count returns the number of active connections.
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections)
}

// Broadcast queues a notification for every connected subscriber. A
// subscriber with a full write buffer is skipped rather than blocking the
// monitoring path.
func (cm *ConnectionManager) Broadcast(n models.Notification) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, conn := range cm.connections {
		select {
		case conn.WriteChan <- n:
		default:
			log.Printf("⚠️  Alert stream %s write buffer full, notification dropped", conn.ConnID)
		}
	}
}
