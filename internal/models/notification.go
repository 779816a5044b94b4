package models

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// NotificationKind distinguishes the signals the notifier can carry.
type NotificationKind string

const (
	KindSingleAlert    NotificationKind = "single_alert"
	KindEscalation     NotificationKind = "escalation"
	KindStorageWarning NotificationKind = "storage_warning"
)

// NotificationPriority marks auto-escalated alerts for immediate attention.
type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// EscalationSummary is the advisory payload raised when too many alerts
// accumulate inside the recent window. It recommends manual emergency
// contact; it never places a call itself.
type EscalationSummary struct {
	AlertCount    int           `json:"alertCount"`
	Window        time.Duration `json:"-"`
	WindowSeconds int           `json:"windowSeconds"`
	Message       string        `json:"message"`
}

// Notification is the unit delivered to every notifier channel.
type Notification struct {
	Kind      NotificationKind     `json:"kind"`
	Priority  NotificationPriority `json:"priority"`
	Record    *AlertRecord         `json:"record,omitempty"`
	Summary   *EscalationSummary   `json:"summary,omitempty"`
	Warning   string               `json:"warning,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// StreamConn represents a single WebSocket subscriber to the alert stream.
type StreamConn struct {
	ConnID    string
	ClientIP  string
	Conn      *websocket.Conn
	CreatedAt time.Time

	WriteChan chan Notification
	StopChan  chan struct{}

	closeOnce sync.Once
}

// CloseChannels closes the connection's channels exactly once.
func (c *StreamConn) CloseChannels() {
	c.closeOnce.Do(func() {
		close(c.WriteChan)
		close(c.StopChan)
	})
}
