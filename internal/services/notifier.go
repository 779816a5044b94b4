package services

import (
	"context"
	"log/slog"
	"time"

	"safeguard/internal/models"
)

// Notifier presents alerts to the user. The monitoring core treats it as an
// external collaborator: it never retries deliveries and never lets a
// delivery failure interrupt monitoring.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// MultiNotifier fans a notification out to every configured channel.
type MultiNotifier struct {
	channels []Notifier
	metrics  *Metrics
}

// NewMultiNotifier creates a fanout notifier. Nil channels are skipped.
func NewMultiNotifier(metrics *Metrics, channels ...Notifier) *MultiNotifier {
	out := make([]Notifier, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			out = append(out, ch)
		}
	}
	return &MultiNotifier{channels: out, metrics: metrics}
}

// Notify delivers the notification to all channels in order.
func (m *MultiNotifier) Notify(ctx context.Context, n models.Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Priority == "" {
		n.Priority = models.PriorityNormal
	}

	if m.metrics != nil {
		m.metrics.RecordNotification(string(n.Kind))
	}

	for _, ch := range m.channels {
		ch.Notify(ctx, n)
	}
}

// LogNotifier writes notifications to the structured log. Always active so
// every alert leaves a trace even with no subscribers connected.
type LogNotifier struct{}

// NewLogNotifier creates a log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the notification.
func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	attrs := []any{
		"kind", string(n.Kind),
		"priority", string(n.Priority),
	}
	switch {
	case n.Record != nil:
		attrs = append(attrs,
			"source", string(n.Record.Source),
			"threat_level", n.Record.ThreatLevel,
		)
	case n.Summary != nil:
		attrs = append(attrs,
			"alert_count", n.Summary.AlertCount,
			"window_seconds", n.Summary.WindowSeconds,
		)
	case n.Warning != "":
		attrs = append(attrs, "warning", n.Warning)
	}

	if n.Priority == models.PriorityHigh || n.Kind == models.KindEscalation {
		slog.Warn("safety notification", attrs...)
	} else {
		slog.Info("safety notification", attrs...)
	}
}

// WebSocketNotifier broadcasts notifications to every connected alert
// stream subscriber.
type WebSocketNotifier struct {
	hub *ConnectionManager
}

// NewWebSocketNotifier creates a WebSocket notifier over the given hub.
func NewWebSocketNotifier(hub *ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{hub: hub}
}

// Notify broadcasts the notification to all subscribers.
func (w *WebSocketNotifier) Notify(_ context.Context, n models.Notification) {
	w.hub.Broadcast(n)
}
