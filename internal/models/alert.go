package models

import (
	"time"
)

// AlertSource identifies the channel a scored text snippet arrived from.
type AlertSource string

const (
	SourceClipboard    AlertSource = "clipboard"
	SourceNotification AlertSource = "notification"
	SourceSimulated    AlertSource = "simulated"
)

// Valid reports whether the source is one of the known capture channels.
func (s AlertSource) Valid() bool {
	switch s {
	case SourceClipboard, SourceNotification, SourceSimulated:
		return true
	}
	return false
}

// AlertRecord is a single detection. Records are append-only: they are created
// by a successful detection, never mutated, and only removed by a full clear.
type AlertRecord struct {
	Content     string      `json:"content"`
	Source      AlertSource `json:"source"`
	ThreatLevel float64     `json:"threatLevel"`
	Timestamp   time.Time   `json:"timestamp"`
}

// MonitoringStatus is the session state.
type MonitoringStatus string

const (
	StatusStopped MonitoringStatus = "stopped"
	StatusRunning MonitoringStatus = "running"
)

// MonitoringState is the externally visible session snapshot.
type MonitoringState struct {
	Status           MonitoringStatus `json:"status"`
	SessionStartedAt *time.Time       `json:"sessionStartedAt,omitempty"`
	RecentAlertCount int              `json:"recentAlertCount"`
	Escalated        bool             `json:"escalated"`
}

// CaptureRequest is the body of POST /api/capture.
type CaptureRequest struct {
	Text   string      `json:"text"`
	Source AlertSource `json:"source,omitempty"` // defaults to "clipboard"
}

// CaptureResponse reports the scoring outcome for a capture.
type CaptureResponse struct {
	Score    float64 `json:"score"`
	Recorded bool    `json:"recorded"`
}

// AlertListResponse wraps alert query results.
type AlertListResponse struct {
	Alerts []AlertRecord `json:"alerts"`
	Count  int           `json:"count"`
}
