package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	CapturesScored  *prometheus.CounterVec
	ThreatScores    prometheus.Histogram
	AlertsRecorded  *prometheus.CounterVec
	Escalations     prometheus.Counter
	Notifications   *prometheus.CounterVec
	StorageDegraded prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(connManager *ConnectionManager) *Metrics {
	metrics := &Metrics{
		CapturesScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_captures_scored_total",
			Help: "Total number of captured text snippets scored, by source",
		}, []string{"source"}),

		ThreatScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "safeguard_threat_score",
			Help:    "Distribution of threat scores assigned to captured text",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),

		AlertsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_alerts_recorded_total",
			Help: "Total number of alert records created, by source",
		}, []string{"source"}),

		Escalations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeguard_escalations_total",
			Help: "Total number of escalation advisories raised",
		}),

		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_notifications_total",
			Help: "Total number of notifications delivered, by kind",
		}, []string{"kind"}),

		StorageDegraded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeguard_storage_degraded_total",
			Help: "Times the alert store fell back to in-memory-only mode",
		}),
	}

	// Gauge backed by the connection manager so the value is always current
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "safeguard_alert_stream_connections",
			Help: "Current number of active alert stream WebSocket connections",
		},
		func() float64 {
			if connManager != nil {
				return float64(connManager.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordCaptureScored records a scored capture and its score
func (m *Metrics) RecordCaptureScored(source string, score float64) {
	m.CapturesScored.WithLabelValues(source).Inc()
	m.ThreatScores.Observe(score)
}

// RecordAlert records a created alert record
func (m *Metrics) RecordAlert(source string) {
	m.AlertsRecorded.WithLabelValues(source).Inc()
}

// RecordEscalation records an escalation advisory
func (m *Metrics) RecordEscalation() {
	m.Escalations.Inc()
}

// RecordNotification records a delivered notification
func (m *Metrics) RecordNotification(kind string) {
	m.Notifications.WithLabelValues(kind).Inc()
}

// RecordStorageDegraded records a fallback to in-memory storage
func (m *Metrics) RecordStorageDegraded() {
	m.StorageDegraded.Inc()
}
