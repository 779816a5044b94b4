package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"safeguard/internal/models"
)

const (
	// DetectionThreshold is the score a capture must exceed (strictly) for an
	// AlertRecord to be created.
	DetectionThreshold = 0.7

	// AutoEscalateThreshold is the stricter score above which a freshly
	// appended record is signalled at high priority, independent of the
	// tick path.
	AutoEscalateThreshold = 0.8

	// EscalationAlertCount is the number of recent alerts that must be
	// exceeded before the escalation advisory is raised.
	EscalationAlertCount = 3

	// DefaultTickInterval is the monitoring loop period.
	DefaultTickInterval = 30 * time.Second

	// RecentWindow is how far back the escalation check looks.
	RecentWindow = time.Hour

	// maxSnippetLen bounds the text stored in an alert record.
	maxSnippetLen = 200
)

// ErrNotMonitoring is returned for captures that arrive while the session
// is stopped.
var ErrNotMonitoring = errors.New("monitoring session is not running")

// Scorer assigns a threat score in [0,1] to a text snippet.
type Scorer interface {
	Score(text string) float64
}

// AlertLog is the slice of the alert store the session depends on.
type AlertLog interface {
	Append(ctx context.Context, record models.AlertRecord) error
	Recent(within time.Duration) []models.AlertRecord
}

// MonitorService is the monitoring session state machine. It owns the
// periodic tick, feeds captured text through the scorer, appends detections
// to the alert log and signals the notifier. All event processing is
// serialized through one mutex so append ordering matches arrival order.
type MonitorService struct {
	scorer   Scorer
	store    AlertLog
	notifier Notifier
	metrics  *Metrics

	interval time.Duration
	window   time.Duration
	now      func() time.Time

	mu        sync.Mutex
	status    models.MonitoringStatus
	startedAt time.Time
	ticker    *time.Ticker
	done      chan struct{}
	escalated bool
}

// NewMonitorService creates a stopped monitoring session. An interval of
// zero selects the default 30-second tick. metrics may be nil.
func NewMonitorService(scorer Scorer, store AlertLog, notifier Notifier, metrics *Metrics, interval time.Duration) *MonitorService {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &MonitorService{
		scorer:   scorer,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		interval: interval,
		window:   RecentWindow,
		now:      time.Now,
		status:   models.StatusStopped,
	}
}

// Start transitions Stopped → Running, records the session start and begins
// the periodic tick. Calling Start while already Running is a no-op.
func (s *MonitorService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.StatusRunning {
		return
	}

	s.status = models.StatusRunning
	s.startedAt = s.now()
	s.escalated = false
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})

	go s.run(s.ticker, s.done)

	log.Printf("🟢 [MONITOR] Session started (tick every %v)", s.interval)
}

// Stop transitions Running → Stopped and cancels the tick. Idempotent.
func (s *MonitorService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.StatusStopped {
		return
	}

	s.status = models.StatusStopped
	s.startedAt = time.Time{}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
	s.done = nil

	log.Println("🔴 [MONITOR] Session stopped")
}

// run drains the ticker until the session stops.
func (s *MonitorService) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.OnTick()
		}
	}
}

// OnCapturedText scores text from a capture source. While Running, a score
// strictly above the detection threshold creates an AlertRecord, appends it
// and notifies; a score above the auto-escalate threshold is signalled at
// high priority. Captures that arrive while Stopped are not processed.
func (s *MonitorService) OnCapturedText(ctx context.Context, text string, source models.AlertSource) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusRunning {
		return 0, false, ErrNotMonitoring
	}

	score := s.scorer.Score(text)
	if s.metrics != nil {
		s.metrics.RecordCaptureScored(string(source), score)
	}

	if score <= DetectionThreshold {
		return score, false, nil
	}

	record := models.AlertRecord{
		Content:     snippet(text),
		Source:      source,
		ThreatLevel: score,
		Timestamp:   s.now(),
	}

	if err := s.store.Append(ctx, record); err != nil {
		// Degraded storage is already surfaced by the store; detection
		// and notification continue regardless.
		log.Printf("⚠️  [MONITOR] Alert persisted in memory only: %v", err)
	}
	if s.metrics != nil {
		s.metrics.RecordAlert(string(source))
	}

	priority := models.PriorityNormal
	if record.ThreatLevel > AutoEscalateThreshold {
		priority = models.PriorityHigh
	}
	s.notifier.Notify(ctx, models.Notification{
		Kind:      models.KindSingleAlert,
		Priority:  priority,
		Record:    &record,
		Timestamp: record.Timestamp,
	})

	s.evaluateEscalationLocked(ctx)

	return score, true, nil
}

// OnTick runs the periodic escalation check. A tick that fires after Stop
// is discarded here: state is checked at processing time, not schedule time.
func (s *MonitorService) OnTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != models.StatusRunning {
		return
	}

	s.evaluateEscalationLocked(context.Background())
}

// evaluateEscalationLocked raises one escalation advisory when the recent
// alert count exceeds the limit, then stays latched until the count falls
// back within it. Advisory only: it never places a call. Caller holds s.mu.
func (s *MonitorService) evaluateEscalationLocked(ctx context.Context) {
	count := len(s.store.Recent(s.window))

	if count <= EscalationAlertCount {
		s.escalated = false
		return
	}

	if s.escalated {
		return
	}
	s.escalated = true

	if s.metrics != nil {
		s.metrics.RecordEscalation()
	}

	windowSeconds := int(s.window / time.Second)
	s.notifier.Notify(ctx, models.Notification{
		Kind:     models.KindEscalation,
		Priority: models.PriorityHigh,
		Summary: &models.EscalationSummary{
			AlertCount:    count,
			Window:        s.window,
			WindowSeconds: windowSeconds,
			Message: fmt.Sprintf("%d threats detected in the last %d minutes — consider contacting emergency services",
				count, windowSeconds/60),
		},
		Timestamp: s.now(),
	})

	log.Printf("🚨 [MONITOR] Escalation advisory raised: %d alerts in the last %v", count, s.window)
}

// State returns a snapshot of the session for the status endpoint.
func (s *MonitorService) State() models.MonitoringState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := models.MonitoringState{
		Status:           s.status,
		RecentAlertCount: len(s.store.Recent(s.window)),
		Escalated:        s.escalated,
	}
	if !s.startedAt.IsZero() {
		started := s.startedAt
		state.SessionStartedAt = &started
	}
	return state
}

// Running reports whether the session is in the Running state.
func (s *MonitorService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == models.StatusRunning
}

// snippet bounds stored content so a giant paste doesn't bloat the log.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSnippetLen {
		return text
	}
	return string(runes[:maxSnippetLen])
}
