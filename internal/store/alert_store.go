package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"safeguard/internal/models"
)

// PersistKey is the single fixed key the alert list is serialized under.
const PersistKey = "detectedThreats"

// WarnFunc surfaces storage degradation to the notifier collaborator.
type WarnFunc func(message string, err error)

// AlertStore is the append-only alert log. Records are kept in memory in
// arrival order and mirrored to the KV backend as one JSON array. On any
// backend failure the store degrades to in-memory-only for the rest of the
// session; it never takes the process down.
type AlertStore struct {
	kv   KV
	key  string
	warn WarnFunc
	now  func() time.Time

	mu       sync.Mutex
	records  []models.AlertRecord
	degraded bool
}

// NewAlertStore loads any persisted alerts from the backend. A missing key
// is an empty store; malformed persisted data is logged and treated as an
// empty store rather than crashing.
func NewAlertStore(ctx context.Context, kv KV, warn WarnFunc) *AlertStore {
	s := &AlertStore{
		kv:   kv,
		key:  PersistKey,
		warn: warn,
		now:  time.Now,
	}
	if s.warn == nil {
		s.warn = func(string, error) {}
	}

	raw, ok, err := kv.Get(ctx, s.key)
	if err != nil {
		s.degraded = true
		log.Printf("⚠️  [ALERT-STORE] Backend unavailable on load, running in-memory: %v", err)
		s.warn("alert storage unavailable, alerts will not survive a restart", err)
		return s
	}
	if !ok {
		return s
	}

	var records []models.AlertRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("⚠️  [ALERT-STORE] Discarding corrupt persisted alerts: %v", fmt.Errorf("%w: %v", ErrMalformedData, err))
		return s
	}

	s.records = records
	log.Printf("✅ [ALERT-STORE] Loaded %d persisted alerts", len(records))
	return s
}

// Append adds the record to the end of the log. The in-memory copy always
// succeeds; a backend write failure flips the store into degraded mode,
// warns the notifier once, and is reported to the caller.
func (s *AlertStore) Append(ctx context.Context, record models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}
	if record.ThreatLevel < 0 {
		record.ThreatLevel = 0
	}
	if record.ThreatLevel > 1 {
		record.ThreatLevel = 1
	}

	s.records = append(s.records, record)

	return s.persistLocked(ctx)
}

// persistLocked mirrors the full list to the backend. Caller holds s.mu.
func (s *AlertStore) persistLocked(ctx context.Context) error {
	if s.degraded {
		return nil
	}

	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to serialize alerts: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.degraded = true
		if errors.Is(err, ErrStorageFull) {
			log.Printf("⚠️  [ALERT-STORE] Backend full, switching to in-memory mode: %v", err)
			s.warn("alert storage full, new alerts are kept in memory only", err)
		} else {
			log.Printf("⚠️  [ALERT-STORE] Backend write failed, switching to in-memory mode: %v", err)
			s.warn("alert storage unavailable, new alerts are kept in memory only", err)
		}
		return err
	}

	return nil
}

// Recent returns the records whose timestamp falls strictly within the given
// window of the current instant, preserving insertion order.
func (s *AlertStore) Recent(within time.Duration) []models.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-within)
	out := make([]models.AlertRecord, 0)
	for _, rec := range s.records {
		if rec.Timestamp.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record in insertion order.
func (s *AlertStore) All() []models.AlertRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AlertRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Clear empties the store. Administrative operation; the monitoring loop
// never calls it.
func (s *AlertStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	if s.degraded {
		return nil
	}

	if err := s.kv.Set(ctx, s.key, "[]"); err != nil {
		s.degraded = true
		log.Printf("⚠️  [ALERT-STORE] Backend write failed during clear: %v", err)
		s.warn("alert storage unavailable, alerts are kept in memory only", err)
		return err
	}
	return nil
}

// Degraded reports whether the store has fallen back to in-memory-only mode.
func (s *AlertStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}
