// Package store persists detected alerts as a single serialized list under
// one fixed key in a pluggable key-value backend.
package store

import (
	"context"
	"errors"
	"sync"
)

// Storage error taxonomy. All are recovered locally: the store degrades to
// in-memory operation for the session and the process keeps running.
var (
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	ErrStorageFull        = errors.New("storage backend rejected write: full")
	ErrMalformedData      = errors.New("persisted alert data is malformed")
)

// KV is the minimal key-value contract the alert store needs.
type KV interface {
	// Get returns the value for key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// MemoryKV is an in-process KV with an optional byte quota. A quota of zero
// means unlimited. It backs tests and the degraded (storage-less) mode.
type MemoryKV struct {
	mu       sync.RWMutex
	values   map[string]string
	maxBytes int
}

// NewMemoryKV creates an in-memory KV. maxBytes caps the total stored bytes;
// writes beyond the cap fail with ErrStorageFull.
func NewMemoryKV(maxBytes int) *MemoryKV {
	return &MemoryKV{
		values:   make(map[string]string),
		maxBytes: maxBytes,
	}
}

// Get returns the stored value for key.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key, enforcing the byte quota.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxBytes > 0 {
		total := len(key) + len(value)
		for k, v := range m.values {
			if k == key {
				continue
			}
			total += len(k) + len(v)
		}
		if total > m.maxBytes {
			return ErrStorageFull
		}
	}

	m.values[key] = value
	return nil
}
