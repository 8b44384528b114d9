// Package repo provides the rate limit counter backends
package repo

import (
	"context"
	"sync"
	"time"

	"trackergen/internal/services/ratelimit/domain"
)

type key struct{ user, endpoint string }

// Memory is an in-process counter
// State is per process and lost on restart, so limits only hold for a single instance
type Memory struct {
	mu   sync.Mutex
	recs map[key]domain.Record
}

// NewMemory returns an empty in-process counter
func NewMemory() *Memory { return &Memory{recs: make(map[key]domain.Record)} }

// Backend implements domain.Counter
func (*Memory) Backend() string { return "memory" }

// Incr implements domain.Counter
func (m *Memory) Incr(_ context.Context, userID, endpoint string, window time.Duration, now time.Time) (domain.Record, error) {
	k := key{userID, endpoint}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.recs[k].Next(now, window)
	m.recs[k] = rec
	return rec, nil
}

// Prune implements domain.Counter
func (m *Memory) Prune(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, r := range m.recs {
		if r.Expired(now) {
			delete(m.recs, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of live records
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}
