// Package time holds the injectable clock used by rate limiting and event stamping
package time

import (
	"sync"
	"time"
)

// Clock returns the current instant
// A nil Clock reads the wall clock
type Clock func() time.Time

// System reads the wall clock in UTC
func System() Clock { return func() time.Time { return time.Now().UTC() } }

// Now calls c, falling back to the wall clock, always UTC
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Manual is a clock moved by hand in tests
type Manual struct {
	mu sync.Mutex
	t  time.Time
}

// NewManual starts a manual clock at t
func NewManual(t time.Time) *Manual { return &Manual{t: t.UTC()} }

// Now returns the current manual instant
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.t = m.t.Add(d)
	m.mu.Unlock()
}

// Set jumps the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.t = t.UTC()
	m.mu.Unlock()
}

// Clock adapts m for consumers that take a Clock
func (m *Manual) Clock() Clock { return m.Now }
