// Package domain holds rate limiting types independent of storage or transport
package domain

import "time"

// Limit is a fixed window budget for one (user, endpoint) pair
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Valid reports whether the limit can be enforced
func (l Limit) Valid() bool { return l.MaxRequests > 0 && l.Window > 0 }

// Record is the counter state for one (user, endpoint) window
type Record struct {
	Count       int
	WindowStart time.Time
	ResetAt     time.Time
}

// Expired reports whether the window has elapsed at now
func (r Record) Expired(now time.Time) bool { return !now.Before(r.ResetAt) }

// Next returns the record after one more request at now
// An elapsed or empty record starts a fresh window
func (r Record) Next(now time.Time, window time.Duration) Record {
	if r.Count == 0 || r.Expired(now) {
		return Record{Count: 1, WindowStart: now, ResetAt: now.Add(window)}
	}
	r.Count++
	return r
}

// Decision is the answer to one check
// At is the limiter clock reading the decision was made with
type Decision struct {
	Allowed      bool
	Limit        int
	Remaining    int
	ResetAt      time.Time
	CurrentCount int
	At           time.Time
}

// RetryAfter is the whole seconds from the decision until the window resets, rounded up
func (d Decision) RetryAfter() int {
	at := d.At
	if at.IsZero() {
		at = time.Now()
	}
	wait := d.ResetAt.Sub(at)
	if wait <= 0 {
		return 0
	}
	return int((wait + time.Second - 1) / time.Second)
}

// Decide turns a counter record into a decision under l at now
func Decide(rec Record, l Limit, now time.Time) Decision {
	return Decision{
		At:           now,
		Allowed:      rec.Count <= l.MaxRequests,
		Limit:        l.MaxRequests,
		Remaining:    max(l.MaxRequests-rec.Count, 0),
		ResetAt:      rec.ResetAt,
		CurrentCount: rec.Count,
	}
}
