package domain

import (
	"context"
	"time"
)

// Counter is the storage contract both backends implement
// Incr must be atomic per (userID, endpoint)
type Counter interface {
	Incr(ctx context.Context, userID, endpoint string, window time.Duration, now time.Time) (Record, error)
	Prune(ctx context.Context, now time.Time) (int, error)
	Backend() string
}

// LimiterPort is what transports call; it never fails, errors are absorbed as allowed
type LimiterPort interface {
	Check(ctx context.Context, userID, endpoint string, l Limit) Decision
}
