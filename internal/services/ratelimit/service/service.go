// Package service implements the fail-open rate limiter over a domain.Counter
package service

import (
	"context"
	"time"

	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
	ptime "trackergen/internal/platform/time"
	"trackergen/internal/services/ratelimit/domain"
)

const defaultPruneEvery = time.Minute

// Options tune the service
type Options struct {
	Clock      ptime.Clock
	PruneEvery time.Duration
}

// Svc checks limits and owns the prune loop
type Svc struct {
	counter domain.Counter
	now     ptime.Clock
	every   time.Duration
}

var _ domain.LimiterPort = (*Svc)(nil)

// New constructs the service
func New(c domain.Counter, o Options) *Svc {
	if c == nil {
		panic("ratelimit: nil counter")
	}
	if o.PruneEvery <= 0 {
		o.PruneEvery = defaultPruneEvery
	}
	return &Svc{counter: c, now: o.Clock, every: o.PruneEvery}
}

// Backend names the counter in use
func (s *Svc) Backend() string { return s.counter.Backend() }

// Check counts one request for (userID, endpoint) and decides under l
// Counter failures allow the request: availability wins over strict enforcement
func (s *Svc) Check(ctx context.Context, userID, endpoint string, l domain.Limit) domain.Decision {
	now := s.now.Now()
	if !l.Valid() {
		logger.C(ctx).Warn().Str("endpoint", endpoint).Msg("rate limit not configured, allowing")
		return domain.Decision{Allowed: true, ResetAt: now, At: now}
	}

	rec, err := s.counter.Incr(ctx, userID, endpoint, l.Window, now)
	if err != nil {
		logger.C(ctx).Error().Err(err).
			Str("backend", s.counter.Backend()).
			Str("endpoint", endpoint).
			Msg("rate limit check failed, allowing")
		metrics.RateLimitError(s.counter.Backend())
		metrics.RateLimitDecision(endpoint, metrics.RateError)
		return domain.Decision{
			Allowed:   true,
			Limit:     l.MaxRequests,
			Remaining: l.MaxRequests - 1,
			ResetAt:   now.Add(l.Window),
			At:        now,
		}
	}

	d := domain.Decide(rec, l, now)
	outcome := metrics.RateAllowed
	if !d.Allowed {
		outcome = metrics.RateLimited
	}
	metrics.RateLimitDecision(endpoint, outcome)
	return d
}

// Run prunes expired records every PruneEvery until ctx is done
// It never touches request paths, a failing or panicking tick is logged and the loop goes on
func (s *Svc) Run(ctx context.Context) error {
	log := logger.Named("ratelimit-prune")
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	log.Info().Str("backend", s.counter.Backend()).Dur("every", s.every).Msg("prune loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.PruneOnce(ctx)
		}
	}
}

// PruneOnce runs a single prune pass and returns how many records were removed
func (s *Svc) PruneOnce(ctx context.Context) (n int) {
	log := logger.Named("ratelimit-prune")
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("prune tick panicked")
			n = 0
		}
	}()

	tctx, cancel := context.WithTimeout(ctx, max(s.every/2, time.Second))
	defer cancel()

	n, err := s.counter.Prune(tctx, s.now.Now())
	if err != nil {
		log.Warn().Err(err).Str("backend", s.counter.Backend()).Msg("prune failed")
		metrics.RateLimitError(s.counter.Backend())
		return 0
	}
	metrics.RateLimitPruned(n)
	if n > 0 {
		log.Debug().Int("removed", n).Msg("pruned expired rate limit records")
	}
	return n
}
