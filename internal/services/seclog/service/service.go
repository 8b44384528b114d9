// Package service delivers security events to sinks off the request path
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
	pnet "trackergen/internal/platform/net"
	ptime "trackergen/internal/platform/time"
	"trackergen/internal/services/seclog/domain"
)

const (
	defaultQueue       = 256
	defaultSinkTimeout = 5 * time.Second
)

// Options tune the logger
type Options struct {
	Queue       int
	SinkTimeout time.Duration
	Clock       ptime.Clock
}

// Svc is a bounded queue with one delivery worker
// Emit drops when the queue is full so a slow sink never stalls a request
type Svc struct {
	q       chan domain.Event
	sinks   []domain.Sink
	now     ptime.Clock
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	done   chan struct{}
}

var _ domain.EmitterPort = (*Svc)(nil)

// New starts the delivery worker
func New(o Options, sinks ...domain.Sink) *Svc {
	if o.Queue <= 0 {
		o.Queue = defaultQueue
	}
	if o.SinkTimeout <= 0 {
		o.SinkTimeout = defaultSinkTimeout
	}
	s := &Svc{
		q:       make(chan domain.Event, o.Queue),
		sinks:   sinks,
		now:     o.Clock,
		timeout: o.SinkTimeout,
		done:    make(chan struct{}),
	}
	go s.work()
	return s
}

// Emit stamps and enqueues ev
func (s *Svc) Emit(ctx context.Context, ev domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = s.now.Now()
	}
	ev.At = ev.At.UTC()
	if ev.UserID == "" {
		ev.UserID = pnet.UserID(ctx)
	}
	if ev.Severity == "" {
		ev.Severity = domain.Low
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.SecurityEventDropped()
		return
	}
	select {
	case s.q <- ev:
		metrics.SecurityEvent(string(ev.Type), string(ev.Severity))
	default:
		metrics.SecurityEventDropped()
		logger.C(ctx).Warn().Str("type", string(ev.Type)).Msg("security event queue full, dropped")
	}
}

func (s *Svc) work() {
	defer close(s.done)
	for ev := range s.q {
		s.deliver(ev)
	}
}

func (s *Svc) deliver(ev domain.Event) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.safeDeliver(ctx, sink, ev)
		cancel()
		if err != nil {
			metrics.SecuritySinkError(sink.Name())
			logger.Named("seclog").Error().Err(err).
				Str("sink", sink.Name()).
				Str("event_id", ev.ID).
				Msg("security event delivery failed")
		}
	}
}

func (s *Svc) safeDeliver(ctx context.Context, sink domain.Sink, ev domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Named("seclog").Error().Interface("panic", r).Str("sink", sink.Name()).Msg("sink panicked")
			metrics.SecuritySinkError(sink.Name())
		}
	}()
	return sink.Deliver(ctx, ev)
}

// Close stops accepting events and waits for the queue to drain or ctx to end
// Sinks are closed once draining finishes
func (s *Svc) Close(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.q)
		s.mu.Unlock()
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			logger.Named("seclog").Warn().Err(err).Str("sink", sink.Name()).Msg("sink close failed")
		}
	}
	return nil
}
