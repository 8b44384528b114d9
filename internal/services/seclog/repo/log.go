// Package repo holds the security event sinks
package repo

import (
	"context"

	"github.com/rs/zerolog"

	"trackergen/internal/platform/logger"
	"trackergen/internal/services/seclog/domain"
)

// Log writes each event as one structured log line
type Log struct{ l *logger.Logger }

// NewLog returns a sink writing through l, or the named seclog logger when l is nil
func NewLog(l *logger.Logger) *Log {
	if l == nil {
		l = logger.Named("seclog")
	}
	return &Log{l: l}
}

// Name implements domain.Sink
func (*Log) Name() string { return "log" }

// Deliver implements domain.Sink
func (s *Log) Deliver(_ context.Context, ev domain.Event) error {
	s.l.WithLevel(level(ev.Severity)).
		Str("event_id", ev.ID).
		Time("at", ev.At).
		Str("type", string(ev.Type)).
		Str("severity", string(ev.Severity)).
		Str("user_id", ev.UserID).
		Str("ip", ev.IPAddress).
		Str("user_agent", ev.UserAgent).
		Str("endpoint", ev.Endpoint).
		Fields(map[string]any{"details": ev.Details}).
		Msg("security event")
	return nil
}

// Close implements domain.Sink
func (*Log) Close() error { return nil }

func level(s domain.Severity) zerolog.Level {
	switch s {
	case domain.Critical, domain.High:
		return zerolog.ErrorLevel
	case domain.Medium:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
