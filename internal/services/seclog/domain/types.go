// Package domain defines security events and the sink contract
package domain

import (
	"context"
	"time"
)

// Type classifies a security event
type Type string

// Event types
const (
	AuthFailure       Type = "auth_failure"
	RateLimitExceeded Type = "rate_limit_exceeded"
	InjectionDetected Type = "injection_detected"
	UpstreamFailure   Type = "upstream_failure"
	ConfigError       Type = "config_error"
	InternalError     Type = "internal_error"
)

// Severity ranks an event
type Severity string

// Severities
const (
	Low      Severity = "low"
	Medium   Severity = "medium"
	High     Severity = "high"
	Critical Severity = "critical"
)

// Event is one security relevant occurrence
// ID and At are filled on emit when left zero
type Event struct {
	ID        string         `json:"id"`
	At        time.Time      `json:"at"`
	Type      Type           `json:"type"`
	Severity  Severity       `json:"severity"`
	UserID    string         `json:"userId,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Endpoint  string         `json:"endpoint,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Sink delivers events somewhere durable or visible
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
	Close() error
}

// EmitterPort is what request paths depend on; Emit never blocks and never fails
type EmitterPort interface {
	Emit(ctx context.Context, ev Event)
}
