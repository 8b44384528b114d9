// Package domain defines the ambiguity check contract
package domain

import (
	"context"

	"trackergen/internal/adapters/llm"
	"trackergen/internal/core/ambiguity"
	gdom "trackergen/internal/services/gather/domain"
)

// Fail open reasons; they describe the cause for operators, not users
const (
	ReasonClassifierUnavailable = "classifier_unavailable"
	ReasonClassifierUnparseable = "classifier_unparseable"
)

// Resolution sources, used as metric labels
const (
	SourceLocal    = "local"
	SourceLLM      = "llm"
	SourceFallback = "fallback"
	SourceFailOpen = "fail_open"
)

// CheckInput is one ambiguity question; text is expected to be sanitized already
type CheckInput struct {
	Name    string
	Context gdom.Context
}

// CheckerPort answers whether a tracker name needs disambiguation
// Upstream failures never surface as errors; only cancellation does
type CheckerPort interface {
	Check(ctx context.Context, in CheckInput) (ambiguity.Result, error)
}

// LLMPort is the completion call the classifier depends on
type LLMPort interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}
