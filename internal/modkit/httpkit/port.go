package httpkit

import (
	"context"

	perrs "trackergen/internal/platform/errors"
)

// AuthFunc adapts a plain function to middleware.AuthPort
type AuthFunc func(ctx context.Context, token string) (string, error)

// Verify implements middleware.AuthPort
func (f AuthFunc) Verify(ctx context.Context, token string) (string, error) {
	if f == nil {
		return "", perrs.Unauthorizedf("invalid or expired token")
	}
	return f(ctx, token)
}

// StaticTokens accepts a fixed token to user map, for local runs and tests
func StaticTokens(tokens map[string]string) AuthFunc {
	return func(_ context.Context, token string) (string, error) {
		if uid, ok := tokens[token]; ok && uid != "" {
			return uid, nil
		}
		return "", perrs.Unauthorizedf("invalid or expired token")
	}
}
