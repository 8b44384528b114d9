package middleware

import (
	"context"
	"net/http"
	"strings"

	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/logger"
	pnet "trackergen/internal/platform/net"
)

// AuthPort verifies a bearer token and returns the user it belongs to
type AuthPort interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// AuthRejectFunc observes rejected requests, e.g. to record a security event
type AuthRejectFunc func(r *http.Request, err error)

// ErrMissingToken is passed to AuthRejectFunc when no bearer token was sent
var ErrMissingToken = perr.Unauthorizedf("missing authorization header")

// ErrorWriter writes err as the response
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerToken extracts the token from an Authorization: Bearer header
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

// Auth rejects requests without a verifiable bearer token with 401
// On success the user id and token are placed on the context and the request logger
func Auth(p AuthPort, write ErrorWriter, onReject AuthRejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			reject := func(err error) {
				if onReject != nil {
					onReject(r, err)
				}
				write(w, r, err)
			}

			tok, ok := BearerToken(r)
			if !ok {
				reject(ErrMissingToken)
				return
			}
			uid, err := p.Verify(r.Context(), tok)
			if err != nil {
				if !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
					logger.C(r.Context()).Warn().Err(err).Msg("token verification failed")
					err = perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid or expired token")
				}
				reject(err)
				return
			}
			if uid == "" {
				reject(perr.Unauthorizedf("invalid or expired token"))
				return
			}

			ctx := pnet.WithUser(r.Context(), uid)
			ctx = pnet.WithToken(ctx, tok)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
