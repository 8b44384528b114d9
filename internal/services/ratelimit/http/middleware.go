// Package http provides the rate limit middleware for tracker endpoints
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	perr "trackergen/internal/platform/errors"
	pnet "trackergen/internal/platform/net"
	phttp "trackergen/internal/platform/net/http"
	"trackergen/internal/services/ratelimit/domain"
)

// Header names set on every limited endpoint response
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// LimitedBody is the 429 payload
type LimitedBody struct {
	Error   string `json:"error" example:"rate limit exceeded"`
	ResetAt string `json:"resetAt" example:"2025-03-01T12:01:00Z"`
}

// LimitedFunc observes a rejected request, e.g. to record a security event
type LimitedFunc func(r *stdhttp.Request, endpoint string, d domain.Decision)

// Middleware counts each request against (user, endpoint) and answers 429 once the window is spent
// Requests without an authenticated user are keyed by client ip
func Middleware(l domain.LimiterPort, endpoint string, lim domain.Limit, onLimited LimitedFunc) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			subject := pnet.UserID(r.Context())
			if subject == "" {
				subject = "ip:" + pnet.ClientIP(r)
			}

			d := l.Check(r.Context(), subject, endpoint, lim)
			setHeaders(w.Header(), d)

			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if onLimited != nil {
				onLimited(r, endpoint, d)
			}
			if secs := d.RetryAfter(); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			phttp.JSON(w, perr.HTTPStatusCode(perr.ErrorCodeTooManyRequests), LimitedBody{
				Error:   "rate limit exceeded",
				ResetAt: d.ResetAt.UTC().Format(time.RFC3339),
			})
		})
	}
}

func setHeaders(h stdhttp.Header, d domain.Decision) {
	if d.Limit <= 0 {
		return
	}
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
}
