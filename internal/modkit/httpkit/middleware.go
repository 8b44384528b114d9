package httpkit

import (
	"net/http"
	"time"

	phttp "trackergen/internal/platform/net/http"
	"trackergen/internal/platform/net/middleware"
)

// StackOptions tune CommonStack
type StackOptions struct {
	// Origins is the CORS allow-list; wildcard entries are dropped
	Origins []string
	// Timeout bounds each request, 0 means 60s
	Timeout time.Duration
	// Slow marks access log lines at warn level
	Slow time.Duration
}

// CommonStack returns the baseline middleware for the public router
// CORS runs first so preflights never reach auth or rate limiting
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins:   o.Origins,
			AllowCredentials: true,
			MaxAge:           600,
		}),

		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow}),

		middleware.Heartbeat("/health"),
		middleware.Timeout(o.Timeout),
	}
}

// Auth wires the auth middleware to the platform error writer
func Auth(p middleware.AuthPort, onReject middleware.AuthRejectFunc) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.WriteError, onReject)
}
