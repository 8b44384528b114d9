// Package middleware provides thin adapters over chi middleware without leaking chi types
package middleware

import (
	"net/http"
	"strings"
	"time"

	"trackergen/internal/platform/logger"
	pstrings "trackergen/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID and stores it on context
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr to the upstream IP based on X-Forwarded-For headers
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache sets headers to disable client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Heartbeat replies with 200 OK to GET path, useful for LB health checks
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// rateLimitHeaders are readable by browser callers
var rateLimitHeaders = []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-Request-ID"}

// CORS wraps go-chi/cors. Only exact origins are echoed back; wildcard entries are
// dropped so credentials are never paired with "*"
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	origins, dropped := AllowList(o.AllowedOrigins)
	if len(dropped) > 0 {
		logger.Named("cors").Warn().Strs("dropped", dropped).Msg("wildcard origins ignored")
	}
	return chicors.Handler(chicors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			for _, o := range origins {
				if strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
		AllowedMethods: pstrings.IfEmpty(o.AllowedMethods, []string{http.MethodPost, http.MethodOptions}),
		AllowedHeaders: pstrings.IfEmpty(
			o.AllowedHeaders,
			[]string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Request-ID",
				"apikey",
				"x-client-info",
			},
		),
		ExposedHeaders:   pstrings.IfEmpty(o.ExposedHeaders, rateLimitHeaders),
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}

// AllowList trims origins and splits off anything containing a wildcard
// Trailing slashes are removed since browsers never send them in Origin
func AllowList(in []string) (kept, dropped []string) {
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "":
		case strings.Contains(o, "*"):
			dropped = append(dropped, o)
		default:
			kept = append(kept, o)
		}
	}
	return kept, dropped
}

// Defaults is a convenience bundle for common web api needs
func Defaults() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RealIP(),
		RequestID(),
		RecoverJSON,
		Timeout(60 * time.Second),
		NoCache(),
	}
}
