package http

import (
	stdhttp "net/http"
	"strings"

	perr "trackergen/internal/platform/errors"
	phttp "trackergen/internal/platform/net/http"
	sdom "trackergen/internal/services/seclog/domain"
)

var errUnknownOutcome = perr.Internalf("generator returned an unknown outcome")

// ConfigGate answers 500 to every request while required settings are missing
// The process stays up so health checks keep working
func ConfigGate(missing []string, events sdom.EmitterPort) func(stdhttp.Handler) stdhttp.Handler {
	if events == nil {
		events = sdom.Discard{}
	}
	names := strings.Join(missing, ",")
	return func(next stdhttp.Handler) stdhttp.Handler {
		if len(missing) == 0 {
			return next
		}
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			events.Emit(r.Context(), sdom.FromRequest(r, sdom.ConfigError, sdom.Critical, map[string]any{
				"missing": names,
			}))
			phttp.WriteError(w, r, perr.Configurationf("missing configuration: %s", names))
		})
	}
}
