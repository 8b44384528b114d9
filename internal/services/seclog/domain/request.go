package domain

import (
	"net/http"

	pnet "trackergen/internal/platform/net"
)

// FromRequest builds an event carrying the caller's identity, address and endpoint
func FromRequest(r *http.Request, typ Type, sev Severity, details map[string]any) Event {
	return Event{
		Type:      typ,
		Severity:  sev,
		UserID:    pnet.UserID(r.Context()),
		IPAddress: pnet.ClientIP(r),
		UserAgent: r.UserAgent(),
		Endpoint:  r.URL.Path,
		Details:   details,
	}
}
