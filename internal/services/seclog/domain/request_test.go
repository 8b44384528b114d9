package domain

import (
	"net/http/httptest"
	"testing"

	pnet "trackergen/internal/platform/net"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/check-ambiguity", nil)
	r.RemoteAddr = "203.0.113.7:4000"
	r.Header.Set("User-Agent", "probe/1")
	r = r.WithContext(pnet.WithUser(r.Context(), "u-1"))

	ev := FromRequest(r, InjectionDetected, Medium, map[string]any{"field": "trackerName"})
	if ev.Type != InjectionDetected || ev.Severity != Medium {
		t.Fatalf("type/sev = %s/%s", ev.Type, ev.Severity)
	}
	if ev.UserID != "u-1" || ev.IPAddress != "203.0.113.7" || ev.UserAgent != "probe/1" || ev.Endpoint != "/check-ambiguity" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Details["field"] != "trackerName" {
		t.Fatalf("details = %v", ev.Details)
	}
	if ev.ID != "" || !ev.At.IsZero() {
		t.Fatalf("id and time are filled on emit")
	}
}
