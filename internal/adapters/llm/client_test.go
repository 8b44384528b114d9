package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trackergen/internal/platform/config"
	perr "trackergen/internal/platform/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/", APIKey: "test-key", Model: "claude-test", Timeout: 2 * time.Second})
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestComplete_Success(t *testing.T) {
	temp := 0.2
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		var req wireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "claude-test" || req.System != "be brief" || req.MaxTokens != defaultMaxTokens {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 3 || req.Messages[1].Role != RoleAssistant {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Temperature == nil || *req.Temperature != 0.2 {
			t.Errorf("temperature not forwarded")
		}
		reply(w, wireResponse{ID: "msg_1", Content: []wireContent{
			{Type: "thinking"},
			{Type: "text", Text: `{"isAmbiguous":`},
			{Type: "text", Text: `false}`},
		}})
	})

	got, err := c.Complete(context.Background(), Request{
		Op:     "classify",
		System: "be brief",
		Messages: []Message{
			{Role: RoleUser, Content: "q"},
			{Role: RoleAssistant, Content: "a"},
			{Role: RoleUser, Content: "q2"},
		},
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != `{"isAmbiguous":false}` {
		t.Fatalf("text = %q", got)
	}
}

func TestComplete_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
		want perr.ErrorCode
	}{
		{"overloaded", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"type":"error","error":{"type":"overloaded_error"}}`, 529)
		}, perr.ErrorCodeUnavailable},
		{"rate limited", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, perr.ErrorCodeUnavailable},
		{"bad key", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, perr.ErrorCodeConfiguration},
		{"not json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}, perr.ErrorCodeUpstreamOutput},
		{"no text", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, wireResponse{Content: []wireContent{{Type: "text", Text: "  "}}})
		}, perr.ErrorCodeUpstreamOutput},
		{"error body", func(w http.ResponseWriter, _ *http.Request) {
			reply(w, wireResponse{Error: &wireError{Type: "api_error", Message: "boom"}})
		}, perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)
			_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			if perr.CodeOf(err) != tc.want {
				t.Fatalf("code = %v (%v), want %v", perr.CodeOf(err), err, tc.want)
			}
		})
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, APIKey: "k", Timeout: time.Second})
	_, err := c.Complete(context.Background(), Request{})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("closed server should be unavailable, got %v", err)
	}
	if perr.PublicMessage(err) != "service temporarily unavailable" {
		t.Fatalf("public message leaks detail: %q", perr.PublicMessage(err))
	}
}

func TestComplete_MissingKey(t *testing.T) {
	called := false
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { called = true })
	c.opts.APIKey = ""
	_, err := c.Complete(context.Background(), Request{})
	if !perr.IsCode(err, perr.ErrorCodeConfiguration) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Fatalf("no request should be sent without a key")
	}
}

func TestComplete_ThrottleHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		reply(w, wireResponse{Content: []wireContent{{Type: "text", Text: "ok"}}})
	})
	c.opts.MaxRPS = 0.001
	c.limiter = New(Options{MaxRPS: 0.001, Burst: 1}).limiter

	if _, err := c.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("first call uses the burst: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, Request{})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || !strings.Contains(err.Error(), "throttle") {
		t.Fatalf("second call should fail on the throttle, got %v", err)
	}
}

func TestOptionsFromEnvAndDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", " sk-test ")
	t.Setenv("LLM_MODEL", "claude-x")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_MAX_RPS", "2.5")

	o := OptionsFromEnv(config.New())
	if o.APIKey != "sk-test" || o.Model != "claude-x" || o.Timeout != 5*time.Second || o.MaxRPS != 2.5 {
		t.Fatalf("options = %+v", o)
	}
	c := New(Options{})
	if c.opts.BaseURL != baseURLDefault || c.Model() != modelDefault || c.opts.MaxTokens != defaultMaxTokens {
		t.Fatalf("defaults = %+v", c.opts)
	}
}
