package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "trackergen/internal/platform/errors"
	pnet "trackergen/internal/platform/net"
	"trackergen/internal/platform/net/middleware"
)

type fakeAuthPort struct {
	user  string
	err   error
	token string
}

func (f *fakeAuthPort) Verify(_ context.Context, token string) (string, error) {
	f.token = token
	return f.user, f.err
}

func writeStub(w http.ResponseWriter, _ *http.Request, err error) {
	status, _ := pnet.Error(err)
	w.WriteHeader(status)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   xyz  ", "xyz", true},
		{"Bearer ", "", false},
		{"Basic dXNlcg==", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if c.header != "" {
			r.Header.Set("Authorization", c.header)
		}
		got, ok := middleware.BearerToken(r)
		if got != c.want || ok != c.ok {
			t.Fatalf("%q: got %q,%v", c.header, got, c.ok)
		}
	}
}

func TestAuth_NilPortPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	rr := httptest.NewRecorder()
	middleware.Auth(nil, writeStub, nil)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if !called {
		t.Fatal("expected next to be called")
	}
}

func TestAuth_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		port   *fakeAuthPort
	}{
		{"missing header", "", &fakeAuthPort{user: "u1"}},
		{"provider rejects", "Bearer bad", &fakeAuthPort{err: perr.Unauthorizedf("invalid or expired token")}},
		{"provider unreachable", "Bearer tok", &fakeAuthPort{err: errors.New("dial tcp: refused")}},
		{"empty user id", "Bearer tok", &fakeAuthPort{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var rejected error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next must not run")
			})
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rr := httptest.NewRecorder()
			middleware.Auth(c.port, writeStub, func(_ *http.Request, err error) { rejected = err })(next).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rr.Code)
			}
			if !perr.IsCode(rejected, perr.ErrorCodeUnauthorized) {
				t.Fatalf("reject hook got %v", rejected)
			}
		})
	}
}

func TestAuth_PutsUserAndTokenOnContext(t *testing.T) {
	port := &fakeAuthPort{user: "user-123"}
	var seenUser, seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = pnet.UserID(r.Context())
		seenToken = pnet.Token(r.Context())
	})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer good-token")
	rr := httptest.NewRecorder()
	middleware.Auth(port, writeStub, nil)(next).ServeHTTP(rr, req)

	if seenUser != "user-123" || seenToken != "good-token" || port.token != "good-token" {
		t.Fatalf("user=%q token=%q forwarded=%q", seenUser, seenToken, port.token)
	}
}
