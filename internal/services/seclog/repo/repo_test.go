package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/store"
	"trackergen/internal/services/seclog/domain"
)

type fakeCH struct {
	table string
	rows  [][]any
	execs []string
	err   error
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.table = table
	f.rows = append(f.rows, rows...)
	return f.err
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return f.err
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                              { return nil }

func sample() domain.Event {
	return domain.Event{
		ID:        "5f0c7a52-8a0b-4a8e-9d43-1c7f3f0b8f00",
		At:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:      domain.RateLimitExceeded,
		Severity:  domain.Medium,
		UserID:    "u-1",
		IPAddress: "203.0.113.7",
		Endpoint:  "/generate-tracker-config",
		Details:   map[string]any{"limit": 10},
	}
}

func TestClickhouseDeliver(t *testing.T) {
	f := &fakeCH{}
	s := NewClickhouse(f, "")
	if err := s.Deliver(context.Background(), sample()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if f.table != DefaultTable || len(f.rows) != 1 || len(f.rows[0]) != 9 {
		t.Fatalf("table=%q rows=%v", f.table, f.rows)
	}
	var d map[string]any
	if err := json.Unmarshal([]byte(f.rows[0][8].(string)), &d); err != nil || d["limit"].(float64) != 10 {
		t.Fatalf("details = %v (%v)", f.rows[0][8], err)
	}

	ev := sample()
	ev.Details = nil
	_ = s.Deliver(context.Background(), ev)
	if f.rows[1][8] != "{}" {
		t.Fatalf("empty details = %v", f.rows[1][8])
	}
}

func TestClickhouseErrors(t *testing.T) {
	f := &fakeCH{err: errors.New("code: 60, table missing")}
	s := NewClickhouse(f, "sec")
	if err := s.Deliver(context.Background(), sample()); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("deliver err = %v", err)
	}
	if err := s.Migrate(context.Background()); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("migrate err = %v", err)
	}
	if len(f.execs) != 1 || !strings.Contains(f.execs[0], "CREATE TABLE IF NOT EXISTS sec") {
		t.Fatalf("execs = %v", f.execs)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	s := NewLog(&l)
	if err := s.Deliver(context.Background(), sample()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("line: %v (%s)", err, buf.String())
	}
	if line["level"] != "warn" || line["type"] != "rate_limit_exceeded" || line["user_id"] != "u-1" {
		t.Fatalf("line = %v", line)
	}
	if s.Name() != "log" || s.Close() != nil {
		t.Fatalf("sink surface")
	}
}

func TestLevel(t *testing.T) {
	cases := map[domain.Severity]zerolog.Level{
		domain.Critical: zerolog.ErrorLevel,
		domain.High:     zerolog.ErrorLevel,
		domain.Medium:   zerolog.WarnLevel,
		domain.Low:      zerolog.InfoLevel,
		"":              zerolog.InfoLevel,
	}
	for sev, want := range cases {
		if got := level(sev); got != want {
			t.Fatalf("level(%q) = %v, want %v", sev, got, want)
		}
	}
}
