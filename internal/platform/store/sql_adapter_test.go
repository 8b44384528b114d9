package store

import (
	"context"
	"errors"
	"testing"

	"trackergen/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int:
			*p = r.vals[i].(int)
		case *string:
			*p = r.vals[i].(string)
		}
	}
	return nil
}

type fakeRows struct {
	pgx.Rows
	cols   []string
	n      int
	closed bool
}

func (r *fakeRows) Next() bool        { r.n--; return r.n >= 0 }
func (r *fakeRows) Close()            { r.closed = true }
func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Scan(...any) error { return nil }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		out[i] = pgconn.FieldDescription{Name: c}
	}
	return out
}

type fakeQ struct {
	execErr error
	row     fakeRow
	rows    *fakeRows
}

func (f fakeQ) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("DELETE 3"), f.execErr
}

func (f fakeQ) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if f.rows == nil {
		return nil, errors.New("query failed")
	}
	return f.rows, nil
}

func (f fakeQ) QueryRow(context.Context, string, ...any) pgx.Row { return f.row }

type recTracer struct{ events []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.events = append(r.events, ev) }

func TestQuerier_TracesEveryStatement(t *testing.T) {
	rt := &recTracer{}
	fr := &fakeRows{cols: []string{"user_id", "count"}, n: 2}
	q := querier{q: fakeQ{row: fakeRow{vals: []any{4}}, rows: fr}, tr: tracer{t: rt, slowUS: 0}}
	ctx := context.Background()

	ct, err := q.Exec(ctx, "DELETE FROM rate_limits WHERE window_start < $1", 1)
	if err != nil || ct.RowsAffected() != 3 || ct.String() != "DELETE 3" {
		t.Fatalf("Exec = %v %v", ct, err)
	}

	var n int
	if err := q.QueryRow(ctx, "SELECT count FROM rate_limits").Scan(&n); err != nil || n != 4 {
		t.Fatalf("QueryRow = %d %v", n, err)
	}

	rs, err := q.Query(ctx, "SELECT user_id, count FROM rate_limits")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if cols := rs.Columns(); len(cols) != 2 || cols[1] != "count" {
		t.Fatalf("Columns = %v", cols)
	}
	seen := 0
	for rs.Next() {
		seen++
	}
	rs.Close()
	if seen != 2 || !fr.closed {
		t.Fatalf("iterated %d rows, closed=%v", seen, fr.closed)
	}

	if len(rt.events) != 3 {
		t.Fatalf("expected 3 trace events, got %d", len(rt.events))
	}
	if !rt.events[0].Slow {
		t.Fatalf("slow threshold 0 marks everything slow")
	}
}

func TestQuerier_PropagatesErrors(t *testing.T) {
	rt := &recTracer{}
	boom := errors.New("boom")
	q := querier{q: fakeQ{execErr: boom, row: fakeRow{err: boom}}, tr: tracer{t: rt, slowUS: -1}}
	ctx := context.Background()

	if _, err := q.Exec(ctx, "x"); !errors.Is(err, boom) {
		t.Fatalf("Exec err = %v", err)
	}
	if err := q.QueryRow(ctx, "x").Scan(); !errors.Is(err, boom) {
		t.Fatalf("Scan err = %v", err)
	}
	if _, err := q.Query(ctx, "x"); err == nil {
		t.Fatalf("expected query error")
	}
	for _, ev := range rt.events {
		if ev.Err == nil || ev.Slow {
			t.Fatalf("event should carry the error and never be slow: %+v", ev)
		}
	}
}

func TestQuerier_NoTracerIsSilent(t *testing.T) {
	q := querier{q: fakeQ{row: fakeRow{vals: []any{"ok"}}}}
	var s string
	if err := q.QueryRow(context.Background(), "x").Scan(&s); err != nil || s != "ok" {
		t.Fatalf("scan = %q %v", s, err)
	}
}
