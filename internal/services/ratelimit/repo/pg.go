package repo

import (
	"context"
	_ "embed"
	"time"

	"trackergen/internal/modkit/repokit"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/services/ratelimit/domain"
)

//go:embed schema.sql
var schemaSQL string

// incrSQL increments or restarts the window in one statement
// $3 is now and $4 is now + window
const incrSQL = `
INSERT INTO rate_limits AS rl (user_id, endpoint, count, window_start, reset_at)
VALUES ($1, $2, 1, $3, $4)
ON CONFLICT (user_id, endpoint) DO UPDATE SET
	count        = CASE WHEN rl.reset_at <= EXCLUDED.window_start THEN 1 ELSE rl.count + 1 END,
	window_start = CASE WHEN rl.reset_at <= EXCLUDED.window_start THEN EXCLUDED.window_start ELSE rl.window_start END,
	reset_at     = CASE WHEN rl.reset_at <= EXCLUDED.window_start THEN EXCLUDED.reset_at ELSE rl.reset_at END
RETURNING count, window_start, reset_at`

const pruneSQL = `DELETE FROM rate_limits WHERE reset_at <= $1`

type (
	// PG is the durable counter; the increment and the window check are one atomic upsert
	PG     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a repo binder for Postgres
func NewPG() repokit.Binder[*PG] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) *PG { return &PG{q: q} }

// Backend implements domain.Counter
func (*PG) Backend() string { return "postgres" }

// Migrate creates the counter table when missing
func (p *PG) Migrate(ctx context.Context) error {
	_, err := p.q.Exec(ctx, schemaSQL)
	return perr.FromPostgres(err, "rate limit migrate")
}

// Incr implements domain.Counter
// A lock or serialization conflict is retried once
func (p *PG) Incr(ctx context.Context, userID, endpoint string, window time.Duration, now time.Time) (domain.Record, error) {
	now = now.UTC()
	var (
		rec domain.Record
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		err = p.q.QueryRow(ctx, incrSQL, userID, endpoint, now, now.Add(window)).
			Scan(&rec.Count, &rec.WindowStart, &rec.ResetAt)
		if err == nil || !perr.IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return domain.Record{}, perr.FromPostgres(err, "rate limit incr")
	}
	rec.WindowStart = rec.WindowStart.UTC()
	rec.ResetAt = rec.ResetAt.UTC()
	return rec, nil
}

// Prune implements domain.Counter
func (p *PG) Prune(ctx context.Context, now time.Time) (int, error) {
	tag, err := p.q.Exec(ctx, pruneSQL, now.UTC())
	if err != nil {
		return 0, perr.FromPostgres(err, "rate limit prune")
	}
	return int(tag.RowsAffected()), nil
}
