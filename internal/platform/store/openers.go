package store

import (
	"context"
	"fmt"
	"time"

	chx "trackergen/internal/platform/store/ch"
	"trackergen/internal/platform/store/pg"
)

// pgBackoff bounds the ping loop; a seam for tests
var pgBackoff = struct {
	attempts    int
	timeout     time.Duration
	start, ceil time.Duration
}{20, 3 * time.Second, 150 * time.Millisecond, 2 * time.Second}

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	// ping the pool directly so boot retries do not show up in the sql trace
	var lastErr error
	backoff := pgBackoff.start
	for i := 0; i < pgBackoff.attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pgBackoff.timeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Msg("postgres not ready")
		time.Sleep(backoff)
		backoff = min(backoff*2, pgBackoff.ceil)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", pgBackoff.attempts, lastErr)
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientName: cfg.CH.ClientName,
		ClientTag:  cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
