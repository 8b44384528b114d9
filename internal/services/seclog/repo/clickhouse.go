package repo

import (
	"context"
	"encoding/json"
	"fmt"

	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/store"
	"trackergen/internal/services/seclog/domain"
)

// DefaultTable receives events when no table is configured
const DefaultTable = "security_events"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id          UUID,
	at          DateTime64(3, 'UTC'),
	type        LowCardinality(String),
	severity    LowCardinality(String),
	user_id     String,
	ip_address  String,
	user_agent  String,
	endpoint    LowCardinality(String),
	details     String
) ENGINE = MergeTree
ORDER BY (at, type)
TTL toDateTime(at) + INTERVAL 90 DAY`

// Clickhouse appends events to a MergeTree table, one insert per event
type Clickhouse struct {
	ch    store.Clickhouse
	table string
}

// NewClickhouse returns a sink over ch writing to table
func NewClickhouse(ch store.Clickhouse, table string) *Clickhouse {
	if table == "" {
		table = DefaultTable
	}
	return &Clickhouse{ch: ch, table: table}
}

// Name implements domain.Sink
func (*Clickhouse) Name() string { return "clickhouse" }

// Migrate creates the table when missing
func (s *Clickhouse) Migrate(ctx context.Context) error {
	if err := s.ch.Exec(ctx, fmt.Sprintf(createTableSQL, s.table)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "create %s", s.table)
	}
	return nil
}

// Deliver implements domain.Sink
func (s *Clickhouse) Deliver(ctx context.Context, ev domain.Event) error {
	details := "{}"
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "encode event details")
		}
		details = string(b)
	}
	row := []any{
		ev.ID, ev.At.UTC(), string(ev.Type), string(ev.Severity),
		ev.UserID, ev.IPAddress, ev.UserAgent, ev.Endpoint, details,
	}
	if err := s.ch.Insert(ctx, s.table, [][]any{row}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert %s", s.table)
	}
	return nil
}

// Close implements domain.Sink; the connection belongs to the store
func (*Clickhouse) Close() error { return nil }
