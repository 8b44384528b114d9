package store

import "trackergen/internal/platform/config"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientName string
	ClientTag  string
}

// ConfigFromEnv enables each backend whose DBURL is set
// pg lives under SERVICE_PGSQL_*, clickhouse under SERVICE_CLICKHOUSE_*
func ConfigFromEnv(root config.Conf, app, role string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")

	pgURL, pgOn := pg.Lookup("DBURL")
	chURL, chOn := ch.Lookup("DBURL")

	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:     pgOn,
			URL:         pgURL,
			MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pg.MayInt("SLOW_MS", 250),
			LogSQL:      pg.MayBool("LOG_SQL", false),
		},
		CH: CHConfig{
			Enabled:    chOn,
			URL:        chURL,
			ClientName: app,
			ClientTag:  role,
		},
	}
}
