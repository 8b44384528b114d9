package module

import (
	"time"

	"trackergen/internal/platform/config"
	"trackergen/internal/services/ratelimit/domain"
)

// Backend names
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Options holds configuration settings for the ratelimit module
type Options struct {
	Backend    string
	Check      domain.Limit
	Generate   domain.Limit
	PruneEvery time.Duration
	Migrate    bool
}

// FromConfig reads RATELIMIT_* settings
func FromConfig(cfg config.Conf) Options {
	rl := cfg.Prefix("RATELIMIT_")
	return Options{
		Backend: rl.MayEnum("BACKEND", BackendMemory, BackendMemory, BackendPostgres),
		Check: domain.Limit{
			MaxRequests: rl.MayInt("CHECK_MAX", 30),
			Window:      rl.MayDuration("CHECK_WINDOW", time.Minute),
		},
		Generate: domain.Limit{
			MaxRequests: rl.MayInt("GENERATE_MAX", 10),
			Window:      rl.MayDuration("GENERATE_WINDOW", time.Minute),
		},
		PruneEvery: rl.MayDuration("PRUNE_EVERY", time.Minute),
		Migrate:    rl.MayBool("PG_MIGRATE", true),
	}
}
