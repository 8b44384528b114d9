package module

import (
	"time"

	"trackergen/internal/platform/config"
	"trackergen/internal/services/seclog/repo"
)

// Options holds configuration settings for the seclog module
type Options struct {
	Queue       int
	Table       string
	Migrate     bool
	SinkTimeout time.Duration
}

// FromConfig reads SECLOG_* settings
func FromConfig(cfg config.Conf) Options {
	sf := cfg.Prefix("SECLOG_")
	return Options{
		Queue:       sf.MayInt("QUEUE", 256),
		Table:       sf.MayString("TABLE", repo.DefaultTable),
		Migrate:     sf.MayBool("CH_MIGRATE", true),
		SinkTimeout: sf.MayDuration("SINK_TIMEOUT", 5*time.Second),
	}
}
