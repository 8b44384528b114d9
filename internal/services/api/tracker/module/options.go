package module

import (
	"time"

	"trackergen/internal/platform/config"
)

// Required lists the settings without which the endpoints answer 500
var Required = []string{"IDENTITY_URL", "IDENTITY_SERVICE_KEY", "LLM_API_KEY", "CORS_ALLOWED_ORIGINS"}

// Options for the tracker module
type Options struct {
	// Missing holds the required keys absent at boot
	Missing []string
	// GatherBudget bounds server side context lookups per request
	GatherBudget time.Duration
	// MaxClarifications caps clarifying questions before a config is forced
	MaxClarifications int
}

// FromConfig reads TRACKER_* keys and checks the required ones
func FromConfig(root config.Conf) Options {
	c := root.Prefix("TRACKER_")
	return Options{
		Missing:           root.Missing(Required...),
		GatherBudget:      c.MayDuration("GATHER_BUDGET", 4*time.Second),
		MaxClarifications: c.MayInt("MAX_CLARIFICATIONS", 3),
	}
}
