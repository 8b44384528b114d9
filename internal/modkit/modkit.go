package modkit

import (
	phttp "trackergen/internal/platform/net/http"
)

// Module is the common surface for modules that can mount routes and expose ports
// worker style modules (rate limiter, security log) mount nothing and only expose ports
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set for cross wiring
	Ports() any

	// Name returns the module name
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
