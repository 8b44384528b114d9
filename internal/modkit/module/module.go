// Package module defines the minimal contract for a modkit module plus a small ports registry
package module

import (
	phttp "trackergen/internal/platform/net/http"
)

// Module defines the minimal contract used by modkit
// kept as a sibling to avoid import knots when a module also exports its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// RegisterAll stores the ports of every module under its name
func RegisterAll(mods ...Module) {
	for _, m := range mods {
		if m == nil {
			continue
		}
		Register(m.Name(), m.Ports())
	}
}
