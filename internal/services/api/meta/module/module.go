// Package module wires the meta endpoints into the API
package module

import (
	"net/http"
	"time"

	"trackergen/internal/modkit"
	"trackergen/internal/modkit/httpkit"
	str "trackergen/internal/platform/strings"
	ptime "trackergen/internal/platform/time"

	metahttp "trackergen/internal/services/api/meta/http"
)

// Wiring carries boot facts owned by other modules
type Wiring struct {
	Clock          ptime.Clock
	Missing        []string
	LimiterBackend string
}

var _ modkit.Module = (*Module)(nil)

// Module implements the meta module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	startedAt time.Time
}

// New constructs a meta module; pass Wiring through modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)
	w, _ := b.Ports.(Wiring)

	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		startedAt: w.Clock.Now(),
	}

	hd := metahttp.Deps{
		ServiceName:    "trackergen-api",
		StartedAt:      m.startedAt,
		Clock:          w.Clock,
		Missing:        w.Missing,
		LimiterBackend: w.LimiterBackend,
	}
	if hd.LimiterBackend == "" {
		hd.LimiterBackend = "memory"
	}
	if deps.HasPG() {
		hd.PG = deps.PG
	}
	if deps.HasCH() {
		hd.CH = deps.CH
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		metahttp.Register(r, hd)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the meta routes under the prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(str.MustPrefix(m.prefix), func(rr httpkit.Router) {
		if len(m.mws) > 0 {
			rr.Use(m.mws...)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Ports returns nothing; meta exposes no ports
func (m *Module) Ports() any { return nil }
