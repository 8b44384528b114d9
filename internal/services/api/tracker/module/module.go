// Package module wires the tracker endpoints into the API using modkit
package module

import (
	"errors"
	"net/http"

	"trackergen/internal/adapters/identity"
	"trackergen/internal/adapters/llm"
	"trackergen/internal/adapters/lookup"
	"trackergen/internal/modkit"
	"trackergen/internal/modkit/httpkit"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/net/middleware"
	str "trackergen/internal/platform/strings"
	"trackergen/internal/services/api/tracker/domain"
	trackerhttp "trackergen/internal/services/api/tracker/http"
	cdom "trackergen/internal/services/configgen/domain"
	configgen "trackergen/internal/services/configgen/service"
	ddom "trackergen/internal/services/disambiguate/domain"
	disambiguate "trackergen/internal/services/disambiguate/service"
	gdom "trackergen/internal/services/gather/domain"
	gather "trackergen/internal/services/gather/service"
	rldom "trackergen/internal/services/ratelimit/domain"
	rlhttp "trackergen/internal/services/ratelimit/http"
	rlmod "trackergen/internal/services/ratelimit/module"
	sdom "trackergen/internal/services/seclog/domain"
)

// Wiring carries ports owned by other modules plus optional upstream overrides
// nil upstreams are built from env
type Wiring struct {
	Limits rlmod.Ports
	Events sdom.EmitterPort

	Auth   middleware.AuthPort
	Model  cdom.LLMPort
	Source gdom.Source
}

// Ports exposed by the tracker module
type Ports struct {
	Checker   ddom.CheckerPort
	Generator cdom.GeneratorPort
}

var _ modkit.Module = (*Module)(nil)

// Module implements the tracker module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	opts     Options
	ports    Ports
	handlers *trackerhttp.Handlers
	guards   trackerhttp.Guards
}

// New constructs the tracker module
// pass Wiring through modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("tracker")}, opts...)...)
	w, _ := b.Ports.(Wiring)
	o := FromConfig(deps.Cfg)
	log := logger.Named("tracker")

	if len(o.Missing) > 0 {
		log.Error().Strs("missing", o.Missing).Msg("required configuration missing, endpoints will answer 500")
	}
	if w.Events == nil {
		w.Events = sdom.Discard{}
	}
	if w.Auth == nil {
		w.Auth = identity.New(identity.OptionsFromEnv(deps.Cfg))
	}
	if w.Model == nil {
		w.Model = llm.New(llm.OptionsFromEnv(deps.Cfg))
	}
	if w.Source == nil {
		w.Source = lookup.New(lookup.OptionsFromEnv(deps.Cfg))
	}

	gatherer := gather.New(w.Source, gather.Options{Budget: o.GatherBudget})
	checker := disambiguate.New(w.Model, disambiguate.Options{Gatherer: gatherer, Events: w.Events})
	generator := configgen.New(w.Model, configgen.Options{
		MaxClarifications: o.MaxClarifications,
		Gatherer:          gatherer,
		Events:            w.Events,
	})

	m := &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		opts:      o,
		ports:     Ports{Checker: checker, Generator: generator},
		handlers:  &trackerhttp.Handlers{Checker: checker, Generator: generator, Events: w.Events},
	}
	m.guards = trackerhttp.Guards{
		Check:    guards(o, w, domain.EndpointCheck, w.Limits.Check),
		Generate: guards(o, w, domain.EndpointGenerate, w.Limits.Generate),
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		trackerhttp.Register(r, m.handlers, m.guards)
		if external != nil {
			external(r)
		}
	}
	return m
}

// guards orders the per endpoint chain: config gate, auth, then the limiter
func guards(o Options, w Wiring, endpoint string, lim rldom.Limit) []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		trackerhttp.ConfigGate(o.Missing, w.Events),
		httpkit.Auth(w.Auth, func(r *http.Request, err error) {
			w.Events.Emit(r.Context(), sdom.FromRequest(r, sdom.AuthFailure, sdom.Medium, map[string]any{
				"endpoint": endpoint,
				"reason":   authReason(err),
			}))
		}),
	}
	if w.Limits.Limiter != nil {
		chain = append(chain, rlhttp.Middleware(w.Limits.Limiter, endpoint, lim, func(r *http.Request, ep string, d rldom.Decision) {
			w.Events.Emit(r.Context(), sdom.FromRequest(r, sdom.RateLimitExceeded, sdom.Medium, map[string]any{
				"endpoint": ep,
				"limit":    d.Limit,
				"count":    d.CurrentCount,
				"resetAt":  d.ResetAt,
			}))
		}))
	}
	return chain
}

func authReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, middleware.ErrMissingToken) {
		return "missing_token"
	}
	return "invalid_token"
}

// MountRoutes mounts the endpoints at the router root, or under the prefix when one was given
func (m *Module) MountRoutes(r httpkit.Router) {
	mount := func(rr httpkit.Router) {
		if len(m.mws) > 0 {
			rr.Use(m.mws...)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	}
	if m.prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(str.MustPrefix(m.prefix), mount)
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports returns the checker and generator
func (m *Module) Ports() any { return m.ports }

// Ready reports whether every required setting was present at boot
func (m *Module) Ready() bool { return len(m.opts.Missing) == 0 }

// Missing lists the required settings absent at boot
func (m *Module) Missing() []string { return append([]string(nil), m.opts.Missing...) }
