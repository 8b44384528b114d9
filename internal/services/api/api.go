// Package api mounts the HTTP surface of the tracker service
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trackergen/internal/platform/config"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
	phttp "trackergen/internal/platform/net/http"
	"trackergen/internal/platform/store"
	ptime "trackergen/internal/platform/time"

	"trackergen/internal/modkit"
	"trackergen/internal/modkit/httpkit"
	"trackergen/internal/modkit/module"
	"trackergen/internal/modkit/swaggerkit"

	metamod "trackergen/internal/services/api/meta/module"
	trackermod "trackergen/internal/services/api/tracker/module"
	rlmod "trackergen/internal/services/ratelimit/module"
	seclogmod "trackergen/internal/services/seclog/module"
)

// Options are the API options
type Options struct {
	// Config is the unprefixed root view; modules pick their own prefixes
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Gatherer       prometheus.Gatherer
	Clock          ptime.Clock
	EnableSwagger  bool
	EnableProfiler bool
	RequestTimeout time.Duration

	// Wiring overrides the upstream clients, mainly for tests
	Wiring trackermod.Wiring
}

// App holds the modules with background work the binary must run and stop
type App struct {
	Limiter *rlmod.Module
	Events  *seclogmod.Module
	Tracker *trackermod.Module
}

// Migrate applies the schemas of the durable backends that are active
func (a *App) Migrate(ctx context.Context) error {
	if err := a.Limiter.Migrate(ctx); err != nil {
		return err
	}
	return a.Events.Migrate(ctx)
}

// Mount mounts the API service onto the given router
// endpoints are served at the root and under /api/v1
func Mount(r phttp.Router, opt Options) *App {
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	limiter := rlmod.New(deps, opt.Clock)
	events := seclogmod.New(deps, opt.Clock)

	w := opt.Wiring
	w.Limits = limiter.Limits()
	w.Events = events.Emitter()
	tracker := trackermod.New(deps, modkit.WithPorts(w))

	meta := metamod.New(deps, modkit.WithPorts(metamod.Wiring{
		Clock:          opt.Clock,
		Missing:        tracker.Missing(),
		LimiterBackend: limiter.Backend(),
	}))

	mods := []module.Module{limiter, events, tracker, meta}
	module.RegisterAll(mods...)

	origins := opt.Config.MayCSV("CORS_ALLOWED_ORIGINS", nil)
	r.Use(httpkit.CommonStack(httpkit.StackOptions{
		Origins: origins,
		Timeout: opt.RequestTimeout,
		Slow:    2 * time.Second,
	})...)

	if opt.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(opt.Gatherer))
	}
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountRootAndV1(r, nil, func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})

	// chi answers 405 for a known path with the wrong method; keep the body shape
	if mux, ok := r.Mux().(interface {
		MethodNotAllowed(http.HandlerFunc)
		NotFound(http.HandlerFunc)
	}); ok {
		mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			phttp.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		})
		mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			phttp.JSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		})
	}

	return &App{Limiter: limiter, Events: events, Tracker: tracker}
}
