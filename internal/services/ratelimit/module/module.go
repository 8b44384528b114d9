// Package module wires the rate limiter to its configured backend
package module

import (
	"context"

	"trackergen/internal/modkit"
	"trackergen/internal/modkit/repokit"
	"trackergen/internal/platform/logger"
	phttp "trackergen/internal/platform/net/http"
	ptime "trackergen/internal/platform/time"
	"trackergen/internal/services/ratelimit/domain"
	"trackergen/internal/services/ratelimit/repo"
	"trackergen/internal/services/ratelimit/service"
)

// Ports exposed by the ratelimit module
type Ports struct {
	Limiter  domain.LimiterPort
	Check    domain.Limit
	Generate domain.Limit
}

var _ modkit.Module = (*Module)(nil)

// Module implements the ratelimit service module
type Module struct {
	deps  modkit.Deps
	opts  Options
	svc   *service.Svc
	ports Ports
}

// New constructs the module; postgres is used only when asked for and a pool is present
func New(deps modkit.Deps, clock ptime.Clock) *Module {
	opts := FromConfig(deps.Cfg)
	log := logger.Named("ratelimit")

	var counter domain.Counter
	if opts.Backend == BackendPostgres && deps.PG != nil {
		counter = repo.NewPG().Bind(deps.PG)
	} else {
		if opts.Backend == BackendPostgres {
			log.Warn().Msg("RATELIMIT_BACKEND=postgres but no pool configured, using memory")
		}
		counter = repo.NewMemory()
	}

	svc := service.New(counter, service.Options{Clock: clock, PruneEvery: opts.PruneEvery})
	log.Info().Str("backend", svc.Backend()).
		Int("check_max", opts.Check.MaxRequests).
		Int("generate_max", opts.Generate.MaxRequests).
		Msg("rate limiter ready")

	return &Module{
		deps: deps,
		opts: opts,
		svc:  svc,
		ports: Ports{
			Limiter:  svc,
			Check:    opts.Check,
			Generate: opts.Generate,
		},
	}
}

// Migrate applies the counter schema when the durable backend is active
func (m *Module) Migrate(ctx context.Context) error {
	if m.svc.Backend() != BackendPostgres || !m.opts.Migrate {
		return nil
	}
	return repokit.WithTx(ctx, m.deps.PG, func(q repokit.Queryer) error {
		return repo.NewPG().Bind(q).Migrate(ctx)
	})
}

// Run blocks running the prune loop until ctx ends
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "ratelimit" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; limits are applied by the routes that use them
func (m *Module) MountRoutes(phttp.Router) {}

// Limits returns the typed ports
func (m *Module) Limits() Ports { return m.ports }

// Backend reports the counter backend in use, memory or postgres
func (m *Module) Backend() string { return m.svc.Backend() }
