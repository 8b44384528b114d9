// Package module wires the security event logger and its sinks
package module

import (
	"context"

	"trackergen/internal/modkit"
	"trackergen/internal/platform/logger"
	phttp "trackergen/internal/platform/net/http"
	ptime "trackergen/internal/platform/time"
	"trackergen/internal/services/seclog/domain"
	"trackergen/internal/services/seclog/repo"
	"trackergen/internal/services/seclog/service"
)

// Ports exposed by the seclog module
type Ports struct {
	Emitter domain.EmitterPort
}

var _ modkit.Module = (*Module)(nil)

// Module implements the seclog service module
type Module struct {
	svc   *service.Svc
	ch    *repo.Clickhouse
	opts  Options
	ports Ports
}

// New builds the logger; the log sink is always on, clickhouse joins when a connection exists
func New(deps modkit.Deps, clock ptime.Clock) *Module {
	opts := FromConfig(deps.Cfg)

	sinks := []domain.Sink{repo.NewLog(nil)}
	m := &Module{opts: opts}
	if deps.CH != nil {
		m.ch = repo.NewClickhouse(deps.CH, opts.Table)
		sinks = append(sinks, m.ch)
	}

	m.svc = service.New(service.Options{
		Queue:       opts.Queue,
		SinkTimeout: opts.SinkTimeout,
		Clock:       clock,
	}, sinks...)
	m.ports = Ports{Emitter: m.svc}

	logger.Named("seclog").Info().
		Int("queue", opts.Queue).
		Bool("clickhouse", m.ch != nil).
		Msg("security event logger ready")
	return m
}

// Migrate creates the clickhouse table when that sink is active
func (m *Module) Migrate(ctx context.Context) error {
	if m.ch == nil || !m.opts.Migrate {
		return nil
	}
	return m.ch.Migrate(ctx)
}

// Emitter returns the typed port
func (m *Module) Emitter() domain.EmitterPort { return m.svc }

// Close drains pending events
func (m *Module) Close(ctx context.Context) error { return m.svc.Close(ctx) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "seclog" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(phttp.Router) {}
