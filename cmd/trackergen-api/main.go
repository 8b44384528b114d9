// @title         Tracker Generation API
// @version       1.0
// @description   Resolves ambiguous tracker names and generates tracker configurations

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"trackergen/internal/platform/config"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
	phttp "trackergen/internal/platform/net/http"
	"trackergen/internal/platform/store"

	"trackergen/internal/services/api"
)

func main() {
	// .env is optional; real env wins
	_ = godotenv.Load()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// durable backends are optional; each opens only when its DBURL is set
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "trackergen", "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		l.Panic().Err(err).Msg("metrics register failed")
	}

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	app := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Gatherer:       reg,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			RequestTimeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
	)
	if err := app.Migrate(ctx); err != nil {
		l.Panic().Err(err).Msg("schema bootstrap failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return app.Limiter.Run(gctx) })

	err = g.Wait()

	// drain queued security events after the server stopped taking requests
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := app.Events.Close(flushCtx); cerr != nil {
		l.Warn().Err(cerr).Msg("security event flush incomplete")
	}

	if err != nil && ctx.Err() == nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("shutdown complete")
}
