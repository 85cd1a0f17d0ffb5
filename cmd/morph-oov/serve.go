package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/platinummonkey/morph/pkg/analyzer"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/middleware"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/platinummonkey/morph/pkg/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	Watch          bool   `help:"Reload the providers when the configuration file changes."`
	ReloadSchedule string `placeholder:"CRON" help:"Also reload on a cron schedule, e.g. '@every 10m'."`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := g.Config
	obs := cfg.Observability

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        obs.OTelEnabled,
		Endpoint:       obs.OTelEndpoint,
		ServiceName:    obs.OTelServiceName,
		ServiceVersion: version,
		Insecure:       obs.OTelInsecure,
	}, g.Log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = observability.ShutdownTracing(shutdownCtx, tp, g.Log)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	a, err := g.newAnalyzer(ctx, analyzer.WithMetrics(metrics))
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(g.Log), server.WithMetrics(metrics, registry)}
	if cfg.Server.CacheBackend == config.CacheBackendRedis {
		cache, err := server.NewRedisCache(ctx, cfg.Server.RedisURL, cfg.Server.CacheTTL, g.Log)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, server.WithCache(cache))
		if cfg.Server.RateLimit > 0 {
			limiter := middleware.NewDistributedRateLimiter(cache.Client(), server.RateLimitConfig(cfg.Server), "morph:ratelimit")
			opts = append(opts, server.WithRateLimiter(limiter))
		}
	} else if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(server.RateLimitConfig(cfg.Server))
		limiter.StartCleanup(ctx)
		opts = append(opts, server.WithRateLimiter(limiter))
	}

	srv := server.NewServer(a, cfg.Server, opts...).HTTPServer()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		g.Log.WithField("addr", srv.Addr).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if c.Watch && cfg.Path != "" {
		group.Go(func() error {
			return a.Watch(ctx, cfg.Path)
		})
	}
	if c.ReloadSchedule != "" && cfg.Path != "" {
		group.Go(func() error {
			return a.ReloadOnSchedule(ctx, c.ReloadSchedule, cfg.Path)
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		g.Log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
