package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/derive"
	"github.com/sawpanic/equityrecon/internal/fetch"
	"github.com/sawpanic/equityrecon/internal/fx"
	"github.com/sawpanic/equityrecon/internal/gapfill"
	"github.com/sawpanic/equityrecon/internal/merge"
	"github.com/sawpanic/equityrecon/internal/metrics"
	"github.com/sawpanic/equityrecon/internal/providers"
	"github.com/sawpanic/equityrecon/internal/reconcile"
	"github.com/sawpanic/equityrecon/internal/validate"
)

// App bundles the wired engine with what the commands need around it.
type App struct {
	Engine     *reconcile.Engine
	Registry   *providers.Registry
	Prometheus *prometheus.Registry

	livequote *providers.LiveQuoteAdapter
	redis     *redis.Client
}

// buildApp assembles the engine from configuration: adapters, orchestrator,
// merge, gap-fill, derive, validate, FX cache and metrics.
func buildApp(ctx context.Context, cfg *config.Config) (*App, error) {
	promReg := prometheus.NewRegistry()
	collector := metrics.New(promReg)

	app := &App{Prometheus: promReg}

	registry := providers.NewRegistry()
	if pc, ok := cfg.Providers["feed"]; ok && pc.Enabled {
		registry.Register(providers.NewFeedAdapter(pc, collector))
	}
	if pc, ok := cfg.Providers["statements"]; ok && pc.Enabled {
		registry.Register(providers.NewStatementsAdapter(pc, collector))
	}
	if pc, ok := cfg.Providers["aggregator"]; ok && pc.Enabled {
		registry.Register(providers.NewAggregatorAdapter(pc, collector))
	}
	if pc, ok := cfg.Providers["livequote"]; ok && pc.Enabled {
		lq := providers.NewLiveQuoteAdapter(pc)
		lq.Start(ctx)
		registry.Register(lq)
		app.livequote = lq
	}
	app.Registry = registry

	var search providers.SearchClient
	if pc, ok := cfg.Providers["websearch"]; ok && pc.Enabled {
		search = providers.NewWebSearchClient(pc)
	}

	var rates fx.RateCache
	switch cfg.FX.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.FX.RedisAddr})
		app.redis = client
		rates = fx.NewRedisCache(client, cfg.FX.TTL())
	default:
		rates = fx.NewMemoryCache(cfg.FX.TTL())
	}

	merger := merge.New(cfg.Quality, collector)
	app.Engine = reconcile.New(
		fetch.New(registry, cfg.Fetch.PerSourceTimeout(), collector),
		merger,
		gapfill.New(search, merger, cfg.GapFill, collector),
		derive.New(cfg.Quality),
		validate.New(),
		rates,
		cfg.Quality,
		collector,
	)
	return app, nil
}

// Close releases long-lived resources.
func (a *App) Close() error {
	if a.livequote != nil {
		a.livequote.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			return fmt.Errorf("closing redis: %w", err)
		}
	}
	return nil
}
