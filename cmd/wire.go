package main

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/fairmeet/internal/adapters/repository"
	"github.com/okian/fairmeet/internal/adapters/routing/osrm"
	es "github.com/okian/fairmeet/internal/adapters/search/elastic"
	app "github.com/okian/fairmeet/internal/app"
	"github.com/okian/fairmeet/internal/config"
	"github.com/okian/fairmeet/internal/domain/cache"
	"github.com/okian/fairmeet/internal/domain/fairness"
	"github.com/okian/fairmeet/internal/domain/quota"
	"github.com/okian/fairmeet/internal/domain/travel"
	"github.com/okian/fairmeet/internal/domain/venue"
	"github.com/okian/fairmeet/pkg/logger"
)

// buildService assembles the service from configuration. Resources that need
// closing are handed to the service and released by Stop.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	finder, err := buildFinder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	guard, closers, err := buildGuard(cfg, log)
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithFinder(finder),
		app.WithEstimator(buildEstimator(cfg, log)),
		app.WithGuard(guard),
		app.WithCache(cache.NewInMemoryCache(
			cache.WithMaxEntries(cfg.CacheSize),
			cache.WithTTL(cfg.CacheTTL()),
		)),
		app.WithScorer(fairness.NewScorer(fairness.WithWeights(cfg.MaxWeight, cfg.DispersionWeight))),
		app.WithSearchRadius(cfg.SearchRadiusM),
		app.WithSearchTimeout(cfg.SearchTimeout()),
		app.WithRunTimeout(cfg.RunTimeout()),
		app.WithClosers(closers...),
	), nil
}

func buildFinder(ctx context.Context, cfg *config.Config, log logger.Logger) (venue.Finder, error) {
	if cfg.SearchProvider != config.ProviderElastic {
		minLatency, maxLatency := cfg.SimulatedLatency()
		return venue.NewSimulatedFinder(
			venue.WithSeed(cfg.Seed),
			venue.WithLatencyRange(minLatency, maxLatency),
		), nil
	}

	client, err := es.NewClient(cfg.ElasticURL)
	if err != nil {
		return nil, err
	}
	finder := es.NewFinder(client, cfg.ElasticIndex, es.WithLogger(log.Named("elastic")))
	if err := finder.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	log.Info(ctx, "using elasticsearch venue finder",
		logger.String("url", cfg.ElasticURL),
		logger.String("index", cfg.ElasticIndex),
	)
	return finder, nil
}

func buildEstimator(cfg *config.Config, log logger.Logger) travel.Estimator {
	minLatency, maxLatency := cfg.SimulatedLatency()
	simulated := travel.NewSimulatedEstimator(
		travel.WithUrbanSpeed(cfg.UrbanSpeedKMH),
		travel.WithTrafficNoise(cfg.TrafficNoise),
		travel.WithSeed(cfg.Seed),
		travel.WithLatencyRange(minLatency, maxLatency),
	)
	if cfg.RoutingProvider != config.ProviderOSRM {
		return simulated
	}

	return travel.Fallback(osrm.NewClient(cfg.OSRMURL), simulated,
		travel.WithFailureHook(func(ctx context.Context, err error) {
			log.Debug(ctx, "osrm estimate failed, using simulated travel", logger.Error(err))
		}),
	)
}

func buildGuard(cfg *config.Config, log logger.Logger) (*quota.Guard, []io.Closer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	expiry, err := cfg.Expiry()
	if err != nil {
		return nil, nil, fmt.Errorf("parse expires_at: %w", err)
	}

	opts := []quota.Option{
		quota.WithDailyLimit(cfg.DailyLimit),
		quota.WithExpiry(expiry),
		quota.WithLocation(loc),
		quota.WithLogger(log.Named("quota")),
	}
	var closers []io.Closer
	if cfg.QuotaDBPath != "" {
		store, err := repository.Open(cfg.QuotaDBPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, quota.WithStore(store))
		closers = append(closers, store)
	}
	return quota.NewGuard(opts...), closers, nil
}
