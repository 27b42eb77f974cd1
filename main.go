package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MwangiWaraga/jakan-store-ds/config"
	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
	"github.com/MwangiWaraga/jakan-store-ds/internal/fetch"
	"github.com/MwangiWaraga/jakan-store-ds/internal/metrics"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
	"github.com/MwangiWaraga/jakan-store-ds/services/cache"
	"github.com/MwangiWaraga/jakan-store-ds/services/sink"
	"github.com/MwangiWaraga/jakan-store-ds/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("storefronts", len(cfg.Storefronts)).
		Str("sink", cfg.SinkKind).
		Msg("Starting catalog discovery")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Block gate is optional; without memcache a rate limited host is
	// simply retried on the next run.
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
	}

	m := metrics.NewMetrics()

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		Timeout:    cfg.RequestTimeout,
		RetryCount: cfg.RetryCount,
		CacheSvc:   cacheSvc,
		BlockTime:  cfg.BlockTime,
		CacheSize:  cfg.FetchCacheSize,
		Metrics:    m,
	})

	orchestrator := discovery.NewOrchestrator(fetcher, discovery.Options{
		MaxPagesPerStrategy:  cfg.MaxPagesPerStrategy,
		BlindProbeThreshold:  cfg.BlindProbeThreshold,
		GlobalRequestCeiling: cfg.GlobalRequestCeiling,
		DelayMin:             cfg.DelayMin,
		DelayMax:             cfg.DelayMax,
		Metrics:              m,
	})

	out, err := buildSink(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sink")
	}
	defer out.Close()

	storefronts := make([]discovery.Storefront, 0, len(cfg.Storefronts))
	for _, s := range cfg.Storefronts {
		storefronts = append(storefronts, discovery.Storefront{Name: s.Name, RootURL: s.RootURL})
	}

	w := worker.NewWorker(orchestrator, out, storefronts, cfg.WorkerCount)
	summary, err := w.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Crawl run failed")
		out.Close()
		os.Exit(1)
	}

	for _, r := range summary.Results {
		event := log.Info()
		if r.Err != nil {
			event = log.Warn().Err(r.Err)
		}
		event.
			Str("storefront", r.Store.Name).
			Int("listings", r.Listings).
			Int("requests", r.Requests).
			Msg("Storefront result")
	}
}

// buildSink constructs the configured sink.
func buildSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.SinkKind {
	case "redis":
		return sink.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen), nil
	default:
		return sink.NewCSVSink(cfg.CSVPath)
	}
}
