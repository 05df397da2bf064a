package cmd

import (
	"context"
	"errors"
	"fmt"

	"travel-scout/config"
	"travel-scout/metrics"
	"travel-scout/providers"
	"travel-scout/scraper/momondo"
	"travel-scout/services"
	"travel-scout/storage"
	"travel-scout/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the wired collaborators shared by every subcommand
type app struct {
	cfg          *config.Config
	logger       *utils.Logger
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	orchestrator *services.Orchestrator
	closers      []func()
}

// newApp loads configuration and wires every collaborator. Postgres, Redis and the
// text analyzer are optional; each is skipped when unconfigured.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger := utils.NewLogger(level)

	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	// ================== Text analysis ====================
	var analyzer services.TextAnalyzer
	anthropicClient, err := providers.NewAnthropicAnalyzer(cfg.Anthropic, logger)
	switch {
	case err == nil:
		analyzer = anthropicClient
		logger.Info("Text analysis enabled (model %s)", cfg.Anthropic.Model)
	case errors.Is(err, providers.ErrNotConfigured):
		logger.Warn("ANTHROPIC_API_KEY not set: review signals fall back to local keywords, AI flight search disabled")
	default:
		return nil, err
	}

	// ================== Review signal cache ====================
	var cache services.SignalCache
	if cfg.Redis.Address != "" {
		client, err := storage.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, review signals will not be cached: %v", err)
		} else {
			cache = storage.NewSignalCache(client, cfg.Redis.SignalTTL)
			a.closers = append(a.closers, func() { _ = client.Close() })
			logger.Info("Review signal cache connected at %s", cfg.Redis.Address)
		}
	}

	// =================== PostgreSQL ========================================
	var history services.History
	if cfg.Database.URL != "" {
		pgWriter, err := storage.NewPostgresWriter(ctx, cfg.Database.URL, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("cannot connect to PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, pgWriter.Close)
		if err := pgWriter.CreateTables(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
		history = pgWriter
	} else {
		logger.Warn("DATABASE_URL not set: flight lookups and recommendations will not be stored")
	}

	launcher := momondo.NewChromeLauncher(cfg.Scraper, logger)
	a.orchestrator = services.NewOrchestrator(
		cfg.Ranking,
		services.NewFilterPipeline(cfg.Listings.RoomURLPrefix, logger),
		services.Dependencies{
			Listings: providers.NewListingsClient(cfg.Listings, logger),
			Signals:  services.NewReviewSignalExtractor(analyzer, cache, a.metrics, logger),
			Scraper:  momondo.NewScraper(cfg.Scraper, launcher, logger),
			Analyzer: analyzer,
			History:  history,
			Metrics:  a.metrics,
		},
		logger,
	)
	return a, nil
}

// close releases collaborators in reverse order of creation
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.logger.Sync()
}
