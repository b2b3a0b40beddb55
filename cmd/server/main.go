package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/quickcart/backend/config"
	httpDelivery "github.com/quickcart/backend/internal/delivery/http"
	"github.com/quickcart/backend/internal/domain"
	"github.com/quickcart/backend/internal/infrastructure/cache"
	"github.com/quickcart/backend/internal/infrastructure/feed"
	"github.com/quickcart/backend/internal/infrastructure/gemini"
	"github.com/quickcart/backend/internal/infrastructure/logging"
	"github.com/quickcart/backend/internal/infrastructure/metrics"
	"github.com/quickcart/backend/internal/infrastructure/storage"
	"github.com/quickcart/backend/internal/usecase"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(logging.Options{
		ServiceName: "quickcart-backend",
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	debug := cfg.Server.Environment == "development"

	log.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache_type", cfg.Cache.Type).
		Msg("starting QuickCart backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache")
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// The AI tie-breaker is optional; without a key the selector skips it
	var generator domain.TextGenerator
	if cfg.AI.APIKey != "" {
		client := gemini.NewClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.Timeout)
		client.SetDebug(debug)
		generator = client
		log.Info().Str("model", cfg.AI.Model).Msg("AI tie-breaker enabled")
	} else {
		log.Warn().Msg("AI tie-breaker disabled (set QUICKCART_AI_API_KEY to enable)")
	}

	fees := usecase.NewFeeModel(cfg.FeeTable())
	selector := usecase.NewSelectionService(generator, m, usecase.SelectionConfig{
		Policy: usecase.SelectionPolicy{
			ProduceMinGrams: cfg.Selection.ProduceMinGrams,
			ProduceMaxGrams: cfg.Selection.ProduceMaxGrams,
		},
		AITimeout:          cfg.AI.Timeout,
		EnableDebugLogging: debug,
	})
	optimizer := usecase.NewOptimizer(fees, m, usecase.OptimizerConfig{
		ExhaustiveLimit:    cfg.Optimizer.ExhaustiveLimit,
		EnableDebugLogging: debug,
	})
	carts := usecase.NewCartService(
		storage.NewCartStore(store, cfg.Cache.CartTTL),
		selector,
		fees,
		optimizer,
		usecase.CartServiceConfig{Platforms: cfg.PlatformIDs()},
	)

	// Platforms without a feed are still reported by the extension through /results
	var search *usecase.SearchService
	if scrapers := newScrapers(cfg, debug); len(scrapers) > 0 {
		search = usecase.NewSearchService(carts, scrapers, store, m, usecase.SearchServiceConfig{
			CacheTTL: cfg.Cache.TTL,
		})
		log.Info().Int("platforms", len(scrapers)).Msg("platform feeds configured")
	} else {
		log.Info().Msg("no platform feeds configured; server-side search disabled")
	}

	handler := httpDelivery.NewHandler(carts, search, selector)
	router := httpDelivery.SetupRouter(cfg, handler, registry)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newCache builds the configured cache backend and its close function
func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func(), error) {
	var c interface {
		domain.CacheRepository
		io.Closer
	}
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		c = redisCache
	default:
		c = cache.NewMemoryCache()
	}

	closeFn := func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("closing cache")
		}
	}
	return c, closeFn, nil
}

// newScrapers builds a feed client for every platform with a search URL
func newScrapers(cfg *config.Config, debug bool) []domain.Scraper {
	scrapers := make([]domain.Scraper, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		if p.SearchURL == "" {
			continue
		}
		client := feed.NewClient(domain.PlatformID(p.ID), p.SearchURL, cfg.RateLimit.Scraper)
		client.SetDebug(debug)
		scrapers = append(scrapers, client)
	}
	return scrapers
}
