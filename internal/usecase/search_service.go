package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quickcart/backend/internal/domain"
	"github.com/quickcart/backend/internal/infrastructure/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL time.Duration
}

// SearchService fans a query out to every platform scraper and records each
// platform's pick into the cart as soon as that platform answers.
type SearchService struct {
	carts    *CartService
	scrapers []domain.Scraper
	cache    domain.CacheRepository
	metrics  *metrics.Collectors
	cacheTTL time.Duration
}

// NewSearchService creates a new search service with dependencies
func NewSearchService(
	carts *CartService,
	scrapers []domain.Scraper,
	cache domain.CacheRepository,
	m *metrics.Collectors,
	config SearchServiceConfig,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	return &SearchService{
		carts:    carts,
		scrapers: scrapers,
		cache:    cache,
		metrics:  m,
		cacheTTL: cacheTTL,
	}
}

// Search queries every platform concurrently for term and returns the cart item
// once all of them have reported. A failing platform is recorded as having no
// result; it does not fail the search.
func (s *SearchService) Search(ctx context.Context, cartID, term string) (*domain.CartItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ErrInvalidRequest
	}
	if _, err := s.carts.AddItem(ctx, cartID, term); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, scraper := range s.scrapers {
		scraper := scraper
		g.Go(func() error {
			products, err := s.fetch(gctx, scraper, term)
			if err != nil {
				s.metrics.IncScrapeFailure(string(scraper.Platform()))
				log.Warn().
					Err(err).
					Str("platform", string(scraper.Platform())).
					Str("term", term).
					Msg("platform search failed")
				products = nil
			}
			_, err = s.carts.RecordPlatformResults(gctx, cartID, term, scraper.Platform(), products)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item := cart.Item(term)
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// fetch returns the platform's raw candidates for term, from cache when fresh
func (s *SearchService) fetch(ctx context.Context, scraper domain.Scraper, term string) ([]domain.ScrapedProduct, error) {
	key := s.generateCacheKey(scraper.Platform(), term)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var products []domain.ScrapedProduct
			if err := decodeCached(cached, &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := scraper.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Platform = scraper.Platform()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, products, s.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("caching search results failed")
		}
	}
	return products, nil
}

// generateCacheKey creates a normalized cache key.
// Format: "search:{platform}:{normalized_term}"
func (s *SearchService) generateCacheKey(platform domain.PlatformID, term string) string {
	return fmt.Sprintf("search:%s:%s", normalizeName(string(platform)), normalizeName(term))
}

// decodeCached converts a cached value, which may be a generic JSON tree, into out
func decodeCached(value interface{}, out interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheMiss, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheMiss, err)
	}
	return nil
}
