package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// A ttl <= 0 stores the value without expiry.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CartRepository persists cart state across sessions
type CartRepository interface {
	Get(ctx context.Context, id string) (*CartState, error)
	Save(ctx context.Context, cart *CartState) error
	Delete(ctx context.Context, id string) error
}

// Scraper fetches raw candidates for a query from one platform.
// An empty slice is a valid outcome.
type Scraper interface {
	Platform() PlatformID
	Search(ctx context.Context, query string) ([]ScrapedProduct, error)
}

// TextGenerator is an external text-generation service used as a selection tie-breaker
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
