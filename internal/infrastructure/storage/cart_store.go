package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quickcart/backend/internal/domain"
)

// CartStore persists carts as JSON documents in a cache backend
type CartStore struct {
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewCartStore creates a cart store. Carts expire ttl after their last save;
// a ttl <= 0 keeps them forever.
func NewCartStore(cache domain.CacheRepository, ttl time.Duration) *CartStore {
	return &CartStore{cache: cache, ttl: ttl}
}

// Get loads a cart, returning domain.ErrCartNotFound when it does not exist
func (s *CartStore) Get(ctx context.Context, id string) (*domain.CartState, error) {
	value, err := s.cache.Get(ctx, cartKey(id))
	if errors.Is(err, domain.ErrCacheMiss) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCartNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart %s: %w", id, err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding cart %s: %w", id, err)
	}
	var cart domain.CartState
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decoding cart %s: %w", id, err)
	}
	if cart.Items == nil {
		cart.Items = []*domain.CartItem{}
	}
	for _, item := range cart.Items {
		if item.PlatformResults == nil {
			item.PlatformResults = make(map[domain.PlatformID]*domain.ScrapedProduct)
		}
	}
	return &cart, nil
}

// Save writes the cart, replacing any previous version
func (s *CartStore) Save(ctx context.Context, cart *domain.CartState) error {
	if cart == nil || cart.ID == "" {
		return domain.ErrInvalidRequest
	}
	return s.cache.Set(ctx, cartKey(cart.ID), cart, s.ttl)
}

// Delete removes the cart
func (s *CartStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, cartKey(id))
}

func cartKey(id string) string {
	return "cart:" + id
}
