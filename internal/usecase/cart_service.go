package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/quickcart/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// CartServiceConfig holds configuration for the cart service
type CartServiceConfig struct {
	// Platforms is the ordered list of platforms expected to report for every item
	Platforms []domain.PlatformID
}

// CartService owns cart sessions. Every mutation of a cart runs
// load -> mutate -> save under that cart's lock.
type CartService struct {
	repo      domain.CartRepository
	selector  *SelectionService
	fees      *FeeModel
	optimizer *Optimizer
	platforms []domain.PlatformID
	known     map[domain.PlatformID]bool
	locks     *keyedMutex
}

// NewCartService creates a new cart service with dependencies
func NewCartService(
	repo domain.CartRepository,
	selector *SelectionService,
	fees *FeeModel,
	optimizer *Optimizer,
	config CartServiceConfig,
) *CartService {
	known := make(map[domain.PlatformID]bool, len(config.Platforms))
	for _, p := range config.Platforms {
		known[p] = true
	}
	return &CartService{
		repo:      repo,
		selector:  selector,
		fees:      fees,
		optimizer: optimizer,
		platforms: config.Platforms,
		known:     known,
		locks:     newKeyedMutex(),
	}
}

// Platforms returns the configured platforms in display order
func (s *CartService) Platforms() []domain.PlatformID {
	return s.platforms
}

// Fees returns the fee model used to price carts
func (s *CartService) Fees() *FeeModel {
	return s.fees
}

// CreateCart starts a new empty cart
func (s *CartService) CreateCart(ctx context.Context) (*domain.CartState, error) {
	cart := domain.NewCartState(uuid.NewString())
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return cart, nil
}

// GetCart loads a cart by id
func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.CartState, error) {
	if cartID == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.repo.Get(ctx, cartID)
}

// AddItem adds an empty item for a search term. Adding an existing term is a no-op.
func (s *CartService) AddItem(ctx context.Context, cartID, term string) (*domain.CartItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ErrInvalidRequest
	}

	var item *domain.CartItem
	_, err := s.mutate(ctx, cartID, func(cart *domain.CartState) error {
		item, _ = cart.AddItem(term)
		return nil
	})
	return item, err
}

// RecordPlatformResults selects the best of one platform's candidates and
// records it for the term. Once every platform has reported, an item with no
// selection defaults to its cheapest platform.
func (s *CartService) RecordPlatformResults(
	ctx context.Context,
	cartID, term string,
	platform domain.PlatformID,
	candidates []domain.ScrapedProduct,
) (*domain.CartItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ErrInvalidRequest
	}
	if !s.known[platform] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, platform)
	}

	// Selection may call out to the AI fallback, so it runs outside the cart lock.
	pick, outcome := s.selector.SelectBestProduct(ctx, term, candidates)
	if pick != nil {
		pick.Platform = platform
	}

	var item *domain.CartItem
	_, err := s.mutate(ctx, cartID, func(cart *domain.CartState) error {
		existing := cart.Item(term)
		wasComplete := existing != nil && existing.ReportedAll(s.platforms)

		item = cart.RecordResult(term, platform, pick)
		if !wasComplete && item.NeedsDefault(s.platforms) {
			item.SelectedPlatform = item.CheapestPlatform(s.platforms)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("cart_id", cartID).
		Str("term", term).
		Str("platform", string(platform)).
		Str("outcome", string(outcome)).
		Msg("platform results recorded")

	return item, nil
}

// SelectPlatform overrides the platform chosen for a term; nil excludes the item
func (s *CartService) SelectPlatform(ctx context.Context, cartID, term string, platform *domain.PlatformID) (*domain.CartItem, error) {
	if platform != nil && !s.known[*platform] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, *platform)
	}

	var item *domain.CartItem
	_, err := s.mutate(ctx, cartID, func(cart *domain.CartState) error {
		if err := cart.Select(term, platform); err != nil {
			return err
		}
		item = cart.Item(term)
		return nil
	})
	return item, err
}

// RemoveItem deletes a term from the cart
func (s *CartService) RemoveItem(ctx context.Context, cartID, term string) (*domain.CartState, error) {
	return s.mutate(ctx, cartID, func(cart *domain.CartState) error {
		if !cart.RemoveItem(term) {
			return fmt.Errorf("%w: %q", domain.ErrItemNotFound, term)
		}
		return nil
	})
}

// Summary prices the user's current selection on every platform
func (s *CartService) Summary(ctx context.Context, cartID string) (*domain.CartSummary, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	subtotals := make(map[domain.PlatformID]float64, len(s.platforms))
	for _, item := range cart.Items {
		if item.SelectedPlatform == nil || !item.Available(*item.SelectedPlatform) {
			continue
		}
		subtotals[*item.SelectedPlatform] += item.Result(*item.SelectedPlatform).Price
	}

	summary := &domain.CartSummary{Platforms: make([]domain.PlatformCosts, 0, len(s.platforms))}
	for _, p := range s.platforms {
		costs := s.fees.CalculatePlatformCosts(p, subtotals[p])
		summary.Platforms = append(summary.Platforms, costs)
		summary.Total += costs.Total
	}
	return summary, nil
}

// Optimize computes the cheapest assignment and the suggestions to reach it.
// The cart is not changed; use ApplyAssignment to accept the result.
func (s *CartService) Optimize(ctx context.Context, cartID string) (*domain.OptimizationReport, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	result, err := s.optimizer.RunOptimization(ctx, cart.Items, s.platforms)
	if err != nil {
		return nil, err
	}
	current := domain.CurrentAssignment(result.Items)
	currentCost := s.optimizer.AssignmentCost(result.Items, current, s.platforms)

	report := &domain.OptimizationReport{
		CurrentCost: roundMoney(currentCost),
		BestCost:    roundMoney(result.BestCost),
		Assignment:  make([]domain.ItemAssignment, len(result.Items)),
		Suggestions: s.optimizer.GenerateSuggestions(result.Items, current, result.BestAssignment, s.platforms),
	}
	if currentCost > result.BestCost {
		report.Savings = roundMoney(currentCost - result.BestCost)
	}
	for i, item := range result.Items {
		report.Assignment[i] = domain.ItemAssignment{
			SearchTerm: item.SearchTerm,
			Platform:   result.BestAssignment[i],
		}
	}
	return report, nil
}

// ApplyAssignment writes an accepted assignment back into the cart's selections
func (s *CartService) ApplyAssignment(ctx context.Context, cartID string, assignments []domain.ItemAssignment) (*domain.CartState, error) {
	for _, a := range assignments {
		if a.Platform != nil && !s.known[*a.Platform] {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, *a.Platform)
		}
	}
	return s.mutate(ctx, cartID, func(cart *domain.CartState) error {
		return cart.Apply(assignments)
	})
}

// mutate serializes a load-modify-save cycle on one cart
func (s *CartService) mutate(ctx context.Context, cartID string, fn func(*domain.CartState) error) (*domain.CartState, error) {
	if cartID == "" {
		return nil, domain.ErrInvalidRequest
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("saving cart: %w", err)
	}
	return cart, nil
}

// keyedMutex hands out one mutex per key. An entry lives only while some
// caller holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock locks key and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size returns the number of live entries
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
