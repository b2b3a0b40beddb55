package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/quickcart/backend/internal/domain"
	"github.com/quickcart/backend/internal/infrastructure/metrics"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultExhaustiveLimit is the largest cart searched exhaustively
const DefaultExhaustiveLimit = 12

// MaxExhaustiveLimit caps the configurable exhaustive limit
const MaxExhaustiveLimit = 12

// cancelCheckInterval is the number of search nodes visited between context checks
const cancelCheckInterval = 4096

// costEpsilon absorbs float drift between sums taken in different orders
const costEpsilon = 1e-9

// Search modes reported in logs and metrics
const (
	modeExhaustive = "exhaustive"
	modeGreedy     = "greedy"
)

// OptimizerConfig holds configuration for the cart optimizer
type OptimizerConfig struct {
	ExhaustiveLimit    int
	EnableDebugLogging bool
}

// Optimizer assigns cart items to platforms to minimise the fee-inclusive total
type Optimizer struct {
	fees               *FeeModel
	exhaustiveLimit    int
	metrics            *metrics.Collectors
	enableDebugLogging bool
}

// OptimizationResult is the best assignment found for Items.
// BestAssignment is parallel to Items. An empty Items means nothing could be optimized.
type OptimizationResult struct {
	BestCost       float64
	BestAssignment []*domain.PlatformID
	Items          []*domain.CartItem
}

// AssignmentResult converts the result to its search-term keyed form
func (r OptimizationResult) AssignmentResult() domain.AssignmentResult {
	terms := make([]string, len(r.Items))
	for i, item := range r.Items {
		terms[i] = item.SearchTerm
	}
	return domain.AssignmentResult{
		BestCost:       r.BestCost,
		BestAssignment: r.BestAssignment,
		SearchTerms:    terms,
	}
}

// NewOptimizer creates an optimizer over the given fee model
func NewOptimizer(fees *FeeModel, m *metrics.Collectors, config OptimizerConfig) *Optimizer {
	limit := config.ExhaustiveLimit
	if limit <= 0 {
		limit = DefaultExhaustiveLimit
	}
	if limit > MaxExhaustiveLimit {
		limit = MaxExhaustiveLimit
	}
	return &Optimizer{
		fees:               fees,
		exhaustiveLimit:    limit,
		metrics:            m,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// RunOptimization finds the cheapest item-to-platform assignment.
// Carts up to the exhaustive limit are searched completely; larger carts use a
// greedy seed followed by local search, which stops at a local optimum.
// The search stops with ctx's error once ctx is done.
func (o *Optimizer) RunOptimization(ctx context.Context, items []*domain.CartItem, platforms []domain.PlatformID) (OptimizationResult, error) {
	if err := ctx.Err(); err != nil {
		return OptimizationResult{}, err
	}

	var validItems []*domain.CartItem
	for _, item := range items {
		for _, p := range platforms {
			if item.Available(p) {
				validItems = append(validItems, item)
				break
			}
		}
	}

	if len(validItems) == 0 {
		return OptimizationResult{
			BestCost:       0,
			BestAssignment: []*domain.PlatformID{},
			Items:          []*domain.CartItem{},
		}, nil
	}

	start := time.Now()
	table := newCostTable(o.fees, validItems, platforms)

	mode := modeExhaustive
	var assignment []int
	var cost float64
	var err error
	if len(validItems) <= o.exhaustiveLimit {
		assignment, cost, err = table.exhaustive(ctx)
	} else {
		mode = modeGreedy
		assignment, cost, err = table.greedy(ctx)
	}
	if err != nil {
		log.Warn().Err(err).Str("mode", mode).Int("items", len(validItems)).Msg("cart optimization stopped")
		return OptimizationResult{}, fmt.Errorf("optimizing cart: %w", err)
	}

	elapsed := time.Since(start)
	o.metrics.ObserveOptimization(mode, elapsed)
	if o.enableDebugLogging {
		log.Debug().
			Str("mode", mode).
			Int("items", len(validItems)).
			Int("platforms", len(platforms)).
			Float64("best_cost", cost).
			Dur("elapsed", elapsed).
			Msg("cart optimized")
	}

	return OptimizationResult{
		BestCost:       cost,
		BestAssignment: table.toPlatforms(assignment),
		Items:          validItems,
	}, nil
}

// AssignmentCost returns the fee-inclusive total of an assignment parallel to items
func (o *Optimizer) AssignmentCost(items []*domain.CartItem, assignment []*domain.PlatformID, platforms []domain.PlatformID) float64 {
	table := newCostTable(o.fees, items, platforms)
	return table.cost(table.toIndices(assignment))
}

// GenerateSuggestions explains how to move from the current assignment to the optimal one
func (o *Optimizer) GenerateSuggestions(
	items []*domain.CartItem,
	currentAssignment []*domain.PlatformID,
	optimalAssignment []*domain.PlatformID,
	platforms []domain.PlatformID,
) []domain.Suggestion {
	if len(optimalAssignment) == 0 {
		return []domain.Suggestion{{Type: domain.SuggestionInfo, Message: "No items to optimize."}}
	}

	table := newCostTable(o.fees, items, platforms)
	current := table.toIndices(currentAssignment)
	optimal := table.toIndices(optimalAssignment)
	currentCost := table.cost(current)
	optimalCost := table.cost(optimal)

	if optimalCost >= currentCost {
		return []domain.Suggestion{{Type: domain.SuggestionInfo, Message: "Your current selection is already optimal!"}}
	}

	savings := currentCost - optimalCost
	suggestions := []domain.Suggestion{{
		Type:    domain.SuggestionSummary,
		Message: fmt.Sprintf("You can save Rs. %s by reorganizing your cart.", formatMoney(savings)),
		Savings: roundMoney(savings),
	}}

	for i, item := range items {
		from, to := current[i], optimal[i]
		if from == to {
			continue
		}
		suggestions = append(suggestions, table.moveSuggestion(item, i, from, to))
	}

	subtotals := table.subtotals(optimal)
	for p, platform := range platforms {
		fees, ok := o.fees.Config(platform)
		if !ok {
			continue
		}
		subtotal := subtotals[p]
		if subtotal > 0 && fees.FreeDeliveryThreshold > 0 && subtotal < fees.FreeDeliveryThreshold {
			gap := fees.FreeDeliveryThreshold - subtotal
			suggestions = append(suggestions, domain.Suggestion{
				Type: domain.SuggestionThreshold,
				Message: fmt.Sprintf("Add Rs. %s more to %s to get free delivery (saves Rs. %s)",
					formatMoney(gap), platform, formatMoney(fees.DeliveryFee)),
				Platform:         platform,
				AmountNeeded:     roundMoney(gap),
				DeliveryFeeSaved: fees.DeliveryFee,
			})
		}
	}

	return suggestions
}

// costTable caches item prices per platform index for repeated cost evaluation
type costTable struct {
	fees      *FeeModel
	platforms []domain.PlatformID
	index     map[domain.PlatformID]int
	prices    [][]float64 // [item][platform], 0 when unavailable
	viable    [][]int     // available platform indices per item, in platform order
	cheapest  []float64   // lowest available price per item
	handling  []float64   // handling fee per platform, charged once a platform is used
	scratch   []float64
}

func newCostTable(fees *FeeModel, items []*domain.CartItem, platforms []domain.PlatformID) *costTable {
	t := &costTable{
		fees:      fees,
		platforms: platforms,
		index:     make(map[domain.PlatformID]int, len(platforms)),
		prices:    make([][]float64, len(items)),
		viable:    make([][]int, len(items)),
		cheapest:  make([]float64, len(items)),
		handling:  make([]float64, len(platforms)),
		scratch:   make([]float64, len(platforms)),
	}
	for p, platform := range platforms {
		if _, dup := t.index[platform]; !dup {
			t.index[platform] = p
		}
		if cfg, ok := fees.Config(platform); ok && cfg.HandlingFee > 0 {
			t.handling[p] = cfg.HandlingFee
		}
	}
	for i, item := range items {
		t.prices[i] = make([]float64, len(platforms))
		for p, platform := range platforms {
			if item.Available(platform) {
				price := item.Result(platform).Price
				t.prices[i][p] = price
				if len(t.viable[i]) == 0 || price < t.cheapest[i] {
					t.cheapest[i] = price
				}
				t.viable[i] = append(t.viable[i], p)
			}
		}
	}
	return t
}

// subtotals sums the assigned prices per platform, in item order
func (t *costTable) subtotals(assignment []int) []float64 {
	for p := range t.scratch {
		t.scratch[p] = 0
	}
	for i, p := range assignment {
		if p < 0 {
			continue
		}
		t.scratch[p] += t.prices[i][p]
	}
	return t.scratch
}

// cost is the sum of every used platform's fee-inclusive total
func (t *costTable) cost(assignment []int) float64 {
	total := 0.0
	for p, subtotal := range t.subtotals(assignment) {
		if subtotal > 0 {
			total += t.fees.CalculatePlatformCosts(t.platforms[p], subtotal).Total
		}
	}
	return total
}

// exhaustive finds the cheapest assignment of items to available platforms.
// It walks depth first from the last item, so complete assignments are met in
// mixed-radix order with item 0 as the least significant digit, and among
// equally cheap assignments the first one met wins. Subtrees whose lower bound
// cannot beat the best total so far are skipped; the greedy result seeds that
// bound.
func (t *costTable) exhaustive(ctx context.Context) ([]int, float64, error) {
	seed, seedCost, err := t.greedy(ctx)
	if err != nil {
		return nil, 0, err
	}

	n := len(t.viable)
	s := &boundSearch{
		ctx:        ctx,
		table:      t,
		assignment: make([]int, n),
		used:       make([]int, len(t.platforms)),
		remaining:  make([]float64, n+1),
		best:       seed,
		bestCost:   seedCost,
		seeded:     true,
	}
	for i := 0; i < n; i++ {
		s.remaining[i+1] = s.remaining[i] + t.cheapest[i]
	}

	if err := s.visit(n-1, 0); err != nil {
		return nil, 0, err
	}
	return s.best, t.cost(s.best), nil
}

// boundSearch is the state of one branch-and-bound walk
type boundSearch struct {
	ctx        context.Context
	table      *costTable
	assignment []int
	used       []int     // items currently assigned per platform
	remaining  []float64 // remaining[i] is the sum of the cheapest prices of items 0..i-1
	best       []int
	bestCost   float64
	seeded     bool // best is still the greedy seed
	nodes      int
}

// visit assigns item i and everything below it. partial is the subtotal of
// items above i plus the handling fee of every platform they use, which never
// exceeds their fee-inclusive total.
func (s *boundSearch) visit(i int, partial float64) error {
	s.nodes++
	if s.nodes%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return err
		}
	}

	if i < 0 {
		c := s.table.cost(s.assignment)
		if c < s.bestCost-costEpsilon || (s.seeded && c <= s.bestCost+costEpsilon) {
			s.bestCost = c
			copy(s.best, s.assignment)
			s.seeded = false
		}
		return nil
	}

	for _, p := range s.table.viable[i] {
		next := partial + s.table.prices[i][p]
		if s.used[p] == 0 {
			next += s.table.handling[p]
		}
		if s.prune(next + s.remaining[i]) {
			continue
		}

		s.assignment[i] = p
		s.used[p]++
		err := s.visit(i-1, next)
		s.used[p]--
		if err != nil {
			return err
		}
	}
	return nil
}

// prune reports whether a subtree with the given lower bound can be skipped.
// While the best is the seed, an equal total may still replace it.
func (s *boundSearch) prune(bound float64) bool {
	if s.seeded {
		return bound > s.bestCost+costEpsilon
	}
	return bound >= s.bestCost-costEpsilon
}

// greedy seeds each item on its cheapest platform, then applies single-item
// moves while they strictly lower the total. The result is a local optimum.
func (t *costTable) greedy(ctx context.Context) ([]int, float64, error) {
	assignment := make([]int, len(t.viable))
	for i, options := range t.viable {
		best := options[0]
		for _, p := range options[1:] {
			if t.prices[i][p] < t.prices[i][best] {
				best = p
			}
		}
		assignment[i] = best
	}

	current := t.cost(assignment)
	for improved := true; improved; {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		improved = false
		for i, options := range t.viable {
			for _, p := range options {
				if p == assignment[i] {
					continue
				}
				old := assignment[i]
				assignment[i] = p
				if c := t.cost(assignment); c < current {
					current = c
					improved = true
				} else {
					assignment[i] = old
				}
			}
		}
	}

	return assignment, current, nil
}

// toIndices maps platforms to indices; nil and unknown platforms become -1
func (t *costTable) toIndices(assignment []*domain.PlatformID) []int {
	indices := make([]int, len(t.prices))
	for i := range indices {
		indices[i] = -1
		if i >= len(assignment) || assignment[i] == nil {
			continue
		}
		if p, ok := t.index[*assignment[i]]; ok {
			indices[i] = p
		}
	}
	return indices
}

func (t *costTable) toPlatforms(assignment []int) []*domain.PlatformID {
	platforms := make([]*domain.PlatformID, len(assignment))
	for i, p := range assignment {
		if p >= 0 {
			platforms[i] = domain.PlatformPtr(t.platforms[p])
		}
	}
	return platforms
}

func (t *costTable) moveSuggestion(item *domain.CartItem, i, from, to int) domain.Suggestion {
	s := domain.Suggestion{
		Type:       domain.SuggestionMove,
		SearchTerm: item.SearchTerm,
	}
	if from >= 0 {
		s.From = domain.PlatformPtr(t.platforms[from])
		s.FromPrice = t.prices[i][from]
	}
	if to >= 0 {
		s.To = domain.PlatformPtr(t.platforms[to])
		s.ToPrice = t.prices[i][to]
	}
	s.PriceDiff = roundMoney(s.ToPrice - s.FromPrice)

	switch {
	case s.From == nil:
		s.Message = fmt.Sprintf("Add %q from %s (Rs. %s)", item.SearchTerm, *s.To, formatMoney(s.ToPrice))
	case s.To == nil:
		s.Message = fmt.Sprintf("Remove %q from %s (Rs. %s)", item.SearchTerm, *s.From, formatMoney(s.FromPrice))
	default:
		s.Message = fmt.Sprintf("Move %q from %s (Rs. %s) to %s (Rs. %s)",
			item.SearchTerm, *s.From, formatMoney(s.FromPrice), *s.To, formatMoney(s.ToPrice))
	}
	return s
}

// formatMoney renders an amount with two decimals
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// roundMoney rounds an amount to two decimals
func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
