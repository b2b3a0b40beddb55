package usecase

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/quickcart/backend/internal/domain"
	"github.com/quickcart/backend/internal/infrastructure/metrics"
)

const (
	platA domain.PlatformID = "A"
	platB domain.PlatformID = "B"
	platC domain.PlatformID = "C"
)

// cartItem builds an item priced on each listed platform. A price <= 0 records
// that the platform reported nothing.
func cartItem(term string, prices map[domain.PlatformID]float64) *domain.CartItem {
	item := &domain.CartItem{
		SearchTerm:      term,
		PlatformResults: make(map[domain.PlatformID]*domain.ScrapedProduct, len(prices)),
	}
	for p, price := range prices {
		if price <= 0 {
			item.PlatformResults[p] = nil
			continue
		}
		item.PlatformResults[p] = &domain.ScrapedProduct{Name: term, Price: price, Platform: p}
	}
	return item
}

func newTestOptimizer(fees map[domain.PlatformID]domain.PlatformFeeConfig, limit int) *Optimizer {
	return NewOptimizer(NewFeeModel(fees), nil, OptimizerConfig{ExhaustiveLimit: limit})
}

// bruteForce is an independent reference search over every assignment
func bruteForce(model *FeeModel, items []*domain.CartItem, platforms []domain.PlatformID) float64 {
	best := math.Inf(1)
	subtotals := make(map[domain.PlatformID]float64)

	var walk func(i int)
	walk = func(i int) {
		if i == len(items) {
			total := 0.0
			for p, s := range subtotals {
				if s > 0 {
					total += model.CalculatePlatformCosts(p, s).Total
				}
			}
			best = math.Min(best, total)
			return
		}
		for _, p := range platforms {
			if !items[i].Available(p) {
				continue
			}
			price := items[i].Result(p).Price
			subtotals[p] += price
			walk(i + 1)
			subtotals[p] -= price
		}
	}
	walk(0)
	return best
}

func mustOptimize(t *testing.T, o *Optimizer, items []*domain.CartItem, platforms []domain.PlatformID) OptimizationResult {
	t.Helper()
	result, err := o.RunOptimization(context.Background(), items, platforms)
	if err != nil {
		t.Fatalf("RunOptimization() error = %v", err)
	}
	return result
}

func platformsOf(assignment []*domain.PlatformID) []string {
	out := make([]string, len(assignment))
	for i, p := range assignment {
		if p == nil {
			out[i] = "<nil>"
			continue
		}
		out[i] = string(*p)
	}
	return out
}

func assertAssignment(t *testing.T, got []*domain.PlatformID, want ...domain.PlatformID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("assignment = %v, want %v", platformsOf(got), want)
	}
	for i := range want {
		if got[i] == nil || *got[i] != want[i] {
			t.Errorf("assignment = %v, want %v", platformsOf(got), want)
			return
		}
	}
}

func TestNewOptimizer(t *testing.T) {
	t.Run("uses default limit when zero", func(t *testing.T) {
		o := newTestOptimizer(nil, 0)
		if o.exhaustiveLimit != DefaultExhaustiveLimit {
			t.Errorf("exhaustiveLimit = %d, want %d", o.exhaustiveLimit, DefaultExhaustiveLimit)
		}
	})

	t.Run("keeps a custom limit", func(t *testing.T) {
		o := newTestOptimizer(nil, 5)
		if o.exhaustiveLimit != 5 {
			t.Errorf("exhaustiveLimit = %d, want 5", o.exhaustiveLimit)
		}
	})

	t.Run("caps the limit", func(t *testing.T) {
		o := newTestOptimizer(nil, 16)
		if o.exhaustiveLimit != MaxExhaustiveLimit {
			t.Errorf("exhaustiveLimit = %d, want %d", o.exhaustiveLimit, MaxExhaustiveLimit)
		}
	})
}

func TestRunOptimization(t *testing.T) {
	platforms := []domain.PlatformID{platA, platB}
	items := func() []*domain.CartItem {
		return []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 12}),
			cartItem("y", map[domain.PlatformID]float64{platA: 8, platB: 9}),
		}
	}

	t.Run("cheapest platform per item without fees", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{}, 0)

		result := mustOptimize(t, o, items(), platforms)
		if result.BestCost != 18 {
			t.Errorf("BestCost = %v, want 18", result.BestCost)
		}
		assertAssignment(t, result.BestAssignment, platA, platA)
	})

	t.Run("delivery fee moves everything to the fee-free platform", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{
			platA: {FreeDeliveryThreshold: 100, DeliveryFee: 10},
			platB: {},
		}, 0)

		result := mustOptimize(t, o, items(), platforms)
		if result.BestCost != 21 {
			t.Errorf("BestCost = %v, want 21", result.BestCost)
		}
		assertAssignment(t, result.BestAssignment, platB, platB)
	})

	t.Run("first assignment wins a tie", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{
			platA: {FreeDeliveryThreshold: 20, DeliveryFee: 10},
			platB: {FreeDeliveryThreshold: 20, DeliveryFee: 10},
		}, 0)

		result := mustOptimize(t, o, []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 9}),
			cartItem("y", map[domain.PlatformID]float64{platA: 11, platB: 12}),
		}, platforms)
		if result.BestCost != 21 {
			t.Errorf("BestCost = %v, want 21", result.BestCost)
		}
		assertAssignment(t, result.BestAssignment, platA, platA)
	})

	t.Run("items without any viable platform are left out", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{}, 0)

		result := mustOptimize(t, o, []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 12}),
			cartItem("ghost", map[domain.PlatformID]float64{platA: 0, platB: 0}),
			cartItem("y", map[domain.PlatformID]float64{platB: 9}),
		}, platforms)

		if len(result.Items) != 2 || result.Items[0].SearchTerm != "x" || result.Items[1].SearchTerm != "y" {
			t.Fatalf("Items = %v, want [x y]", result.AssignmentResult().SearchTerms)
		}
		assertAssignment(t, result.BestAssignment, platA, platB)
		if result.BestCost != 19 {
			t.Errorf("BestCost = %v, want 19", result.BestCost)
		}
	})

	t.Run("empty cart", func(t *testing.T) {
		o := newTestOptimizer(nil, 0)

		result := mustOptimize(t, o, nil, platforms)
		if result.BestCost != 0 {
			t.Errorf("BestCost = %v, want 0", result.BestCost)
		}
		if result.BestAssignment == nil || len(result.BestAssignment) != 0 {
			t.Errorf("BestAssignment = %v, want empty", result.BestAssignment)
		}
		if len(result.Items) != 0 {
			t.Errorf("Items = %v, want empty", result.Items)
		}
	})

	t.Run("assignment result is keyed by search term", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{}, 0)

		got := mustOptimize(t, o, items(), platforms).AssignmentResult()
		if len(got.SearchTerms) != 2 || got.SearchTerms[0] != "x" || got.SearchTerms[1] != "y" {
			t.Errorf("SearchTerms = %v, want [x y]", got.SearchTerms)
		}
		if got.BestCost != 18 {
			t.Errorf("BestCost = %v, want 18", got.BestCost)
		}
	})
}

func TestRunOptimization_MatchesBruteForce(t *testing.T) {
	platforms := []domain.PlatformID{platA, platB, platC}
	fees := map[domain.PlatformID]domain.PlatformFeeConfig{
		platA: {FreeDeliveryThreshold: 200, DeliveryFee: 25, HandlingFee: 5},
		platB: {FreeDeliveryThreshold: 120, DeliveryFee: 30},
		platC: {HandlingFee: 12},
	}
	model := NewFeeModel(fees)
	o := NewOptimizer(model, nil, OptimizerConfig{})
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		n := 1 + rng.Intn(8)
		items := make([]*domain.CartItem, n)
		for i := range items {
			prices := make(map[domain.PlatformID]float64)
			for _, p := range platforms {
				if rng.Intn(5) == 0 {
					prices[p] = 0
					continue
				}
				prices[p] = float64(10 + rng.Intn(90))
			}
			items[i] = cartItem(string(rune('a'+i)), prices)
		}

		result := mustOptimize(t, o, items, platforms)
		want := bruteForce(model, result.Items, platforms)
		if len(result.Items) == 0 {
			want = 0
		}
		if math.Abs(result.BestCost-want) > 1e-9 {
			t.Fatalf("round %d: BestCost = %v, want %v", round, result.BestCost, want)
		}
		if got := o.AssignmentCost(result.Items, result.BestAssignment, platforms); math.Abs(got-result.BestCost) > 1e-9 {
			t.Fatalf("round %d: AssignmentCost(best) = %v, want %v", round, got, result.BestCost)
		}
	}
}

func TestRunOptimization_TwelveItemsExhaustive(t *testing.T) {
	platforms := []domain.PlatformID{platA, platB, platC}
	fees := map[domain.PlatformID]domain.PlatformFeeConfig{
		platA: {FreeDeliveryThreshold: 300, DeliveryFee: 40},
		platB: {FreeDeliveryThreshold: 300, DeliveryFee: 40},
		platC: {FreeDeliveryThreshold: 300, DeliveryFee: 40},
	}

	// Each platform undercuts the others on four items, but only one
	// platform can reach the threshold: all twelve items on A cost 300.
	items := make([]*domain.CartItem, 12)
	for i := range items {
		prices := map[domain.PlatformID]float64{platA: 25, platB: 26, platC: 26}
		switch i % 3 {
		case 1:
			prices = map[domain.PlatformID]float64{platA: 25, platB: 24, platC: 27}
		case 2:
			prices = map[domain.PlatformID]float64{platA: 25, platB: 27, platC: 24}
		}
		items[i] = cartItem(string(rune('a'+i)), prices)
	}

	reg := prometheus.NewRegistry()
	o := NewOptimizer(NewFeeModel(fees), metrics.New(reg), OptimizerConfig{})

	result := mustOptimize(t, o, items, platforms)
	if result.BestCost != 300 {
		t.Errorf("BestCost = %v, want 300", result.BestCost)
	}
	for i, p := range result.BestAssignment {
		if p == nil || *p != platA {
			t.Fatalf("BestAssignment[%d] = %v, want A", i, platformsOf(result.BestAssignment))
		}
	}
	if got := counterValue(t, reg, "optimization_total", "mode", modeExhaustive); got != 1 {
		t.Errorf("exhaustive runs = %v, want 1", got)
	}
}

// defaultFeeTable mirrors the shipped platform fees
func defaultFeeTable() ([]domain.PlatformID, map[domain.PlatformID]domain.PlatformFeeConfig) {
	platforms := []domain.PlatformID{"BigBasket", "Amazon Fresh", "KPN Fresh", "Blinkit", "Zepto"}
	return platforms, map[domain.PlatformID]domain.PlatformFeeConfig{
		"BigBasket":    {FreeDeliveryThreshold: 600, DeliveryFee: 30, HandlingFee: 6},
		"Amazon Fresh": {FreeDeliveryThreshold: 600, DeliveryFee: 29},
		"KPN Fresh":    {FreeDeliveryThreshold: 299, DeliveryFee: 30, HandlingFee: 7},
	}
}

func randomCart(rng *rand.Rand, n int, platforms []domain.PlatformID) []*domain.CartItem {
	items := make([]*domain.CartItem, n)
	for i := range items {
		prices := make(map[domain.PlatformID]float64)
		for _, p := range platforms {
			prices[p] = float64(20 + rng.Intn(100))
		}
		items[i] = cartItem(string(rune('a'+i)), prices)
	}
	return items
}

func TestRunOptimization_FivePlatformsMatchesBruteForce(t *testing.T) {
	platforms, fees := defaultFeeTable()
	model := NewFeeModel(fees)
	o := NewOptimizer(model, nil, OptimizerConfig{})
	rng := rand.New(rand.NewSource(3))

	for round := 0; round < 3; round++ {
		items := randomCart(rng, 7, platforms)

		result := mustOptimize(t, o, items, platforms)
		if want := bruteForce(model, items, platforms); math.Abs(result.BestCost-want) > 1e-9 {
			t.Fatalf("round %d: BestCost = %v, want %v", round, result.BestCost, want)
		}
	}
}

func TestRunOptimization_FullCartFinishesQuickly(t *testing.T) {
	platforms, fees := defaultFeeTable()
	o := NewOptimizer(NewFeeModel(fees), nil, OptimizerConfig{})
	items := randomCart(rand.New(rand.NewSource(11)), DefaultExhaustiveLimit, platforms)

	start := time.Now()
	result := mustOptimize(t, o, items, platforms)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("RunOptimization() took %v for %d items on %d platforms", elapsed, len(items), len(platforms))
	}

	cheapest := make([]*domain.PlatformID, len(items))
	for i, item := range items {
		cheapest[i] = item.CheapestPlatform(platforms)
	}
	if seedCost := o.AssignmentCost(items, cheapest, platforms); result.BestCost > seedCost+1e-9 {
		t.Errorf("BestCost = %v, worse than buying each item at its cheapest %v", result.BestCost, seedCost)
	}
	if got := o.AssignmentCost(items, result.BestAssignment, platforms); math.Abs(got-result.BestCost) > 1e-9 {
		t.Errorf("AssignmentCost(best) = %v, want %v", got, result.BestCost)
	}
}

func TestRunOptimization_StopsWhenCancelled(t *testing.T) {
	platforms, fees := defaultFeeTable()
	items := randomCart(rand.New(rand.NewSource(5)), 6, platforms)

	tests := []struct {
		name  string
		limit int
	}{
		{"exhaustive", 0},
		{"greedy", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptimizer(NewFeeModel(fees), nil, OptimizerConfig{ExhaustiveLimit: tt.limit})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := o.RunOptimization(ctx, items, platforms)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("RunOptimization() error = %v, want context.Canceled", err)
			}
		})
	}
}

func TestBoundSearch_ChecksContextWhileSearching(t *testing.T) {
	platforms, fees := defaultFeeTable()
	items := randomCart(rand.New(rand.NewSource(9)), 10, platforms)
	table := newCostTable(NewFeeModel(fees), items, platforms)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &boundSearch{
		ctx:        ctx,
		table:      table,
		assignment: make([]int, len(items)),
		used:       make([]int, len(platforms)),
		remaining:  make([]float64, len(items)+1),
		best:       make([]int, len(items)),
		bestCost:   math.Inf(1),
	}

	if err := s.visit(len(items)-1, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("visit() error = %v, want context.Canceled", err)
	}
	if s.nodes != cancelCheckInterval {
		t.Errorf("visited %d nodes before stopping, want %d", s.nodes, cancelCheckInterval)
	}
}

func TestRunOptimization_GreedyAboveLimit(t *testing.T) {
	platforms := []domain.PlatformID{platA, platB, platC}
	fees := map[domain.PlatformID]domain.PlatformFeeConfig{
		platA: {FreeDeliveryThreshold: 500, DeliveryFee: 40, HandlingFee: 5},
		platB: {FreeDeliveryThreshold: 250, DeliveryFee: 25},
		platC: {HandlingFee: 9},
	}
	model := NewFeeModel(fees)
	reg := prometheus.NewRegistry()
	o := NewOptimizer(model, metrics.New(reg), OptimizerConfig{ExhaustiveLimit: 4})
	rng := rand.New(rand.NewSource(7))

	items := make([]*domain.CartItem, 20)
	for i := range items {
		prices := make(map[domain.PlatformID]float64)
		for _, p := range platforms {
			prices[p] = float64(20 + rng.Intn(80))
		}
		items[i] = cartItem(string(rune('a'+i)), prices)
	}

	result := mustOptimize(t, o, items, platforms)
	if len(result.BestAssignment) != len(items) {
		t.Fatalf("len(BestAssignment) = %d, want %d", len(result.BestAssignment), len(items))
	}
	if got := o.AssignmentCost(result.Items, result.BestAssignment, platforms); math.Abs(got-result.BestCost) > 1e-9 {
		t.Errorf("AssignmentCost(best) = %v, want %v", got, result.BestCost)
	}

	// No single-item move may improve a local optimum
	for i := range result.Items {
		original := result.BestAssignment[i]
		for _, p := range platforms {
			candidate := make([]*domain.PlatformID, len(result.BestAssignment))
			copy(candidate, result.BestAssignment)
			candidate[i] = domain.PlatformPtr(p)
			if c := o.AssignmentCost(result.Items, candidate, platforms); c < result.BestCost-1e-9 {
				t.Fatalf("moving item %d from %s to %s lowers cost to %v from %v", i, *original, p, c, result.BestCost)
			}
		}
	}

	// Never worse than buying every item at its cheapest price
	seed := make([]*domain.PlatformID, len(items))
	for i, item := range items {
		seed[i] = item.CheapestPlatform(platforms)
	}
	if seedCost := o.AssignmentCost(items, seed, platforms); result.BestCost > seedCost+1e-9 {
		t.Errorf("BestCost = %v, worse than the greedy seed %v", result.BestCost, seedCost)
	}

	if got := counterValue(t, reg, "optimization_total", "mode", modeGreedy); got != 1 {
		t.Errorf("greedy runs = %v, want 1", got)
	}
}

func TestAssignmentCost(t *testing.T) {
	o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{
		platA: {FreeDeliveryThreshold: 100, DeliveryFee: 10},
	}, 0)
	platforms := []domain.PlatformID{platA, platB}
	items := []*domain.CartItem{
		cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 12}),
		cartItem("y", map[domain.PlatformID]float64{platA: 8, platB: 9}),
	}

	tests := []struct {
		name       string
		assignment []*domain.PlatformID
		want       float64
	}{
		{"all on A", []*domain.PlatformID{domain.PlatformPtr(platA), domain.PlatformPtr(platA)}, 28},
		{"split", []*domain.PlatformID{domain.PlatformPtr(platA), domain.PlatformPtr(platB)}, 29},
		{"excluded item", []*domain.PlatformID{domain.PlatformPtr(platA), nil}, 20},
		{"nothing selected", []*domain.PlatformID{nil, nil}, 0},
		{"short assignment", []*domain.PlatformID{domain.PlatformPtr(platB)}, 12},
		{"unknown platform ignored", []*domain.PlatformID{domain.PlatformPtr("Z"), domain.PlatformPtr(platB)}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.AssignmentCost(items, tt.assignment, platforms); got != tt.want {
				t.Errorf("AssignmentCost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateSuggestions(t *testing.T) {
	platforms := []domain.PlatformID{platA, platB}
	ptr := domain.PlatformPtr

	t.Run("nothing to optimize", func(t *testing.T) {
		o := newTestOptimizer(nil, 0)

		got := o.GenerateSuggestions(nil, nil, []*domain.PlatformID{}, platforms)
		if len(got) != 1 || got[0].Type != domain.SuggestionInfo || got[0].Message != "No items to optimize." {
			t.Errorf("suggestions = %+v, want a single no-items info", got)
		}
	})

	t.Run("already optimal", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{}, 0)
		items := []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 12}),
		}
		assignment := []*domain.PlatformID{ptr(platA)}

		got := o.GenerateSuggestions(items, assignment, assignment, platforms)
		if len(got) != 1 || got[0].Type != domain.SuggestionInfo || got[0].Message != "Your current selection is already optimal!" {
			t.Errorf("suggestions = %+v, want a single already-optimal info", got)
		}
	})

	t.Run("summary and one move per changed item", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{
			platA: {FreeDeliveryThreshold: 100, DeliveryFee: 10},
		}, 0)
		items := []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 12}),
			cartItem("y", map[domain.PlatformID]float64{platA: 8, platB: 9}),
		}

		got := o.GenerateSuggestions(items,
			[]*domain.PlatformID{ptr(platA), ptr(platA)},
			[]*domain.PlatformID{ptr(platB), ptr(platB)},
			platforms)

		if len(got) != 3 {
			t.Fatalf("got %d suggestions, want 3: %+v", len(got), got)
		}
		if got[0].Type != domain.SuggestionSummary || got[0].Savings != 7 {
			t.Errorf("summary = %+v, want savings 7", got[0])
		}
		if got[0].Message != "You can save Rs. 7.00 by reorganizing your cart." {
			t.Errorf("summary message = %q", got[0].Message)
		}
		move := got[1]
		if move.Type != domain.SuggestionMove || move.SearchTerm != "x" {
			t.Fatalf("first move = %+v, want a move for x", move)
		}
		if *move.From != platA || *move.To != platB || move.FromPrice != 10 || move.ToPrice != 12 || move.PriceDiff != 2 {
			t.Errorf("move = %+v, want A (10) to B (12)", move)
		}
		if move.Message != `Move "x" from A (Rs. 10.00) to B (Rs. 12.00)` {
			t.Errorf("move message = %q", move.Message)
		}
		if got[2].SearchTerm != "y" {
			t.Errorf("second move is for %q, want y", got[2].SearchTerm)
		}
	})

	t.Run("threshold hint for a platform below free delivery", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{
			platA: {FreeDeliveryThreshold: 100, DeliveryFee: 10},
			platB: {FreeDeliveryThreshold: 50, DeliveryFee: 5},
		}, 0)
		items := []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platA: 10, platB: 12}),
			cartItem("y", map[domain.PlatformID]float64{platA: 8, platB: 9}),
		}

		got := o.GenerateSuggestions(items,
			[]*domain.PlatformID{ptr(platA), ptr(platB)},
			[]*domain.PlatformID{ptr(platB), ptr(platB)},
			platforms)

		if len(got) != 3 {
			t.Fatalf("got %d suggestions, want 3: %+v", len(got), got)
		}
		if got[0].Savings != 8 {
			t.Errorf("Savings = %v, want 8", got[0].Savings)
		}
		if got[1].Type != domain.SuggestionMove || got[1].SearchTerm != "x" {
			t.Errorf("second suggestion = %+v, want a move for x", got[1])
		}
		hint := got[2]
		if hint.Type != domain.SuggestionThreshold || hint.Platform != platB {
			t.Fatalf("third suggestion = %+v, want a threshold hint for B", hint)
		}
		if hint.AmountNeeded != 29 || hint.DeliveryFeeSaved != 5 {
			t.Errorf("hint = %+v, want 29 needed saving 5", hint)
		}
		if hint.Message != "Add Rs. 29.00 more to B to get free delivery (saves Rs. 5.00)" {
			t.Errorf("hint message = %q", hint.Message)
		}
	})

	t.Run("add and remove moves", func(t *testing.T) {
		o := newTestOptimizer(map[domain.PlatformID]domain.PlatformFeeConfig{
			platA: {FreeDeliveryThreshold: 100, DeliveryFee: 10},
		}, 0)
		items := []*domain.CartItem{
			cartItem("x", map[domain.PlatformID]float64{platB: 12}),
			cartItem("y", map[domain.PlatformID]float64{platA: 50, platB: 9}),
		}

		got := o.GenerateSuggestions(items,
			[]*domain.PlatformID{nil, ptr(platA)},
			[]*domain.PlatformID{ptr(platB), ptr(platB)},
			platforms)
		if len(got) != 3 {
			t.Fatalf("got %d suggestions, want 3: %+v", len(got), got)
		}
		if got[1].Message != `Add "x" from B (Rs. 12.00)` || got[1].From != nil {
			t.Errorf("add = %+v", got[1])
		}
		if got[2].Message != `Move "y" from A (Rs. 50.00) to B (Rs. 9.00)` || got[2].PriceDiff != -41 {
			t.Errorf("move = %+v", got[2])
		}

		removed := o.GenerateSuggestions(items,
			[]*domain.PlatformID{ptr(platB), ptr(platA)},
			[]*domain.PlatformID{ptr(platB), nil},
			platforms)
		if len(removed) != 2 || removed[1].Message != `Remove "y" from A (Rs. 50.00)` || removed[1].To != nil {
			t.Errorf("suggestions = %+v, want summary and a removal of y", removed)
		}
	})
}

// counterValue reads one labelled counter from a registry
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label && l.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
