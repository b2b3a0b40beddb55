package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/quickcart/backend/internal/domain"
	"github.com/quickcart/backend/internal/infrastructure/metrics"
	"github.com/rs/zerolog/log"
)

// aiReplyPattern captures the leading integer of an AI reply
var aiReplyPattern = regexp.MustCompile(`^\s*(\d+)`)

// SelectionConfig holds configuration for the selection service
type SelectionConfig struct {
	Policy             SelectionPolicy
	AITimeout          time.Duration
	EnableDebugLogging bool
}

// SelectionService reduces one platform's candidates to a single best match
type SelectionService struct {
	policy             SelectionPolicy
	generator          domain.TextGenerator
	aiTimeout          time.Duration
	metrics            *metrics.Collectors
	enableDebugLogging bool
}

// candidate is a scraped product with its parsed weight attached
type candidate struct {
	product domain.ScrapedProduct
	weight  *domain.ParsedWeight
}

// NewSelectionService creates a selection service. generator may be nil,
// in which case the AI fallback is skipped.
func NewSelectionService(generator domain.TextGenerator, m *metrics.Collectors, config SelectionConfig) *SelectionService {
	policy := config.Policy
	if len(policy.ProduceKeywords) == 0 {
		policy.ProduceKeywords = produceKeywords
	}
	if policy.ProduceMaxGrams <= 0 {
		policy.ProduceMinGrams = 200
		policy.ProduceMaxGrams = 500
	}
	if policy.MultiPackPattern == nil {
		policy.MultiPackPattern = multiPackPattern
	}

	timeout := config.AITimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SelectionService{
		policy:             policy,
		generator:          generator,
		aiTimeout:          timeout,
		metrics:            m,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// SelectBestProduct picks the best candidate for query from one platform's results.
// Returns nil only when products is empty. The result is a copy; products is not modified.
func (s *SelectionService) SelectBestProduct(
	ctx context.Context,
	query string,
	products []domain.ScrapedProduct,
) (*domain.ScrapedProduct, domain.SelectionOutcome) {
	if len(products) == 0 {
		s.metrics.IncSelection(string(domain.OutcomeNone))
		return nil, domain.OutcomeNone
	}
	if len(products) == 1 {
		pick := products[0]
		s.metrics.IncSelection(string(domain.OutcomeSingle))
		return &pick, domain.OutcomeSingle
	}

	candidates := make([]candidate, len(products))
	for i, p := range products {
		candidates[i] = candidate{product: p, weight: ParseWeight(p.Name)}
	}

	outcome := domain.OutcomeRelevant
	relevant := filterCandidates(candidates, func(c candidate) bool {
		return IsRelevantToQuery(query, c.product.Name)
	})
	if len(relevant) > 0 {
		candidates = relevant
	} else {
		outcome = domain.OutcomeFallback
		if pick := s.aiPick(ctx, query, products); pick != nil {
			s.metrics.IncSelection(string(domain.OutcomeAI))
			return pick, domain.OutcomeAI
		}
	}

	if singles := filterCandidates(candidates, func(c candidate) bool {
		return !s.policy.IsMultiPack(c.product.Name)
	}); len(singles) > 0 {
		candidates = singles
	}

	if s.policy.IsProduce(query) {
		if window := filterCandidates(candidates, func(c candidate) bool {
			return c.weight != nil && c.weight.Grams != nil && s.policy.InProduceWindow(*c.weight.Grams)
		}); len(window) > 0 {
			candidates = window
		}
	}

	best := cheapestCandidate(candidates)

	if s.enableDebugLogging {
		log.Debug().
			Str("query", query).
			Str("platform", string(best.Platform)).
			Str("pick", best.Name).
			Float64("price", best.Price).
			Str("outcome", string(outcome)).
			Int("candidates", len(products)).
			Msg("selected best product")
	}

	s.metrics.IncSelection(string(outcome))
	return &best, outcome
}

// cheapestCandidate returns the candidate with the lowest price per gram when any
// weight is known, otherwise the lowest absolute price. Earlier candidates win ties.
func cheapestCandidate(candidates []candidate) domain.ScrapedProduct {
	var weighed []candidate
	for _, c := range candidates {
		if c.weight != nil && c.weight.Grams != nil && *c.weight.Grams > 0 {
			weighed = append(weighed, c)
		}
	}

	if len(weighed) > 0 {
		best := weighed[0]
		bestRate := best.product.Price / *best.weight.Grams
		for _, c := range weighed[1:] {
			if rate := c.product.Price / *c.weight.Grams; rate < bestRate {
				best, bestRate = c, rate
			}
		}
		return best.product
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.product.Price < best.product.Price {
			best = c
		}
	}
	return best.product
}

func filterCandidates(candidates []candidate, keep func(candidate) bool) []candidate {
	var kept []candidate
	for _, c := range candidates {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// aiPick asks the text-generation service which candidate matches query.
// Every failure is treated as no pick; the call is never retried.
func (s *SelectionService) aiPick(ctx context.Context, query string, products []domain.ScrapedProduct) *domain.ScrapedProduct {
	if s.generator == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	reply, err := s.generator.GenerateText(ctx, BuildSelectionPrompt(query, products))
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("AI fallback failed, continuing without it")
		return nil
	}

	index, ok := parseSelectionReply(reply)
	if !ok || index < 1 || index > len(products) {
		if s.enableDebugLogging {
			log.Debug().Str("query", query).Str("reply", reply).Msg("AI fallback made no pick")
		}
		return nil
	}

	pick := products[index-1]
	return &pick
}

// BuildSelectionPrompt renders the numbered candidate list sent to the AI fallback
func BuildSelectionPrompt(query string, products []domain.ScrapedProduct) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A shopper searched a grocery site for %q.\n", query)
	b.WriteString("Which of these products is the best match for that search?\n\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s - Rs. %.2f\n", i+1, p.Name, p.Price)
	}
	b.WriteString("\nReply with ONLY the number of the best match, or 0 if none of them is relevant.")
	return b.String()
}

// parseSelectionReply reads the leading integer of the reply
func parseSelectionReply(reply string) (int, bool) {
	m := aiReplyPattern.FindStringSubmatch(reply)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
