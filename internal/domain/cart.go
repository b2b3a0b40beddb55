package domain

import "time"

// PlatformFeeConfig holds the static fee structure of one platform
type PlatformFeeConfig struct {
	FreeDeliveryThreshold float64 `json:"freeDeliveryThreshold" mapstructure:"free_delivery_threshold" validate:"gte=0"`
	DeliveryFee           float64 `json:"deliveryFee" mapstructure:"delivery_fee" validate:"gte=0"`
	HandlingFee           float64 `json:"handlingFee" mapstructure:"handling_fee" validate:"gte=0"`
}

// PlatformCosts is the fee breakdown for one platform's subtotal
type PlatformCosts struct {
	Platform    PlatformID `json:"platform,omitempty"`
	Subtotal    float64    `json:"subtotal"`
	DeliveryFee float64    `json:"deliveryFee"`
	HandlingFee float64    `json:"handlingFee"`
	Total       float64    `json:"total"`
}

// CartItem is one search term in the cart with the pick from each platform.
// A platform key mapped to nil means the platform reported no usable product.
type CartItem struct {
	SearchTerm       string                         `json:"searchTerm"`
	PlatformResults  map[PlatformID]*ScrapedProduct `json:"platformResults"`
	SelectedPlatform *PlatformID                    `json:"selectedPlatform"`
	// UserSelected is set once the user chose a platform or excluded the item
	UserSelected bool `json:"userSelected,omitempty"`
}

// Result returns the item's product on platform, or nil
func (i *CartItem) Result(platform PlatformID) *ScrapedProduct {
	if i == nil || i.PlatformResults == nil {
		return nil
	}
	return i.PlatformResults[platform]
}

// Available reports whether the item can be bought on platform
func (i *CartItem) Available(platform PlatformID) bool {
	r := i.Result(platform)
	return r != nil && r.Price > 0
}

// HasAnyResult reports whether at least one platform can sell the item
func (i *CartItem) HasAnyResult() bool {
	for platform := range i.PlatformResults {
		if i.Available(platform) {
			return true
		}
	}
	return false
}

// CartState is the ordered list of cart items. Order is insertion order.
type CartState struct {
	ID        string      `json:"id"`
	Items     []*CartItem `json:"items"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// AssignmentResult is the output of an optimization run.
// BestAssignment is parallel to SearchTerms; nil means no viable platform.
type AssignmentResult struct {
	BestCost       float64       `json:"bestCost"`
	BestAssignment []*PlatformID `json:"bestAssignment"`
	SearchTerms    []string      `json:"searchTerms"`
}

// ItemAssignment places one search term on one platform (nil excludes it)
type ItemAssignment struct {
	SearchTerm string      `json:"searchTerm" binding:"required"`
	Platform   *PlatformID `json:"platform"`
}

// SuggestionType enumerates the kinds of optimizer suggestions
type SuggestionType string

const (
	SuggestionInfo      SuggestionType = "info"
	SuggestionSummary   SuggestionType = "summary"
	SuggestionMove      SuggestionType = "move"
	SuggestionThreshold SuggestionType = "threshold"
)

// Suggestion is one actionable message for the user
type Suggestion struct {
	Type    SuggestionType `json:"type"`
	Message string         `json:"message"`

	// summary
	Savings float64 `json:"savings,omitempty"`

	// move
	SearchTerm string      `json:"searchTerm,omitempty"`
	From       *PlatformID `json:"from,omitempty"`
	To         *PlatformID `json:"to,omitempty"`
	FromPrice  float64     `json:"fromPrice,omitempty"`
	ToPrice    float64     `json:"toPrice,omitempty"`
	PriceDiff  float64     `json:"priceDiff,omitempty"`

	// threshold
	Platform         PlatformID `json:"platform,omitempty"`
	AmountNeeded     float64    `json:"amountNeeded,omitempty"`
	DeliveryFeeSaved float64    `json:"deliveryFeeSaved,omitempty"`
}

// OptimizationReport is what the UI receives when asking for optimization
type OptimizationReport struct {
	CurrentCost float64          `json:"currentCost"`
	BestCost    float64          `json:"bestCost"`
	Savings     float64          `json:"savings"`
	Assignment  []ItemAssignment `json:"assignment"`
	Suggestions []Suggestion     `json:"suggestions"`
}

// CartSummary is the fee breakdown of the user's current selection
type CartSummary struct {
	Platforms []PlatformCosts `json:"platforms"`
	Total     float64         `json:"total"`
}

// PlatformPtr returns a pointer to p, for literal assignments
func PlatformPtr(p PlatformID) *PlatformID {
	return &p
}
