package domain

// PlatformID identifies a retail platform (e.g., "BigBasket", "Amazon Fresh")
type PlatformID string

// ScrapedProduct is one candidate returned by a platform for a search query
type ScrapedProduct struct {
	Name     string     `json:"name" binding:"required"`
	Price    float64    `json:"price" binding:"gte=0"`
	URL      string     `json:"url"`
	Image    *string    `json:"image"`
	Platform PlatformID `json:"platform"`
}

// Unit is the canonical unit of a parsed weight
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLitre      Unit = "l"
	UnitMillilitre Unit = "ml"
	UnitPieces     Unit = "pcs"
)

// ParsedWeight is the quantity extracted from a product name.
// Grams is nil for count-based units.
type ParsedWeight struct {
	Raw   string   `json:"raw"`
	Value float64  `json:"value"`
	Unit  Unit     `json:"unit"`
	Grams *float64 `json:"grams"`
}

// SelectionOutcome records which stage of the selector produced the pick
type SelectionOutcome string

const (
	OutcomeNone     SelectionOutcome = "none"
	OutcomeSingle   SelectionOutcome = "single"
	OutcomeRelevant SelectionOutcome = "relevant"
	OutcomeAI       SelectionOutcome = "ai"
	OutcomeFallback SelectionOutcome = "fallback"
)
