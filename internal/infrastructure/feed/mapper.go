package feed

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/quickcart/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// feedResponse is the product feed document a platform endpoint returns
type feedResponse struct {
	Products []feedProduct `json:"products"`
}

type feedProduct struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
	URL   string          `json:"url"`
	Image *string         `json:"image"`
}

var amountRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParseCurrency extracts the amount from a display price such as "₹1,299.50"
// or "Rs. 45". The second return value is false when no amount is present.
func ParseCurrency(s string) (float64, bool) {
	match := amountRegex.FindString(s)
	if match == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// parsePrice accepts a JSON number or a display string
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseCurrency(s)
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// MapToProducts converts feed entries into domain products for platform.
// Entries without a name or a readable price are dropped.
func MapToProducts(resp *feedResponse, platform domain.PlatformID) []domain.ScrapedProduct {
	products := make([]domain.ScrapedProduct, 0, len(resp.Products))
	for _, p := range resp.Products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		price, ok := parsePrice(p.Price)
		if !ok {
			continue
		}

		var image *string
		if p.Image != nil && *p.Image != "" {
			img := *p.Image
			image = &img
		}

		products = append(products, domain.ScrapedProduct{
			Name:     name,
			Price:    price,
			URL:      p.URL,
			Image:    image,
			Platform: platform,
		})
	}
	return products
}
