package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/quickcart/backend/internal/domain"
)

// weightPattern matches a number followed by a unit token. The number may group
// thousands with commas. Longer spellings are listed before their prefixes so
// "kgs" never stops at "kg" and "gms" never at "g".
var weightPattern = regexp.MustCompile(
	`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(kilograms?|kgs?|grams?|gms?|mg|g|litres?|liters?|ltrs?|lt|ml|l|pieces?|pcs|pc|pack|dozen|dz)\b`,
)

// ParseWeight extracts the first quantity found in a product name.
// Only the first match is used, even if a later one is more specific.
// Returns nil when the name carries no recognisable quantity.
func ParseWeight(name string) *domain.ParsedWeight {
	m := weightPattern.FindStringSubmatch(name)
	if len(m) < 3 {
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}

	parsed := &domain.ParsedWeight{Raw: m[0], Value: value}

	switch unit := strings.ToLower(m[2]); unit {
	case "kg", "kgs", "kilogram", "kilograms":
		parsed.Unit = domain.UnitKilogram
		parsed.Grams = grams(value * 1000)
	case "g", "gm", "gms", "gram", "grams":
		parsed.Unit = domain.UnitGram
		parsed.Grams = grams(value)
	case "mg":
		parsed.Unit = domain.UnitGram
		parsed.Grams = grams(value / 1000)
	case "l", "lt", "ltr", "ltrs", "litre", "litres", "liter", "liters":
		// 1 ml is taken as 1 g
		parsed.Unit = domain.UnitLitre
		parsed.Grams = grams(value * 1000)
	case "ml":
		parsed.Unit = domain.UnitMillilitre
		parsed.Grams = grams(value)
	case "dozen", "dz":
		parsed.Unit = domain.UnitPieces
		parsed.Value = value * 12
	default:
		parsed.Unit = domain.UnitPieces
	}

	return parsed
}

func grams(v float64) *float64 {
	return &v
}
