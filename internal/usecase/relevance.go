package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for name normalisation and pack detection
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)

	// Matches bundle notations like "pack of 4", "combo", "set of 3", "2 x 500g"
	multiPackPattern = regexp.MustCompile(
		`(?i)\bpack\s*of\s*\d+|\bcombo\b|\bfamily\s+pack\b|\bvalue\s+pack\b|\bset\s+of\s*\d+|\bbundle\b|\b\d+\s*[x×]\s*\d+(?:\.\d+)?\s*(?:g|gm|gms|mg|ml|kg|kgs|l|ltr)\b`,
	)
)

// produceKeywords lists common fresh fruits and vegetables
var produceKeywords = []string{
	// Vegetables
	"tomato", "potato", "onion", "garlic", "ginger", "carrot", "cabbage",
	"cauliflower", "capsicum", "brinjal", "cucumber", "spinach", "palak",
	"beetroot", "radish", "okra", "bhindi", "lady finger", "bottle gourd",
	"bitter gourd", "pumpkin", "sweet potato", "broccoli", "lettuce",
	"mushroom", "green chilli", "coriander", "methi", "drumstick",
	"peas", "aloo", "pyaz", "lemon",
	// Fruits
	"apple", "banana", "orange", "mango", "grapes", "papaya", "pineapple",
	"watermelon", "muskmelon", "pomegranate", "guava", "kiwi", "pear",
	"strawberry", "chikoo", "sapota", "lychee", "plum", "peach", "avocado",
}

// SelectionPolicy holds the hand-tuned heuristics of the selector
type SelectionPolicy struct {
	ProduceKeywords  []string
	ProduceMinGrams  float64
	ProduceMaxGrams  float64
	MultiPackPattern *regexp.Regexp
}

// DefaultSelectionPolicy returns the built-in produce list, the 200-500 g window
// and the built-in bundle pattern
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		ProduceKeywords:  produceKeywords,
		ProduceMinGrams:  200,
		ProduceMaxGrams:  500,
		MultiPackPattern: multiPackPattern,
	}
}

// IsProduce reports whether the query names a fresh fruit or vegetable
func (p SelectionPolicy) IsProduce(query string) bool {
	q := normalizeName(query)
	if q == "" {
		return false
	}
	for _, keyword := range p.ProduceKeywords {
		if q == keyword || strings.Contains(q, keyword) {
			return true
		}
	}
	return false
}

// InProduceWindow reports whether grams is a typical single retail unit of produce
func (p SelectionPolicy) InProduceWindow(grams float64) bool {
	return grams >= p.ProduceMinGrams && grams <= p.ProduceMaxGrams
}

// IsProduce reports whether the query names produce, using the default policy
func IsProduce(query string) bool {
	return DefaultSelectionPolicy().IsProduce(query)
}

// IsMultiPack reports whether a product name matches the policy's bundle pattern
func (p SelectionPolicy) IsMultiPack(productName string) bool {
	pattern := p.MultiPackPattern
	if pattern == nil {
		pattern = multiPackPattern
	}
	return pattern.MatchString(productName)
}

// IsMultiPack reports whether a product name describes a bundle or multi-pack
func IsMultiPack(productName string) bool {
	return DefaultSelectionPolicy().IsMultiPack(productName)
}

// IsRelevantToQuery reports whether any query word, or its stem, appears
// anywhere in the product name. This is a substring test, not a word match.
// A query with no word longer than one character matches nothing.
func IsRelevantToQuery(query, productName string) bool {
	name := normalizeName(productName)
	q := normalizeName(query)

	words := queryWords(q)
	if len(words) == 0 {
		return false
	}

	for _, word := range words {
		if strings.Contains(name, word) {
			return true
		}
		if stem := stemWord(word); stem != "" && strings.Contains(name, stem) {
			return true
		}
	}
	return false
}

// normalizeName lowercases s and strips everything but letters, digits and spaces
func normalizeName(s string) string {
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// queryWords splits a normalized query into words longer than one character
func queryWords(q string) []string {
	var words []string
	for _, w := range strings.Fields(q) {
		if len(w) > 1 {
			words = append(words, w)
		}
	}
	return words
}

// stemWord applies a minimal plural stemmer
func stemWord(w string) string {
	switch {
	case strings.HasSuffix(w, "ies"):
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "oes"):
		return strings.TrimSuffix(w, "oes")
	case strings.HasSuffix(w, "es"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return strings.TrimSuffix(w, "s")
	}
	return w
}
