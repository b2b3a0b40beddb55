package domain

import (
	"fmt"
	"strings"
	"time"
)

// NewCartState creates an empty cart with the given id
func NewCartState(id string) *CartState {
	return &CartState{
		ID:        id,
		Items:     []*CartItem{},
		UpdatedAt: time.Now(),
	}
}

// Item returns the item for term, or nil
func (c *CartState) Item(term string) *CartItem {
	term = strings.TrimSpace(term)
	for _, item := range c.Items {
		if item.SearchTerm == term {
			return item
		}
	}
	return nil
}

// AddItem appends an item for term if the cart does not have one yet.
// The second return value is false when the item already existed.
func (c *CartState) AddItem(term string) (*CartItem, bool) {
	term = strings.TrimSpace(term)
	if existing := c.Item(term); existing != nil {
		return existing, false
	}
	item := &CartItem{
		SearchTerm:      term,
		PlatformResults: make(map[PlatformID]*ScrapedProduct),
	}
	c.Items = append(c.Items, item)
	c.touch()
	return item, true
}

// RemoveItem deletes the item for term, keeping the order of the rest
func (c *CartState) RemoveItem(term string) bool {
	term = strings.TrimSpace(term)
	for i, item := range c.Items {
		if item.SearchTerm == term {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return true
		}
	}
	return false
}

// RecordResult stores platform's pick for term, creating the item on first report.
// A nil product records that the platform reported nothing usable.
func (c *CartState) RecordResult(term string, platform PlatformID, product *ScrapedProduct) *CartItem {
	item, _ := c.AddItem(term)
	if item.PlatformResults == nil {
		item.PlatformResults = make(map[PlatformID]*ScrapedProduct)
	}
	item.PlatformResults[platform] = product
	c.touch()
	return item
}

// Select sets the user's platform for term. A nil platform excludes the item.
func (c *CartState) Select(term string, platform *PlatformID) error {
	item := c.Item(term)
	if item == nil {
		return fmt.Errorf("%w: %q", ErrItemNotFound, term)
	}
	if platform != nil && !item.Available(*platform) {
		return fmt.Errorf("%w: %q on %s", ErrNoResult, term, *platform)
	}
	if platform == nil {
		item.SelectedPlatform = nil
	} else {
		p := *platform
		item.SelectedPlatform = &p
	}
	item.UserSelected = true
	c.touch()
	return nil
}

// NeedsDefault reports whether the item should take the cheapest platform:
// every platform has reported and the user has not chosen yet
func (i *CartItem) NeedsDefault(platforms []PlatformID) bool {
	return i.SelectedPlatform == nil && !i.UserSelected && i.ReportedAll(platforms)
}

// ReportedAll reports whether every platform has reported for the item
func (i *CartItem) ReportedAll(platforms []PlatformID) bool {
	for _, p := range platforms {
		if _, ok := i.PlatformResults[p]; !ok {
			return false
		}
	}
	return true
}

// CheapestPlatform returns the platform with the lowest price for the item.
// Earlier platforms win ties; nil when nothing is available.
func (i *CartItem) CheapestPlatform(platforms []PlatformID) *PlatformID {
	var best *PlatformID
	bestPrice := 0.0
	for _, p := range platforms {
		if !i.Available(p) {
			continue
		}
		price := i.PlatformResults[p].Price
		if best == nil || price < bestPrice {
			platform := p
			best = &platform
			bestPrice = price
		}
	}
	return best
}

// CurrentAssignment returns the selected platform of each item, parallel to items
func CurrentAssignment(items []*CartItem) []*PlatformID {
	assignment := make([]*PlatformID, len(items))
	for i, item := range items {
		assignment[i] = item.SelectedPlatform
	}
	return assignment
}

// Apply sets the selected platform of every listed item.
// Nothing is changed if any entry is invalid.
func (c *CartState) Apply(assignments []ItemAssignment) error {
	for _, a := range assignments {
		item := c.Item(a.SearchTerm)
		if item == nil {
			return fmt.Errorf("%w: %q", ErrItemNotFound, a.SearchTerm)
		}
		if a.Platform != nil && !item.Available(*a.Platform) {
			return fmt.Errorf("%w: %q on %s", ErrNoResult, a.SearchTerm, *a.Platform)
		}
	}
	for _, a := range assignments {
		item := c.Item(a.SearchTerm)
		item.UserSelected = true
		if a.Platform == nil {
			item.SelectedPlatform = nil
			continue
		}
		p := *a.Platform
		item.SelectedPlatform = &p
	}
	c.touch()
	return nil
}

func (c *CartState) touch() {
	c.UpdatedAt = time.Now()
}
