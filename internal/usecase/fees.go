package usecase

import (
	"github.com/quickcart/backend/internal/domain"
)

// FeeModel evaluates per-platform delivery and handling fees.
// It is the only place fee policy is applied.
type FeeModel struct {
	fees map[domain.PlatformID]domain.PlatformFeeConfig
}

// NewFeeModel creates a fee model from a static fee table.
// Platforms missing from the table are charged no fees.
func NewFeeModel(fees map[domain.PlatformID]domain.PlatformFeeConfig) *FeeModel {
	table := make(map[domain.PlatformID]domain.PlatformFeeConfig, len(fees))
	for platform, cfg := range fees {
		table[platform] = cfg
	}
	return &FeeModel{fees: table}
}

// Config returns the fee configuration of platform, if any
func (m *FeeModel) Config(platform domain.PlatformID) (domain.PlatformFeeConfig, bool) {
	cfg, ok := m.fees[platform]
	return cfg, ok
}

// CalculatePlatformCosts returns the fee breakdown for a subtotal on platform.
// An empty subtotal costs nothing. Only the delivery fee is waived above the
// free-delivery threshold; the handling fee always applies.
func (m *FeeModel) CalculatePlatformCosts(platform domain.PlatformID, itemSubtotal float64) domain.PlatformCosts {
	costs := domain.PlatformCosts{
		Platform: platform,
		Subtotal: itemSubtotal,
		Total:    itemSubtotal,
	}

	fees, ok := m.fees[platform]
	if !ok || itemSubtotal == 0 {
		return costs
	}

	if itemSubtotal < fees.FreeDeliveryThreshold {
		costs.DeliveryFee = fees.DeliveryFee
	}
	costs.HandlingFee = fees.HandlingFee
	costs.Total = itemSubtotal + costs.DeliveryFee + costs.HandlingFee

	return costs
}
