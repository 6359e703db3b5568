package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jostincp/Encore-sub007/config"
	"github.com/jostincp/Encore-sub007/models"
)

// PricingFunc computes the points cost of a request for a lane choice. The
// engine treats it as an injected collaborator; the queue manager never
// decides prices itself.
type PricingFunc func(venueID string, lane models.Lane) (int64, error)

// Pricing converts configured per-lane currency prices into point costs.
// Currency amounts are decimals; the conversion rounds up so a fractional
// price never undercharges.
type Pricing struct {
	standard      decimal.Decimal
	priority      decimal.Decimal
	pointsPerUnit decimal.Decimal
}

func NewPricing(cfg *config.Config) (*Pricing, error) {
	standard, err := decimal.NewFromString(cfg.StandardPrice)
	if err != nil {
		return nil, fmt.Errorf("parse standard price: %w", err)
	}
	priority, err := decimal.NewFromString(cfg.PriorityPrice)
	if err != nil {
		return nil, fmt.Errorf("parse priority price: %w", err)
	}
	pointsPerUnit, err := decimal.NewFromString(cfg.PointsPerUnit)
	if err != nil {
		return nil, fmt.Errorf("parse points per unit: %w", err)
	}
	if standard.IsNegative() || priority.IsNegative() || !pointsPerUnit.IsPositive() {
		return nil, fmt.Errorf("prices must be non-negative and points per unit positive")
	}

	return &Pricing{
		standard:      standard,
		priority:      priority,
		pointsPerUnit: pointsPerUnit,
	}, nil
}

// Cost implements PricingFunc. Venue-specific price tables can replace this
// later; today every venue shares the configured lane prices.
func (p *Pricing) Cost(_ string, lane models.Lane) (int64, error) {
	var price decimal.Decimal
	switch lane {
	case models.LanePriority:
		price = p.priority
	case models.LaneStandard:
		price = p.standard
	default:
		return 0, fmt.Errorf("unknown lane %q", lane)
	}

	return price.Mul(p.pointsPerUnit).Ceil().IntPart(), nil
}
