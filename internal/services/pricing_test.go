package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jostincp/Encore-sub007/config"
	"github.com/jostincp/Encore-sub007/models"
)

func pricingConfig(standard, priority, perUnit string) *config.Config {
	return &config.Config{
		StandardPrice: standard,
		PriorityPrice: priority,
		PointsPerUnit: perUnit,
	}
}

func TestPricing_Cost(t *testing.T) {
	tests := []struct {
		name     string
		standard string
		priority string
		perUnit  string
		lane     models.Lane
		want     int64
	}{
		{"standard whole", "1.00", "2.50", "10", models.LaneStandard, 10},
		{"priority whole", "1.00", "2.50", "10", models.LanePriority, 25},
		{"fractional rounds up", "0.99", "2.50", "10", models.LaneStandard, 10},
		{"sub point rounds up", "0.01", "2.50", "10", models.LaneStandard, 1},
		{"free lane", "0", "2.50", "10", models.LaneStandard, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pricing, err := NewPricing(pricingConfig(tt.standard, tt.priority, tt.perUnit))
			require.NoError(t, err)

			cost, err := pricing.Cost("venue-1", tt.lane)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cost)
		})
	}
}

func TestPricing_Cost_UnknownLane(t *testing.T) {
	pricing, err := NewPricing(pricingConfig("1.00", "2.50", "10"))
	require.NoError(t, err)

	_, err = pricing.Cost("venue-1", "vip")
	assert.Error(t, err)
}

func TestNewPricing_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"malformed standard", pricingConfig("abc", "2.50", "10")},
		{"malformed priority", pricingConfig("1.00", "", "10")},
		{"negative price", pricingConfig("-1.00", "2.50", "10")},
		{"zero points per unit", pricingConfig("1.00", "2.50", "0")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPricing(tt.cfg)
			assert.Error(t, err)
		})
	}
}
