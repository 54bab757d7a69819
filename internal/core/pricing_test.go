package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gwi.com/beauty-box/internal/store"
)

func TestComputePrices(t *testing.T) {
	products := []store.Product{{Price: 34}, {Price: 28}, {Price: 89}}

	tests := []struct {
		plan store.Plan
		box  float64
	}{
		{store.PlanMonthly, 135.9},
		{store.PlanQuarterly, 128.35},
		{store.PlanYearly, 120.8},
	}
	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			got := ComputePrices(products, tt.plan)
			assert.Equal(t, 151.0, got.RetailPrice)
			assert.Equal(t, tt.box, got.BoxPrice)
		})
	}

	assert.Zero(t, ComputePrices(nil, store.PlanMonthly).BoxPrice)
}

func TestNextDelivery(t *testing.T) {
	from := time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "March 3, 2025", NextDelivery(from, store.PlanMonthly))
	assert.Equal(t, "May 1, 2025", NextDelivery(from, store.PlanQuarterly))
	assert.Equal(t, "January 31, 2026", NextDelivery(from, store.PlanYearly))
}
