package calculations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketValue(t *testing.T) {
	assert.Equal(t, 1250.0, MarketValue(1000, 1.25))
	assert.Equal(t, 0.0, MarketValue(0, 1.25))
	assert.Equal(t, 0.0, MarketValue(1000, 0))
	assert.Equal(t, 0.0, MarketValue(-5, 1.25))
}

func TestCostPrice(t *testing.T) {
	// Con beneficio positivo el coste queda por debajo del valor actual
	assert.InDelta(t, 1.0, CostPrice(1000, 1.25, 250), 1e-9)
	// Con pérdida el coste queda por encima
	assert.InDelta(t, 1.35, CostPrice(1000, 1.25, -100), 1e-9)
	assert.Equal(t, 0.0, CostPrice(0, 1.25, 250))
	assert.Equal(t, 0.0, CostPrice(1000, 0, 250))
}

func TestCostPriceTotalProfitRoundTrip(t *testing.T) {
	cases := []struct {
		shares, nav, profit float64
	}{
		{1000, 1.25, 250},
		{1500.5, 2.3847, -321.77},
		{10, 0.9, 0.05},
		{250000, 4.56, 12345.67},
	}

	for _, c := range cases {
		cost := CostPrice(c.shares, c.nav, c.profit)
		assert.InDelta(t, c.profit, TotalProfit(c.shares, c.nav, cost), 1e-6)
	}
}

func TestTotalProfit(t *testing.T) {
	assert.InDelta(t, 250.0, TotalProfit(1000, 1.25, 1.0), 1e-9)
	assert.Equal(t, 0.0, TotalProfit(1000, 1.25, 0))
	assert.Equal(t, 0.0, TotalProfit(0, 1.25, 1.0))
}

func TestProfitRate(t *testing.T) {
	// Misma cotización que coste: rentabilidad cero
	assert.Equal(t, 0.0, ProfitRate(1.0, 1.0))
	assert.InDelta(t, 25.0, ProfitRate(1.25, 1.0), 1e-9)
	assert.Less(t, ProfitRate(0.8, 1.0), 0.0)
	assert.Equal(t, 0.0, ProfitRate(0, 1.0))
	assert.Equal(t, 0.0, ProfitRate(1.25, 0))
}

func TestDilutedCost(t *testing.T) {
	assert.InDelta(t, 0.95, DilutedCost(700, 665), 1e-9)
}
