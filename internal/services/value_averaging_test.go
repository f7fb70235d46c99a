package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

func investmentHolding(shares, nav float64) models.PortfolioFund {
	return models.PortfolioFund{
		FundCode:  "000001",
		FundName:  "Fondo de prueba",
		Shares:    shares,
		LatestNav: nav,
	}
}

func TestValueAveragingBuy(t *testing.T) {
	engine := NewValueAveragingEngine()

	// Valor base 10000, crecimiento objetivo del 2% en 30 días = 200.
	// El valor actual se quedó en la base, así que el aporte sugerido es 200.
	advice := engine.Evaluate(InvestmentInput{
		Holding: investmentHolding(10000, 1.0),
		Baseline: models.FundBaseline{
			BaseDate:     "2026-01-01",
			TargetDate:   "2026-01-31",
			SharesAtBase: 10000,
			NavAtBase:    1.0,
		},
		AvgMonthlyReturn: 0.02,
	})

	assert.Equal(t, models.InvestActionBuy, advice.InvestAction)
	assert.InDelta(t, 10000.0, advice.BaseValue, 1e-9)
	assert.InDelta(t, 200.0, advice.TargetGrowth, 1e-9)
	assert.InDelta(t, 10200.0, advice.TargetValue, 1e-9)
	assert.InDelta(t, 200.0, advice.SuggestedInvest, 1e-9)
	assert.Equal(t, 30, advice.DaysDiff)
}

func TestValueAveragingSell(t *testing.T) {
	engine := NewValueAveragingEngine()

	// El valor actual (10000 × 1.10 = 11000) supera el objetivo (10200):
	// el aporte sugerido es negativo y la acción es vender
	advice := engine.Evaluate(InvestmentInput{
		Holding: investmentHolding(10000, 1.10),
		Baseline: models.FundBaseline{
			BaseDate:     "2026-01-01",
			TargetDate:   "2026-01-31",
			SharesAtBase: 10000,
			NavAtBase:    1.0,
		},
		AvgMonthlyReturn: 0.02,
	})

	assert.Equal(t, models.InvestActionSell, advice.InvestAction)
	assert.InDelta(t, -800.0, advice.SuggestedInvest, 1e-6)
}

func TestValueAveragingHoldWithinTolerance(t *testing.T) {
	engine := NewValueAveragingEngine()

	// El valor actual coincide con el objetivo al céntimo: mantener
	advice := engine.Evaluate(InvestmentInput{
		Holding: investmentHolding(10200, 1.0),
		Baseline: models.FundBaseline{
			BaseDate:     "2026-01-01",
			TargetDate:   "2026-01-31",
			SharesAtBase: 10000,
			NavAtBase:    1.0,
		},
		AvgMonthlyReturn: 0.02,
	})

	assert.Equal(t, models.InvestActionHold, advice.InvestAction)
}

func TestValueAveragingBaselineFallback(t *testing.T) {
	engine := NewValueAveragingEngine()

	// Sin foto en la fecha base se usa la posición actual como línea base
	advice := engine.Evaluate(InvestmentInput{
		Holding: investmentHolding(5000, 1.20),
		Baseline: models.FundBaseline{
			BaseDate:   "2026-01-01",
			TargetDate: "2026-01-31",
		},
		AvgMonthlyReturn: 0.02,
	})

	assert.InDelta(t, 5000.0, advice.SharesAtBase, 1e-9)
	assert.InDelta(t, 1.20, advice.NavAtBase, 1e-9)
	assert.InDelta(t, 6000.0, advice.BaseValue, 1e-9)
	// Base igual al valor actual: el aporte es exactamente el crecimiento
	assert.InDelta(t, 120.0, advice.SuggestedInvest, 1e-6)
}

func TestValueAveragingOriginalHoldingProfit(t *testing.T) {
	engine := NewValueAveragingEngine()

	advice := engine.Evaluate(InvestmentInput{
		Holding: investmentHolding(12000, 1.10),
		Baseline: models.FundBaseline{
			BaseDate:     "2026-01-01",
			TargetDate:   "2026-01-31",
			SharesAtBase: 10000,
			NavAtBase:    1.0,
		},
		AvgMonthlyReturn: 0.02,
	})

	// La posición original son las participaciones de la base al valor actual
	assert.InDelta(t, 11000.0, advice.OriginalHoldingValue, 1e-9)
	assert.InDelta(t, 1000.0, advice.OriginalHoldingProfit, 1e-9)
}

func TestValueAveragingNoNav(t *testing.T) {
	engine := NewValueAveragingEngine()

	advice := engine.Evaluate(InvestmentInput{
		Holding: investmentHolding(10000, 0),
		Baseline: models.FundBaseline{
			BaseDate:   "2026-01-01",
			TargetDate: "2026-01-31",
		},
		AvgMonthlyReturn: 0.02,
	})

	assert.Equal(t, models.InvestActionHold, advice.InvestAction)
	assert.NotEmpty(t, advice.Error)
}

func TestEvaluatePortfolioAggregation(t *testing.T) {
	engine := NewValueAveragingEngine()

	baseline := models.FundBaseline{
		BaseDate:     "2026-01-01",
		TargetDate:   "2026-01-31",
		SharesAtBase: 10000,
		NavAtBase:    1.0,
	}

	advice, err := engine.EvaluatePortfolio("p1", "Cartera", models.InvestmentModeValueAveraging, []InvestmentInput{
		{Holding: investmentHolding(10000, 1.0), Baseline: baseline, AvgMonthlyReturn: 0.02},
		{Holding: investmentHolding(10000, 0), Baseline: baseline, AvgMonthlyReturn: 0.02},
	})

	require.NoError(t, err)
	require.Len(t, advice.Funds, 2)
	assert.Equal(t, 2, advice.Summary.TotalFunds)
	assert.Equal(t, 1, advice.Summary.ErrorCount)
	assert.InDelta(t, 10000.0, advice.Summary.TotalHoldingValue, 1e-9)
	assert.InDelta(t, 200.0, advice.Summary.TotalSuggestedInvest, 1e-9)
}

func TestEvaluatePortfolioRejectsDisabledMode(t *testing.T) {
	engine := NewValueAveragingEngine()

	_, err := engine.EvaluatePortfolio("p1", "Cartera", models.InvestmentModeFixedAmount, nil)
	assert.Error(t, err)

	_, err = engine.EvaluatePortfolio("p1", "Cartera", "desconocido", nil)
	assert.Error(t, err)
}
