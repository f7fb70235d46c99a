package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

func defaultEffectiveParams() models.EffectiveParams {
	return models.EffectiveParams{
		TakeProfitParams: models.DefaultTakeProfitParams(),
		ParamSource:      models.ParamSourceDefault,
	}
}

func holding(shares, buyNav, nav, dilutedCost float64) models.PortfolioFund {
	return models.PortfolioFund{
		FundCode:    "000001",
		FundName:    "Fondo de prueba",
		Shares:      shares,
		BuyNav:      buyNav,
		DilutedCost: dilutedCost,
		LatestNav:   nav,
	}
}

func sellTx(id string, nav, shares float64, recovered bool, daysAgo int) models.FundTransaction {
	return models.FundTransaction{
		ID:          id,
		FundCode:    "000001",
		Type:        models.TransactionTypeSell,
		Date:        time.Now().AddDate(0, 0, -daysAgo),
		Shares:      shares,
		Amount:      shares * nav,
		Nav:         nav,
		IsRecovered: recovered,
	}
}

func TestEvaluateFirstSell(t *testing.T) {
	engine := NewTakeProfitEngine()

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(1000, 1.0, 1.25, 1.0),
		Params:  defaultEffectiveParams(),
	})

	assert.Equal(t, models.ActionSell, result.Action)
	require.NotNil(t, result.SellShares)
	require.NotNil(t, result.SellAmount)
	// Rentabilidad 25% >= 20%: vende el 30% de 1000 participaciones a 1.25
	assert.InDelta(t, 300.0, *result.SellShares, 1e-9)
	assert.InDelta(t, 375.0, *result.SellAmount, 1e-9)
	assert.InDelta(t, 0.25, result.CurrentProfitRate, 1e-9)
}

func TestEvaluateHoldBelowThreshold(t *testing.T) {
	engine := NewTakeProfitEngine()

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(1000, 1.0, 1.10, 1.0),
		Params:  defaultEffectiveParams(),
	})

	assert.Equal(t, models.ActionHold, result.Action)
	assert.Nil(t, result.SellShares)
}

func TestEvaluateFollowUpSell(t *testing.T) {
	engine := NewTakeProfitEngine()

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(700, 1.0, 1.30, 0.9),
		SellTransactions: []models.FundTransaction{
			sellTx("s1", 1.22, 300, false, 10),
		},
		Params: defaultEffectiveParams(),
	})

	// Subida desde 1.22 hasta 1.30 = 6.56% >= escalón del 5%
	assert.Equal(t, models.ActionSell, result.Action)
	require.NotNil(t, result.SellShares)
	assert.InDelta(t, 140.0, *result.SellShares, 1e-9) // 20% de 700
}

func TestEvaluateFollowUpHold(t *testing.T) {
	engine := NewTakeProfitEngine()

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(700, 1.0, 1.25, 0.9),
		SellTransactions: []models.FundTransaction{
			sellTx("s1", 1.22, 300, false, 10),
		},
		Params: defaultEffectiveParams(),
	})

	// Subida desde 1.22 hasta 1.25 = 2.46% < escalón del 5%
	assert.Equal(t, models.ActionHold, result.Action)
}

func TestEvaluateStopCostControl(t *testing.T) {
	engine := NewTakeProfitEngine()

	params := defaultEffectiveParams()
	params.TargetDilutedCost = 1.10

	// Coste diluido igual al objetivo: detiene la recogida aunque la
	// rentabilidad supere el umbral
	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(1000, 1.0, 1.50, 1.10),
		Params:  params,
	})

	assert.Equal(t, models.ActionStop, result.Action)
	assert.Nil(t, result.SellShares)
}

func TestEvaluateStopDisabled(t *testing.T) {
	engine := NewTakeProfitEngine()

	params := defaultEffectiveParams()
	params.TargetDilutedCost = 1.10
	params.EnableCostControl = false

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(1000, 1.0, 1.50, 1.10),
		Params:  params,
	})

	assert.Equal(t, models.ActionSell, result.Action)
}

func TestEvaluateBuyBack(t *testing.T) {
	engine := NewTakeProfitEngine()

	params := defaultEffectiveParams()
	params.EnableBuyBack = true

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(700, 1.0, 1.55, 0.9),
		SellTransactions: []models.FundTransaction{
			sellTx("s1", 2.00, 300, false, 10),
		},
		AvailableCash: 600,
		Params:        params,
	})

	// Caída desde 2.00 hasta 1.55 = 22.5% >= umbral del 20%
	assert.Equal(t, models.ActionBuy, result.Action)
	require.NotNil(t, result.BuyBackShares)
	require.NotNil(t, result.BuyBackAmount)
	assert.InDelta(t, 300.0, *result.BuyBackShares, 1e-9)
	assert.InDelta(t, 465.0, *result.BuyBackAmount, 1e-9)
	assert.Equal(t, "s1", result.TargetTransactionID)
	require.NotNil(t, result.DeclineRate)
	assert.InDelta(t, 0.225, *result.DeclineRate, 1e-9)
}

func TestEvaluateBuyBackTargetsOldestUnrecovered(t *testing.T) {
	engine := NewTakeProfitEngine()

	params := defaultEffectiveParams()
	params.EnableBuyBack = true

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(500, 1.0, 1.40, 0.9),
		SellTransactions: []models.FundTransaction{
			sellTx("s3", 1.90, 100, false, 5),
			sellTx("s2", 1.85, 150, true, 20),
			sellTx("s1", 1.80, 200, false, 40),
		},
		AvailableCash: 1000,
		Params:        params,
	})

	// La venta objetivo es la más antigua sin recuperar, no la última
	assert.Equal(t, models.ActionBuy, result.Action)
	assert.Equal(t, "s1", result.TargetTransactionID)
	require.NotNil(t, result.BuyBackShares)
	assert.InDelta(t, 200.0, *result.BuyBackShares, 1e-9)
	assert.Equal(t, 2, result.UnrecoveredSellsCount)
}

func TestEvaluateBuyBackInsufficientCash(t *testing.T) {
	engine := NewTakeProfitEngine()

	params := defaultEffectiveParams()
	params.EnableBuyBack = true

	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(700, 1.0, 1.55, 0.9),
		SellTransactions: []models.FundTransaction{
			sellTx("s1", 2.00, 300, false, 10),
		},
		AvailableCash: 100, // La recompra necesita 465
		Params:        params,
	})

	assert.Equal(t, models.ActionHold, result.Action)
	assert.Nil(t, result.BuyBackShares)
	assert.Contains(t, result.Reason, "efectivo")
}

func TestEvaluateBuyBackBeforeStop(t *testing.T) {
	engine := NewTakeProfitEngine()

	params := defaultEffectiveParams()
	params.EnableBuyBack = true
	params.TargetDilutedCost = 1.10

	// Con recompra y control de coste activos a la vez, la recompra gana
	result := engine.Evaluate(TakeProfitInput{
		Holding: holding(700, 1.0, 1.55, 1.05),
		SellTransactions: []models.FundTransaction{
			sellTx("s1", 2.00, 300, false, 10),
		},
		AvailableCash: 600,
		Params:        params,
	})

	assert.Equal(t, models.ActionBuy, result.Action)
}

func TestEvaluateErrorDoesNotAbort(t *testing.T) {
	engine := NewTakeProfitEngine()

	advice := engine.EvaluatePortfolio("p1", []TakeProfitInput{
		{Holding: holding(1000, 1.0, 0, 1.0), Params: defaultEffectiveParams()},
		{Holding: holding(1000, 1.0, 1.25, 1.0), Params: defaultEffectiveParams()},
	})

	require.Len(t, advice.Funds, 2)
	assert.Equal(t, models.ActionError, advice.Funds[0].Action)
	assert.Equal(t, models.ActionSell, advice.Funds[1].Action)
	assert.Equal(t, 1, advice.Summary.ErrorCount)
	assert.Equal(t, 1, advice.Summary.NeedActionCount)
}

func TestEvaluatePortfolioSummary(t *testing.T) {
	engine := NewTakeProfitEngine()

	buyBackParams := defaultEffectiveParams()
	buyBackParams.EnableBuyBack = true

	advice := engine.EvaluatePortfolio("p1", []TakeProfitInput{
		{Holding: holding(1000, 1.0, 1.25, 1.0), Params: defaultEffectiveParams()},
		{Holding: holding(1000, 1.0, 1.10, 1.0), Params: defaultEffectiveParams()},
		{
			Holding: holding(700, 1.0, 1.55, 0.9),
			SellTransactions: []models.FundTransaction{
				sellTx("s1", 2.00, 300, false, 10),
			},
			AvailableCash: 600,
			Params:        buyBackParams,
		},
	})

	assert.Equal(t, 3, advice.Summary.TotalFunds)
	assert.Equal(t, 1, advice.Summary.NeedActionCount)
	assert.Equal(t, 1, advice.Summary.HoldCount)
	assert.Equal(t, 1, advice.Summary.BuyBackCount)
	assert.InDelta(t, 375.0, advice.Summary.TotalSellAmount, 1e-9)
	assert.InDelta(t, 465.0, advice.Summary.TotalBuyBackAmount, 1e-9)
}
