package services

import (
	"fmt"
	"math"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/calculations"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

// Tolerancia sobre el aporte sugerido por debajo de la cual se mantiene
const investHoldTolerance = 0.01

// InvestmentInput reúne los datos necesarios para evaluar el aporte por valor
// de un fondo. El motor es puro: la carga de datos corre a cargo del llamador.
type InvestmentInput struct {
	Holding          models.PortfolioFund
	Baseline         models.FundBaseline
	AvgMonthlyReturn float64 // Fracción, por ejemplo 0.02 para un 2% mensual
}

// ValueAveragingEngine implementa el aporte por promediado de valor: la
// cartera debe crecer una cantidad objetivo por periodo y el aporte sugerido
// cubre la diferencia entre el valor objetivo y el valor real.
type ValueAveragingEngine struct{}

func NewValueAveragingEngine() *ValueAveragingEngine {
	return &ValueAveragingEngine{}
}

// Evaluate calcula la recomendación de aporte para un solo fondo
func (e *ValueAveragingEngine) Evaluate(in InvestmentInput) models.FundInvestmentAdvice {
	holding := in.Holding

	advice := models.FundInvestmentAdvice{
		FundCode:   holding.FundCode,
		FundName:   holding.FundName,
		BaseDate:   in.Baseline.BaseDate,
		TargetDate: in.Baseline.TargetDate,
	}

	if holding.LatestNav <= 0 {
		advice.InvestAction = models.InvestActionHold
		advice.Error = "no hay valor liquidativo disponible"
		return advice
	}

	sharesAtBase := in.Baseline.SharesAtBase
	navAtBase := in.Baseline.NavAtBase

	// Sin foto en la fecha base se usa la posición actual como línea base
	if sharesAtBase <= 0 {
		sharesAtBase = holding.Shares
	}
	if navAtBase <= 0 {
		navAtBase = holding.LatestNav
	}

	daysDiff := daysBetween(in.Baseline.BaseDate, in.Baseline.TargetDate)
	if daysDiff < 0 {
		advice.InvestAction = models.InvestActionHold
		advice.Error = "la fecha objetivo es anterior a la fecha base"
		return advice
	}

	baseValue := sharesAtBase * navAtBase
	actualValue := calculations.MarketValue(holding.Shares, holding.LatestNav)
	monthlyFactor := float64(daysDiff) / 30.0
	targetGrowth := baseValue * in.AvgMonthlyReturn * monthlyFactor
	targetValue := baseValue + targetGrowth
	suggested := targetValue - actualValue

	// Valor y beneficio de la posición original, solo informativos
	originalValue := sharesAtBase * holding.LatestNav
	originalProfit := originalValue - baseValue

	steps := []models.CalcStep{
		{
			Step: "linea_base",
			Values: map[string]float64{
				"shares_at_base": sharesAtBase,
				"nav_at_base":    navAtBase,
				"base_value":     baseValue,
				"days_diff":      float64(daysDiff),
			},
		},
		{
			Step: "objetivo",
			Values: map[string]float64{
				"avg_monthly_return": in.AvgMonthlyReturn,
				"monthly_factor":     monthlyFactor,
				"target_growth":      targetGrowth,
				"target_value":       targetValue,
			},
		},
		{
			Step: "aporte",
			Values: map[string]float64{
				"actual_value":     actualValue,
				"suggested_invest": suggested,
			},
		},
	}

	advice.DaysDiff = daysDiff
	advice.SharesAtBase = sharesAtBase
	advice.NavAtBase = navAtBase
	advice.BaseValue = baseValue
	advice.CurrentShares = holding.Shares
	advice.LatestNav = holding.LatestNav
	advice.ActualValue = actualValue
	advice.AvgMonthlyReturn = in.AvgMonthlyReturn
	advice.MonthlyFactor = monthlyFactor
	advice.TargetGrowth = targetGrowth
	advice.TargetValue = targetValue
	advice.SuggestedInvest = suggested
	advice.OriginalHoldingValue = originalValue
	advice.OriginalHoldingProfit = originalProfit
	advice.CalcSteps = steps

	switch {
	case suggested > investHoldTolerance:
		advice.InvestAction = models.InvestActionBuy
	case suggested < -investHoldTolerance:
		advice.InvestAction = models.InvestActionSell
	default:
		advice.InvestAction = models.InvestActionHold
	}

	return advice
}

// EvaluatePortfolio evalúa el aporte de todos los fondos del grupo
func (e *ValueAveragingEngine) EvaluatePortfolio(portfolioID, portfolioName, mode string, inputs []InvestmentInput) (models.InvestmentAdvice, error) {
	modeName, err := investmentModeName(mode)
	if err != nil {
		return models.InvestmentAdvice{}, err
	}

	advice := models.InvestmentAdvice{
		PortfolioID:   portfolioID,
		PortfolioName: portfolioName,
		Mode:          mode,
		ModeName:      modeName,
		Funds:         make([]models.FundInvestmentAdvice, 0, len(inputs)),
	}

	for _, in := range inputs {
		fund := e.Evaluate(in)
		advice.Funds = append(advice.Funds, fund)

		if advice.BaseDate == "" {
			advice.BaseDate = fund.BaseDate
			advice.TargetDate = fund.TargetDate
		}

		advice.Summary.TotalFunds++
		if fund.Error != "" {
			advice.Summary.ErrorCount++
			continue
		}
		advice.Summary.TotalHoldingValue += fund.ActualValue
		advice.Summary.TotalSuggestedInvest += fund.SuggestedInvest
	}

	return advice, nil
}

// InvestmentModes devuelve el catálogo de modos de aporte periódico
func InvestmentModes() []models.InvestmentMode {
	return []models.InvestmentMode{
		{
			ID:          models.InvestmentModeValueAveraging,
			Name:        "Promediado de valor",
			NameEn:      "Value Averaging",
			Description: "La cartera crece una cantidad objetivo por periodo y el aporte cubre la diferencia",
			Icon:        "show_chart",
			Enabled:     true,
		},
		{
			ID:          models.InvestmentModeFixedAmount,
			Name:        "Aporte fijo",
			NameEn:      "Fixed Amount",
			Description: "Aporta una cantidad fija en cada periodo",
			Icon:        "payments",
			Enabled:     false,
		},
		{
			ID:          models.InvestmentModeDynamicBalance,
			Name:        "Rebalanceo dinámico",
			NameEn:      "Dynamic Balance",
			Description: "Rebalancea entre renta variable y renta fija según la desviación",
			Icon:        "balance",
			Enabled:     false,
		},
	}
}

// investmentModeName valida el modo pedido y devuelve su nombre visible
func investmentModeName(mode string) (string, error) {
	for _, m := range InvestmentModes() {
		if m.ID == mode {
			if !m.Enabled {
				return "", fmt.Errorf("el modo de aporte %s todavía no está disponible", m.Name)
			}
			return m.Name, nil
		}
	}
	return "", fmt.Errorf("modo de aporte desconocido: %s", mode)
}

// daysBetween cuenta los días naturales entre dos fechas YYYY-MM-DD.
// Si alguna fecha no se puede interpretar devuelve 0.
func daysBetween(base, target string) int {
	baseDate, err := time.Parse("2006-01-02", base)
	if err != nil {
		return 0
	}
	targetDate, err := time.Parse("2006-01-02", target)
	if err != nil {
		return 0
	}
	return int(math.Round(targetDate.Sub(baseDate).Hours() / 24))
}
