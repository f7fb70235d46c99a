package services

import (
	"fmt"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/calculations"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

// TakeProfitInput reúne todos los datos necesarios para evaluar un fondo.
// El motor es una función pura de esta entrada: no consulta la base de datos
// ni guarda estado entre llamadas.
type TakeProfitInput struct {
	Holding          models.PortfolioFund
	SellTransactions []models.FundTransaction // Ordenadas de más reciente a más antigua
	AvailableCash    float64
	Params           models.EffectiveParams
}

// TakeProfitEngine evalúa la recogida escalonada de beneficios con recompra
// de banda. Cada evaluación reconstruye el estado desde la posición actual y
// el historial de ventas, por lo que es seguro invocarlo concurrentemente.
type TakeProfitEngine struct{}

func NewTakeProfitEngine() *TakeProfitEngine {
	return &TakeProfitEngine{}
}

// Evaluate calcula la recomendación para un solo fondo
func (e *TakeProfitEngine) Evaluate(in TakeProfitInput) models.TakeProfitFundResult {
	params := in.Params
	holding := in.Holding

	steps := []models.CalcStep{
		{
			Step: "parametros",
			Values: map[string]float64{
				"first_threshold":      params.FirstThreshold,
				"first_sell_ratio":     params.FirstSellRatio,
				"step_size":            params.StepSize,
				"follow_up_sell_ratio": params.FollowUpSellRatio,
				"target_diluted_cost":  params.TargetDilutedCost,
				"buy_back_threshold":   params.BuyBackThreshold,
				"enable_cost_control":  boolToFloat(params.EnableCostControl),
				"enable_buy_back":      boolToFloat(params.EnableBuyBack),
				"available_cash":       in.AvailableCash,
			},
		},
	}

	// Degradación por fondo: un fondo sin datos no debe abortar la evaluación
	// del resto del grupo
	if holding.LatestNav <= 0 {
		return e.errorResult(in, steps, "no hay valor liquidativo disponible")
	}
	if holding.BuyNav <= 0 {
		return e.errorResult(in, steps, "no hay precio de compra disponible")
	}

	currentValue := calculations.MarketValue(holding.Shares, holding.LatestNav)
	// ProfitRate devuelve porcentaje; el motor trabaja en fracciones
	profitRate := calculations.ProfitRate(holding.LatestNav, holding.BuyNav) / 100

	steps = append(steps, models.CalcStep{
		Step: "posicion",
		Values: map[string]float64{
			"shares":       holding.Shares,
			"nav":          holding.LatestNav,
			"buy_nav":      holding.BuyNav,
			"diluted_cost": holding.DilutedCost,
			"market_value": currentValue,
			"profit_rate":  profitRate,
		},
	})

	unrecovered := unrecoveredSells(in.SellTransactions)
	hasSellRecord := len(in.SellTransactions) > 0

	var lastSellNav *float64
	var lastSellDate string
	if hasSellRecord {
		nav := in.SellTransactions[0].Nav
		lastSellNav = &nav
		lastSellDate = in.SellTransactions[0].Date.Format("2006-01-02")
	}

	steps = append(steps, models.CalcStep{
		Step: "ventas",
		Values: map[string]float64{
			"total":       float64(len(in.SellTransactions)),
			"unrecovered": float64(len(unrecovered)),
		},
	})

	dilutedCost := holding.DilutedCost
	result := models.TakeProfitFundResult{
		FundCode:              holding.FundCode,
		FundName:              holding.FundName,
		CurrentShares:         holding.Shares,
		CurrentNav:            holding.LatestNav,
		CurrentValue:          currentValue,
		BuyNav:                holding.BuyNav,
		CurrentProfitRate:     profitRate,
		HasSellRecord:         hasSellRecord,
		LastSellNav:           lastSellNav,
		LastSellDate:          lastSellDate,
		DilutedCost:           &dilutedCost,
		AvailableCash:         in.AvailableCash,
		ParamSource:           params.ParamSource,
		TemplateName:          params.TemplateName,
		UnrecoveredSellsCount: len(unrecovered),
	}

	// 1. Recompra de banda: tiene prioridad sobre el resto de reglas
	if params.EnableBuyBack && len(unrecovered) > 0 {
		// La venta objetivo es la más antigua sin recuperar (FIFO)
		target := unrecovered[len(unrecovered)-1]

		if target.Nav > 0 {
			declineRate := (target.Nav - holding.LatestNav) / target.Nav

			steps = append(steps, models.CalcStep{
				Step: "recompra_evaluada",
				Values: map[string]float64{
					"target_sell_nav":    target.Nav,
					"decline_rate":       declineRate,
					"buy_back_threshold": params.BuyBackThreshold,
				},
			})

			if declineRate >= params.BuyBackThreshold {
				buyBackAmount := target.Shares * holding.LatestNav

				if in.AvailableCash >= buyBackAmount {
					buyBackShares := target.Shares
					targetNav := target.Nav

					steps = append(steps, models.CalcStep{
						Step: "recompra",
						Values: map[string]float64{
							"buy_back_shares": buyBackShares,
							"buy_back_amount": buyBackAmount,
						},
					})

					result.Action = models.ActionBuy
					result.Reason = fmt.Sprintf("recompra de banda: la caída (%.2f%%) alcanza el umbral (%.2f%%)", declineRate*100, params.BuyBackThreshold*100)
					result.BuyBackShares = &buyBackShares
					result.BuyBackAmount = &buyBackAmount
					result.TargetTransactionID = target.ID
					result.TargetSellNav = &targetNav
					result.DeclineRate = &declineRate
					result.CalcSteps = steps
					return result
				}

				// Caída suficiente pero sin efectivo: se mantiene la posición
				targetNav := target.Nav
				result.Action = models.ActionHold
				result.Reason = fmt.Sprintf("la caída (%.2f%%) alcanza el umbral pero el efectivo disponible (%.2f) no cubre la recompra (%.2f)", declineRate*100, in.AvailableCash, buyBackAmount)
				result.TargetSellNav = &targetNav
				result.DeclineRate = &declineRate
				result.CalcSteps = steps
				return result
			}
		}
	}

	// 2. Control de coste: si el coste diluido ya bajó hasta el objetivo,
	// el principal está recuperado y no se recomienda vender más
	if params.EnableCostControl && holding.DilutedCost <= params.TargetDilutedCost {
		steps = append(steps, models.CalcStep{
			Step: "stop_coste",
			Values: map[string]float64{
				"diluted_cost":        holding.DilutedCost,
				"target_diluted_cost": params.TargetDilutedCost,
			},
		})

		result.Action = models.ActionStop
		result.Reason = fmt.Sprintf("coste diluido (%.4f) <= objetivo (%.4f): principal recuperado, se detiene la recogida", holding.DilutedCost, params.TargetDilutedCost)
		result.CalcSteps = steps
		return result
	}

	// 3. Recogida inicial o escalonada
	if !hasSellRecord {
		if profitRate >= params.FirstThreshold {
			result.Action = models.ActionSell
			result.Reason = fmt.Sprintf("recogida inicial: rentabilidad (%.2f%%) >= umbral (%.2f%%)", profitRate*100, params.FirstThreshold*100)
			e.applySell(&result, &steps, "venta_inicial", params.FirstSellRatio)
			result.CalcSteps = steps
			return result
		}

		result.Action = models.ActionHold
		result.Reason = fmt.Sprintf("rentabilidad (%.2f%%) < umbral inicial (%.2f%%): mantener", profitRate*100, params.FirstThreshold*100)
		result.CalcSteps = steps
		return result
	}

	if lastSellNav == nil || *lastSellNav <= 0 {
		result.Action = models.ActionHold
		result.Reason = "no se puede obtener el valor liquidativo de la última venta"
		result.CalcSteps = steps
		return result
	}

	increaseRate := (holding.LatestNav - *lastSellNav) / *lastSellNav

	steps = append(steps, models.CalcStep{
		Step: "escalon_evaluado",
		Values: map[string]float64{
			"last_sell_nav": *lastSellNav,
			"increase_rate": increaseRate,
			"step_size":     params.StepSize,
		},
	})

	if increaseRate >= params.StepSize {
		result.Action = models.ActionSell
		result.Reason = fmt.Sprintf("recogida escalonada: subida desde la última venta (%.2f%%) >= escalón (%.2f%%)", increaseRate*100, params.StepSize*100)
		e.applySell(&result, &steps, "venta_escalon", params.FollowUpSellRatio)
		result.CalcSteps = steps
		return result
	}

	result.Action = models.ActionHold
	result.Reason = fmt.Sprintf("subida desde la última venta (%.2f%%) < escalón (%.2f%%): mantener", increaseRate*100, params.StepSize*100)
	result.CalcSteps = steps
	return result
}

// applySell calcula participaciones e importe de la venta recomendada
func (e *TakeProfitEngine) applySell(result *models.TakeProfitFundResult, steps *[]models.CalcStep, stepName string, ratio float64) {
	sellShares := result.CurrentShares * ratio
	sellAmount := sellShares * result.CurrentNav

	*steps = append(*steps, models.CalcStep{
		Step: stepName,
		Values: map[string]float64{
			"sell_ratio":  ratio,
			"sell_shares": sellShares,
			"sell_amount": sellAmount,
		},
	})

	result.SellRatio = &ratio
	result.SellShares = &sellShares
	result.SellAmount = &sellAmount
}

// errorResult construye un resultado ERROR sin abortar el resto del grupo
func (e *TakeProfitEngine) errorResult(in TakeProfitInput, steps []models.CalcStep, reason string) models.TakeProfitFundResult {
	steps = append(steps, models.CalcStep{Step: "error", Text: reason})

	return models.TakeProfitFundResult{
		FundCode:      in.Holding.FundCode,
		FundName:      in.Holding.FundName,
		CurrentShares: in.Holding.Shares,
		CurrentNav:    in.Holding.LatestNav,
		BuyNav:        in.Holding.BuyNav,
		AvailableCash: in.AvailableCash,
		Action:        models.ActionError,
		Reason:        reason,
		ParamSource:   in.Params.ParamSource,
		TemplateName:  in.Params.TemplateName,
		CalcSteps:     steps,
	}
}

// EvaluatePortfolio evalúa todos los fondos del grupo y agrega el resumen
func (e *TakeProfitEngine) EvaluatePortfolio(portfolioID string, inputs []TakeProfitInput) models.TakeProfitAdvice {
	advice := models.TakeProfitAdvice{
		PortfolioID: portfolioID,
		Mode:        "ladder",
		ModeName:    "Recogida escalonada",
		Funds:       make([]models.TakeProfitFundResult, 0, len(inputs)),
	}

	for _, in := range inputs {
		result := e.Evaluate(in)
		advice.Funds = append(advice.Funds, result)

		advice.Summary.TotalFunds++
		switch result.Action {
		case models.ActionSell:
			advice.Summary.NeedActionCount++
			if result.SellAmount != nil {
				advice.Summary.TotalSellAmount += *result.SellAmount
			}
		case models.ActionHold:
			advice.Summary.HoldCount++
		case models.ActionStop:
			advice.Summary.StopCount++
		case models.ActionBuy:
			advice.Summary.BuyBackCount++
			if result.BuyBackAmount != nil {
				advice.Summary.TotalBuyBackAmount += *result.BuyBackAmount
			}
		case models.ActionError:
			advice.Summary.ErrorCount++
		}
	}

	return advice
}

// TakeProfitModes devuelve el catálogo de modos de recogida soportados
func TakeProfitModes() []models.InvestmentMode {
	return []models.InvestmentMode{
		{
			ID:          "ladder",
			Name:        "Recogida escalonada",
			NameEn:      "Ladder Take Profit",
			Description: "Vende una parte al alcanzar el umbral inicial y vuelve a vender con cada escalón de subida",
			Icon:        "trending_down",
			Enabled:     true,
		},
	}
}

// unrecoveredSells filtra las ventas aún no recuperadas, conservando el orden
func unrecoveredSells(sells []models.FundTransaction) []models.FundTransaction {
	var result []models.FundTransaction
	for _, s := range sells {
		if !s.IsRecovered {
			result = append(result, s)
		}
	}
	return result
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
