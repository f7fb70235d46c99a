package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

// Ventana del historial de valores para la rentabilidad media mensual:
// cierres de mes de hasta cinco años
const avgReturnWindowMonths = 60

var (
	takeProfitEngine     = services.NewTakeProfitEngine()
	valueAveragingEngine = services.NewValueAveragingEngine()
)

// GetTakeProfitAdvice evalúa la recogida de beneficios de todos los fondos
// del grupo con los parámetros efectivos de cada uno
func GetTakeProfitAdvice(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	portfolio, err := portfolioRepo.GetPortfolio(userId, portfolioID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	inputs := []services.TakeProfitInput{}
	for _, fund := range portfolio.Funds {
		if fund.Shares <= 0 {
			continue
		}

		params, err := templateRepo.ResolveFundParams(userId, portfolioID, fund.FundCode)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		sells, err := transactionRepo.GetSellTransactions(portfolioID, fund.FundCode)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// La recompra solo puede gastar el efectivo atribuible al propio
		// fondo (ventas menos recompras), no el total del grupo
		inputs = append(inputs, services.TakeProfitInput{
			Holding:          fund,
			SellTransactions: sells,
			AvailableCash:    fund.AvailableCash,
			Params:           params,
		})
	}

	advice := takeProfitEngine.EvaluatePortfolio(portfolioID, inputs)
	for i := range advice.Funds {
		advice.Funds[i].AlgorithmDetails = formatCalcSteps(advice.Funds[i].CalcSteps)
	}

	c.JSON(http.StatusOK, advice)
}

// GetTakeProfitModes devuelve el catálogo de modos de recogida
func GetTakeProfitModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": services.TakeProfitModes()})
}

// GetInvestmentModes devuelve el catálogo de modos de aporte periódico
func GetInvestmentModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": services.InvestmentModes()})
}

// GetInvestmentAdvice calcula el aporte sugerido de cada fondo del grupo.
// Acepta mode y base_days como parámetros de consulta.
func GetInvestmentAdvice(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	portfolio, err := portfolioRepo.GetPortfolio(userId, portfolioID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	mode := c.DefaultQuery("mode", models.InvestmentModeValueAveraging)
	baseDays, err := strconv.Atoi(c.DefaultQuery("base_days", "30"))
	if err != nil || baseDays <= 0 {
		baseDays = 30
	}

	targetDate := time.Now().Format("2006-01-02")
	baseDate := time.Now().AddDate(0, 0, -baseDays).Format("2006-01-02")

	inputs := []services.InvestmentInput{}
	for _, fund := range portfolio.Funds {
		if fund.Shares <= 0 {
			continue
		}

		baseline, err := navRepo.GetBaseline(portfolioID, fund.FundCode, baseDate, targetDate)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		avgReturn, err := navRepo.GetAvgMonthlyReturn(fund.FundCode, avgReturnWindowMonths)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		inputs = append(inputs, services.InvestmentInput{
			Holding:          fund,
			Baseline:         baseline,
			AvgMonthlyReturn: avgReturn,
		})
	}

	advice, err := valueAveragingEngine.EvaluatePortfolio(portfolioID, portfolio.Name, mode, inputs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for i := range advice.Funds {
		advice.Funds[i].AlgorithmDetails = formatCalcSteps(advice.Funds[i].CalcSteps)
	}

	c.JSON(http.StatusOK, advice)
}

// formatCalcSteps convierte los pasos de cálculo en texto legible. Aquí, y
// solo aquí, las fracciones pasan a porcentajes.
func formatCalcSteps(steps []models.CalcStep) []string {
	details := []string{}
	for _, step := range steps {
		if step.Text != "" {
			details = append(details, step.Text)
			continue
		}

		switch step.Step {
		case "parametros":
			details = append(details, fmt.Sprintf(
				"Parámetros: umbral inicial %.1f%%, venta inicial %.1f%%, escalón %.1f%%, venta escalonada %.1f%%",
				step.Values["first_threshold"]*100,
				step.Values["first_sell_ratio"]*100,
				step.Values["step_size"]*100,
				step.Values["follow_up_sell_ratio"]*100,
			))
		case "posicion":
			details = append(details, fmt.Sprintf(
				"Posición: %.2f participaciones a %.4f (compra %.4f), rentabilidad %.2f%%",
				step.Values["shares"],
				step.Values["nav"],
				step.Values["buy_nav"],
				step.Values["profit_rate"]*100,
			))
		case "ventas":
			details = append(details, fmt.Sprintf(
				"Historial: %.0f ventas, %.0f sin recuperar",
				step.Values["total"],
				step.Values["unrecovered"],
			))
		case "recompra_evaluada":
			details = append(details, fmt.Sprintf(
				"Recompra evaluada: caída %.2f%% desde la venta a %.4f (umbral %.1f%%)",
				step.Values["decline_rate"]*100,
				step.Values["target_sell_nav"],
				step.Values["buy_back_threshold"]*100,
			))
		case "recompra":
			details = append(details, fmt.Sprintf(
				"Recompra: %.2f participaciones por %.2f",
				step.Values["buy_back_shares"],
				step.Values["buy_back_amount"],
			))
		case "stop_coste":
			details = append(details, fmt.Sprintf(
				"Control de coste: coste diluido %.4f <= objetivo %.4f",
				step.Values["diluted_cost"],
				step.Values["target_diluted_cost"],
			))
		case "venta_inicial", "venta_escalon":
			details = append(details, fmt.Sprintf(
				"Venta: %.1f%% de la posición, %.2f participaciones por %.2f",
				step.Values["sell_ratio"]*100,
				step.Values["sell_shares"],
				step.Values["sell_amount"],
			))
		case "escalon_evaluado":
			details = append(details, fmt.Sprintf(
				"Escalón evaluado: subida %.2f%% desde la última venta a %.4f (escalón %.1f%%)",
				step.Values["increase_rate"]*100,
				step.Values["last_sell_nav"],
				step.Values["step_size"]*100,
			))
		case "linea_base":
			details = append(details, fmt.Sprintf(
				"Línea base: %.2f participaciones a %.4f = %.2f (%.0f días)",
				step.Values["shares_at_base"],
				step.Values["nav_at_base"],
				step.Values["base_value"],
				step.Values["days_diff"],
			))
		case "objetivo":
			details = append(details, fmt.Sprintf(
				"Objetivo: crecimiento %.2f (%.2f%% mensual × %.2f meses), valor objetivo %.2f",
				step.Values["target_growth"],
				step.Values["avg_monthly_return"]*100,
				step.Values["monthly_factor"],
				step.Values["target_value"],
			))
		case "aporte":
			details = append(details, fmt.Sprintf(
				"Aporte: valor actual %.2f, aporte sugerido %.2f",
				step.Values["actual_value"],
				step.Values["suggested_invest"],
			))
		}
	}

	return details
}
