package models

// Modos de aporte periódico soportados
const (
	InvestmentModeValueAveraging = "value_averaging"
	InvestmentModeFixedAmount    = "fixed_amount"
	InvestmentModeDynamicBalance = "dynamic_balance"
)

// Acciones del motor de aporte por valor
const (
	InvestActionBuy  = "BUY"
	InvestActionSell = "SELL"
	InvestActionHold = "HOLD"
)

// InvestmentMode describe un modo de aporte seleccionable por id
type InvestmentMode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NameEn      string `json:"name_en"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Enabled     bool   `json:"enabled"`
}

// FundBaseline es la foto de la posición en la fecha base
type FundBaseline struct {
	BaseDate     string  `json:"base_date"`   // Formato YYYY-MM-DD
	TargetDate   string  `json:"target_date"` // Formato YYYY-MM-DD
	SharesAtBase float64 `json:"shares_at_base"`
	NavAtBase    float64 `json:"nav_at_base"`
}

// FundInvestmentAdvice es la recomendación de aporte para un fondo
type FundInvestmentAdvice struct {
	FundCode              string     `json:"fund_code"`
	FundName              string     `json:"fund_name"`
	BaseDate              string     `json:"base_date"`
	TargetDate            string     `json:"target_date"`
	DaysDiff              int        `json:"days_diff"`
	SharesAtBase          float64    `json:"shares_at_base"`
	NavAtBase             float64    `json:"nav_at_base"`
	BaseValue             float64    `json:"base_value"`
	CurrentShares         float64    `json:"current_shares"`
	LatestNav             float64    `json:"latest_nav"`
	ActualValue           float64    `json:"actual_value"`
	AvgMonthlyReturn      float64    `json:"avg_monthly_return"` // Fracción
	MonthlyFactor         float64    `json:"monthly_factor"`
	TargetGrowth          float64    `json:"target_growth"`
	TargetValue           float64    `json:"target_value"`
	SuggestedInvest       float64    `json:"suggested_invest"` // Positivo = comprar, negativo = vender
	InvestAction          string     `json:"invest_action"`    // BUY / SELL / HOLD
	OriginalHoldingValue  float64    `json:"original_holding_value"`
	OriginalHoldingProfit float64    `json:"original_holding_profit"` // Solo informativo, no entra en el cálculo
	CalcSteps             []CalcStep `json:"calc_steps"`
	AlgorithmDetails      []string   `json:"algorithm_details,omitempty"` // Rellenado por el handler
	Error                 string     `json:"error,omitempty"`
}

// InvestmentSummary agrega las recomendaciones de aporte del grupo
type InvestmentSummary struct {
	TotalFunds           int     `json:"total_funds"`
	TotalHoldingValue    float64 `json:"total_holding_value"`
	TotalSuggestedInvest float64 `json:"total_suggested_invest"`
	ErrorCount           int     `json:"error_count"`
}

// InvestmentAdvice es la respuesta completa del aporte periódico
type InvestmentAdvice struct {
	PortfolioID   string                 `json:"portfolio_id"`
	PortfolioName string                 `json:"portfolio_name"`
	Mode          string                 `json:"mode"`
	ModeName      string                 `json:"mode_name"`
	BaseDate      string                 `json:"base_date"`
	TargetDate    string                 `json:"target_date"`
	Funds         []FundInvestmentAdvice `json:"funds"`
	Summary       InvestmentSummary      `json:"summary"`
}
