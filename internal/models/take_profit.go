package models

import "time"

// Acciones posibles del motor de recogida de beneficios
const (
	ActionSell  = "SELL"
	ActionHold  = "HOLD"
	ActionStop  = "STOP"
	ActionBuy   = "BUY"
	ActionError = "ERROR"
)

// Orígenes del parámetro efectivo de un fondo
const (
	ParamSourceCustom   = "custom"
	ParamSourceTemplate = "template"
	ParamSourceDefault  = "default"
)

// TakeProfitParams son los parámetros del escalado de recogida de beneficios.
// Todos los ratios y umbrales son fracciones (0.20 = 20%); la conversión a
// porcentaje se hace solo al formatear para el usuario.
type TakeProfitParams struct {
	FirstThreshold    float64 `json:"first_threshold"`
	FirstSellRatio    float64 `json:"first_sell_ratio"`
	StepSize          float64 `json:"step_size"`
	FollowUpSellRatio float64 `json:"follow_up_sell_ratio"`
	EnableCostControl bool    `json:"enable_cost_control"`
	TargetDilutedCost float64 `json:"target_diluted_cost"`
	EnableBuyBack     bool    `json:"enable_buy_back"`
	BuyBackThreshold  float64 `json:"buy_back_threshold"`
}

// DefaultTakeProfitParams devuelve los parámetros predeterminados del sistema
func DefaultTakeProfitParams() TakeProfitParams {
	return TakeProfitParams{
		FirstThreshold:    0.20,
		FirstSellRatio:    0.30,
		StepSize:          0.05,
		FollowUpSellRatio: 0.20,
		EnableCostControl: true,
		TargetDilutedCost: 0.0,
		EnableBuyBack:     false,
		BuyBackThreshold:  0.20,
	}
}

// TakeProfitTemplate es una plantilla reutilizable de parámetros de recogida
type TakeProfitTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	TakeProfitParams
	IsDefault bool      `json:"is_default"`
	IsSystem  bool      `json:"is_system"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FundTakeProfitConfig es la configuración por fondo: plantilla asignada o
// valores personalizados. Un fondo usa la plantilla completa o los valores
// personalizados completos, nunca una mezcla campo a campo.
type FundTakeProfitConfig struct {
	PortfolioID             string   `json:"portfolio_id"`
	FundCode                string   `json:"fund_code"`
	TemplateID              string   `json:"template_id,omitempty"`
	UseCustom               bool     `json:"use_custom"`
	CustomFirstThreshold    *float64 `json:"custom_first_threshold,omitempty"`
	CustomFirstSellRatio    *float64 `json:"custom_first_sell_ratio,omitempty"`
	CustomStepSize          *float64 `json:"custom_step_size,omitempty"`
	CustomFollowUpSellRatio *float64 `json:"custom_follow_up_sell_ratio,omitempty"`
	CustomEnableCostControl *bool    `json:"custom_enable_cost_control,omitempty"`
	CustomTargetDilutedCost *float64 `json:"custom_target_diluted_cost,omitempty"`
	CustomEnableBuyBack     *bool    `json:"custom_enable_buy_back,omitempty"`
	CustomBuyBackThreshold  *float64 `json:"custom_buy_back_threshold,omitempty"`
}

// EffectiveParams son los parámetros resueltos para un fondo, con su origen
type EffectiveParams struct {
	TakeProfitParams
	ParamSource  string `json:"param_source"` // custom / template / default
	TemplateID   string `json:"template_id,omitempty"`
	TemplateName string `json:"template_name,omitempty"`
}

// CalcStep es un paso del cálculo con los valores usados, para que el usuario
// pueda reproducir la recomendación a mano. El formateo a texto legible se
// hace en la capa de presentación.
type CalcStep struct {
	Step   string             `json:"step"`
	Values map[string]float64 `json:"values,omitempty"`
	Text   string             `json:"text,omitempty"`
}

// TakeProfitFundResult es la recomendación de recogida para un fondo
type TakeProfitFundResult struct {
	FundCode          string     `json:"fund_code"`
	FundName          string     `json:"fund_name"`
	CurrentShares     float64    `json:"current_shares"`
	CurrentNav        float64    `json:"current_nav"`
	CurrentValue      float64    `json:"current_value"`
	BuyNav            float64    `json:"buy_nav"`
	CurrentProfitRate float64    `json:"current_profit_rate"` // Fracción
	HasSellRecord     bool       `json:"has_sell_record"`
	LastSellNav       *float64   `json:"last_sell_nav,omitempty"`
	LastSellDate      string     `json:"last_sell_date,omitempty"`
	DilutedCost       *float64   `json:"diluted_cost,omitempty"`
	AvailableCash     float64    `json:"available_cash"`
	Action            string     `json:"action"` // SELL / HOLD / STOP / BUY / ERROR
	SellRatio         *float64   `json:"sell_ratio,omitempty"`
	SellShares        *float64   `json:"sell_shares,omitempty"`
	SellAmount        *float64   `json:"sell_amount,omitempty"`
	Reason            string     `json:"reason"`
	ParamSource       string     `json:"param_source"`
	TemplateName      string     `json:"template_name,omitempty"`
	CalcSteps         []CalcStep `json:"calc_steps"`
	AlgorithmDetails  []string   `json:"algorithm_details,omitempty"` // Rellenado por el handler

	// Campos específicos de la recompra de banda
	BuyBackShares         *float64 `json:"buy_back_shares,omitempty"`
	BuyBackAmount         *float64 `json:"buy_back_amount,omitempty"`
	TargetTransactionID   string   `json:"target_transaction_id,omitempty"`
	UnrecoveredSellsCount int      `json:"unrecovered_sells_count"`
	TargetSellNav         *float64 `json:"target_sell_nav,omitempty"`
	DeclineRate           *float64 `json:"decline_rate,omitempty"`
}

// TakeProfitSummary agrega los resultados de todo el grupo
type TakeProfitSummary struct {
	TotalFunds         int     `json:"total_funds"`
	NeedActionCount    int     `json:"need_action_count"`
	HoldCount          int     `json:"hold_count"`
	StopCount          int     `json:"stop_count"`
	BuyBackCount       int     `json:"buy_back_count"`
	ErrorCount         int     `json:"error_count"`
	TotalSellAmount    float64 `json:"total_sell_amount"`
	TotalBuyBackAmount float64 `json:"total_buy_back_amount"`
}

// TakeProfitAdvice es la respuesta completa de la recogida de beneficios
type TakeProfitAdvice struct {
	PortfolioID string                 `json:"portfolio_id"`
	Mode        string                 `json:"mode"`
	ModeName    string                 `json:"mode_name"`
	Funds       []TakeProfitFundResult `json:"funds"`
	Summary     TakeProfitSummary      `json:"summary"`
}
