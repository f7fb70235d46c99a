package services

import (
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

// ResolveParams resuelve los parámetros efectivos de recogida de beneficios
// para un fondo. Precedencia: valores personalizados > plantilla asignada >
// plantilla predeterminada > valores del sistema. Un fondo usa una fuente
// completa, nunca una mezcla campo a campo.
//
// La función es pura: trabaja sobre las filas ya cargadas, sin tocar la base
// de datos.
func ResolveParams(config *models.FundTakeProfitConfig, assigned *models.TakeProfitTemplate, defaultTemplate *models.TakeProfitTemplate) models.EffectiveParams {
	// 1. Valores personalizados del fondo
	if config != nil && config.UseCustom {
		return models.EffectiveParams{
			TakeProfitParams: customParams(config),
			ParamSource:      models.ParamSourceCustom,
		}
	}

	// 2. Plantilla asignada al fondo
	if config != nil && config.TemplateID != "" && assigned != nil {
		return models.EffectiveParams{
			TakeProfitParams: assigned.TakeProfitParams,
			ParamSource:      models.ParamSourceTemplate,
			TemplateID:       assigned.ID,
			TemplateName:     assigned.Name,
		}
	}

	// 3. Plantilla predeterminada del usuario
	if defaultTemplate != nil {
		return models.EffectiveParams{
			TakeProfitParams: defaultTemplate.TakeProfitParams,
			ParamSource:      models.ParamSourceDefault,
			TemplateID:       defaultTemplate.ID,
			TemplateName:     defaultTemplate.Name,
		}
	}

	// 4. Valores predeterminados del sistema
	return models.EffectiveParams{
		TakeProfitParams: models.DefaultTakeProfitParams(),
		ParamSource:      models.ParamSourceDefault,
	}
}

// customParams construye los parámetros a partir de los campos personalizados,
// rellenando con los valores del sistema los campos no establecidos
func customParams(config *models.FundTakeProfitConfig) models.TakeProfitParams {
	p := models.DefaultTakeProfitParams()

	if config.CustomFirstThreshold != nil {
		p.FirstThreshold = *config.CustomFirstThreshold
	}
	if config.CustomFirstSellRatio != nil {
		p.FirstSellRatio = *config.CustomFirstSellRatio
	}
	if config.CustomStepSize != nil {
		p.StepSize = *config.CustomStepSize
	}
	if config.CustomFollowUpSellRatio != nil {
		p.FollowUpSellRatio = *config.CustomFollowUpSellRatio
	}
	if config.CustomEnableCostControl != nil {
		p.EnableCostControl = *config.CustomEnableCostControl
	}
	if config.CustomTargetDilutedCost != nil {
		p.TargetDilutedCost = *config.CustomTargetDilutedCost
	}
	if config.CustomEnableBuyBack != nil {
		p.EnableBuyBack = *config.CustomEnableBuyBack
	}
	if config.CustomBuyBackThreshold != nil {
		p.BuyBackThreshold = *config.CustomBuyBackThreshold
	}

	return p
}

// ValidateParams comprueba que los ratios y umbrales sean fracciones válidas.
// Se aplica al crear o actualizar plantillas y configuraciones, nunca durante
// la evaluación.
func ValidateParams(p models.TakeProfitParams) error {
	fractions := map[string]float64{
		"first_threshold":      p.FirstThreshold,
		"first_sell_ratio":     p.FirstSellRatio,
		"step_size":            p.StepSize,
		"follow_up_sell_ratio": p.FollowUpSellRatio,
		"buy_back_threshold":   p.BuyBackThreshold,
	}

	for name, value := range fractions {
		if value < 0 || value > 1 {
			return &InvalidParamError{Field: name, Value: value}
		}
	}

	if p.TargetDilutedCost < 0 {
		return &InvalidParamError{Field: "target_diluted_cost", Value: p.TargetDilutedCost}
	}

	return nil
}

// InvalidParamError indica un parámetro fuera de rango en la escritura
type InvalidParamError struct {
	Field string
	Value float64
}

func (e *InvalidParamError) Error() string {
	return "parámetro fuera de rango: " + e.Field
}
