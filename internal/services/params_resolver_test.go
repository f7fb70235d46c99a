package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestResolveParamsCustomWins(t *testing.T) {
	config := &models.FundTakeProfitConfig{
		UseCustom:            true,
		TemplateID:           "t1",
		CustomFirstThreshold: floatPtr(0.15),
	}
	assigned := &models.TakeProfitTemplate{
		ID:   "t1",
		Name: "Agresiva",
		TakeProfitParams: models.TakeProfitParams{
			FirstThreshold: 0.30,
		},
	}

	params := ResolveParams(config, assigned, nil)

	// Los valores personalizados ganan a la plantilla asignada
	assert.Equal(t, models.ParamSourceCustom, params.ParamSource)
	assert.InDelta(t, 0.15, params.FirstThreshold, 1e-9)
	// Los campos no establecidos se rellenan con los valores del sistema
	assert.InDelta(t, 0.30, params.FirstSellRatio, 1e-9)
	assert.InDelta(t, 0.05, params.StepSize, 1e-9)
}

func TestResolveParamsAssignedTemplate(t *testing.T) {
	config := &models.FundTakeProfitConfig{TemplateID: "t1"}
	assigned := &models.TakeProfitTemplate{
		ID:   "t1",
		Name: "Agresiva",
		TakeProfitParams: models.TakeProfitParams{
			FirstThreshold:    0.30,
			FirstSellRatio:    0.50,
			StepSize:          0.10,
			FollowUpSellRatio: 0.25,
		},
	}
	defaultTpl := &models.TakeProfitTemplate{ID: "t0", Name: "Predeterminada"}

	params := ResolveParams(config, assigned, defaultTpl)

	assert.Equal(t, models.ParamSourceTemplate, params.ParamSource)
	assert.Equal(t, "t1", params.TemplateID)
	assert.Equal(t, "Agresiva", params.TemplateName)
	assert.InDelta(t, 0.30, params.FirstThreshold, 1e-9)
}

func TestResolveParamsDefaultTemplate(t *testing.T) {
	defaultTpl := &models.TakeProfitTemplate{
		ID:   "t0",
		Name: "Predeterminada",
		TakeProfitParams: models.TakeProfitParams{
			FirstThreshold: 0.25,
		},
	}

	params := ResolveParams(nil, nil, defaultTpl)

	assert.Equal(t, models.ParamSourceDefault, params.ParamSource)
	assert.Equal(t, "t0", params.TemplateID)
	assert.InDelta(t, 0.25, params.FirstThreshold, 1e-9)
}

func TestResolveParamsSystemFallback(t *testing.T) {
	params := ResolveParams(nil, nil, nil)

	assert.Equal(t, models.ParamSourceDefault, params.ParamSource)
	assert.Empty(t, params.TemplateID)
	assert.InDelta(t, 0.20, params.FirstThreshold, 1e-9)
	assert.InDelta(t, 0.30, params.FirstSellRatio, 1e-9)
	assert.True(t, params.EnableCostControl)
	assert.False(t, params.EnableBuyBack)
}

func TestValidateParams(t *testing.T) {
	assert.NoError(t, ValidateParams(models.DefaultTakeProfitParams()))

	p := models.DefaultTakeProfitParams()
	p.FirstSellRatio = 1.5
	err := ValidateParams(p)
	assert.Error(t, err)
	invalid, ok := err.(*InvalidParamError)
	assert.True(t, ok)
	assert.Equal(t, "first_sell_ratio", invalid.Field)

	p = models.DefaultTakeProfitParams()
	p.StepSize = -0.05
	assert.Error(t, ValidateParams(p))

	p = models.DefaultTakeProfitParams()
	p.TargetDilutedCost = -1
	assert.Error(t, ValidateParams(p))
}
