package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/services"
)

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// EnsureSystemTemplate crea la plantilla del sistema para el usuario si no
// existe todavía. Es la predeterminada hasta que el usuario elija otra.
func (r *TemplateRepository) EnsureSystemTemplate(userID string) error {
	var id string
	err := r.db.QueryRow(`SELECT id FROM take_profit_templates WHERE user_id = ? AND is_system = 1`, userID).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	var hasDefault bool
	err = r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM take_profit_templates WHERE user_id = ? AND is_default = 1)`, userID).Scan(&hasDefault)
	if err != nil {
		return err
	}

	params := models.DefaultTakeProfitParams()
	template := &models.TakeProfitTemplate{
		ID:               fmt.Sprintf("%d", time.Now().UnixNano()),
		Name:             "Estrategia estándar",
		Description:      "Recogida escalonada con los parámetros del sistema",
		TakeProfitParams: params,
		IsDefault:        !hasDefault,
		IsSystem:         true,
	}

	return r.insertTemplate(userID, template)
}

func (r *TemplateRepository) CreateTemplate(userID string, template *models.TakeProfitTemplate) error {
	if err := services.ValidateParams(template.TakeProfitParams); err != nil {
		return err
	}

	if template.ID == "" {
		template.ID = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	template.IsSystem = false

	return r.insertTemplate(userID, template)
}

func (r *TemplateRepository) insertTemplate(userID string, template *models.TakeProfitTemplate) error {
	query := `
		INSERT INTO take_profit_templates (
			id, user_id, name, description,
			first_threshold, first_sell_ratio, step_size, follow_up_sell_ratio,
			enable_cost_control, target_diluted_cost, enable_buy_back, buy_back_threshold,
			is_default, is_system
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		template.ID,
		userID,
		template.Name,
		template.Description,
		template.FirstThreshold,
		template.FirstSellRatio,
		template.StepSize,
		template.FollowUpSellRatio,
		template.EnableCostControl,
		template.TargetDilutedCost,
		template.EnableBuyBack,
		template.BuyBackThreshold,
		template.IsDefault,
		template.IsSystem,
	)
	return err
}

func (r *TemplateRepository) GetTemplates(userID string) ([]models.TakeProfitTemplate, error) {
	query := `
		SELECT id, name, description,
			first_threshold, first_sell_ratio, step_size, follow_up_sell_ratio,
			enable_cost_control, target_diluted_cost, enable_buy_back, buy_back_threshold,
			is_default, is_system, created_at, updated_at
		FROM take_profit_templates
		WHERE user_id = ?
		ORDER BY is_system DESC, created_at`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []models.TakeProfitTemplate{}
	for rows.Next() {
		var t models.TakeProfitTemplate
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Description,
			&t.FirstThreshold,
			&t.FirstSellRatio,
			&t.StepSize,
			&t.FollowUpSellRatio,
			&t.EnableCostControl,
			&t.TargetDilutedCost,
			&t.EnableBuyBack,
			&t.BuyBackThreshold,
			&t.IsDefault,
			&t.IsSystem,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, nil
}

func (r *TemplateRepository) GetTemplate(userID, templateID string) (*models.TakeProfitTemplate, error) {
	query := `
		SELECT id, name, description,
			first_threshold, first_sell_ratio, step_size, follow_up_sell_ratio,
			enable_cost_control, target_diluted_cost, enable_buy_back, buy_back_threshold,
			is_default, is_system, created_at, updated_at
		FROM take_profit_templates
		WHERE user_id = ? AND id = ?`

	t := &models.TakeProfitTemplate{}
	err := r.db.QueryRow(query, userID, templateID).Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.FirstThreshold,
		&t.FirstSellRatio,
		&t.StepSize,
		&t.FollowUpSellRatio,
		&t.EnableCostControl,
		&t.TargetDilutedCost,
		&t.EnableBuyBack,
		&t.BuyBackThreshold,
		&t.IsDefault,
		&t.IsSystem,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.New("plantilla no encontrada")
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

// GetDefaultTemplate devuelve la plantilla predeterminada del usuario, o nil
// si no tiene ninguna
func (r *TemplateRepository) GetDefaultTemplate(userID string) (*models.TakeProfitTemplate, error) {
	var templateID string
	err := r.db.QueryRow(`SELECT id FROM take_profit_templates WHERE user_id = ? AND is_default = 1`, userID).Scan(&templateID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return r.GetTemplate(userID, templateID)
}

func (r *TemplateRepository) UpdateTemplate(userID string, template *models.TakeProfitTemplate) error {
	if err := services.ValidateParams(template.TakeProfitParams); err != nil {
		return err
	}

	existing, err := r.GetTemplate(userID, template.ID)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return errors.New("la plantilla del sistema no se puede modificar")
	}

	query := `
		UPDATE take_profit_templates
		SET name = ?, description = ?,
			first_threshold = ?, first_sell_ratio = ?, step_size = ?, follow_up_sell_ratio = ?,
			enable_cost_control = ?, target_diluted_cost = ?, enable_buy_back = ?, buy_back_threshold = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND id = ?`

	_, err = r.db.Exec(query,
		template.Name,
		template.Description,
		template.FirstThreshold,
		template.FirstSellRatio,
		template.StepSize,
		template.FollowUpSellRatio,
		template.EnableCostControl,
		template.TargetDilutedCost,
		template.EnableBuyBack,
		template.BuyBackThreshold,
		userID,
		template.ID,
	)
	return err
}

func (r *TemplateRepository) DeleteTemplate(userID, templateID string) error {
	existing, err := r.GetTemplate(userID, templateID)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return errors.New("la plantilla del sistema no se puede eliminar")
	}
	if existing.IsDefault {
		return errors.New("la plantilla predeterminada no se puede eliminar")
	}

	_, err = r.db.Exec(`DELETE FROM take_profit_templates WHERE user_id = ? AND id = ?`, userID, templateID)
	return err
}

// SetDefaultTemplate marca una plantilla como predeterminada, quitando la
// marca a la anterior dentro de la misma transacción
func (r *TemplateRepository) SetDefaultTemplate(userID, templateID string) error {
	if _, err := r.GetTemplate(userID, templateID); err != nil {
		return err
	}

	dbTx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`UPDATE take_profit_templates SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
		return err
	}
	if _, err := dbTx.Exec(`UPDATE take_profit_templates SET is_default = 1, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND id = ?`, userID, templateID); err != nil {
		return err
	}

	return dbTx.Commit()
}

// GetFundConfig devuelve la configuración de recogida de un fondo, o nil si
// no tiene ninguna
func (r *TemplateRepository) GetFundConfig(portfolioID, fundCode string) (*models.FundTakeProfitConfig, error) {
	query := `
		SELECT portfolio_id, fund_code, COALESCE(template_id, ''), use_custom,
			custom_first_threshold, custom_first_sell_ratio, custom_step_size, custom_follow_up_sell_ratio,
			custom_enable_cost_control, custom_target_diluted_cost, custom_enable_buy_back, custom_buy_back_threshold
		FROM fund_take_profit_configs
		WHERE portfolio_id = ? AND fund_code = ?`

	config := &models.FundTakeProfitConfig{}
	err := r.db.QueryRow(query, portfolioID, fundCode).Scan(
		&config.PortfolioID,
		&config.FundCode,
		&config.TemplateID,
		&config.UseCustom,
		&config.CustomFirstThreshold,
		&config.CustomFirstSellRatio,
		&config.CustomStepSize,
		&config.CustomFollowUpSellRatio,
		&config.CustomEnableCostControl,
		&config.CustomTargetDilutedCost,
		&config.CustomEnableBuyBack,
		&config.CustomBuyBackThreshold,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return config, nil
}

// SetFundConfig crea o reemplaza la configuración de recogida de un fondo.
// Con valores personalizados se validan antes de guardar.
func (r *TemplateRepository) SetFundConfig(config *models.FundTakeProfitConfig) error {
	if config.UseCustom {
		params := effectiveCustomParams(config)
		if err := services.ValidateParams(params); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO fund_take_profit_configs (
			portfolio_id, fund_code, template_id, use_custom,
			custom_first_threshold, custom_first_sell_ratio, custom_step_size, custom_follow_up_sell_ratio,
			custom_enable_cost_control, custom_target_diluted_cost, custom_enable_buy_back, custom_buy_back_threshold
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, fund_code) DO UPDATE SET
			template_id = excluded.template_id,
			use_custom = excluded.use_custom,
			custom_first_threshold = excluded.custom_first_threshold,
			custom_first_sell_ratio = excluded.custom_first_sell_ratio,
			custom_step_size = excluded.custom_step_size,
			custom_follow_up_sell_ratio = excluded.custom_follow_up_sell_ratio,
			custom_enable_cost_control = excluded.custom_enable_cost_control,
			custom_target_diluted_cost = excluded.custom_target_diluted_cost,
			custom_enable_buy_back = excluded.custom_enable_buy_back,
			custom_buy_back_threshold = excluded.custom_buy_back_threshold,
			updated_at = CURRENT_TIMESTAMP`

	var templateID interface{}
	if config.TemplateID != "" {
		templateID = config.TemplateID
	}

	_, err := r.db.Exec(query,
		config.PortfolioID,
		config.FundCode,
		templateID,
		config.UseCustom,
		config.CustomFirstThreshold,
		config.CustomFirstSellRatio,
		config.CustomStepSize,
		config.CustomFollowUpSellRatio,
		config.CustomEnableCostControl,
		config.CustomTargetDilutedCost,
		config.CustomEnableBuyBack,
		config.CustomBuyBackThreshold,
	)
	return err
}

// ResetFundConfig elimina la configuración del fondo, que vuelve a la
// plantilla predeterminada
func (r *TemplateRepository) ResetFundConfig(portfolioID, fundCode string) error {
	_, err := r.db.Exec(
		`DELETE FROM fund_take_profit_configs WHERE portfolio_id = ? AND fund_code = ?`,
		portfolioID, fundCode,
	)
	return err
}

// GetPortfolioConfigs devuelve las configuraciones de todos los fondos del grupo
func (r *TemplateRepository) GetPortfolioConfigs(portfolioID string) (map[string]*models.FundTakeProfitConfig, error) {
	query := `
		SELECT portfolio_id, fund_code, COALESCE(template_id, ''), use_custom,
			custom_first_threshold, custom_first_sell_ratio, custom_step_size, custom_follow_up_sell_ratio,
			custom_enable_cost_control, custom_target_diluted_cost, custom_enable_buy_back, custom_buy_back_threshold
		FROM fund_take_profit_configs
		WHERE portfolio_id = ?`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make(map[string]*models.FundTakeProfitConfig)
	for rows.Next() {
		config := &models.FundTakeProfitConfig{}
		err := rows.Scan(
			&config.PortfolioID,
			&config.FundCode,
			&config.TemplateID,
			&config.UseCustom,
			&config.CustomFirstThreshold,
			&config.CustomFirstSellRatio,
			&config.CustomStepSize,
			&config.CustomFollowUpSellRatio,
			&config.CustomEnableCostControl,
			&config.CustomTargetDilutedCost,
			&config.CustomEnableBuyBack,
			&config.CustomBuyBackThreshold,
		)
		if err != nil {
			return nil, err
		}
		configs[config.FundCode] = config
	}

	return configs, nil
}

// ResolveFundParams resuelve los parámetros efectivos de un fondo con la
// precedencia personalizado > plantilla > predeterminada
func (r *TemplateRepository) ResolveFundParams(userID, portfolioID, fundCode string) (models.EffectiveParams, error) {
	config, err := r.GetFundConfig(portfolioID, fundCode)
	if err != nil {
		return models.EffectiveParams{}, err
	}

	var assigned *models.TakeProfitTemplate
	if config != nil && config.TemplateID != "" && !config.UseCustom {
		assigned, err = r.GetTemplate(userID, config.TemplateID)
		if err != nil {
			// Plantilla eliminada o ajena: se ignora y se sigue con la
			// predeterminada
			assigned = nil
		}
	}

	defaultTemplate, err := r.GetDefaultTemplate(userID)
	if err != nil {
		return models.EffectiveParams{}, err
	}

	return services.ResolveParams(config, assigned, defaultTemplate), nil
}

// effectiveCustomParams materializa los campos personalizados para validarlos
func effectiveCustomParams(config *models.FundTakeProfitConfig) models.TakeProfitParams {
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
