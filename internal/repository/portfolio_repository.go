package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/calculations"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

type PortfolioRepository struct {
	db *sql.DB
}

func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

func (r *PortfolioRepository) CreatePortfolio(portfolio *models.Portfolio) error {
	if portfolio.ID == "" {
		portfolio.ID = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	query := `
		INSERT INTO portfolios (id, user_id, name, description, cash)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		portfolio.ID,
		portfolio.UserID,
		portfolio.Name,
		portfolio.Description,
		portfolio.Cash,
	)
	return err
}

func (r *PortfolioRepository) GetPortfolios(userID string) ([]models.Portfolio, error) {
	query := `
		SELECT id, user_id, name, description, cash, created_at, updated_at
		FROM portfolios
		WHERE user_id = ?
		ORDER BY created_at`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := []models.Portfolio{}
	for rows.Next() {
		var p models.Portfolio
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.Description,
			&p.Cash,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	return portfolios, nil
}

func (r *PortfolioRepository) GetPortfolio(userID, portfolioID string) (*models.Portfolio, error) {
	portfolio := &models.Portfolio{}
	query := `
		SELECT id, user_id, name, description, cash, created_at, updated_at
		FROM portfolios
		WHERE id = ? AND user_id = ?`

	err := r.db.QueryRow(query, portfolioID, userID).Scan(
		&portfolio.ID,
		&portfolio.UserID,
		&portfolio.Name,
		&portfolio.Description,
		&portfolio.Cash,
		&portfolio.CreatedAt,
		&portfolio.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.New("grupo no encontrado")
	}
	if err != nil {
		return nil, err
	}

	funds, err := r.GetPortfolioFunds(portfolioID)
	if err != nil {
		return nil, err
	}

	portfolio.Funds = funds
	portfolio.TotalValue = portfolio.Cash
	for _, f := range funds {
		portfolio.TotalValue += f.MarketValue
	}

	return portfolio, nil
}

func (r *PortfolioRepository) UpdatePortfolio(portfolio *models.Portfolio) error {
	query := `
		UPDATE portfolios
		SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`

	result, err := r.db.Exec(query, portfolio.Name, portfolio.Description, portfolio.ID, portfolio.UserID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("grupo no encontrado")
	}

	return nil
}

func (r *PortfolioRepository) DeletePortfolio(userID, portfolioID string) error {
	result, err := r.db.Exec(`DELETE FROM portfolios WHERE id = ? AND user_id = ?`, portfolioID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("grupo no encontrado")
	}

	return nil
}

// GetPortfolioFunds devuelve las posiciones del grupo valoradas con el último
// valor liquidativo guardado
func (r *PortfolioRepository) GetPortfolioFunds(portfolioID string) ([]models.PortfolioFund, error) {
	query := `
		SELECT pf.portfolio_id, pf.fund_code, pf.fund_name, pf.shares, pf.buy_nav, pf.diluted_cost,
			COALESCE((SELECT unit_nav FROM fund_navs fn
				WHERE fn.fund_code = pf.fund_code
				ORDER BY fn.nav_date DESC LIMIT 1), 0),
			COALESCE((SELECT nav_date FROM fund_navs fn
				WHERE fn.fund_code = pf.fund_code
				ORDER BY fn.nav_date DESC LIMIT 1), ''),
			pf.created_at, pf.updated_at
		FROM portfolio_funds pf
		WHERE pf.portfolio_id = ?
		ORDER BY pf.fund_code`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	funds := []models.PortfolioFund{}
	for rows.Next() {
		var f models.PortfolioFund
		err := rows.Scan(
			&f.PortfolioID,
			&f.FundCode,
			&f.FundName,
			&f.Shares,
			&f.BuyNav,
			&f.DilutedCost,
			&f.LatestNav,
			&f.NavDate,
			&f.CreatedAt,
			&f.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		// Sin valor guardado se valora al precio de compra
		if f.LatestNav <= 0 {
			f.LatestNav = f.BuyNav
		}

		f.MarketValue = calculations.MarketValue(f.Shares, f.LatestNav)
		f.Profit = calculations.TotalProfit(f.Shares, f.LatestNav, f.BuyNav)
		f.ProfitRate = calculations.ProfitRate(f.LatestNav, f.BuyNav)

		cash, err := r.GetFundAvailableCash(portfolioID, f.FundCode)
		if err != nil {
			return nil, err
		}
		f.AvailableCash = cash

		funds = append(funds, f)
	}

	return funds, nil
}

func (r *PortfolioRepository) GetPortfolioFund(portfolioID, fundCode string) (*models.PortfolioFund, error) {
	funds, err := r.GetPortfolioFunds(portfolioID)
	if err != nil {
		return nil, err
	}

	for i := range funds {
		if funds[i].FundCode == fundCode {
			return &funds[i], nil
		}
	}

	return nil, errors.New("el fondo no está en el grupo")
}

// GetFundAvailableCash calcula el efectivo atribuible a un fondo: lo ingresado
// por sus ventas menos lo gastado en sus compras posteriores, nunca negativo
func (r *PortfolioRepository) GetFundAvailableCash(portfolioID, fundCode string) (float64, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'SELL' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'BUY' AND buy_back_id IS NOT NULL AND buy_back_id != '' THEN amount ELSE 0 END), 0)
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND fund_code = ?`

	var sold, bought float64
	err := r.db.QueryRow(query, portfolioID, fundCode).Scan(&sold, &bought)
	if err != nil {
		return 0, err
	}

	cash := sold - bought
	if cash < 0 {
		cash = 0
	}

	return cash, nil
}

func (r *PortfolioRepository) GetCash(portfolioID string) (float64, error) {
	var cash float64
	err := r.db.QueryRow(`SELECT cash FROM portfolios WHERE id = ?`, portfolioID).Scan(&cash)
	if err == sql.ErrNoRows {
		return 0, errors.New("grupo no encontrado")
	}
	return cash, err
}

func (r *PortfolioRepository) UpdateCash(portfolioID string, cash float64) error {
	if cash < 0 {
		return errors.New("el efectivo no puede ser negativo")
	}

	result, err := r.db.Exec(`UPDATE portfolios SET cash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, cash, portfolioID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("grupo no encontrado")
	}

	return nil
}

// GetPortfolioSummary calcula el resumen de valoración del grupo
func (r *PortfolioRepository) GetPortfolioSummary(userID, portfolioID string) (*models.PortfolioSummary, error) {
	portfolio, err := r.GetPortfolio(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{
		PortfolioID:   portfolio.ID,
		PortfolioName: portfolio.Name,
		Cash:          portfolio.Cash,
	}

	for _, f := range portfolio.Funds {
		if f.Shares <= 0 {
			continue
		}
		summary.TotalFunds++
		summary.TotalValue += f.MarketValue
		summary.TotalCost += f.Shares * f.BuyNav
	}

	summary.TotalProfit = summary.TotalValue - summary.TotalCost
	if summary.TotalCost > 0 {
		summary.ProfitRate = (summary.TotalProfit / summary.TotalCost) * 100
	}

	return summary, nil
}

// GetValueHistory devuelve el historial diario de valor del grupo
func (r *PortfolioRepository) GetValueHistory(portfolioID string, days int) ([]models.PortfolioValuePoint, error) {
	query := `
		SELECT id, portfolio_id, date, total_value, total_cost, profit, profit_percentage
		FROM holding_history
		WHERE portfolio_id = ? AND date >= ?
		ORDER BY date`

	since := time.Now().AddDate(0, 0, -days)
	rows, err := r.db.Query(query, portfolioID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []models.PortfolioValuePoint{}
	for rows.Next() {
		var p models.PortfolioValuePoint
		err := rows.Scan(
			&p.ID,
			&p.PortfolioID,
			&p.Date,
			&p.TotalValue,
			&p.TotalCost,
			&p.Profit,
			&p.ProfitPercentage,
		)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, nil
}

// VerifyPortfolioOwner comprueba que el grupo pertenece al usuario
func (r *PortfolioRepository) VerifyPortfolioOwner(userID, portfolioID string) error {
	var id string
	err := r.db.QueryRow(`SELECT id FROM portfolios WHERE id = ? AND user_id = ?`, portfolioID, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return errors.New("grupo no encontrado")
	}
	return err
}
