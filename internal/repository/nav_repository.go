package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

// Rentabilidad mensual que se asume cuando no hay historial suficiente
const fallbackMonthlyReturn = 0.01

type NavRepository struct {
	db *sql.DB
}

func NewNavRepository(db *sql.DB) *NavRepository {
	return &NavRepository{db: db}
}

// SaveNav guarda el valor liquidativo de un fondo para una fecha. Si ya
// existe uno para ese día lo reemplaza.
func (r *NavRepository) SaveNav(nav *models.FundNav) error {
	if nav.UnitNav <= 0 {
		return errors.New("el valor liquidativo debe ser positivo")
	}

	query := `
		INSERT INTO fund_navs (fund_code, nav_date, unit_nav, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_code, nav_date) DO UPDATE SET unit_nav = excluded.unit_nav`

	_, err := r.db.Exec(query, nav.FundCode, nav.NavDate, nav.UnitNav, time.Now())
	return err
}

// GetLatestNav devuelve el último valor liquidativo guardado del fondo
func (r *NavRepository) GetLatestNav(fundCode string) (*models.FundNav, error) {
	nav := &models.FundNav{}
	query := `
		SELECT fund_code, nav_date, unit_nav
		FROM fund_navs
		WHERE fund_code = ?
		ORDER BY nav_date DESC
		LIMIT 1`

	err := r.db.QueryRow(query, fundCode).Scan(&nav.FundCode, &nav.NavDate, &nav.UnitNav)
	if err == sql.ErrNoRows {
		return nil, errors.New("no hay valor liquidativo guardado para el fondo")
	}
	if err != nil {
		return nil, err
	}

	return nav, nil
}

// GetNavAtDate devuelve el valor liquidativo vigente en una fecha: el último
// guardado en esa fecha o antes. Devuelve 0 si no hay ninguno.
func (r *NavRepository) GetNavAtDate(fundCode, date string) (float64, error) {
	query := `
		SELECT unit_nav
		FROM fund_navs
		WHERE fund_code = ? AND nav_date <= ?
		ORDER BY nav_date DESC
		LIMIT 1`

	var unitNav float64
	err := r.db.QueryRow(query, fundCode, date).Scan(&unitNav)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return unitNav, nil
}

// GetNavHistory devuelve los valores guardados del fondo de más antiguo a más reciente
func (r *NavRepository) GetNavHistory(fundCode string, days int) ([]models.FundNav, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	query := `
		SELECT fund_code, nav_date, unit_nav
		FROM fund_navs
		WHERE fund_code = ? AND nav_date >= ?
		ORDER BY nav_date`

	rows, err := r.db.Query(query, fundCode, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	navs := []models.FundNav{}
	for rows.Next() {
		var nav models.FundNav
		if err := rows.Scan(&nav.FundCode, &nav.NavDate, &nav.UnitNav); err != nil {
			return nil, err
		}
		navs = append(navs, nav)
	}

	return navs, nil
}

// GetSharesAtDate reconstruye las participaciones que el grupo tenía del fondo
// en una fecha a partir del libro de operaciones
func (r *NavRepository) GetSharesAtDate(portfolioID, fundCode, date string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'BUY' THEN shares ELSE -shares END), 0)
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND fund_code = ? AND date(date) <= date(?)`

	var shares float64
	err := r.db.QueryRow(query, portfolioID, fundCode, date).Scan(&shares)
	if err != nil {
		return 0, err
	}
	if shares < 0 {
		shares = 0
	}

	return shares, nil
}

// GetBaseline construye la línea base del aporte por valor para un fondo:
// participaciones y valor liquidativo en la fecha base
func (r *NavRepository) GetBaseline(portfolioID, fundCode, baseDate, targetDate string) (models.FundBaseline, error) {
	shares, err := r.GetSharesAtDate(portfolioID, fundCode, baseDate)
	if err != nil {
		return models.FundBaseline{}, err
	}

	nav, err := r.GetNavAtDate(fundCode, baseDate)
	if err != nil {
		return models.FundBaseline{}, err
	}

	return models.FundBaseline{
		BaseDate:     baseDate,
		TargetDate:   targetDate,
		SharesAtBase: shares,
		NavAtBase:    nav,
	}, nil
}

// GetAvgMonthlyReturn estima la rentabilidad media mensual del fondo a partir
// del último valor de cada mes del historial. Con menos de dos meses de datos
// devuelve la rentabilidad de respaldo.
func (r *NavRepository) GetAvgMonthlyReturn(fundCode string, months int) (float64, error) {
	if months <= 0 {
		months = 12
	}
	since := time.Now().AddDate(0, -months, 0).Format("2006-01-02")

	// Último valor de cada mes
	query := `
		SELECT unit_nav
		FROM fund_navs
		WHERE fund_code = ? AND nav_date >= ?
			AND nav_date IN (
				SELECT MAX(nav_date)
				FROM fund_navs
				WHERE fund_code = ? AND nav_date >= ?
				GROUP BY substr(nav_date, 1, 7)
			)
		ORDER BY nav_date`

	rows, err := r.db.Query(query, fundCode, since, fundCode, since)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var navs []float64
	for rows.Next() {
		var nav float64
		if err := rows.Scan(&nav); err != nil {
			return 0, err
		}
		navs = append(navs, nav)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(navs) < 2 {
		return fallbackMonthlyReturn, nil
	}

	var total float64
	count := 0
	for i := 1; i < len(navs); i++ {
		if navs[i-1] <= 0 {
			continue
		}
		total += (navs[i] - navs[i-1]) / navs[i-1]
		count++
	}
	if count == 0 {
		return fallbackMonthlyReturn, nil
	}

	return total / float64(count), nil
}
