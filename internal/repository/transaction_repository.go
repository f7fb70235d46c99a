package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

// Tolerancia al comparar las participaciones de la recompra con las de la venta
const buyBackSharesTolerance = 0.01

var (
	ErrSellAlreadyRecovered = errors.New("la venta objetivo ya fue recuperada")
	ErrInsufficientCash     = errors.New("el efectivo del grupo no cubre la recompra")
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateTransaction registra una operación y actualiza la posición y el
// efectivo del grupo dentro de la misma transacción
func (r *TransactionRepository) CreateTransaction(tx *models.FundTransaction) error {
	if tx.Type != models.TransactionTypeBuy && tx.Type != models.TransactionTypeSell {
		return fmt.Errorf("tipo de operación desconocido: %s", tx.Type)
	}
	if tx.Shares <= 0 || tx.Amount <= 0 {
		return errors.New("las participaciones y el importe deben ser positivos")
	}

	if tx.ID == "" {
		tx.ID = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	if tx.Nav <= 0 {
		tx.Nav = tx.Amount / tx.Shares
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}

	dbTx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if tx.Type == models.TransactionTypeBuy {
		if err := r.applyBuy(dbTx, tx); err != nil {
			return err
		}
	} else {
		if err := r.applySell(dbTx, tx); err != nil {
			return err
		}
	}

	insertQuery := `
		INSERT INTO portfolio_transactions (id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, buy_back_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

	_, err = dbTx.Exec(insertQuery,
		tx.ID,
		tx.PortfolioID,
		tx.FundCode,
		tx.Type,
		tx.Date,
		tx.Shares,
		tx.Amount,
		tx.Nav,
		tx.Fee,
		tx.BuyBackID,
		tx.Notes,
	)
	if err != nil {
		return err
	}

	return dbTx.Commit()
}

// applyBuy incorpora una compra a la posición, promediando el precio de
// compra y el coste diluido
func (r *TransactionRepository) applyBuy(dbTx *sql.Tx, tx *models.FundTransaction) error {
	var shares, buyNav, dilutedCost float64
	var fundName string

	query := `SELECT fund_name, shares, buy_nav, diluted_cost FROM portfolio_funds WHERE portfolio_id = ? AND fund_code = ?`
	err := dbTx.QueryRow(query, tx.PortfolioID, tx.FundCode).Scan(&fundName, &shares, &buyNav, &dilutedCost)

	if err == sql.ErrNoRows {
		nav := tx.Amount / tx.Shares
		insertQuery := `
			INSERT INTO portfolio_funds (portfolio_id, fund_code, fund_name, shares, buy_nav, diluted_cost)
			VALUES (?, ?, ?, ?, ?, ?)`
		_, err := dbTx.Exec(insertQuery, tx.PortfolioID, tx.FundCode, tx.FundCode, tx.Shares, nav, nav)
		return err
	}
	if err != nil {
		return err
	}

	newShares := shares + tx.Shares
	newBuyNav := (shares*buyNav + tx.Amount) / newShares
	newDilutedCost := (shares*dilutedCost + tx.Amount) / newShares

	updateQuery := `
		UPDATE portfolio_funds
		SET shares = ?, buy_nav = ?, diluted_cost = ?, updated_at = CURRENT_TIMESTAMP
		WHERE portfolio_id = ? AND fund_code = ?`
	_, err = dbTx.Exec(updateQuery, newShares, newBuyNav, newDilutedCost, tx.PortfolioID, tx.FundCode)
	return err
}

// applySell descuenta la venta de la posición, recalcula el coste diluido y
// añade el importe al efectivo del grupo
func (r *TransactionRepository) applySell(dbTx *sql.Tx, tx *models.FundTransaction) error {
	var shares, buyNav, dilutedCost float64

	query := `SELECT shares, buy_nav, diluted_cost FROM portfolio_funds WHERE portfolio_id = ? AND fund_code = ?`
	err := dbTx.QueryRow(query, tx.PortfolioID, tx.FundCode).Scan(&shares, &buyNav, &dilutedCost)
	if err == sql.ErrNoRows {
		return errors.New("el fondo no está en el grupo")
	}
	if err != nil {
		return err
	}

	if tx.Shares > shares+buyBackSharesTolerance {
		return fmt.Errorf("no hay participaciones suficientes: %.2f disponibles, %.2f solicitadas", shares, tx.Shares)
	}

	newShares := shares - tx.Shares
	if newShares < 0 {
		newShares = 0
	}

	// El importe de la venta reduce la base de coste restante. El coste
	// diluido puede llegar a ser cero o negativo: principal recuperado.
	newDilutedCost := 0.0
	if newShares > 0 {
		remainingCostBasis := shares*dilutedCost - tx.Amount
		newDilutedCost = remainingCostBasis / newShares
	}

	updateQuery := `
		UPDATE portfolio_funds
		SET shares = ?, diluted_cost = ?, updated_at = CURRENT_TIMESTAMP
		WHERE portfolio_id = ? AND fund_code = ?`
	if _, err := dbTx.Exec(updateQuery, newShares, newDilutedCost, tx.PortfolioID, tx.FundCode); err != nil {
		return err
	}

	// El importe de la venta pasa al efectivo del grupo
	_, err = dbTx.Exec(`UPDATE portfolios SET cash = cash + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, tx.Amount, tx.PortfolioID)
	return err
}

func (r *TransactionRepository) GetTransactions(portfolioID, fundCode string) ([]models.FundTransaction, error) {
	query := `
		SELECT id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, COALESCE(buy_back_id, ''), COALESCE(notes, ''), created_at
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND fund_code = ?
		ORDER BY date DESC`

	return r.queryTransactions(query, portfolioID, fundCode)
}

func (r *TransactionRepository) GetPortfolioTransactions(portfolioID string) ([]models.FundTransaction, error) {
	query := `
		SELECT id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, COALESCE(buy_back_id, ''), COALESCE(notes, ''), created_at
		FROM portfolio_transactions
		WHERE portfolio_id = ?
		ORDER BY date DESC`

	return r.queryTransactions(query, portfolioID)
}

// GetSellTransactions devuelve las ventas de un fondo de más reciente a más antigua
func (r *TransactionRepository) GetSellTransactions(portfolioID, fundCode string) ([]models.FundTransaction, error) {
	query := `
		SELECT id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, COALESCE(buy_back_id, ''), COALESCE(notes, ''), created_at
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND fund_code = ? AND type = 'SELL'
		ORDER BY date DESC`

	return r.queryTransactions(query, portfolioID, fundCode)
}

// GetUnrecoveredSells devuelve las ventas sin recuperar de más antigua a más reciente
func (r *TransactionRepository) GetUnrecoveredSells(portfolioID, fundCode string) ([]models.FundTransaction, error) {
	query := `
		SELECT id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, COALESCE(buy_back_id, ''), COALESCE(notes, ''), created_at
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND fund_code = ? AND type = 'SELL' AND is_recovered = 0
		ORDER BY date`

	return r.queryTransactions(query, portfolioID, fundCode)
}

func (r *TransactionRepository) GetTransaction(portfolioID, transactionID string) (*models.FundTransaction, error) {
	query := `
		SELECT id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, COALESCE(buy_back_id, ''), COALESCE(notes, ''), created_at
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND id = ?`

	transactions, err := r.queryTransactions(query, portfolioID, transactionID)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, errors.New("operación no encontrada")
	}

	return &transactions[0], nil
}

func (r *TransactionRepository) queryTransactions(query string, args ...interface{}) ([]models.FundTransaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.FundTransaction{}
	for rows.Next() {
		var tx models.FundTransaction
		err := rows.Scan(
			&tx.ID,
			&tx.PortfolioID,
			&tx.FundCode,
			&tx.Type,
			&tx.Date,
			&tx.Shares,
			&tx.Amount,
			&tx.Nav,
			&tx.Fee,
			&tx.IsRecovered,
			&tx.BuyBackID,
			&tx.Notes,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

// ExecuteBuyBack ejecuta una recompra de banda de forma atómica: registra la
// compra, marca la venta objetivo como recuperada, actualiza la posición y
// descuenta el efectivo. Si cualquier paso falla no se aplica ninguno.
func (r *TransactionRepository) ExecuteBuyBack(portfolioID, fundCode string, req *models.BuyBackRequest) (*models.BuyBackResult, error) {
	dbTx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback()

	// Verificar el grupo y su efectivo
	var cash float64
	err = dbTx.QueryRow(`SELECT cash FROM portfolios WHERE id = ?`, portfolioID).Scan(&cash)
	if err == sql.ErrNoRows {
		return nil, errors.New("grupo no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if cash < req.Amount {
		return nil, ErrInsufficientCash
	}

	// Verificar la venta objetivo
	var target models.FundTransaction
	query := `
		SELECT id, fund_code, type, shares, nav, is_recovered
		FROM portfolio_transactions
		WHERE portfolio_id = ? AND id = ?`
	err = dbTx.QueryRow(query, portfolioID, req.TargetSellTransactionID).Scan(
		&target.ID,
		&target.FundCode,
		&target.Type,
		&target.Shares,
		&target.Nav,
		&target.IsRecovered,
	)
	if err == sql.ErrNoRows {
		return nil, errors.New("la venta objetivo no existe")
	}
	if err != nil {
		return nil, err
	}

	if target.Type != models.TransactionTypeSell {
		return nil, errors.New("la operación objetivo no es una venta")
	}
	if target.FundCode != fundCode {
		return nil, errors.New("la venta objetivo pertenece a otro fondo")
	}
	if target.IsRecovered {
		return nil, ErrSellAlreadyRecovered
	}
	if math.Abs(target.Shares-req.Shares) > buyBackSharesTolerance {
		return nil, fmt.Errorf("la recompra debe reponer las %.2f participaciones vendidas", target.Shares)
	}

	buyID := fmt.Sprintf("%d", time.Now().UnixNano())
	date := time.Now()
	if req.Date != "" {
		if parsed, err := time.Parse("2006-01-02", req.Date); err == nil {
			date = parsed
		}
	}
	nav := req.Nav
	if nav <= 0 {
		nav = req.Amount / req.Shares
	}

	// Registrar la compra apuntando a la venta que recupera
	insertQuery := `
		INSERT INTO portfolio_transactions (id, portfolio_id, fund_code, type, date, shares, amount, nav, fee, is_recovered, buy_back_id, notes)
		VALUES (?, ?, ?, 'BUY', ?, ?, ?, ?, ?, 0, ?, ?)`
	_, err = dbTx.Exec(insertQuery, buyID, portfolioID, fundCode, date, req.Shares, req.Amount, nav, req.Fee, target.ID, req.Notes)
	if err != nil {
		return nil, err
	}

	// Marcar la venta como recuperada. La condición is_recovered = 0 evita
	// recuperar dos veces la misma venta bajo concurrencia.
	result, err := dbTx.Exec(
		`UPDATE portfolio_transactions SET is_recovered = 1, buy_back_id = ? WHERE id = ? AND is_recovered = 0`,
		buyID, target.ID,
	)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrSellAlreadyRecovered
	}

	// Incorporar las participaciones recompradas a la posición
	var shares, buyNav, dilutedCost float64
	var fundName string
	err = dbTx.QueryRow(
		`SELECT fund_name, shares, buy_nav, diluted_cost FROM portfolio_funds WHERE portfolio_id = ? AND fund_code = ?`,
		portfolioID, fundCode,
	).Scan(&fundName, &shares, &buyNav, &dilutedCost)
	if err == sql.ErrNoRows {
		return nil, errors.New("el fondo no está en el grupo")
	}
	if err != nil {
		return nil, err
	}

	newShares := shares + req.Shares
	newBuyNav := (shares*buyNav + req.Amount) / newShares
	newDilutedCost := (shares*dilutedCost + req.Amount) / newShares

	_, err = dbTx.Exec(
		`UPDATE portfolio_funds SET shares = ?, buy_nav = ?, diluted_cost = ?, updated_at = CURRENT_TIMESTAMP WHERE portfolio_id = ? AND fund_code = ?`,
		newShares, newBuyNav, newDilutedCost, portfolioID, fundCode,
	)
	if err != nil {
		return nil, err
	}

	// Descontar el efectivo. La condición cash >= importe vuelve a comprobar
	// el saldo dentro de la transacción.
	result, err = dbTx.Exec(
		`UPDATE portfolios SET cash = cash - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND cash >= ?`,
		req.Amount, portfolioID, req.Amount,
	)
	if err != nil {
		return nil, err
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInsufficientCash
	}

	if err := dbTx.Commit(); err != nil {
		return nil, err
	}

	return &models.BuyBackResult{
		FundCode:                fundCode,
		FundName:                fundName,
		Shares:                  req.Shares,
		Amount:                  req.Amount,
		TargetSellTransactionID: target.ID,
		BuyTransactionID:        buyID,
		NewCashBalance:          cash - req.Amount,
		Date:                    date.Format("2006-01-02"),
	}, nil
}

// DeleteTransaction elimina una operación sin recalcular la posición.
// Pensado para corregir errores de captura recientes.
func (r *TransactionRepository) DeleteTransaction(portfolioID, transactionID string) error {
	result, err := r.db.Exec(
		`DELETE FROM portfolio_transactions WHERE portfolio_id = ? AND id = ?`,
		portfolioID, transactionID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("operación no encontrada")
	}

	return nil
}
