package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, db *sql.DB, table, column, value string) int {
	t.Helper()
	var n int
	query := `SELECT COUNT(*) FROM ` + table + ` WHERE ` + column + ` = ?`
	require.NoError(t, db.QueryRow(query, value).Scan(&n))
	return n
}

func TestDeletePortfolioCascades(t *testing.T) {
	db := setupTestDB(t)
	txRepo := NewTransactionRepository(db)

	require.NoError(t, txRepo.CreateTransaction(buyTransaction("b1", 1000, 1000)))

	_, err := db.Exec(`
		INSERT INTO holding_history (id, portfolio_id, date, total_value, total_cost, profit, profit_percentage)
		VALUES ('h1', 'p1', ?, 1000, 1000, 0, 0)`, time.Now())
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO fund_take_profit_configs (portfolio_id, fund_code, use_custom)
		VALUES ('p1', '000001', 0)`)
	require.NoError(t, err)

	require.NoError(t, NewPortfolioRepository(db).DeletePortfolio("u1", "p1"))

	// Sin posiciones ni operaciones huérfanas tras borrar el grupo
	assert.Equal(t, 0, countRows(t, db, "portfolio_funds", "portfolio_id", "p1"))
	assert.Equal(t, 0, countRows(t, db, "portfolio_transactions", "portfolio_id", "p1"))
	assert.Equal(t, 0, countRows(t, db, "holding_history", "portfolio_id", "p1"))
	assert.Equal(t, 0, countRows(t, db, "fund_take_profit_configs", "portfolio_id", "p1"))
}

func TestDeleteUserRemovesOwnedData(t *testing.T) {
	db := setupTestDB(t)
	txRepo := NewTransactionRepository(db)
	templateRepo := NewTemplateRepository(db)
	repo := &UserRepository{db: db}

	require.NoError(t, txRepo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, templateRepo.EnsureSystemTemplate("u1"))

	_, err := db.Exec(`
		INSERT INTO fund_take_profit_configs (portfolio_id, fund_code, use_custom)
		VALUES ('p1', '000001', 0)`)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser("u1"))

	assert.Equal(t, 0, countRows(t, db, "users", "id", "u1"))
	assert.Equal(t, 0, countRows(t, db, "portfolios", "user_id", "u1"))
	assert.Equal(t, 0, countRows(t, db, "portfolio_funds", "portfolio_id", "p1"))
	assert.Equal(t, 0, countRows(t, db, "portfolio_transactions", "portfolio_id", "p1"))
	assert.Equal(t, 0, countRows(t, db, "take_profit_templates", "user_id", "u1"))
	assert.Equal(t, 0, countRows(t, db, "fund_take_profit_configs", "portfolio_id", "p1"))
}

func TestDeleteUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := &UserRepository{db: db}

	assert.EqualError(t, repo.DeleteUser("desconocido"), "usuario no encontrado")
}
