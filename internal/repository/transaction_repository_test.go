package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/database"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	// Cada conexión nueva abriría otra base en memoria distinta
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateTables(db))

	_, err = db.Exec(`INSERT INTO users (id, email, password, name) VALUES ('u1', 'test@test.com', 'x', 'Test')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO portfolios (id, user_id, name, cash) VALUES ('p1', 'u1', 'Cartera', 1000)`)
	require.NoError(t, err)

	return db
}

func buyTransaction(id string, shares, amount float64) *models.FundTransaction {
	return &models.FundTransaction{
		ID:          id,
		PortfolioID: "p1",
		FundCode:    "000001",
		Type:        models.TransactionTypeBuy,
		Date:        time.Now(),
		Shares:      shares,
		Amount:      amount,
	}
}

func sellTransaction(id string, shares, amount float64) *models.FundTransaction {
	return &models.FundTransaction{
		ID:          id,
		PortfolioID: "p1",
		FundCode:    "000001",
		Type:        models.TransactionTypeSell,
		Date:        time.Now(),
		Shares:      shares,
		Amount:      amount,
	}
}

func TestCreateTransactionBuyCreatesHolding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))

	funds, err := NewPortfolioRepository(db).GetPortfolioFunds("p1")
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.InDelta(t, 1000.0, funds[0].Shares, 1e-9)
	assert.InDelta(t, 1.0, funds[0].BuyNav, 1e-9)
	assert.InDelta(t, 1.0, funds[0].DilutedCost, 1e-9)
}

func TestCreateTransactionBuyAverages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(buyTransaction("b2", 1000, 1200)))

	funds, err := NewPortfolioRepository(db).GetPortfolioFunds("p1")
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.InDelta(t, 2000.0, funds[0].Shares, 1e-9)
	// Precio medio ponderado: (1000 + 1200) / 2000
	assert.InDelta(t, 1.1, funds[0].BuyNav, 1e-9)
}

func TestCreateTransactionSellDilutesCost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(sellTransaction("s1", 300, 375)))

	funds, err := NewPortfolioRepository(db).GetPortfolioFunds("p1")
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.InDelta(t, 700.0, funds[0].Shares, 1e-9)
	// Base restante (1000 - 375) repartida entre 700 participaciones
	assert.InDelta(t, 625.0/700.0, funds[0].DilutedCost, 1e-9)

	// El importe de la venta pasa al efectivo del grupo
	cash, err := NewPortfolioRepository(db).GetCash("p1")
	require.NoError(t, err)
	assert.InDelta(t, 1375.0, cash, 1e-9)
}

func TestCreateTransactionSellWithoutShares(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	err := repo.CreateTransaction(sellTransaction("s1", 100, 125))
	assert.Error(t, err)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 100, 100)))
	err = repo.CreateTransaction(sellTransaction("s2", 500, 625))
	assert.Error(t, err)
}

func TestGetSellTransactionsOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))

	oldSell := sellTransaction("s1", 100, 120)
	oldSell.Date = time.Now().AddDate(0, 0, -30)
	require.NoError(t, repo.CreateTransaction(oldSell))

	newSell := sellTransaction("s2", 100, 130)
	require.NoError(t, repo.CreateTransaction(newSell))

	sells, err := repo.GetSellTransactions("p1", "000001")
	require.NoError(t, err)
	require.Len(t, sells, 2)
	assert.Equal(t, "s2", sells[0].ID)

	unrecovered, err := repo.GetUnrecoveredSells("p1", "000001")
	require.NoError(t, err)
	require.Len(t, unrecovered, 2)
	assert.Equal(t, "s1", unrecovered[0].ID)
}

func TestExecuteBuyBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(sellTransaction("s1", 300, 600)))

	result, err := repo.ExecuteBuyBack("p1", "000001", &models.BuyBackRequest{
		TargetSellTransactionID: "s1",
		Shares:                  300,
		Amount:                  465,
		Nav:                     1.55,
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", result.TargetSellTransactionID)
	assert.NotEmpty(t, result.BuyTransactionID)
	// Efectivo inicial 1000 + venta 600 - recompra 465
	assert.InDelta(t, 1135.0, result.NewCashBalance, 1e-9)

	// La venta queda marcada como recuperada
	sells, err := repo.GetSellTransactions("p1", "000001")
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.True(t, sells[0].IsRecovered)
	assert.Equal(t, result.BuyTransactionID, sells[0].BuyBackID)

	// Las participaciones vuelven a la posición
	funds, err := NewPortfolioRepository(db).GetPortfolioFunds("p1")
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.InDelta(t, 1000.0, funds[0].Shares, 1e-9)

	cash, err := NewPortfolioRepository(db).GetCash("p1")
	require.NoError(t, err)
	assert.InDelta(t, 1135.0, cash, 1e-9)
}

func TestExecuteBuyBackDoubleRecovery(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(sellTransaction("s1", 300, 600)))

	req := &models.BuyBackRequest{
		TargetSellTransactionID: "s1",
		Shares:                  300,
		Amount:                  465,
	}

	_, err := repo.ExecuteBuyBack("p1", "000001", req)
	require.NoError(t, err)

	// La segunda recompra sobre la misma venta debe fallar sin aplicar nada
	_, err = repo.ExecuteBuyBack("p1", "000001", req)
	assert.ErrorIs(t, err, ErrSellAlreadyRecovered)

	funds, err := NewPortfolioRepository(db).GetPortfolioFunds("p1")
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, funds[0].Shares, 1e-9)

	cash, err := NewPortfolioRepository(db).GetCash("p1")
	require.NoError(t, err)
	assert.InDelta(t, 1135.0, cash, 1e-9)
}

func TestExecuteBuyBackInsufficientCash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(sellTransaction("s1", 300, 600)))

	_, err := repo.ExecuteBuyBack("p1", "000001", &models.BuyBackRequest{
		TargetSellTransactionID: "s1",
		Shares:                  300,
		Amount:                  99999,
	})
	assert.ErrorIs(t, err, ErrInsufficientCash)

	// La venta sigue sin recuperar
	unrecovered, err := repo.GetUnrecoveredSells("p1", "000001")
	require.NoError(t, err)
	assert.Len(t, unrecovered, 1)
}

func TestExecuteBuyBackSharesMismatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(sellTransaction("s1", 300, 600)))

	// La recompra debe reponer exactamente las participaciones vendidas
	_, err := repo.ExecuteBuyBack("p1", "000001", &models.BuyBackRequest{
		TargetSellTransactionID: "s1",
		Shares:                  200,
		Amount:                  310,
	})
	assert.Error(t, err)
}

func TestExecuteBuyBackWrongTarget(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))

	// Una compra no puede ser objetivo de recompra
	_, err := repo.ExecuteBuyBack("p1", "000001", &models.BuyBackRequest{
		TargetSellTransactionID: "b1",
		Shares:                  1000,
		Amount:                  1000,
	})
	assert.Error(t, err)

	_, err = repo.ExecuteBuyBack("p1", "000001", &models.BuyBackRequest{
		TargetSellTransactionID: "no-existe",
		Shares:                  300,
		Amount:                  465,
	})
	assert.Error(t, err)
}

func TestGetFundAvailableCash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)
	portfolioRepo := NewPortfolioRepository(db)

	require.NoError(t, repo.CreateTransaction(buyTransaction("b1", 1000, 1000)))
	require.NoError(t, repo.CreateTransaction(sellTransaction("s1", 300, 600)))

	cash, err := portfolioRepo.GetFundAvailableCash("p1", "000001")
	require.NoError(t, err)
	assert.InDelta(t, 600.0, cash, 1e-9)

	_, err = repo.ExecuteBuyBack("p1", "000001", &models.BuyBackRequest{
		TargetSellTransactionID: "s1",
		Shares:                  300,
		Amount:                  465,
	})
	require.NoError(t, err)

	// La recompra descuenta del efectivo atribuible al fondo
	cash, err = portfolioRepo.GetFundAvailableCash("p1", "000001")
	require.NoError(t, err)
	assert.InDelta(t, 135.0, cash, 1e-9)
}
