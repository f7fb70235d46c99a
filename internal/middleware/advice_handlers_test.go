package middleware

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/database"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/repository"
)

func setupHandlerDB(t *testing.T) *sql.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	// Cada conexión nueva abriría otra base en memoria distinta
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateTables(db))

	_, err = db.Exec(`INSERT INTO users (id, email, password, name) VALUES ('u1', 'test@test.com', 'x', 'Test')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO portfolios (id, user_id, name, cash) VALUES ('p1', 'u1', 'Cartera', 5000)`)
	require.NoError(t, err)

	database.DB = db
	InitPortfolio()

	return db
}

func TestGetTakeProfitAdviceUsesFundAvailableCash(t *testing.T) {
	db := setupHandlerDB(t)
	txRepo := repository.NewTransactionRepository(db)

	// Posición de 700 participaciones tras vender 300 a 2.00
	require.NoError(t, txRepo.CreateTransaction(&models.FundTransaction{
		ID: "b1", PortfolioID: "p1", FundCode: "000001",
		Type: models.TransactionTypeBuy, Date: time.Now().AddDate(0, 0, -20),
		Shares: 1000, Amount: 1000,
	}))
	require.NoError(t, txRepo.CreateTransaction(&models.FundTransaction{
		ID: "s1", PortfolioID: "p1", FundCode: "000001",
		Type: models.TransactionTypeSell, Date: time.Now().AddDate(0, 0, -10),
		Shares: 300, Amount: 600,
	}))

	// Una recompra anterior ya gastó 400 del efectivo atribuible al fondo
	_, err := db.Exec(`
		INSERT INTO portfolio_transactions (id, portfolio_id, fund_code, type, date, shares, amount, nav, buy_back_id)
		VALUES ('bb0', 'p1', '000001', 'BUY', ?, 200, 400, 2.0, 's0')`, time.Now().AddDate(0, 0, -5))
	require.NoError(t, err)

	// Recompra habilitada para el fondo y valor actual un 22.5% por debajo
	// de la venta pendiente
	_, err = db.Exec(`
		INSERT INTO fund_take_profit_configs (portfolio_id, fund_code, use_custom, custom_enable_buy_back, custom_buy_back_threshold)
		VALUES ('p1', '000001', 1, 1, 0.2)`)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO fund_navs (fund_code, nav_date, unit_nav)
		VALUES ('000001', ?, 1.55)`, time.Now().Format("2006-01-02"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("userId", "u1")
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	GetTakeProfitAdvice(c)

	require.Equal(t, http.StatusOK, w.Code)

	var advice models.TakeProfitAdvice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &advice))
	require.Len(t, advice.Funds, 1)

	// El efectivo del fondo son 200 (600 vendidos - 400 recomprados); la
	// recompra de 465 no cabe aunque el grupo tenga 5600 de efectivo
	result := advice.Funds[0]
	assert.InDelta(t, 200.0, result.AvailableCash, 1e-9)
	assert.Equal(t, models.ActionHold, result.Action)
	assert.Contains(t, result.Reason, "efectivo")
}
