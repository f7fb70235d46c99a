package models

import "time"

// Tipos de transacción
const (
	TransactionTypeBuy  = "BUY"
	TransactionTypeSell = "SELL"
)

// FundTransaction es una entrada inmutable del libro de operaciones de un grupo
type FundTransaction struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	FundCode    string    `json:"fund_code" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=BUY SELL"`
	Date        time.Time `json:"date"`
	Shares      float64   `json:"shares" binding:"required,gt=0"`
	Amount      float64   `json:"amount" binding:"required,gt=0"`
	Nav         float64   `json:"nav"`
	Fee         float64   `json:"fee"`
	IsRecovered bool      `json:"is_recovered"`          // Solo ventas: marca si ya fue recomprada
	BuyBackID   string    `json:"buy_back_id,omitempty"` // ID de la compra que recuperó esta venta
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BuyBackRequest es la petición para ejecutar una recompra de banda
type BuyBackRequest struct {
	TargetSellTransactionID string  `json:"target_sell_transaction_id" binding:"required"`
	Shares                  float64 `json:"shares" binding:"required,gt=0"`
	Amount                  float64 `json:"amount" binding:"required,gt=0"`
	Nav                     float64 `json:"nav"`
	Date                    string  `json:"date"`
	Fee                     float64 `json:"fee"`
	Notes                   string  `json:"notes"`
}

// BuyBackResult es el resultado de una recompra ejecutada
type BuyBackResult struct {
	FundCode                string  `json:"fund_code"`
	FundName                string  `json:"fund_name"`
	Shares                  float64 `json:"shares"`
	Amount                  float64 `json:"amount"`
	TargetSellTransactionID string  `json:"target_sell_transaction_id"`
	BuyTransactionID        string  `json:"buy_transaction_id"`
	NewCashBalance          float64 `json:"new_cash_balance"`
	Date                    string  `json:"date"`
}
