package models

import "time"

// Portfolio representa un grupo de fondos con su efectivo disponible
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Cash        float64   `json:"cash"`
	TotalValue  float64   `json:"total_value"` // Campo calculado, no almacenado
	Funds       []PortfolioFund `json:"funds,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PortfolioFund representa la posición de un fondo dentro de un grupo
type PortfolioFund struct {
	PortfolioID   string    `json:"portfolio_id"`
	FundCode      string    `json:"fund_code" binding:"required"`
	FundName      string    `json:"fund_name"`
	Shares        float64   `json:"shares"`
	BuyNav        float64   `json:"buy_nav"`      // Precio medio de compra ponderado
	DilutedCost   float64   `json:"diluted_cost"` // Coste diluido tras ventas parciales
	LatestNav     float64   `json:"latest_nav"`   // Campo calculado, no almacenado
	NavDate       string    `json:"nav_date"`     // Campo calculado, no almacenado
	MarketValue   float64   `json:"market_value"` // Campo calculado, no almacenado
	Profit        float64   `json:"profit"`       // Campo calculado, no almacenado
	ProfitRate    float64   `json:"profit_rate"`  // Porcentaje, campo calculado
	AvailableCash float64   `json:"available_cash"` // Efectivo neto atribuible al fondo
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PortfolioSummary es el resumen de valoración de un grupo
type PortfolioSummary struct {
	PortfolioID   string  `json:"portfolio_id"`
	PortfolioName string  `json:"portfolio_name"`
	TotalFunds    int     `json:"total_funds"`
	TotalValue    float64 `json:"total_value"`
	TotalCost     float64 `json:"total_cost"`
	TotalProfit   float64 `json:"total_profit"`
	ProfitRate    float64 `json:"profit_rate"` // Porcentaje
	Cash          float64 `json:"cash"`
}

// PortfolioValuePoint es un punto del historial diario de valor de un grupo
type PortfolioValuePoint struct {
	ID               string    `json:"id"`
	PortfolioID      string    `json:"portfolio_id"`
	Date             time.Time `json:"date"`
	TotalValue       float64   `json:"total_value"`
	TotalCost        float64   `json:"total_cost"`
	Profit           float64   `json:"profit"`
	ProfitPercentage float64   `json:"profit_percentage"`
}
