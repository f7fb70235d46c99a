package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func InitDB() error {
	// Crear el directorio database si no existe
	if err := os.MkdirAll("database", 0755); err != nil {
		return err
	}

	// Las claves foráneas van desactivadas por defecto en SQLite; sin
	// activarlas los ON DELETE CASCADE del esquema no hacen nada
	dsn := "file:" + filepath.Join("database", "fondos.db") + "?_foreign_keys=on"

	var err error
	DB, err = sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}

	if err := CreateTables(DB); err != nil {
		return err
	}

	// Ejecutar migraciones para actualizar el esquema
	return RunMigrations(DB)
}

// CreateTables crea el esquema completo sobre la conexión dada. Los tests
// la usan con una base en memoria.
func CreateTables(db *sql.DB) error {
	// Crear tabla de usuarios si no existe
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return err
	}

	// Crear tabla de grupos de cartera
	createPortfoliosTableSQL := `
	CREATE TABLE IF NOT EXISTS portfolios (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		cash REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createPortfoliosTableSQL); err != nil {
		return err
	}

	// Crear tabla de posiciones por grupo
	createPortfolioFundsTableSQL := `
	CREATE TABLE IF NOT EXISTS portfolio_funds (
		portfolio_id TEXT NOT NULL,
		fund_code TEXT NOT NULL,
		fund_name TEXT NOT NULL,
		shares REAL NOT NULL DEFAULT 0,
		buy_nav REAL NOT NULL DEFAULT 0,
		diluted_cost REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY(portfolio_id, fund_code),
		FOREIGN KEY(portfolio_id) REFERENCES portfolios(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createPortfolioFundsTableSQL); err != nil {
		return err
	}

	// Crear tabla del libro de operaciones
	createTransactionsTableSQL := `
	CREATE TABLE IF NOT EXISTS portfolio_transactions (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL,
		fund_code TEXT NOT NULL,
		type TEXT NOT NULL,
		date DATETIME NOT NULL,
		shares REAL NOT NULL,
		amount REAL NOT NULL,
		nav REAL NOT NULL,
		fee REAL DEFAULT 0,
		is_recovered INTEGER DEFAULT 0,
		buy_back_id TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(portfolio_id) REFERENCES portfolios(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createTransactionsTableSQL); err != nil {
		return err
	}

	createTransactionsIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_portfolio_transactions_fund
	ON portfolio_transactions(portfolio_id, fund_code, date);`

	if _, err := db.Exec(createTransactionsIndexSQL); err != nil {
		return err
	}

	// Crear tabla de valores liquidativos
	createFundNavsTableSQL := `
	CREATE TABLE IF NOT EXISTS fund_navs (
		fund_code TEXT NOT NULL,
		nav_date TEXT NOT NULL,
		unit_nav REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY(fund_code, nav_date)
	);`

	if _, err := db.Exec(createFundNavsTableSQL); err != nil {
		return err
	}

	// Crear tabla para el historial de valor de cada grupo
	createHoldingHistoryTableSQL := `
	CREATE TABLE IF NOT EXISTS holding_history (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		total_value REAL NOT NULL,
		total_cost REAL NOT NULL,
		profit REAL NOT NULL,
		profit_percentage REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(portfolio_id) REFERENCES portfolios(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createHoldingHistoryTableSQL); err != nil {
		return err
	}

	createHoldingHistoryIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_holding_history_portfolio_date
	ON holding_history(portfolio_id, date);`

	if _, err := db.Exec(createHoldingHistoryIndexSQL); err != nil {
		return err
	}

	// Crear tabla de plantillas de recogida de beneficios
	createTemplatesTableSQL := `
	CREATE TABLE IF NOT EXISTS take_profit_templates (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		first_threshold REAL NOT NULL,
		first_sell_ratio REAL NOT NULL,
		step_size REAL NOT NULL,
		follow_up_sell_ratio REAL NOT NULL,
		enable_cost_control INTEGER DEFAULT 1,
		target_diluted_cost REAL DEFAULT 0,
		enable_buy_back INTEGER DEFAULT 0,
		buy_back_threshold REAL DEFAULT 0.2,
		is_default INTEGER DEFAULT 0,
		is_system INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createTemplatesTableSQL); err != nil {
		return err
	}

	// Crear tabla de configuración de recogida por fondo
	createFundConfigsTableSQL := `
	CREATE TABLE IF NOT EXISTS fund_take_profit_configs (
		portfolio_id TEXT NOT NULL,
		fund_code TEXT NOT NULL,
		template_id TEXT,
		use_custom INTEGER DEFAULT 0,
		custom_first_threshold REAL,
		custom_first_sell_ratio REAL,
		custom_step_size REAL,
		custom_follow_up_sell_ratio REAL,
		custom_enable_cost_control INTEGER,
		custom_target_diluted_cost REAL,
		custom_enable_buy_back INTEGER,
		custom_buy_back_threshold REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY(portfolio_id, fund_code),
		FOREIGN KEY(portfolio_id) REFERENCES portfolios(id) ON DELETE CASCADE,
		FOREIGN KEY(template_id) REFERENCES take_profit_templates(id) ON DELETE SET NULL
	);`

	if _, err := db.Exec(createFundConfigsTableSQL); err != nil {
		return err
	}

	return nil
}
