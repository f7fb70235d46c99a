package services

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/database"
)

// NavRepositoryInterface define las operaciones que necesitamos del repositorio
type NavRepositoryInterface interface {
	SaveNav(fundCode, navDate string, unitNav float64) error
	GetHeldFundCodes() ([]string, error)
}

type SnapshotRepositoryInterface interface {
	SaveHoldingSnapshot(portfolioID string, totalValue, totalCost, profit, profitPercentage float64) error
	GetPortfolioTotals(portfolioID string) (totalValue, totalCost float64, err error)
	GetAllPortfolioIDs() ([]string, error)
}

// NavUpdater actualiza periódicamente los valores liquidativos de los fondos
// en cartera y guarda la foto diaria de cada grupo
type NavUpdater struct {
	interval     time.Duration
	navRepo      NavRepositoryInterface
	snapshotRepo SnapshotRepositoryInterface
	isRunning    bool
	stopChan     chan struct{}
	mutex        sync.Mutex
	lastUpdated  time.Time
}

// NewNavUpdater crea un nuevo servicio de actualización de valores liquidativos
func NewNavUpdater(interval time.Duration) *NavUpdater {
	// Aquí usamos la implementación concreta, pero a través de la interfaz
	return &NavUpdater{
		interval:     interval,
		navRepo:      &navRepositoryAdapter{db: database.DB},
		snapshotRepo: &snapshotRepositoryAdapter{db: database.DB},
		isRunning:    false,
		stopChan:     make(chan struct{}),
	}
}

// Start inicia el servicio de actualización
func (u *NavUpdater) Start() {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if u.isRunning {
		return
	}

	u.isRunning = true
	u.stopChan = make(chan struct{})

	go func() {
		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()

		// Actualizar inmediatamente al iniciar
		u.updateAll()

		for {
			select {
			case <-ticker.C:
				u.updateAll()
			case <-u.stopChan:
				return
			}
		}
	}()

	log.Printf("Servicio de actualización de valores liquidativos iniciado con intervalo de %v", u.interval)
}

// Stop detiene el servicio de actualización
func (u *NavUpdater) Stop() {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	if !u.isRunning {
		return
	}

	u.isRunning = false
	close(u.stopChan)
	log.Printf("Servicio de actualización de valores liquidativos detenido")
}

// GetLastUpdated devuelve la última vez que se actualizaron los valores
func (u *NavUpdater) GetLastUpdated() time.Time {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	return u.lastUpdated
}

// updateAll refresca los valores de todos los fondos en cartera y guarda
// la foto diaria de cada grupo
func (u *NavUpdater) updateAll() {
	codes, err := u.navRepo.GetHeldFundCodes()
	if err != nil {
		log.Printf("Error al obtener los fondos en cartera: %v", err)
		return
	}

	updated := 0
	for _, code := range codes {
		quote, err := GetFundQuote(code)
		if err != nil {
			log.Printf("Error al actualizar el fondo %s: %v", code, err)
			continue
		}

		if err := u.navRepo.SaveNav(code, quote.NavDate, quote.UnitNav); err != nil {
			log.Printf("Error al guardar el valor liquidativo de %s: %v", code, err)
			continue
		}
		updated++
	}

	u.saveDailySnapshots()

	u.mutex.Lock()
	u.lastUpdated = time.Now()
	u.mutex.Unlock()

	log.Printf("Actualización de valores completada: %d de %d fondos", updated, len(codes))
}

// saveDailySnapshots guarda la foto diaria de valor de cada grupo
func (u *NavUpdater) saveDailySnapshots() {
	portfolios, err := u.snapshotRepo.GetAllPortfolioIDs()
	if err != nil {
		log.Printf("Error al obtener los grupos: %v", err)
		return
	}

	for _, portfolioID := range portfolios {
		totalValue, totalCost, err := u.snapshotRepo.GetPortfolioTotals(portfolioID)
		if err != nil {
			log.Printf("Error al calcular los totales del grupo %s: %v", portfolioID, err)
			continue
		}

		profit := totalValue - totalCost
		profitPercentage := 0.0
		if totalCost > 0 {
			profitPercentage = (profit / totalCost) * 100
		}

		if err := u.snapshotRepo.SaveHoldingSnapshot(portfolioID, totalValue, totalCost, profit, profitPercentage); err != nil {
			log.Printf("Error al guardar la foto del grupo %s: %v", portfolioID, err)
		}
	}
}

// Adaptadores sobre la base de datos

type navRepositoryAdapter struct {
	db *sql.DB
}

func (a *navRepositoryAdapter) SaveNav(fundCode, navDate string, unitNav float64) error {
	if unitNav <= 0 {
		log.Printf("No se guardó el valor de %s porque no es válido: %f", fundCode, unitNav)
		return nil
	}

	query := `
		INSERT INTO fund_navs (fund_code, nav_date, unit_nav, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fund_code, nav_date) DO UPDATE SET unit_nav = excluded.unit_nav
	`
	_, err := a.db.Exec(query, fundCode, navDate, unitNav, time.Now())
	return err
}

func (a *navRepositoryAdapter) GetHeldFundCodes() ([]string, error) {
	query := `SELECT DISTINCT fund_code FROM portfolio_funds WHERE shares > 0`
	rows, err := a.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}

type snapshotRepositoryAdapter struct {
	db *sql.DB
}

func (a *snapshotRepositoryAdapter) GetAllPortfolioIDs() ([]string, error) {
	rows, err := a.db.Query(`SELECT id FROM portfolios`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id.Valid {
			ids = append(ids, id.String)
		}
	}

	return ids, rows.Err()
}

// GetPortfolioTotals suma el valor de mercado y el coste de las posiciones
// del grupo, valorando cada fondo con su último valor liquidativo guardado
func (a *snapshotRepositoryAdapter) GetPortfolioTotals(portfolioID string) (float64, float64, error) {
	query := `
		SELECT pf.shares, pf.buy_nav,
			COALESCE((SELECT unit_nav FROM fund_navs fn
				WHERE fn.fund_code = pf.fund_code
				ORDER BY fn.nav_date DESC LIMIT 1), 0)
		FROM portfolio_funds pf
		WHERE pf.portfolio_id = ? AND pf.shares > 0
	`

	rows, err := a.db.Query(query, portfolioID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var totalValue, totalCost float64
	for rows.Next() {
		var shares, buyNav, unitNav float64
		if err := rows.Scan(&shares, &buyNav, &unitNav); err != nil {
			return 0, 0, err
		}
		if unitNav <= 0 {
			// Sin valor guardado se valora al precio de compra
			unitNav = buyNav
		}
		totalValue += shares * unitNav
		totalCost += shares * buyNav
	}

	return totalValue, totalCost, rows.Err()
}

func (a *snapshotRepositoryAdapter) SaveHoldingSnapshot(portfolioID string, totalValue, totalCost, profit, profitPercentage float64) error {
	if totalValue <= 0 || totalCost <= 0 {
		log.Printf("No se guardó la foto del grupo %s porque los valores no son válidos: totalValue=%f, totalCost=%f", portfolioID, totalValue, totalCost)
		return nil
	}

	currentTime := time.Now()
	currentDateStr := currentTime.Format("2006-01-02")

	// Si ya existe una foto para hoy se actualiza con el último valor
	query := `
		SELECT id FROM holding_history
		WHERE portfolio_id = ? AND date(date) = date(?)
		LIMIT 1
	`

	var existingID string
	err := a.db.QueryRow(query, portfolioID, currentTime).Scan(&existingID)
	if err == nil {
		updateQuery := `
			UPDATE holding_history
			SET total_value = ?, total_cost = ?, profit = ?, profit_percentage = ?, date = ?
			WHERE id = ?
		`
		_, err := a.db.Exec(updateQuery, totalValue, totalCost, profit, profitPercentage, currentTime, existingID)
		if err != nil {
			log.Printf("Error al actualizar la foto existente: %v", err)
		}
		return err
	}

	id := fmt.Sprintf("snapshot_%d", time.Now().UnixNano())

	insertQuery := `
		INSERT INTO holding_history (
			id, portfolio_id, date, total_value, total_cost, profit, profit_percentage
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = a.db.Exec(insertQuery, id, portfolioID, currentTime, totalValue, totalCost, profit, profitPercentage)
	if err != nil {
		log.Printf("Error al guardar la foto del grupo %s: %v", portfolioID, err)
	} else {
		log.Printf("Foto diaria guardada para el grupo %s en la fecha %s con valor %f", portfolioID, currentDateStr, totalValue)
	}

	return err
}
