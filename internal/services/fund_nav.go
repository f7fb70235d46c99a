package services

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
)

// FundQuote contiene la cotización vigente de un fondo
type FundQuote struct {
	FundCode     string  `json:"fund_code"`
	Name         string  `json:"name"`
	NavDate      string  `json:"nav_date"`
	UnitNav      float64 `json:"unit_nav"`
	EstimatedNav float64 `json:"estimated_nav,omitempty"`
	EstimatedPct float64 `json:"estimated_pct,omitempty"` // Variación estimada en porcentaje
	UpdatedAt    string  `json:"updated_at"`
}

// Caché para almacenar cotizaciones y reducir llamadas al servicio externo.
// El actualizador en segundo plano y los handlers comparten la caché.
var (
	quoteCacheMu sync.Mutex
	quoteCache   = make(map[string]cachedQuote)
)

type cachedQuote struct {
	Data      FundQuote
	Timestamp time.Time
}

// GetFundQuote obtiene la cotización actual de un fondo desde el servicio fundgz
func GetFundQuote(fundCode string) (FundQuote, error) {
	// Verificar si tenemos la cotización en caché y si es reciente (menos de 5 minutos)
	quoteCacheMu.Lock()
	if cached, exists := quoteCache[fundCode]; exists {
		if time.Since(cached.Timestamp) < 5*time.Minute {
			quoteCacheMu.Unlock()
			return cached.Data, nil
		}
	}
	quoteCacheMu.Unlock()

	url := fmt.Sprintf("http://fundgz.1234567.com.cn/js/%s.js", fundCode)

	resp, err := http.Get(url)
	if err != nil {
		log.Printf("Error al obtener cotización de %s: %v", fundCode, err)
		return FundQuote{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Error al leer respuesta para %s: %v", fundCode, err)
		return FundQuote{}, err
	}

	raw, err := models.UnmarshalFundGz(body)
	if err != nil {
		log.Printf("Error al parsear respuesta para %s: %v", fundCode, err)
		return FundQuote{}, err
	}

	unitNav, err := strconv.ParseFloat(raw.UnitNav, 64)
	if err != nil || unitNav <= 0 {
		return FundQuote{}, fmt.Errorf("el fondo %s no tiene valor liquidativo válido", fundCode)
	}

	quote := FundQuote{
		FundCode:  raw.FundCode,
		Name:      raw.Name,
		NavDate:   raw.NavDate,
		UnitNav:   unitNav,
		UpdatedAt: time.Now().Format(time.RFC3339),
	}
	if estimated, err := strconv.ParseFloat(raw.EstimatedNav, 64); err == nil {
		quote.EstimatedNav = estimated
	}
	if pct, err := strconv.ParseFloat(raw.EstimatedGrowth, 64); err == nil {
		quote.EstimatedPct = pct
	}

	quoteCacheMu.Lock()
	quoteCache[fundCode] = cachedQuote{
		Data:      quote,
		Timestamp: time.Now(),
	}
	quoteCacheMu.Unlock()

	return quote, nil
}
