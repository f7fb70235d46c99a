package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FundGz es la respuesta del servicio de cotización de fondos (fundgz).
// El endpoint devuelve JSONP con todos los valores como cadenas.
type FundGz struct {
	FundCode        string `json:"fundcode"`
	Name            string `json:"name"`
	NavDate         string `json:"jzrq"`   // Fecha del último valor liquidativo
	UnitNav         string `json:"dwjz"`   // Valor liquidativo unitario confirmado
	EstimatedNav    string `json:"gsz"`    // Valor estimado intradía
	EstimatedGrowth string `json:"gszzl"`  // Variación estimada en porcentaje
	EstimatedTime   string `json:"gztime"` // Hora de la estimación
}

// UnmarshalFundGz decodifica la respuesta JSONP del servicio de cotización,
// quitando el envoltorio jsonpgz(...)
func UnmarshalFundGz(data []byte) (FundGz, error) {
	var r FundGz
	body := strings.TrimSpace(string(data))
	if !strings.HasPrefix(body, "jsonpgz(") {
		return r, fmt.Errorf("respuesta inesperada del servicio de cotización")
	}
	body = strings.TrimPrefix(body, "jsonpgz(")
	body = strings.TrimSuffix(body, ";")
	body = strings.TrimSuffix(body, ")")
	err := json.Unmarshal([]byte(body), &r)
	return r, err
}

// FundNav es un valor liquidativo almacenado para un fondo en una fecha
type FundNav struct {
	FundCode  string  `json:"fund_code"`
	NavDate   string  `json:"nav_date"` // Formato YYYY-MM-DD
	UnitNav   float64 `json:"unit_nav"`
	CreatedAt string  `json:"created_at,omitempty"`
}
