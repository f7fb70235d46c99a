// Package calculations reúne la aritmética de costes y beneficios de las
// posiciones. Todos los cálculos de coste y rentabilidad usan estas funciones
// para garantizar un algoritmo consistente en todo el servidor.
package calculations

// MarketValue calcula el valor de mercado de una posición.
// Devuelve 0 si las participaciones o el valor liquidativo no son positivos:
// una posición vacía es un estado válido, no un error.
func MarketValue(shares, nav float64) float64 {
	if shares <= 0 || nav <= 0 {
		return 0
	}
	return shares * nav
}

// CostPrice calcula el precio de coste unitario a partir del beneficio
// acumulado. Permite inferir el coste cuando el precio de compra nunca se
// registró directamente (por ejemplo tras importar el beneficio a mano).
//
// Coste = (participaciones × valor liquidativo − beneficio) / participaciones.
// Con beneficio negativo (pérdida) el coste resulta mayor que el valor actual.
func CostPrice(shares, nav, profit float64) float64 {
	if shares <= 0 || nav <= 0 {
		return 0
	}
	marketValue := shares * nav
	cost := marketValue - profit
	return cost / shares
}

// TotalProfit calcula el beneficio total de la posición
func TotalProfit(shares, nav, costPrice float64) float64 {
	if shares <= 0 || nav <= 0 || costPrice <= 0 {
		return 0
	}
	marketValue := shares * nav
	totalCost := shares * costPrice
	return marketValue - totalCost
}

// ProfitRate calcula la rentabilidad en porcentaje (no fracción).
// Los llamadores no deben volver a multiplicar por 100.
func ProfitRate(nav, costPrice float64) float64 {
	if nav <= 0 || costPrice <= 0 {
		return 0
	}
	return ((nav - costPrice) / costPrice) * 100
}

// DilutedCost calcula el coste diluido por participación tras una venta
// parcial. El llamador debe garantizar que remainingShares no sea cero.
func DilutedCost(remainingShares, remainingCostBasis float64) float64 {
	return remainingCostBasis / remainingShares
}
