package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

// Variable global para almacenar la instancia del actualizador de valores
var navUpdaterInstance *services.NavUpdater

// SetNavUpdater establece la instancia del actualizador de valores
func SetNavUpdater(updater *services.NavUpdater) {
	navUpdaterInstance = updater
}

// GetNavUpdaterStatus devuelve la última actualización de valores liquidativos
func GetNavUpdaterStatus(c *gin.Context) {
	if navUpdaterInstance == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El actualizador de valores no está activo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"last_updated": navUpdaterInstance.GetLastUpdated()})
}

func quoteFund(fundCode string) (services.FundQuote, error) {
	return services.GetFundQuote(fundCode)
}
