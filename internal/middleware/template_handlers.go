package middleware

import (
	"errors"
	"net/http"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

// respondParamError distingue los parámetros fuera de rango del resto de errores
func respondParamError(c *gin.Context, err error) {
	var invalid *services.InvalidParamError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error(), "field": invalid.Field, "value": invalid.Value})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// CreateTemplate crea una plantilla de recogida de beneficios
func CreateTemplate(c *gin.Context) {
	userId := c.GetString("userId")

	var template models.TakeProfitTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := templateRepo.CreateTemplate(userId, &template); err != nil {
		respondParamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Plantilla creada exitosamente", "template": template})
}

// GetTemplates devuelve las plantillas del usuario
func GetTemplates(c *gin.Context) {
	userId := c.GetString("userId")

	// La plantilla del sistema se crea al primer acceso
	if err := templateRepo.EnsureSystemTemplate(userId); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	templates, err := templateRepo.GetTemplates(userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// GetTemplate devuelve una plantilla concreta
func GetTemplate(c *gin.Context) {
	userId := c.GetString("userId")

	template, err := templateRepo.GetTemplate(userId, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, template)
}

// UpdateTemplate actualiza una plantilla del usuario
func UpdateTemplate(c *gin.Context) {
	userId := c.GetString("userId")

	var template models.TakeProfitTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template.ID = c.Param("id")

	if err := templateRepo.UpdateTemplate(userId, &template); err != nil {
		respondParamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plantilla actualizada exitosamente"})
}

// DeleteTemplate elimina una plantilla del usuario
func DeleteTemplate(c *gin.Context) {
	userId := c.GetString("userId")

	if err := templateRepo.DeleteTemplate(userId, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plantilla eliminada exitosamente"})
}

// SetDefaultTemplate marca una plantilla como predeterminada del usuario
func SetDefaultTemplate(c *gin.Context) {
	userId := c.GetString("userId")

	if err := templateRepo.SetDefaultTemplate(userId, c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plantilla predeterminada actualizada"})
}

// GetFundConfig devuelve la configuración de recogida de un fondo junto con
// sus parámetros efectivos resueltos
func GetFundConfig(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")
	fundCode := c.Param("code")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	config, err := templateRepo.GetFundConfig(portfolioID, fundCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	params, err := templateRepo.ResolveFundParams(userId, portfolioID, fundCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"config": config, "effective_params": params})
}

// SetFundConfig crea o reemplaza la configuración de recogida de un fondo
func SetFundConfig(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")
	fundCode := c.Param("code")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var config models.FundTakeProfitConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config.PortfolioID = portfolioID
	config.FundCode = fundCode

	if err := templateRepo.SetFundConfig(&config); err != nil {
		respondParamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Configuración guardada exitosamente"})
}

// ResetFundConfig elimina la configuración del fondo, que vuelve a la
// plantilla predeterminada
func ResetFundConfig(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")
	fundCode := c.Param("code")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := templateRepo.ResetFundConfig(portfolioID, fundCode); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Configuración restablecida"})
}
