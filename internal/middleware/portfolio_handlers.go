package middleware

import (
	"net/http"
	"strconv"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/database"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/repository"
	"github.com/gin-gonic/gin"
)

var (
	portfolioRepo   *repository.PortfolioRepository
	transactionRepo *repository.TransactionRepository
	templateRepo    *repository.TemplateRepository
	navRepo         *repository.NavRepository
)

// InitPortfolio inicializa los repositorios que usan los handlers
func InitPortfolio() {
	portfolioRepo = repository.NewPortfolioRepository(database.DB)
	transactionRepo = repository.NewTransactionRepository(database.DB)
	templateRepo = repository.NewTemplateRepository(database.DB)
	navRepo = repository.NewNavRepository(database.DB)
}

func getTemplateRepo() *repository.TemplateRepository {
	if templateRepo == nil {
		templateRepo = repository.NewTemplateRepository(database.DB)
	}
	return templateRepo
}

// CreatePortfolio crea un grupo de fondos para el usuario autenticado
func CreatePortfolio(c *gin.Context) {
	var portfolio models.Portfolio
	if err := c.ShouldBindJSON(&portfolio); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if portfolio.Cash < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El efectivo no puede ser negativo"})
		return
	}

	portfolio.UserID = c.GetString("userId")

	if err := portfolioRepo.CreatePortfolio(&portfolio); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Grupo creado exitosamente", "portfolio": portfolio})
}

// GetPortfolios devuelve los grupos del usuario autenticado
func GetPortfolios(c *gin.Context) {
	userId := c.GetString("userId")

	portfolios, err := portfolioRepo.GetPortfolios(userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolios": portfolios})
}

// GetPortfolio devuelve un grupo con sus posiciones valoradas
func GetPortfolio(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	portfolio, err := portfolioRepo.GetPortfolio(userId, portfolioID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// UpdatePortfolio actualiza el nombre y la descripción de un grupo
func UpdatePortfolio(c *gin.Context) {
	var portfolio models.Portfolio
	if err := c.ShouldBindJSON(&portfolio); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio.ID = c.Param("id")
	portfolio.UserID = c.GetString("userId")

	if err := portfolioRepo.UpdatePortfolio(&portfolio); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Grupo actualizado exitosamente"})
}

// DeletePortfolio elimina un grupo con todas sus posiciones y operaciones
func DeletePortfolio(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.DeletePortfolio(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Grupo eliminado exitosamente"})
}

// GetPortfolioSummary devuelve el resumen de valoración del grupo
func GetPortfolioSummary(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	summary, err := portfolioRepo.GetPortfolioSummary(userId, portfolioID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// UpdatePortfolioCash establece el efectivo disponible del grupo
func UpdatePortfolioCash(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var request struct {
		Cash float64 `json:"cash"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := portfolioRepo.UpdateCash(portfolioID, request.Cash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Efectivo actualizado", "cash": request.Cash})
}

// GetPortfolioHistory devuelve el historial diario de valor del grupo
func GetPortfolioHistory(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "90"))
	if err != nil || days <= 0 {
		days = 90
	}

	history, err := portfolioRepo.GetValueHistory(portfolioID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"portfolio_id": portfolioID, "history": history})
}

// GetFundQuote devuelve la cotización actual de un fondo por su código
func GetFundQuote(c *gin.Context) {
	fundCode := c.Param("code")

	quote, err := quoteFund(fundCode)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}
