package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/AgusMolinaCode/Fondos_Api.git/internal/models"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/repository"
	"github.com/gin-gonic/gin"
)

// CreateTransaction registra una compra o venta en un grupo del usuario
func CreateTransaction(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var transaction models.FundTransaction
	if err := c.ShouldBindJSON(&transaction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction.PortfolioID = portfolioID
	if transaction.Date.IsZero() {
		transaction.Date = time.Now()
	}

	if err := transactionRepo.CreateTransaction(&transaction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Operación registrada exitosamente", "transaction": transaction})
}

// GetTransactions devuelve las operaciones del grupo, filtrables por fondo
func GetTransactions(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	fundCode := c.Query("fund_code")

	var transactions []models.FundTransaction
	var err error
	if fundCode != "" {
		transactions, err = transactionRepo.GetTransactions(portfolioID, fundCode)
	} else {
		transactions, err = transactionRepo.GetPortfolioTransactions(portfolioID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// GetTransaction devuelve una operación concreta del grupo
func GetTransaction(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	transaction, err := transactionRepo.GetTransaction(portfolioID, c.Param("txId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// DeleteTransaction elimina una operación del grupo
func DeleteTransaction(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := transactionRepo.DeleteTransaction(portfolioID, c.Param("txId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Operación eliminada exitosamente"})
}

// ExecuteBuyBack ejecuta la recompra de banda de un fondo de forma atómica
func ExecuteBuyBack(c *gin.Context) {
	userId := c.GetString("userId")
	portfolioID := c.Param("id")
	fundCode := c.Param("code")

	if err := portfolioRepo.VerifyPortfolioOwner(userId, portfolioID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var request models.BuyBackRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := transactionRepo.ExecuteBuyBack(portfolioID, fundCode, &request)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSellAlreadyRecovered):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientCash):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recompra ejecutada exitosamente", "result": result})
}
