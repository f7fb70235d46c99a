package routes

import (
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/database"
	"github.com/AgusMolinaCode/Fondos_Api.git/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine) {
	// Inicializar base de datos primero
	if err := database.InitDB(); err != nil {
		panic(err)
	}

	// Luego inicializar repositorios
	middleware.InitAuth()
	middleware.InitPortfolio()

	router.POST("/signup", middleware.Signup)
	router.POST("/login", middleware.Login)

	// Configurar ruta de logout con opciones
	router.OPTIONS("/logout", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "http://localhost:3000")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Status(200)
	})
	router.POST("/logout", middleware.AuthMiddleware(), middleware.Logout)

	// Webhook de sincronización de usuarios de Clerk
	router.POST("/webhooks/clerk", middleware.ClerkWebhookHandler)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.PUT("/users", middleware.UpdateUser)
		protected.DELETE("/users", middleware.DeleteUser)

		// Grupos de cartera
		protected.POST("/portfolios", middleware.CreatePortfolio)
		protected.GET("/portfolios", middleware.GetPortfolios)
		protected.GET("/portfolios/:id", middleware.GetPortfolio)
		protected.PUT("/portfolios/:id", middleware.UpdatePortfolio)
		protected.DELETE("/portfolios/:id", middleware.DeletePortfolio)
		protected.GET("/portfolios/:id/summary", middleware.GetPortfolioSummary)
		protected.PUT("/portfolios/:id/cash", middleware.UpdatePortfolioCash)
		protected.GET("/portfolios/:id/history", middleware.GetPortfolioHistory)

		// Libro de operaciones
		protected.POST("/portfolios/:id/transactions", middleware.CreateTransaction)
		protected.GET("/portfolios/:id/transactions", middleware.GetTransactions)
		protected.GET("/portfolios/:id/transactions/:txId", middleware.GetTransaction)
		protected.DELETE("/portfolios/:id/transactions/:txId", middleware.DeleteTransaction)

		// Recogida de beneficios
		protected.GET("/portfolios/:id/take-profit", middleware.GetTakeProfitAdvice)
		protected.GET("/take-profit/modes", middleware.GetTakeProfitModes)
		protected.POST("/portfolios/:id/funds/:code/buy-back", middleware.ExecuteBuyBack)
		protected.GET("/portfolios/:id/funds/:code/config", middleware.GetFundConfig)
		protected.PUT("/portfolios/:id/funds/:code/config", middleware.SetFundConfig)
		protected.DELETE("/portfolios/:id/funds/:code/config", middleware.ResetFundConfig)

		// Plantillas de parámetros
		protected.POST("/templates", middleware.CreateTemplate)
		protected.GET("/templates", middleware.GetTemplates)
		protected.GET("/templates/:id", middleware.GetTemplate)
		protected.PUT("/templates/:id", middleware.UpdateTemplate)
		protected.DELETE("/templates/:id", middleware.DeleteTemplate)
		protected.PUT("/templates/:id/default", middleware.SetDefaultTemplate)

		// Aporte periódico
		protected.GET("/portfolios/:id/investment-advice", middleware.GetInvestmentAdvice)
		protected.GET("/investment/modes", middleware.GetInvestmentModes)

		// Cotizaciones
		protected.GET("/funds/:code/quote", middleware.GetFundQuote)
		protected.GET("/nav-updater/status", middleware.GetNavUpdaterStatus)
	}

	// Configurar opciones para rutas de administración
	router.OPTIONS("/admin/*path", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "http://localhost:3000")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Admin-Key")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Status(200)
	})

	// Rutas de admin
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth())
	{
		admin.GET("/users", middleware.GetUsers)
		admin.GET("/users/:id", middleware.GetUser)
		admin.DELETE("/users/:id", middleware.DeleteUserByAdmin)
		admin.GET("/users/email/:email", middleware.GetUserByEmail)
	}

	router.POST("/request-reset-password", middleware.RequestResetPassword)
	router.POST("/reset-password", middleware.ResetPassword)
}
