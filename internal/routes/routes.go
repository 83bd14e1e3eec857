// Package routes wires every endpoint to its handler and middleware chain.
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authenticas/authenticas-api/internal/config"
	"github.com/authenticas/authenticas-api/internal/handlers"
	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
)

// SetupRouter builds the gin engine with all routes registered.
func SetupRouter(h *handlers.Handlers, cfg config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 1. The verification endpoint accepts a token or an API key so both
	// dashboards and retailer point-of-sale systems can call it.
	router.POST("/verifyPurchase", middleware.AuthAny(h.JWTSecret, h.Store), h.VerifyPurchase)

	// 2. Everything under /api requires a valid token.
	api := router.Group("/api")
	{
		api.POST("/auth/login", h.Login)

		authed := api.Group("")
		authed.Use(middleware.Auth(h.JWTSecret))
		{
			authed.GET("/auth/me", h.Me)

			// 3. Party management is platform-operator territory, except
			// for scoped reads.
			authed.POST("/retailers", middleware.RequireRole(models.RoleSystemAdmin), h.CreateRetailer)
			authed.GET("/retailers", h.GetAllRetailers)
			authed.GET("/retailers/:id", h.GetRetailer)
			authed.PUT("/retailers/:id", middleware.RequireRole(models.RoleSystemAdmin), h.UpdateRetailer)
			authed.GET("/retailers/:id/companies", h.CompaniesForRetailer)

			authed.POST("/companies", middleware.RequireRole(models.RoleSystemAdmin), h.CreateCompany)
			authed.GET("/companies", middleware.RequireRole(models.RoleSystemAdmin, models.RoleRetailerAdmin), h.GetAllCompanies)
			authed.GET("/companies/:id", h.GetCompany)
			authed.PUT("/companies/:id", middleware.RequireRole(models.RoleSystemAdmin), h.UpdateCompany)
			authed.GET("/companies/:id/retailers", h.RetailersForCompany)
			authed.GET("/companies/:id/transactions", h.TransactionsForCompany)

			authed.POST("/users", middleware.RequireRole(models.RoleSystemAdmin, models.RoleCompanyAdmin), h.CreateUser)
			authed.GET("/users", h.GetAllUsers)
			authed.GET("/users/:id", h.GetUser)
			authed.PUT("/users/:id", middleware.RequireRole(models.RoleSystemAdmin, models.RoleCompanyAdmin), h.UpdateUser)
			authed.GET("/users/:id/transactions", h.TransactionsForUser)

			// 4. Link registry writes are reserved to the platform operator.
			authed.POST("/links", middleware.RequireRole(models.RoleSystemAdmin), h.CreateLink)
			authed.GET("/links", middleware.RequireRole(models.RoleSystemAdmin), h.GetAllLinks)

			authed.GET("/transactions", h.GetAllTransactions)
			authed.GET("/transactions/:id", h.GetTransaction)

			// 5. Disconnect workflow: companies open requests, retailers
			// process them; the handlers scope by principal.
			authed.POST("/disconnect-requests", h.CreateDisconnectRequest)
			authed.GET("/disconnect-requests", h.GetDisconnectRequests)
			authed.GET("/disconnect-requests/:id", h.GetDisconnectRequest)
			authed.POST("/disconnect-requests/:id/approve", h.ApproveDisconnectRequest)
			authed.POST("/disconnect-requests/:id/reject", h.RejectDisconnectRequest)

			// 6. The audit trail is read-only and operator-only.
			audit := authed.Group("/audit", middleware.RequireRole(models.RoleSystemAdmin))
			{
				audit.GET("", h.GetAuditTrail)
				audit.GET("/recent", h.GetRecentAudit)
				audit.GET("/target/:type/:id", h.GetAuditForTarget)
				audit.GET("/user/:id", h.GetAuditByUser)
			}
		}
	}

	return router
}
