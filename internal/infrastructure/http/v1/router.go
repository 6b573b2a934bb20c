// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"cashpoint/internal/domain/auth"
	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/domain/catalogs/product"
	"cashpoint/internal/domain/report"
	"cashpoint/internal/domain/session"
	"cashpoint/internal/domain/transaction"
	"cashpoint/internal/infrastructure/http/v1/handlers"
	"cashpoint/internal/infrastructure/http/v1/middleware"
	"cashpoint/internal/infrastructure/reporting"
	"cashpoint/internal/infrastructure/storage/postgres"
	"cashpoint/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	AuthService        *auth.Service
	SessionService     *session.Service
	TransactionService *transaction.Service
	ReportService      *report.Service
	Renderer           *reporting.FileRenderer
	CashdeskService    *cashdesk.Service
	ItemService        *item.Service
	ProductRepo        product.Repository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	sessionHandler := handlers.NewSessionHandler(base, cfg.SessionService)
	transactionHandler := handlers.NewTransactionHandler(base, cfg.TransactionService)
	reportHandler := handlers.NewReportHandler(base, cfg.ReportService, cfg.Renderer)
	catalogHandler := handlers.NewCatalogHandler(base, cfg.CashdeskService, cfg.ItemService, cfg.ProductRepo)

	v1 := router.Group("/api/v1")
	{
		// Public auth endpoints
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)

		// Everything below requires a valid token
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.UserContext())

		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		// User administration is superuser-only
		admin := protected.Group("/auth")
		admin.Use(middleware.RequireSuperuser())
		{
			admin.POST("/register", authHandler.Register)
			admin.GET("/users", authHandler.ListUsers)
			admin.PATCH("/users/:id/active", authHandler.SetUserActive)
		}

		// Catalog reads and session reads are open to any authenticated user
		protected.GET("/cashdesks", catalogHandler.ListCashdesks)
		protected.GET("/cashdesks/:id", catalogHandler.GetCashdesk)
		protected.GET("/items", catalogHandler.ListItems)
		protected.GET("/items/:id", catalogHandler.GetItem)
		protected.GET("/products", catalogHandler.ListProducts)

		protected.GET("/sessions/active", sessionHandler.ListActive)
		protected.GET("/sessions/:id", sessionHandler.Get)
		protected.GET("/sessions/:id/stock", sessionHandler.Stock)
		protected.GET("/sessions/:id/movements", sessionHandler.Movements)
		protected.GET("/sessions/:id/transactions", transactionHandler.ListBySession)
		protected.GET("/transactions/:id", transactionHandler.Get)

		// Sales are recorded by the operator at the desk
		protected.POST("/sessions/:id/sales", transactionHandler.RecordSale)

		// Session lifecycle and catalog management need backoffice rights
		backoffice := protected.Group("")
		backoffice.Use(middleware.RequireBackoffice())
		{
			backoffice.POST("/cashdesks", catalogHandler.CreateCashdesk)
			backoffice.PATCH("/cashdesks/:id/active", catalogHandler.SetCashdeskActive)
			backoffice.POST("/items", catalogHandler.CreateItem)

			backoffice.POST("/sessions", sessionHandler.Open)
			backoffice.POST("/sessions/:id/resupply", sessionHandler.Resupply)
			backoffice.POST("/sessions/:id/end", sessionHandler.End)
			backoffice.POST("/sessions/:id/move", sessionHandler.Move)

			backoffice.GET("/sessions/:id/report", reportHandler.Latest)
			backoffice.GET("/sessions/:id/report/status", reportHandler.Status)
			backoffice.POST("/sessions/:id/report", reportHandler.Generate)
			backoffice.GET("/sessions/:id/report/download", reportHandler.Download)
		}

		// Reversals are a troubleshooter privilege
		troubleshooter := protected.Group("")
		troubleshooter.Use(middleware.RequireTroubleshooter())
		{
			troubleshooter.POST("/sessions/:id/reverse", transactionHandler.ReverseSession)
			troubleshooter.POST("/transactions/:id/reverse", transactionHandler.ReverseTransaction)
		}
	}

	return router
}
