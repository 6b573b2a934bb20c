// Package main is the entry point for the cashpoint API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashpoint/internal/domain/auth"
	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/domain/ledger"
	"cashpoint/internal/domain/report"
	"cashpoint/internal/domain/session"
	"cashpoint/internal/domain/transaction"
	v1 "cashpoint/internal/infrastructure/http/v1"
	"cashpoint/internal/infrastructure/numerator"
	"cashpoint/internal/infrastructure/reporting"
	"cashpoint/internal/infrastructure/storage/postgres"
	"cashpoint/internal/infrastructure/storage/postgres/auth_repo"
	"cashpoint/internal/infrastructure/storage/postgres/catalog_repo"
	"cashpoint/internal/infrastructure/storage/postgres/ledger_repo"
	"cashpoint/internal/infrastructure/storage/postgres/report_repo"
	"cashpoint/internal/infrastructure/storage/postgres/session_repo"
	"cashpoint/internal/infrastructure/storage/postgres/transaction_repo"
	"cashpoint/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting cashpoint server")

	// --- Database connection ---
	dsn := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dsn)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- JWT Service ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Repositories ---
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)
	cashdeskRepo := catalog_repo.NewCashdeskRepo(txManager)
	itemRepo := catalog_repo.NewItemRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	sessionRepo := session_repo.NewSessionRepo(txManager)
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	transactionRepo := transaction_repo.NewTransactionRepo(txManager)
	artifactRepo := report_repo.NewArtifactRepo(txManager)

	// --- Services ---
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, auth.DefaultServiceConfig())
	cashdeskService := cashdesk.NewService(cashdeskRepo, txManager)
	itemService := item.NewService(itemRepo, txManager)
	ledgerService := ledger.NewService(movementRepo)
	numbers := numerator.New(pool)

	sessionService := session.NewService(
		sessionRepo,
		ledgerService,
		cashdeskRepo,
		itemService,
		transactionRepo,
		auditService,
		txManager,
	)
	transactionService := transaction.NewService(
		transactionRepo,
		sessionRepo,
		productRepo,
		numbers,
		auditService,
		txManager,
	)

	renderer, err := reporting.NewFileRenderer(getEnv("REPORT_DIR", "./reports"))
	if err != nil {
		log.Fatalw("failed to initialize report renderer", "error", err)
	}
	reportService := report.NewService(
		artifactRepo,
		sessionRepo,
		ledgerService,
		transactionRepo,
		renderer,
		txManager,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		Logger:             log,
		JWTValidator:       jwtService,
		AuthService:        authService,
		SessionService:     sessionService,
		TransactionService: transactionService,
		ReportService:      reportService,
		Renderer:           renderer,
		CashdeskService:    cashdeskService,
		ItemService:        itemService,
		ProductRepo:        productRepo,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
