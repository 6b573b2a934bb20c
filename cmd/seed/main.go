// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/auth"
	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/domain/catalogs/product"
	"cashpoint/internal/infrastructure/storage/postgres"
	"cashpoint/internal/infrastructure/storage/postgres/auth_repo"
	"cashpoint/internal/infrastructure/storage/postgres/catalog_repo"
	"cashpoint/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	userRepo := auth_repo.NewUserRepo(txManager)

	exists, err := userRepo.Exists(ctx, adminUsername)
	if err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		log.Infow("admin user already exists", "username", adminUsername)
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := auth.NewUser(adminUsername, string(passwordHash))
	admin.DisplayName = "System Admin"
	admin.IsBackoffice = true
	admin.IsTroubleshooter = true
	admin.IsSuperuser = true

	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "username", adminUsername, "user_id", admin.ID)
	return nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	cashdeskRepo := catalog_repo.NewCashdeskRepo(txManager)
	itemRepo := catalog_repo.NewItemRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)

	desks := []*cashdesk.Cashdesk{
		cashdesk.New("DESK-1", "Main entrance desk"),
		cashdesk.New("DESK-2", "Side entrance desk"),
	}
	for _, d := range desks {
		if _, err := cashdeskRepo.GetByCode(ctx, d.Code); err == nil {
			continue
		} else if !apperror.IsNotFound(err) {
			return fmt.Errorf("check cashdesk %s: %w", d.Code, err)
		}
		if err := cashdeskRepo.Create(ctx, d); err != nil {
			return fmt.Errorf("seed cashdesk %s: %w", d.Code, err)
		}
	}

	items := []*item.Item{
		item.New("TOKEN", "Drink token"),
		item.New("BAND", "Wristband"),
	}
	for _, i := range items {
		if _, err := itemRepo.GetByCode(ctx, i.Code); err == nil {
			continue
		} else if !apperror.IsNotFound(err) {
			return fmt.Errorf("check item %s: %w", i.Code, err)
		}
		if err := itemRepo.Create(ctx, i); err != nil {
			return fmt.Errorf("seed item %s: %w", i.Code, err)
		}
	}

	products := []*product.Product{
		product.New("TICKET", "Entrance ticket", types.MustMoney("10.00")),
		product.New("DRINK", "Drink token", types.MustMoney("2.50")),
		product.New("SHIRT", "Festival shirt", types.MustMoney("15.00")),
	}
	for _, p := range products {
		if _, err := productRepo.GetByCode(ctx, p.Code); err == nil {
			continue
		} else if !apperror.IsNotFound(err) {
			return fmt.Errorf("check product %s: %w", p.Code, err)
		}
		if err := productRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Code, err)
		}
	}

	log.Info("demo data seeded")
	return nil
}
