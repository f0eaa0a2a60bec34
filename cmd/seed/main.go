package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"sweetshop/internal/auth"
	"sweetshop/internal/config"
	"sweetshop/internal/db"
	apperrors "sweetshop/internal/errors"
	"sweetshop/internal/logging"
	"sweetshop/internal/model"
	"sweetshop/internal/repository"
	"sweetshop/internal/service"
)

// sampleSweets is inserted when SEED_SAMPLE_SWEETS is set and the store is empty.
var sampleSweets = []model.Sweet{
	{Name: "Kaju Katli", Category: "Cashew", Price: 120, Quantity: 40},
	{Name: "Gulab Jamun", Category: "Syrup", Price: 30, Quantity: 100},
	{Name: "Rasgulla", Category: "Syrup", Price: 25, Quantity: 80},
	{Name: "Jalebi", Category: "Fried", Price: 50, Quantity: 60},
	{Name: "Besan Ladoo", Category: "Classic", Price: 45, Quantity: 50},
	{Name: "Milk Peda", Category: "Milk", Price: 35, Quantity: 0},
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	logger.Info("starting seed", "driver", cfg.StoreDriver)

	store, err := db.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	authService := service.NewAuthService(store.Users, auth.NewJWTService(cfg.JWTSecret))
	if err := seedAdmin(ctx, authService, cfg, logger); err != nil {
		logger.Error("seed admin", "error", err)
		os.Exit(1)
	}

	if cfg.SeedSampleSweets {
		created, err := seedSweets(ctx, store.Sweets, sampleSweets)
		if err != nil {
			logger.Error("seed sweets", "error", err)
			os.Exit(1)
		}
		logger.Info("sample sweets seeded", "created", created)
	}

	logger.Info("seed completed")
}

// seedAdmin creates the admin account from ADMIN_*. An existing account with that
// email is left as it is.
func seedAdmin(ctx context.Context, svc service.AuthService, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin")
		return nil
	}

	user, err := svc.Provision(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, model.RoleAdmin)
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		logger.Info("admin already exists", "email", cfg.AdminEmail)
		return nil
	case err != nil:
		return err
	}

	logger.Info("admin created", "email", user.Email, "id", user.ID)
	return nil
}

// seedSweets inserts items only into an empty inventory, so running the seed twice
// does not duplicate stock.
func seedSweets(ctx context.Context, repo repository.SweetRepository, items []model.Sweet) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sweets: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, item := range items {
		sweet := item
		if err := repo.Create(ctx, &sweet); err != nil {
			return created, fmt.Errorf("create sweet %s: %w", item.Name, err)
		}
		created++
	}
	return created, nil
}
