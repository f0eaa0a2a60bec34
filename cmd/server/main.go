package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "sweetshop/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"sweetshop/internal/auth"
	"sweetshop/internal/cache"
	"sweetshop/internal/config"
	"sweetshop/internal/db"
	"sweetshop/internal/events"
	"sweetshop/internal/handler"
	"sweetshop/internal/logging"
	"sweetshop/internal/router"
	"sweetshop/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Sweet Shop API
// @version 1.0
// @description Sweets inventory API with token authentication and role-gated stock operations.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey TokenAuth
// @in header
// @name x-auth-token
// @description Raw signed token, no Bearer prefix.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("database init", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	logger.Info("store connected", "driver", cfg.StoreDriver)

	var cacheClient *cache.Client
	if cfg.CacheEnabled {
		cacheClient = cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := cacheClient.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, listing will be served from the store", "addr", cfg.RedisAddr, "error", err)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Info("publishing inventory events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := service.NewAuthService(store.Users, jwtService)
	inventoryService := service.NewInventoryService(store.Sweets, cacheClient, publisher)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, logger, jwtService, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Sweets: handler.NewSweetHandler(inventoryService),
	})

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server listening", "addr", addr, "swagger", "http://localhost:"+cfg.ServerPort+"/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("close publisher", "error", err)
	}
	if err := cacheClient.Close(); err != nil {
		logger.Error("close cache", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("close store", "error", err)
	}
}
