package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nestmap/nestmap/internal/adapters/http"
	natsadapter "github.com/nestmap/nestmap/internal/adapters/nats"
	openaiadapter "github.com/nestmap/nestmap/internal/adapters/openai"
	"github.com/nestmap/nestmap/internal/adapters/postgres"
	"github.com/nestmap/nestmap/internal/adapters/valkey"
	"github.com/nestmap/nestmap/internal/core/ports"
	"github.com/nestmap/nestmap/internal/core/usecases"
	"github.com/nestmap/nestmap/internal/pkg/config"
	"github.com/nestmap/nestmap/internal/pkg/logging"
	"github.com/nestmap/nestmap/internal/pkg/telemetry"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("nestmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, version)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache. The services nil-check their cache interface, so it is
	// only set on success; a nil *valkey.Cache wrapped in a non-nil
	// interface would defeat that check.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	listingRepo := postgres.NewListingRepo(db)
	boardRepo := postgres.NewBoardRepo(db)
	agentRepo := postgres.NewAgentRepo(db)
	clientRepo := postgres.NewClientRepo(db)
	searchRepo := postgres.NewSavedSearchRepo(db)
	shareRepo := postgres.NewShareRepo(db)
	apptRepo := postgres.NewAppointmentRepo(db)

	// Use cases
	listingSvc := usecases.NewListingService(listingRepo, cacheSvc)
	shareSvc := usecases.NewShareService(shareRepo, clientRepo, listingRepo, nil, pub)
	apptSvc := usecases.NewAppointmentService(apptRepo, listingRepo, clientRepo, nil)

	var assistSvc *usecases.AssistService
	if cfg.Assist.OpenAIKey != "" {
		model, err := openaiadapter.New(cfg.Assist.OpenAIKey, cfg.Assist.Model)
		if err != nil {
			slog.Warn("assistant unavailable", "error", err)
		} else {
			assistSvc = usecases.NewAssistService(model, listingSvc)
		}
	}

	deps := &http.Dependencies{
		Listings:     listingSvc,
		Shares:       shareSvc,
		Appointments: apptSvc,
		Assist:       assistSvc,
		Boards:       boardRepo,
		Agents:       agentRepo,
		Clients:      clientRepo,
		Searches:     searchRepo,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
		SearchToken:  cfg.Search.Token,
		DefaultBoard: cfg.Search.DefaultBoard,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "NestMap API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.nestmap.homes",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
