package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/nestmap/nestmap/internal/adapters/nats"
	"github.com/nestmap/nestmap/internal/adapters/postgres"
	"github.com/nestmap/nestmap/internal/adapters/push"
	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/ports"
	"github.com/nestmap/nestmap/internal/core/usecases"
	"github.com/nestmap/nestmap/internal/pkg/config"
	"github.com/nestmap/nestmap/internal/pkg/logging"
	"github.com/nestmap/nestmap/internal/pkg/metrics"
)

// The notifier consumes share notification events from JetStream and
// delivers the push to the client, marking shares notified. Failed
// deliveries are Nak'd and redelivered up to the stream's cap.
func main() {
	cfg, err := config.Load("nestmap-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var notifier ports.NotificationService
	if cfg.Push.GatewayURL != "" {
		notifier = push.NewWebhookSender(cfg.Push.GatewayURL)
	} else {
		slog.Warn("no push gateway configured, logging pushes")
		notifier = push.NewLogSender()
	}

	shareRepo := postgres.NewShareRepo(db)
	clientRepo := postgres.NewClientRepo(db)
	listingRepo := postgres.NewListingRepo(db)
	shareSvc := usecases.NewShareService(shareRepo, clientRepo, listingRepo, notifier, nil)

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeShareNotifications(ctx, func(ctx context.Context, share *domain.ListingShare) error {
		if err := shareSvc.NotifyClient(ctx, share); err != nil {
			metrics.SharePushErrors.Inc()
			slog.Error("share push failed", "share", share.ID, "client", share.ClientID, "error", err)
			return err
		}
		metrics.SharePushesSent.Inc()
		slog.Info("share push delivered", "share", share.ID, "client", share.ClientID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("notifier started, waiting for share events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())
	cancel()
}
