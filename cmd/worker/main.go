package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/nestmap/nestmap/internal/adapters/nats"
	"github.com/nestmap/nestmap/internal/adapters/postgres"
	"github.com/nestmap/nestmap/internal/adapters/push"
	"github.com/nestmap/nestmap/internal/core/ports"
	"github.com/nestmap/nestmap/internal/core/usecases"
	"github.com/nestmap/nestmap/internal/pkg/config"
	"github.com/nestmap/nestmap/internal/workflows"
)

func main() {
	cfg, err := config.Load("nestmap-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var notifier ports.NotificationService
	if cfg.Push.GatewayURL != "" {
		notifier = push.NewWebhookSender(cfg.Push.GatewayURL)
	} else {
		notifier = push.NewLogSender()
	}

	var pub *natsadapter.Publisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		log.Printf("nats unavailable: %v", err)
	} else {
		pub = p
		defer pub.Close()
	}

	shareRepo := postgres.NewShareRepo(db)
	clientRepo := postgres.NewClientRepo(db)
	listingRepo := postgres.NewListingRepo(db)
	shareSvc := usecases.NewShareService(shareRepo, clientRepo, listingRepo, notifier, pub)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.ShareNotificationWorkflow)
	w.RegisterActivity(&workflows.ShareActivities{
		ShareService: shareSvc,
		Shares:       shareRepo,
		Clients:      clientRepo,
		Notifier:     notifier,
	})

	log.Println("share notification worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
