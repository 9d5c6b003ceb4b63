package workflows

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nestmap/nestmap/internal/core/ports"
	"github.com/nestmap/nestmap/internal/core/usecases"
)

// ShareActivities holds the activity implementations for the share
// notification workflow.
type ShareActivities struct {
	ShareService *usecases.ShareService
	Shares       ports.ShareRepository
	Clients      ports.ClientRepository
	Notifier     ports.NotificationService
}

// CreateShares persists share records for the batch and returns their IDs.
func (a *ShareActivities) CreateShares(ctx context.Context, input ShareNotificationInput) ([]string, error) {
	shares, err := a.ShareService.ShareListings(ctx, input.AgentID, input.ClientID, input.ListingIDs, input.Note)
	if err != nil {
		return nil, fmt.Errorf("create shares: %w", err)
	}
	ids := make([]string, len(shares))
	for i, s := range shares {
		ids[i] = s.ID
	}
	return ids, nil
}

// SendSharePush delivers the push notification to the client's device.
func (a *ShareActivities) SendSharePush(ctx context.Context, clientID string, count int) error {
	client, err := a.Clients.GetByID(ctx, clientID)
	if err != nil {
		return fmt.Errorf("get client %s: %w", clientID, err)
	}
	if client.DeviceID == "" {
		log.Printf("PUSH (no device) → client=%s count=%d", clientID, count)
		return nil
	}
	if a.Notifier == nil {
		log.Printf("PUSH (no notifier) → client=%s count=%d", clientID, count)
		return nil
	}
	title := "New properties from your agent"
	body := fmt.Sprintf("%d new listings were shared with you. Tap to view.", count)
	return a.Notifier.SendPush(ctx, client.DeviceID, title, body)
}

// MarkSharesNotified timestamps the share records after a delivered push.
func (a *ShareActivities) MarkSharesNotified(ctx context.Context, shareIDs []string) error {
	if err := a.Shares.MarkNotified(ctx, shareIDs, time.Now()); err != nil {
		return fmt.Errorf("mark shares notified: %w", err)
	}
	return nil
}

// DeleteShares removes share records (saga compensation / rollback).
func (a *ShareActivities) DeleteShares(ctx context.Context, shareIDs []string) error {
	for _, id := range shareIDs {
		if err := a.Shares.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete share %s: %w", id, err)
		}
	}
	log.Printf("%d shares deleted (saga compensation)", len(shareIDs))
	return nil
}
