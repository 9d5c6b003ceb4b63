package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/ports"
)

// ShareService handles agents sharing listings with clients and the
// notification fan-out that follows.
type ShareService struct {
	shares    ports.ShareRepository
	clients   ports.ClientRepository
	listings  ports.ListingRepository
	notifier  ports.NotificationService
	publisher ports.EventPublisher
}

// NewShareService creates a new ShareService.
func NewShareService(
	shares ports.ShareRepository,
	clients ports.ClientRepository,
	listings ports.ListingRepository,
	notifier ports.NotificationService,
	publisher ports.EventPublisher,
) *ShareService {
	return &ShareService{
		shares:    shares,
		clients:   clients,
		listings:  listings,
		notifier:  notifier,
		publisher: publisher,
	}
}

// ShareListings creates share records for each listing and notifies the
// client once. The push is best-effort; share records survive a failed
// notification and the worker retries via the event stream.
func (s *ShareService) ShareListings(ctx context.Context, agentID, clientID string, listingIDs []string, note string) ([]domain.ListingShare, error) {
	if len(listingIDs) == 0 {
		return nil, fmt.Errorf("at least one listing is required")
	}
	if len(listingIDs) > 50 {
		return nil, fmt.Errorf("cannot share more than 50 listings at once")
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", clientID, err)
	}
	if client.AgentID != agentID {
		return nil, fmt.Errorf("client %s does not belong to agent %s", clientID, agentID)
	}

	shares := make([]domain.ListingShare, 0, len(listingIDs))
	for _, listingID := range listingIDs {
		// Verify the listing exists before recording the share
		if _, err := s.listings.GetByID(ctx, listingID); err != nil {
			return nil, fmt.Errorf("listing %s: %w", listingID, err)
		}
		shares = append(shares, domain.ListingShare{
			AgentID:   agentID,
			ClientID:  clientID,
			ListingID: listingID,
			Note:      note,
		})
	}

	if err := s.shares.CreateBatch(ctx, shares); err != nil {
		return nil, fmt.Errorf("create shares: %w", err)
	}

	// Fan out one notification event per batch; the notifier worker
	// delivers the push and marks shares notified.
	if s.publisher != nil {
		_ = s.publisher.PublishShareNotification(ctx, &shares[0])
	}

	return shares, nil
}

// NotifyClient delivers the push for a share batch and marks the share
// records notified. Called by the notification worker.
func (s *ShareService) NotifyClient(ctx context.Context, share *domain.ListingShare) error {
	client, err := s.clients.GetByID(ctx, share.ClientID)
	if err != nil {
		return fmt.Errorf("client %s: %w", share.ClientID, err)
	}
	if client.DeviceID == "" {
		return nil // nothing to deliver to
	}

	listing, err := s.listings.GetByID(ctx, share.ListingID)
	if err != nil {
		return fmt.Errorf("listing %s: %w", share.ListingID, err)
	}

	title := "New properties from your agent"
	body := fmt.Sprintf("%s — $%d. Tap to view.", listing.Address, listing.Price/100)
	if err := s.notifier.SendPush(ctx, client.DeviceID, title, body); err != nil {
		return fmt.Errorf("send push: %w", err)
	}

	return s.shares.MarkNotified(ctx, []string{share.ID}, time.Now())
}

// ListForClient returns everything shared with a client.
func (s *ShareService) ListForClient(ctx context.Context, clientID string) ([]domain.ListingShare, error) {
	return s.shares.ListByClient(ctx, clientID)
}

// MarkViewed records that the client opened a shared listing.
func (s *ShareService) MarkViewed(ctx context.Context, shareID string) error {
	return s.shares.MarkViewed(ctx, shareID, time.Now())
}

// Unshare removes a share.
func (s *ShareService) Unshare(ctx context.Context, shareID string) error {
	return s.shares.Delete(ctx, shareID)
}
