package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/usecases"
)

// --- Mocks ---

type mockShareRepo struct {
	createBatchFn  func(ctx context.Context, shares []domain.ListingShare) error
	listByClientFn func(ctx context.Context, clientID string) ([]domain.ListingShare, error)
	markNotifiedFn func(ctx context.Context, ids []string, at time.Time) error
}

func (m *mockShareRepo) Create(ctx context.Context, s *domain.ListingShare) error { return nil }
func (m *mockShareRepo) CreateBatch(ctx context.Context, shares []domain.ListingShare) error {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, shares)
	}
	return nil
}
func (m *mockShareRepo) GetByID(ctx context.Context, id string) (*domain.ListingShare, error) {
	return nil, nil
}
func (m *mockShareRepo) ListByClient(ctx context.Context, clientID string) ([]domain.ListingShare, error) {
	if m.listByClientFn != nil {
		return m.listByClientFn(ctx, clientID)
	}
	return nil, nil
}
func (m *mockShareRepo) MarkNotified(ctx context.Context, ids []string, at time.Time) error {
	if m.markNotifiedFn != nil {
		return m.markNotifiedFn(ctx, ids, at)
	}
	return nil
}
func (m *mockShareRepo) MarkViewed(ctx context.Context, id string, at time.Time) error { return nil }
func (m *mockShareRepo) Delete(ctx context.Context, id string) error                   { return nil }

type mockClientRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Client, error)
}

func (m *mockClientRepo) Create(ctx context.Context, c *domain.Client) error { return nil }
func (m *mockClientRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Client{ID: id}, nil
}
func (m *mockClientRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.Client, error) {
	return nil, nil
}

type mockNotifier struct {
	sendPushFn func(ctx context.Context, deviceID, title, body string) error
	calls      int
}

func (m *mockNotifier) SendPush(ctx context.Context, deviceID, title, body string) error {
	m.calls++
	if m.sendPushFn != nil {
		return m.sendPushFn(ctx, deviceID, title, body)
	}
	return nil
}

type mockPublisher struct {
	shareEvents int
}

func (m *mockPublisher) PublishListingEvent(ctx context.Context, ev *domain.ListingEvent) error {
	return nil
}
func (m *mockPublisher) PublishShareNotification(ctx context.Context, s *domain.ListingShare) error {
	m.shareEvents++
	return nil
}
func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Tests ---

func TestShareService_ShareListings(t *testing.T) {
	var created []domain.ListingShare
	shares := &mockShareRepo{
		createBatchFn: func(ctx context.Context, s []domain.ListingShare) error {
			created = s
			return nil
		},
	}
	clients := &mockClientRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Client, error) {
			return &domain.Client{ID: id, AgentID: "agent-1", DeviceID: "dev-1"}, nil
		},
	}
	listings := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{ID: id, Address: "12 Harbor View Dr", Price: 45000000}, nil
		},
	}
	pub := &mockPublisher{}

	svc := usecases.NewShareService(shares, clients, listings, &mockNotifier{}, pub)

	out, err := svc.ShareListings(context.Background(), "agent-1", "client-1", []string{"l1", "l2"}, "take a look")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || len(created) != 2 {
		t.Fatalf("expected 2 shares, got %d created", len(created))
	}
	if created[0].Note != "take a look" {
		t.Errorf("note not carried through: %q", created[0].Note)
	}
	if pub.shareEvents != 1 {
		t.Errorf("expected exactly one notification event, got %d", pub.shareEvents)
	}
}

func TestShareService_ShareListings_WrongAgent(t *testing.T) {
	clients := &mockClientRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Client, error) {
			return &domain.Client{ID: id, AgentID: "someone-else"}, nil
		},
	}

	svc := usecases.NewShareService(&mockShareRepo{}, clients, &mockListingRepo{}, &mockNotifier{}, &mockPublisher{})

	_, err := svc.ShareListings(context.Background(), "agent-1", "client-1", []string{"l1"}, "")
	if err == nil {
		t.Error("expected error when client belongs to another agent")
	}
}

func TestShareService_ShareListings_Empty(t *testing.T) {
	svc := usecases.NewShareService(&mockShareRepo{}, &mockClientRepo{}, &mockListingRepo{}, &mockNotifier{}, &mockPublisher{})
	_, err := svc.ShareListings(context.Background(), "agent-1", "client-1", nil, "")
	if err == nil {
		t.Error("expected error for empty listing set")
	}
}

func TestShareService_NotifyClient(t *testing.T) {
	notified := false
	shares := &mockShareRepo{
		markNotifiedFn: func(ctx context.Context, ids []string, at time.Time) error {
			notified = true
			return nil
		},
	}
	clients := &mockClientRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Client, error) {
			return &domain.Client{ID: id, AgentID: "agent-1", DeviceID: "dev-1"}, nil
		},
	}
	listings := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{ID: id, Address: "12 Harbor View Dr", Price: 45000000}, nil
		},
	}
	notifier := &mockNotifier{}

	svc := usecases.NewShareService(shares, clients, listings, notifier, &mockPublisher{})

	err := svc.NotifyClient(context.Background(), &domain.ListingShare{
		ID: "s1", ClientID: "client-1", ListingID: "l1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.calls != 1 {
		t.Errorf("expected 1 push, got %d", notifier.calls)
	}
	if !notified {
		t.Error("share was not marked notified")
	}
}

func TestShareService_NotifyClient_NoDevice(t *testing.T) {
	clients := &mockClientRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Client, error) {
			return &domain.Client{ID: id, DeviceID: ""}, nil
		},
	}
	notifier := &mockNotifier{}

	svc := usecases.NewShareService(&mockShareRepo{}, clients, &mockListingRepo{}, notifier, &mockPublisher{})

	if err := svc.NotifyClient(context.Background(), &domain.ListingShare{ID: "s1", ClientID: "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.calls != 0 {
		t.Errorf("expected no push without a device, got %d", notifier.calls)
	}
}
