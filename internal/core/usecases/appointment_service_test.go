package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/usecases"
)

type mockAppointmentRepo struct {
	createFn       func(ctx context.Context, a *domain.Appointment) error
	getByIDFn      func(ctx context.Context, id string) (*domain.Appointment, error)
	updateStatusFn func(ctx context.Context, id, status string) error
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}
func (m *mockAppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Appointment{ID: id, Status: domain.AppointmentRequested}, nil
}
func (m *mockAppointmentRepo) ListByAgent(ctx context.Context, agentID string, from time.Time, limit int) ([]domain.Appointment, error) {
	return nil, nil
}
func (m *mockAppointmentRepo) ListByClient(ctx context.Context, clientID string, from time.Time, limit int) ([]domain.Appointment, error) {
	return nil, nil
}
func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func TestAppointmentService_Request(t *testing.T) {
	listings := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{ID: id, Status: domain.StatusActive}, nil
		},
	}
	var created *domain.Appointment
	appts := &mockAppointmentRepo{
		createFn: func(ctx context.Context, a *domain.Appointment) error {
			created = a
			return nil
		},
	}

	svc := usecases.NewAppointmentService(appts, listings, &mockClientRepo{}, &mockNotifier{})

	start := time.Now().Add(24 * time.Hour)
	appt, err := svc.Request(context.Background(), "agent-1", "client-1", "l1", start, start.Add(30*time.Minute), "gate code 4411")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != domain.AppointmentRequested {
		t.Errorf("expected requested status, got %s", appt.Status)
	}
	if created == nil || created.Note != "gate code 4411" {
		t.Error("appointment not persisted with note")
	}
}

func TestAppointmentService_Request_SoldListing(t *testing.T) {
	listings := &mockListingRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Listing, error) {
			return &domain.Listing{ID: id, Status: domain.StatusSold}, nil
		},
	}

	svc := usecases.NewAppointmentService(&mockAppointmentRepo{}, listings, &mockClientRepo{}, &mockNotifier{})

	start := time.Now().Add(time.Hour)
	_, err := svc.Request(context.Background(), "a", "c", "l1", start, start.Add(time.Hour), "")
	if err == nil {
		t.Error("expected error for sold listing")
	}
}

func TestAppointmentService_Request_BadWindow(t *testing.T) {
	svc := usecases.NewAppointmentService(&mockAppointmentRepo{}, &mockListingRepo{}, &mockClientRepo{}, &mockNotifier{})

	start := time.Now().Add(time.Hour)
	_, err := svc.Request(context.Background(), "a", "c", "l1", start, start.Add(-time.Minute), "")
	if err == nil {
		t.Error("expected error when end precedes start")
	}
}

func TestAppointmentService_UpdateStatus_Confirm(t *testing.T) {
	notifier := &mockNotifier{}
	clients := &mockClientRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Client, error) {
			return &domain.Client{ID: id, DeviceID: "dev-1"}, nil
		},
	}

	svc := usecases.NewAppointmentService(&mockAppointmentRepo{}, &mockListingRepo{}, clients, notifier)

	if err := svc.UpdateStatus(context.Background(), "appt-1", domain.AppointmentConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.calls != 1 {
		t.Errorf("expected confirmation push, got %d calls", notifier.calls)
	}
}

func TestAppointmentService_UpdateStatus_Invalid(t *testing.T) {
	svc := usecases.NewAppointmentService(&mockAppointmentRepo{}, &mockListingRepo{}, &mockClientRepo{}, &mockNotifier{})
	if err := svc.UpdateStatus(context.Background(), "appt-1", "snoozed"); err == nil {
		t.Error("expected error for invalid status")
	}
}
