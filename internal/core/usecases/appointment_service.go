package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/ports"
)

// AppointmentService handles showing-appointment business logic.
type AppointmentService struct {
	appointments ports.AppointmentRepository
	listings     ports.ListingRepository
	clients      ports.ClientRepository
	notifier     ports.NotificationService
}

// NewAppointmentService creates a new AppointmentService.
func NewAppointmentService(
	appointments ports.AppointmentRepository,
	listings ports.ListingRepository,
	clients ports.ClientRepository,
	notifier ports.NotificationService,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		listings:     listings,
		clients:      clients,
		notifier:     notifier,
	}
}

// Request creates a showing request for a listing.
func (s *AppointmentService) Request(ctx context.Context, agentID, clientID, listingID string, startsAt, endsAt time.Time, note string) (*domain.Appointment, error) {
	if !endsAt.After(startsAt) {
		return nil, fmt.Errorf("appointment end must be after start")
	}
	if startsAt.Before(time.Now()) {
		return nil, fmt.Errorf("appointment cannot start in the past")
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, err)
	}
	if listing.Status == domain.StatusSold || listing.Status == domain.StatusWithdrawn {
		return nil, fmt.Errorf("listing %s is no longer available for showings", listingID)
	}

	appt := &domain.Appointment{
		AgentID:   agentID,
		ClientID:  clientID,
		ListingID: listingID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Status:    domain.AppointmentRequested,
		Note:      note,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return appt, nil
}

// UpdateStatus transitions an appointment and notifies the client on
// confirmation or cancellation.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case domain.AppointmentConfirmed, domain.AppointmentCancelled, domain.AppointmentCompleted:
	default:
		return fmt.Errorf("invalid appointment status %q", status)
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("appointment %s: %w", id, err)
	}
	if appt.Status == domain.AppointmentCancelled {
		return fmt.Errorf("appointment %s is already cancelled", id)
	}

	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	// Push on confirm/cancel (best-effort)
	if s.notifier != nil && (status == domain.AppointmentConfirmed || status == domain.AppointmentCancelled) {
		if client, err := s.clients.GetByID(ctx, appt.ClientID); err == nil && client.DeviceID != "" {
			title := "Showing confirmed"
			if status == domain.AppointmentCancelled {
				title = "Showing cancelled"
			}
			body := fmt.Sprintf("Your showing on %s has been %s.", appt.StartsAt.Format("Jan 2 at 3:04 PM"), status)
			_ = s.notifier.SendPush(ctx, client.DeviceID, title, body)
		}
	}

	return nil
}

// ListForAgent returns upcoming appointments for an agent.
func (s *AppointmentService) ListForAgent(ctx context.Context, agentID string, limit int) ([]domain.Appointment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.appointments.ListByAgent(ctx, agentID, time.Now(), limit)
}

// ListForClient returns upcoming appointments for a client.
func (s *AppointmentService) ListForClient(ctx context.Context, clientID string, limit int) ([]domain.Appointment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.appointments.ListByClient(ctx, clientID, time.Now(), limit)
}
