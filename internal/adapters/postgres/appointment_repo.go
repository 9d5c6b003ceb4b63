package postgres

import (
	"context"
	"time"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// AppointmentRepo implements ports.AppointmentRepository with pgx.
type AppointmentRepo struct {
	db *DB
}

// NewAppointmentRepo creates a new AppointmentRepo.
func NewAppointmentRepo(db *DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

// Create inserts a showing appointment.
func (r *AppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO appointments (agent_id, client_id, listing_id, starts_at, ends_at, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, a.AgentID, a.ClientID, a.ListingID, a.StartsAt, a.EndsAt, a.Status, a.Note,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

const appointmentColumns = `
	id, agent_id, client_id, listing_id, starts_at, ends_at, status,
	COALESCE(note, ''), created_at, updated_at
`

// GetByID returns an appointment by UUID.
func (r *AppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id,
	).Scan(
		&a.ID, &a.AgentID, &a.ClientID, &a.ListingID, &a.StartsAt, &a.EndsAt,
		&a.Status, &a.Note, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepo) listBy(ctx context.Context, column, id string, from time.Time, limit int) ([]domain.Appointment, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+appointmentColumns+`
		 FROM appointments
		 WHERE `+column+` = $1 AND ends_at >= $2
		 ORDER BY starts_at
		 LIMIT $3`, id, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(
			&a.ID, &a.AgentID, &a.ClientID, &a.ListingID, &a.StartsAt, &a.EndsAt,
			&a.Status, &a.Note, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// ListByAgent returns an agent's upcoming appointments, soonest first.
func (r *AppointmentRepo) ListByAgent(ctx context.Context, agentID string, from time.Time, limit int) ([]domain.Appointment, error) {
	return r.listBy(ctx, "agent_id", agentID, from, limit)
}

// ListByClient returns a client's upcoming appointments, soonest first.
func (r *AppointmentRepo) ListByClient(ctx context.Context, clientID string, from time.Time, limit int) ([]domain.Appointment, error) {
	return r.listBy(ctx, "client_id", clientID, from, limit)
}

// UpdateStatus transitions an appointment's status.
func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	return err
}
