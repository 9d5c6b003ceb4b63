package postgres

import (
	"context"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// ClientRepo implements ports.ClientRepository with pgx.
type ClientRepo struct {
	db *DB
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(db *DB) *ClientRepo {
	return &ClientRepo{db: db}
}

// Create inserts a client.
func (r *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO clients (agent_id, name, email, phone, device_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.AgentID, c.Name, c.Email, c.Phone, c.DeviceID,
	).Scan(&c.ID, &c.CreatedAt)
}

// GetByID returns a client by UUID.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, agent_id, name, email, COALESCE(phone, ''), COALESCE(device_id, ''), created_at
		FROM clients WHERE id = $1
	`, id).Scan(&c.ID, &c.AgentID, &c.Name, &c.Email, &c.Phone, &c.DeviceID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByAgent returns an agent's clients ordered by name.
func (r *ClientRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.Client, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, agent_id, name, email, COALESCE(phone, ''), COALESCE(device_id, ''), created_at
		FROM clients WHERE agent_id = $1
		ORDER BY name
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.AgentID, &c.Name, &c.Email, &c.Phone, &c.DeviceID, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
