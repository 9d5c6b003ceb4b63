package postgres

import (
	"context"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// AgentRepo implements ports.AgentRepository with pgx.
type AgentRepo struct {
	db *DB
}

// NewAgentRepo creates a new AgentRepo.
func NewAgentRepo(db *DB) *AgentRepo {
	return &AgentRepo{db: db}
}

// Create inserts an agent.
func (r *AgentRepo) Create(ctx context.Context, a *domain.Agent) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO agents (name, email, phone, board_slug)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.Name, a.Email, a.Phone, a.BoardSlug,
	).Scan(&a.ID, &a.CreatedAt)
}

// GetByID returns an agent by UUID.
func (r *AgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var a domain.Agent
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), COALESCE(board_slug, ''), created_at
		FROM agents WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.BoardSlug, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
