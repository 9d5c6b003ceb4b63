package postgres

import (
	"context"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// SavedSearchRepo implements ports.SavedSearchRepository with pgx.
type SavedSearchRepo struct {
	db *DB
}

// NewSavedSearchRepo creates a new SavedSearchRepo.
func NewSavedSearchRepo(db *DB) *SavedSearchRepo {
	return &SavedSearchRepo{db: db}
}

// Create inserts a saved search. Filters and bounds are stored as jsonb.
func (r *SavedSearchRepo) Create(ctx context.Context, s *domain.SavedSearch) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO saved_searches (client_id, name, filters, bounds)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, s.ClientID, s.Name, s.Filters, s.Bounds,
	).Scan(&s.ID, &s.CreatedAt)
}

// ListByClient returns a client's saved searches, newest first.
func (r *SavedSearchRepo) ListByClient(ctx context.Context, clientID string) ([]domain.SavedSearch, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, client_id, name, COALESCE(filters, '{}'), bounds, created_at
		FROM saved_searches WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []domain.SavedSearch
	for rows.Next() {
		var s domain.SavedSearch
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Name, &s.Filters, &s.Bounds, &s.CreatedAt); err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// Delete removes a saved search.
func (r *SavedSearchRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1`, id)
	return err
}
