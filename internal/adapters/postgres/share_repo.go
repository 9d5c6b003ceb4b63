package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nestmap/nestmap/internal/core/domain"
)

// ShareRepo implements ports.ShareRepository with pgx.
type ShareRepo struct {
	db *DB
}

// NewShareRepo creates a new ShareRepo.
func NewShareRepo(db *DB) *ShareRepo {
	return &ShareRepo{db: db}
}

const shareInsertSQL = `
	INSERT INTO listing_shares (agent_id, client_id, listing_id, note, metadata)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
`

// Create inserts a single share.
func (r *ShareRepo) Create(ctx context.Context, s *domain.ListingShare) error {
	return r.db.Pool.QueryRow(ctx, shareInsertSQL,
		s.AgentID, s.ClientID, s.ListingID, s.Note, s.Metadata,
	).Scan(&s.ID, &s.CreatedAt)
}

// CreateBatch inserts many shares using pgx.Batch.
func (r *ShareRepo) CreateBatch(ctx context.Context, shares []domain.ListingShare) error {
	batch := &pgx.Batch{}
	for _, s := range shares {
		batch.Queue(shareInsertSQL, s.AgentID, s.ClientID, s.ListingID, s.Note, s.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range shares {
		if err := br.QueryRow().Scan(&shares[i].ID, &shares[i].CreatedAt); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

const shareColumns = `
	id, agent_id, client_id, listing_id, COALESCE(note, ''),
	notified_at, viewed_at, COALESCE(metadata, '{}'), created_at
`

// GetByID returns a share by UUID.
func (r *ShareRepo) GetByID(ctx context.Context, id string) (*domain.ListingShare, error) {
	var s domain.ListingShare
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM listing_shares WHERE id = $1`, id,
	).Scan(
		&s.ID, &s.AgentID, &s.ClientID, &s.ListingID, &s.Note,
		&s.NotifiedAt, &s.ViewedAt, &s.Metadata, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByClient returns a client's shares, newest first.
func (r *ShareRepo) ListByClient(ctx context.Context, clientID string) ([]domain.ListingShare, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+shareColumns+`
		 FROM listing_shares WHERE client_id = $1
		 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []domain.ListingShare
	for rows.Next() {
		var s domain.ListingShare
		if err := rows.Scan(
			&s.ID, &s.AgentID, &s.ClientID, &s.ListingID, &s.Note,
			&s.NotifiedAt, &s.ViewedAt, &s.Metadata, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

// MarkNotified stamps the notified_at time on a set of shares.
func (r *ShareRepo) MarkNotified(ctx context.Context, ids []string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE listing_shares SET notified_at = $2 WHERE id = ANY($1) AND notified_at IS NULL`,
		ids, at)
	return err
}

// MarkViewed stamps the viewed_at time on a share. The first view wins.
func (r *ShareRepo) MarkViewed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE listing_shares SET viewed_at = $2 WHERE id = $1 AND viewed_at IS NULL`,
		id, at)
	return err
}

// Delete removes a share.
func (r *ShareRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM listing_shares WHERE id = $1`, id)
	return err
}
