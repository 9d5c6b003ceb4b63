package postgres

import (
	"context"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// BoardRepo implements ports.BoardRepository with pgx.
type BoardRepo struct {
	db *DB
}

// NewBoardRepo creates a new BoardRepo.
func NewBoardRepo(db *DB) *BoardRepo {
	return &BoardRepo{db: db}
}

// Upsert inserts or updates a board keyed on slug.
func (r *BoardRepo) Upsert(ctx context.Context, b *domain.Board) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO boards (slug, name, feed_url, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, feed_url = EXCLUDED.feed_url, timezone = EXCLUDED.timezone
	`, b.Slug, b.Name, b.FeedURL, b.Timezone)
	return err
}

// GetBySlug returns a board by slug.
func (r *BoardRepo) GetBySlug(ctx context.Context, slug string) (*domain.Board, error) {
	var b domain.Board
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, name, COALESCE(feed_url, ''), timezone, created_at
		FROM boards WHERE slug = $1
	`, slug).Scan(&b.ID, &b.Slug, &b.Name, &b.FeedURL, &b.Timezone, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all boards ordered by name.
func (r *BoardRepo) List(ctx context.Context) ([]domain.Board, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, COALESCE(feed_url, ''), timezone, created_at
		FROM boards ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.Slug, &b.Name, &b.FeedURL, &b.Timezone, &b.CreatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}
