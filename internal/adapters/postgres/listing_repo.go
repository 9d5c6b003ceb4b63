package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nestmap/nestmap/internal/core/domain"
)

// ListingRepo implements ports.ListingRepository with pgx.
type ListingRepo struct {
	db *DB
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(db *DB) *ListingRepo {
	return &ListingRepo{db: db}
}

const listingUpsertSQL = `
	INSERT INTO listings (mls_number, board_slug, address, city, state, postal_code,
	                      location, price, beds, baths, sqft, lot_sqft, year_built,
	                      property_type, status, remarks, photo_urls, listing_agent,
	                      listing_office, metadata, listed_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6,
	        ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography, $9, $10, $11, $12, $13, $14,
	        $15, $16, $17, $18, $19, $20, $21, $22, now())
	ON CONFLICT (board_slug, mls_number) DO UPDATE
	SET address = EXCLUDED.address, city = EXCLUDED.city, state = EXCLUDED.state,
	    postal_code = EXCLUDED.postal_code, location = EXCLUDED.location,
	    price = EXCLUDED.price, beds = EXCLUDED.beds, baths = EXCLUDED.baths,
	    sqft = EXCLUDED.sqft, lot_sqft = EXCLUDED.lot_sqft, year_built = EXCLUDED.year_built,
	    property_type = EXCLUDED.property_type, status = EXCLUDED.status,
	    remarks = EXCLUDED.remarks, photo_urls = EXCLUDED.photo_urls,
	    listing_agent = EXCLUDED.listing_agent, listing_office = EXCLUDED.listing_office,
	    metadata = EXCLUDED.metadata, listed_at = EXCLUDED.listed_at, updated_at = now()
`

func upsertArgs(l *domain.Listing) []any {
	return []any{
		l.MLSNumber, l.BoardSlug, l.Address, l.City, l.State, l.PostalCode,
		l.Location.Lon, l.Location.Lat, l.Price, l.Beds, l.Baths, l.SqFt,
		l.LotSqFt, l.YearBuilt, l.PropertyType, l.Status, l.Remarks,
		l.PhotoURLs, l.ListingAgent, l.ListingOffice, l.Metadata, l.ListedAt,
	}
}

// Upsert inserts or updates a single listing keyed on (board_slug, mls_number).
func (r *ListingRepo) Upsert(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.Pool.Exec(ctx, listingUpsertSQL, upsertArgs(l)...)
	return err
}

// UpsertBatch inserts many listings using pgx.Batch.
func (r *ListingRepo) UpsertBatch(ctx context.Context, listings []domain.Listing) error {
	batch := &pgx.Batch{}
	for i := range listings {
		batch.Queue(listingUpsertSQL, upsertArgs(&listings[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range listings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

const listingColumns = `
	id, mls_number, board_slug, address, city, state, postal_code,
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	price, beds, baths, sqft, lot_sqft, year_built,
	property_type, status, COALESCE(remarks, ''), COALESCE(photo_urls, '{}'),
	COALESCE(listing_agent, ''), COALESCE(listing_office, ''), COALESCE(metadata, '{}'),
	listed_at, updated_at, created_at
`

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(
		&l.ID, &l.MLSNumber, &l.BoardSlug, &l.Address, &l.City, &l.State, &l.PostalCode,
		&l.Location.Lat, &l.Location.Lon,
		&l.Price, &l.Beds, &l.Baths, &l.SqFt, &l.LotSqFt, &l.YearBuilt,
		&l.PropertyType, &l.Status, &l.Remarks, &l.PhotoURLs,
		&l.ListingAgent, &l.ListingOffice, &l.Metadata,
		&l.ListedAt, &l.UpdatedAt, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanListings(rows pgx.Rows) ([]domain.Listing, error) {
	defer rows.Close()
	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// GetByID returns a listing by UUID.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

// GetByMLSNumber returns a listing by its board-scoped MLS number.
func (r *ListingRepo) GetByMLSNumber(ctx context.Context, boardSlug, mlsNumber string) (*domain.Listing, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE board_slug = $1 AND mls_number = $2`,
		boardSlug, mlsNumber)
	return scanListing(row)
}

// filterClauses appends WHERE fragments and args for the viewport filters.
func filterClauses(f domain.ViewportFilters, where []string, args []any) ([]string, []any) {
	if f.MinPrice > 0 {
		args = append(args, f.MinPrice)
		where = append(where, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice > 0 {
		args = append(args, f.MaxPrice)
		where = append(where, fmt.Sprintf("price <= $%d", len(args)))
	}
	if f.MinBeds > 0 {
		args = append(args, f.MinBeds)
		where = append(where, fmt.Sprintf("beds >= $%d", len(args)))
	}
	if f.MinBaths > 0 {
		args = append(args, f.MinBaths)
		where = append(where, fmt.Sprintf("baths >= $%d", len(args)))
	}
	if f.MinSqFt > 0 {
		args = append(args, f.MinSqFt)
		where = append(where, fmt.Sprintf("sqft >= $%d", len(args)))
	}
	if f.PropertyType != "" {
		args = append(args, f.PropertyType)
		where = append(where, fmt.Sprintf("property_type = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		args = append(args, f.Statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	} else {
		where = append(where, fmt.Sprintf("status <> '%s'", domain.StatusOffMarket))
	}
	return where, args
}

// FindInBounds returns listings whose location falls inside the viewport
// envelope, newest first, plus the total match count before the limit.
func (r *ListingRepo) FindInBounds(ctx context.Context, b domain.Bounds, f domain.ViewportFilters, limit int) ([]domain.Listing, int, error) {
	args := []any{b.West, b.South, b.East, b.North}
	where := []string{
		"location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)",
	}
	where, args = filterClauses(f, where, args)
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM listings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit)
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE `+cond+
			fmt.Sprintf(` ORDER BY listed_at DESC LIMIT $%d`, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Newest returns the most recently listed active properties for a board.
func (r *ListingRepo) Newest(ctx context.Context, boardSlug string, limit int) ([]domain.Listing, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM listings
		WHERE board_slug = $1 AND status = $2
	`, boardSlug, domain.StatusActive).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+listingColumns+`
		 FROM listings
		 WHERE board_slug = $1 AND status = $2
		 ORDER BY listed_at DESC
		 LIMIT $3`, boardSlug, domain.StatusActive, limit)
	if err != nil {
		return nil, 0, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Search performs fuzzy + full-text search on listing addresses.
func (r *ListingRepo) Search(ctx context.Context, query string, limit int) ([]domain.Listing, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+listingColumns+`
		 FROM listings
		 WHERE address_vector @@ plainto_tsquery('english', $1)
		    OR address %> $1
		    OR mls_number = $1
		 ORDER BY similarity(address, $1) DESC
		 LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

// List returns a page of listings for a board, optionally filtered by status.
func (r *ListingRepo) List(ctx context.Context, boardSlug, status string, offset, limit int) ([]domain.Listing, int, error) {
	args := []any{boardSlug}
	cond := "board_slug = $1"
	if status != "" {
		args = append(args, status)
		cond += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM listings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE `+cond+
			fmt.Sprintf(` ORDER BY listed_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}
