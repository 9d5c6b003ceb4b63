//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nestmap/nestmap/internal/adapters/http"
	"github.com/nestmap/nestmap/internal/adapters/postgres"
	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/usecases"
	"github.com/nestmap/nestmap/internal/pkg/config"
)

// setupTestDB connects to the test database and returns a clean DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("nestmap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	dsn := cfg.Database.DSN()
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	listingRepo := postgres.NewListingRepo(db)
	shareRepo := postgres.NewShareRepo(db)
	apptRepo := postgres.NewAppointmentRepo(db)
	clientRepo := postgres.NewClientRepo(db)
	boardRepo := postgres.NewBoardRepo(db)

	return &http.Dependencies{
		Listings:     usecases.NewListingService(listingRepo, nil),
		Shares:       usecases.NewShareService(shareRepo, clientRepo, listingRepo, nil, nil),
		Appointments: usecases.NewAppointmentService(apptRepo, listingRepo, clientRepo, nil),
		Boards:       boardRepo,
		Clients:      clientRepo,
		DB:           db,
		DefaultBoard: "test_board",
	}
}

// seedTestBoard inserts a test board and returns its UUID.
func seedTestBoard(t *testing.T, db *postgres.DB, slug string) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO boards (slug, name, timezone)
		VALUES ($1, $2, 'America/Los_Angeles')
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, slug, "Test Board "+slug).Scan(&id); err != nil {
		t.Fatalf("seed board: %v", err)
	}
	return id
}

// seedTestListing inserts a test listing at the given point and returns its UUID.
func seedTestListing(t *testing.T, db *postgres.DB, boardSlug, mls string, lat, lon float64) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO listings (board_slug, mls_number, address, city, state, postal_code,
			location, price, beds, baths, sqft, property_type, status, listed_at)
		VALUES ($1, $2, '100 Test St', 'Seattle', 'WA', '98101',
			ST_SetSRID(ST_MakePoint($3, $4), 4326), 65000000, 3, 2, 1500, 'house', 'active', now())
		ON CONFLICT (board_slug, mls_number) DO UPDATE SET address = EXCLUDED.address
		RETURNING id
	`, boardSlug, mls, lon, lat).Scan(&id); err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return id
}

// TestMapSearch_Integration tests the viewport query against a real database.
func TestMapSearch_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestBoard(t, db, "test_board")
	seedTestListing(t, db, "test_board", "TEST-0001", 47.61, -122.33)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	form := url.Values{}
	form.Set("action", "map_search")
	form.Set("north", "47.70")
	form.Set("south", "47.50")
	form.Set("east", "-122.20")
	form.Set("west", "-122.45")
	req := httptest.NewRequest("POST", "/v1/map/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var env mapSearchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !env.Success {
		t.Error("expected success=true")
	}
	if env.Data.Total < 1 {
		t.Errorf("expected at least 1 listing in viewport, got %d", env.Data.Total)
	}
}

// TestListingSearch_Integration tests trigram address search against a real database.
func TestListingSearch_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestBoard(t, db, "test_board")
	seedTestListing(t, db, "test_board", "TEST-0002", 47.62, -122.34)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/listings/search?q=Test+St", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var listings []domain.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listings) == 0 {
		t.Error("expected at least 1 search result, got 0")
	}
}

// TestShareFlow_Integration exercises client creation and listing shares end to end.
func TestShareFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestBoard(t, db, "test_board")
	listingID := seedTestListing(t, db, "test_board", "TEST-0003", 47.63, -122.35)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	// Create a client
	body := `{"agent_id":"` + "11111111-1111-1111-1111-111111111111" + `","name":"Integration Client","email":"integ@example.com"}`
	req := httptest.NewRequest("POST", "/v1/clients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var client domain.Client
	json.NewDecoder(resp.Body).Decode(&client)

	// Share the listing with them
	shareBody := `{"agent_id":"` + client.AgentID + `","client_id":"` + client.ID + `","listing_ids":["` + listingID + `"]}`
	req = httptest.NewRequest("POST", "/v1/shares", strings.NewReader(shareBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("create shares: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// They show up on the client's share list
	req = httptest.NewRequest("GET", "/v1/clients/"+client.ID+"/shares", nil)
	resp, _ = app.Test(req, -1)
	var shares []domain.ListingShare
	json.NewDecoder(resp.Body).Decode(&shares)
	if len(shares) == 0 {
		t.Error("expected at least 1 share for client, got 0")
	}
}
