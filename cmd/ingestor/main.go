package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	nats "github.com/nestmap/nestmap/internal/adapters/nats"
	"github.com/nestmap/nestmap/internal/adapters/postgres"
	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/pkg/config"
	"github.com/nestmap/nestmap/internal/pkg/metrics"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string       `json:"source"`
	Boards []BoardEntry `json:"boards"`
}

type BoardEntry struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Timezone string `json:"timezone"`
	FeedURL  string `json:"feed_url"`
}

// ListingRecord is one listing as it appears in a board's JSON feed.
// Price is in cents.
type ListingRecord struct {
	MLSNumber    string   `json:"mls_number"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	Price        int64    `json:"price"`
	Beds         int      `json:"beds"`
	Baths        float64  `json:"baths"`
	SqFt         int      `json:"sqft"`
	LotSqFt      int      `json:"lot_sqft"`
	YearBuilt    int      `json:"year_built"`
	PropertyType string   `json:"property_type"`
	Status       string   `json:"status"`
	Remarks      string   `json:"remarks"`
	PhotoURLs    []string `json:"photo_urls"`
	ListedAt     string   `json:"listed_at"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("nestmap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Event publisher (optional: ingestion proceeds without it)
	var pub *nats.Publisher
	if p, err := nats.NewPublisher(cfg.NATS.URL); err != nil {
		log.Printf("nats unavailable, listing events disabled: %v", err)
	} else {
		pub = p
		defer pub.Close()
	}

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("NestMap MLS Ingestor — %d boards from %s", len(manifest.Boards), manifest.Source)

	// Filter boards (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	ing := &ingestor{
		listings:  postgres.NewListingRepo(db),
		boards:    postgres.NewBoardRepo(db),
		publisher: pub,
		client:    &http.Client{Timeout: 120 * time.Second},
		batchSize: cfg.Ingest.BatchSize,
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, cfg.Ingest.Workers)

	for _, board := range manifest.Boards {
		if len(slugFilter) > 0 && !slugFilter[board.Slug] {
			continue
		}

		wg.Add(1)
		go func(b BoardEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ing.ingestBoard(ctx, b); err != nil {
				metrics.FeedPollErrors.WithLabelValues(b.Slug).Inc()
				log.Printf("ERROR [%s]: %v", b.Slug, err)
			}
		}(board)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-board ingestion
// ---------------------------------------------------------------------------

type ingestor struct {
	listings  *postgres.ListingRepo
	boards    *postgres.BoardRepo
	publisher *nats.Publisher
	client    *http.Client
	batchSize int
}

func (ing *ingestor) ingestBoard(ctx context.Context, entry BoardEntry) error {
	log.Printf("[%s] fetching feed from %s", entry.Slug, entry.FeedURL)
	start := time.Now()

	records, err := ing.fetchFeed(entry.FeedURL)
	if err != nil {
		return err
	}
	metrics.FeedPollDuration.WithLabelValues(entry.Slug).Observe(time.Since(start).Seconds())

	// Upsert the board itself
	board := &domain.Board{
		Slug:     entry.Slug,
		Name:     entry.Name,
		FeedURL:  entry.FeedURL,
		Timezone: entry.Timezone,
	}
	if err := ing.boards.Upsert(ctx, board); err != nil {
		return fmt.Errorf("upsert board: %w", err)
	}

	batch := make([]domain.Listing, 0, ing.batchSize)
	total := 0

	for _, rec := range records {
		if rec.MLSNumber == "" || (rec.Lat == 0 && rec.Lon == 0) {
			continue
		}

		listing := toListing(entry.Slug, rec)

		// Diff against the stored listing to publish change events
		ing.publishChanges(ctx, &listing)

		batch = append(batch, listing)
		total++

		if len(batch) >= ing.batchSize {
			if err := ing.listings.UpsertBatch(ctx, batch); err != nil {
				return fmt.Errorf("upsert batch: %w", err)
			}
			metrics.ListingsIngested.WithLabelValues(entry.Slug).Add(float64(len(batch)))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := ing.listings.UpsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert final batch: %w", err)
		}
		metrics.ListingsIngested.WithLabelValues(entry.Slug).Add(float64(len(batch)))
	}

	log.Printf("[%s] done: %d listings in %s", entry.Slug, total, time.Since(start).Round(time.Millisecond))
	return nil
}

func (ing *ingestor) fetchFeed(url string) ([]ListingRecord, error) {
	resp, err := ing.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var records []ListingRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return records, nil
}

// publishChanges compares the incoming listing against the stored one and
// publishes new/price_change/status_change events. Event publishing is
// best-effort; a failed publish never blocks ingestion.
func (ing *ingestor) publishChanges(ctx context.Context, incoming *domain.Listing) {
	if ing.publisher == nil {
		return
	}

	existing, err := ing.listings.GetByMLSNumber(ctx, incoming.BoardSlug, incoming.MLSNumber)
	if err != nil {
		// Not stored yet: a brand new listing
		ev := &domain.ListingEvent{
			Type:      "new",
			BoardSlug: incoming.BoardSlug,
			NewPrice:  incoming.Price,
			NewStatus: incoming.Status,
			At:        time.Now(),
		}
		if err := ing.publisher.PublishListingEvent(ctx, ev); err == nil {
			metrics.ListingEvents.WithLabelValues(incoming.BoardSlug, "new").Inc()
		}
		return
	}

	if existing.Price != incoming.Price {
		ev := &domain.ListingEvent{
			Type:      "price_change",
			ListingID: existing.ID,
			BoardSlug: incoming.BoardSlug,
			OldPrice:  existing.Price,
			NewPrice:  incoming.Price,
			At:        time.Now(),
		}
		if err := ing.publisher.PublishListingEvent(ctx, ev); err == nil {
			metrics.ListingEvents.WithLabelValues(incoming.BoardSlug, "price_change").Inc()
		}
	}

	if existing.Status != incoming.Status {
		ev := &domain.ListingEvent{
			Type:      "status_change",
			ListingID: existing.ID,
			BoardSlug: incoming.BoardSlug,
			OldStatus: existing.Status,
			NewStatus: incoming.Status,
			At:        time.Now(),
		}
		if err := ing.publisher.PublishListingEvent(ctx, ev); err == nil {
			metrics.ListingEvents.WithLabelValues(incoming.BoardSlug, "status_change").Inc()
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func toListing(boardSlug string, rec ListingRecord) domain.Listing {
	listedAt, err := time.Parse(time.RFC3339, rec.ListedAt)
	if err != nil {
		listedAt = time.Now()
	}

	status := rec.Status
	if status == "" {
		status = domain.StatusActive
	}

	return domain.Listing{
		MLSNumber:    rec.MLSNumber,
		BoardSlug:    boardSlug,
		Address:      strings.TrimSpace(rec.Address),
		City:         strings.TrimSpace(rec.City),
		State:        rec.State,
		PostalCode:   rec.PostalCode,
		Location:     domain.GeoPoint{Lat: rec.Lat, Lon: rec.Lon},
		Price:        rec.Price,
		Beds:         rec.Beds,
		Baths:        rec.Baths,
		SqFt:         rec.SqFt,
		LotSqFt:      rec.LotSqFt,
		YearBuilt:    rec.YearBuilt,
		PropertyType: rec.PropertyType,
		Status:       status,
		Remarks:      rec.Remarks,
		PhotoURLs:    rec.PhotoURLs,
		ListedAt:     listedAt,
	}
}
