package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/ports"
)

// ListingService handles listing-related business logic.
type ListingService struct {
	listings ports.ListingRepository
	cache    ports.CacheService
}

// NewListingService creates a new ListingService.
func NewListingService(listings ports.ListingRepository, cache ports.CacheService) *ListingService {
	return &ListingService{listings: listings, cache: cache}
}

// ViewportResult is what a map search returns.
type ViewportResult struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
}

// SearchViewport returns listings inside the bounding box matching the
// filter set. Results are rounded-viewport cached so that small pans
// reuse the same entry.
func (s *ListingService) SearchViewport(ctx context.Context, b domain.Bounds, f domain.ViewportFilters, limit int) (*ViewportResult, error) {
	if b.North <= b.South || b.East <= b.West {
		return nil, fmt.Errorf("%w (north %.4f south %.4f east %.4f west %.4f)",
			domain.ErrInvertedBounds, b.North, b.South, b.East, b.West)
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	cacheKey := viewportCacheKey(b, f, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res ViewportResult
			if err := json.Unmarshal(data, &res); err == nil {
				return &res, nil
			}
		}
	}

	listings, total, err := s.listings.FindInBounds(ctx, b, f, limit)
	if err != nil {
		return nil, err
	}
	res := &ViewportResult{Listings: listings, Total: total}

	// Cache for 1 minute: listings change on ingest, not per request
	if s.cache != nil {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return res, nil
}

// InitialLoad returns the newest listings for a board, used when the map
// has not established a viewport yet.
func (s *ListingService) InitialLoad(ctx context.Context, boardSlug string, limit int) (*ViewportResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	listings, total, err := s.listings.Newest(ctx, boardSlug, limit)
	if err != nil {
		return nil, err
	}
	return &ViewportResult{Listings: listings, Total: total}, nil
}

// GetByID returns a single listing.
func (s *ListingService) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	cacheKey := "listings:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var l domain.Listing
			if err := json.Unmarshal(data, &l); err == nil {
				return &l, nil
			}
		}
	}

	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(l); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return l, nil
}

// Search performs text search on address and remarks.
func (s *ListingService) Search(ctx context.Context, query string, limit int) ([]domain.Listing, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.listings.Search(ctx, query, limit)
}

// List returns listings filtered by board and status, paginated.
func (s *ListingService) List(ctx context.Context, boardSlug, status string, offset, limit int) ([]domain.Listing, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.listings.List(ctx, boardSlug, status, offset, limit)
}

// viewportCacheKey rounds bounds to ~100m so near-identical viewports
// share a cache entry.
func viewportCacheKey(b domain.Bounds, f domain.ViewportFilters, limit int) string {
	filters, _ := json.Marshal(f)
	return fmt.Sprintf("listings:viewport:%.3f:%.3f:%.3f:%.3f:%d:%s",
		b.North, b.South, b.East, b.West, limit, filters)
}
