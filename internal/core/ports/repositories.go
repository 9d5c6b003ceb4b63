package ports

import (
	"context"
	"time"

	"github.com/nestmap/nestmap/internal/core/domain"
)

// ListingRepository persists MLS listings.
type ListingRepository interface {
	Upsert(ctx context.Context, l *domain.Listing) error
	UpsertBatch(ctx context.Context, listings []domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	GetByMLSNumber(ctx context.Context, boardSlug, mlsNumber string) (*domain.Listing, error)
	// FindInBounds returns listings inside the viewport, newest first,
	// along with the total match count before the limit was applied.
	FindInBounds(ctx context.Context, b domain.Bounds, f domain.ViewportFilters, limit int) ([]domain.Listing, int, error)
	// Newest returns the most recently listed properties for a board.
	Newest(ctx context.Context, boardSlug string, limit int) ([]domain.Listing, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Listing, error)
	List(ctx context.Context, boardSlug, status string, offset, limit int) ([]domain.Listing, int, error)
}

// BoardRepository persists MLS boards.
type BoardRepository interface {
	Upsert(ctx context.Context, b *domain.Board) error
	GetBySlug(ctx context.Context, slug string) (*domain.Board, error)
	List(ctx context.Context) ([]domain.Board, error)
}

// AgentRepository persists the agent directory.
type AgentRepository interface {
	Create(ctx context.Context, a *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
}

// ClientRepository persists agents' clients.
type ClientRepository interface {
	Create(ctx context.Context, c *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	ListByAgent(ctx context.Context, agentID string) ([]domain.Client, error)
}

// ShareRepository persists listing shares.
type ShareRepository interface {
	Create(ctx context.Context, s *domain.ListingShare) error
	CreateBatch(ctx context.Context, shares []domain.ListingShare) error
	GetByID(ctx context.Context, id string) (*domain.ListingShare, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.ListingShare, error)
	MarkNotified(ctx context.Context, ids []string, at time.Time) error
	MarkViewed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// SavedSearchRepository persists clients' saved filter sets.
type SavedSearchRepository interface {
	Create(ctx context.Context, s *domain.SavedSearch) error
	ListByClient(ctx context.Context, clientID string) ([]domain.SavedSearch, error)
	Delete(ctx context.Context, id string) error
}

// AppointmentRepository persists showing appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	ListByAgent(ctx context.Context, agentID string, from time.Time, limit int) ([]domain.Appointment, error)
	ListByClient(ctx context.Context, clientID string, from time.Time, limit int) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
