package http

import (
	"github.com/nats-io/nats.go"
	"github.com/nestmap/nestmap/internal/adapters/postgres"
	"github.com/nestmap/nestmap/internal/adapters/valkey"
	"github.com/nestmap/nestmap/internal/core/ports"
	"github.com/nestmap/nestmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Listings     *usecases.ListingService
	Shares       *usecases.ShareService
	Appointments *usecases.AppointmentService
	Assist       *usecases.AssistService
	Boards       ports.BoardRepository
	Agents       ports.AgentRepository
	Clients      ports.ClientRepository
	Searches     ports.SavedSearchRepository
	NATS         *nats.Conn
	DB           *postgres.DB
	Cache        *valkey.Cache

	// SearchToken guards the map search endpoint. Empty disables the
	// check (local development).
	SearchToken string
	// DefaultBoard serves initial loads that carry no bounding box.
	DefaultBoard string
}
