package domain

import (
	"time"
)

// Listing statuses as they come in from the MLS feed.
const (
	StatusActive     = "active"
	StatusPending    = "pending"
	StatusSold       = "sold"
	StatusWithdrawn  = "withdrawn"
	StatusComingSoon = "coming_soon"
	StatusOffMarket  = "off_market"
)

// Listing represents a single MLS property listing.
type Listing struct {
	ID            string         `json:"id"`
	MLSNumber     string         `json:"mls_number"`
	BoardSlug     string         `json:"board_slug"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	PostalCode    string         `json:"postal_code"`
	Location      GeoPoint       `json:"location"`
	Price         int64          `json:"price"` // cents
	Beds          int            `json:"beds"`
	Baths         float64        `json:"baths"`
	SqFt          int            `json:"sqft"`
	LotSqFt       int            `json:"lot_sqft,omitempty"`
	YearBuilt     int            `json:"year_built,omitempty"`
	PropertyType  string         `json:"property_type"`
	Status        string         `json:"status"`
	Remarks       string         `json:"remarks,omitempty"`
	PhotoURLs     []string       `json:"photo_urls,omitempty"`
	ListingAgent  string         `json:"listing_agent,omitempty"`
	ListingOffice string         `json:"listing_office,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Distance      *float64       `json:"distance,omitempty"` // computed field
	ListedAt      time.Time      `json:"listed_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Board represents an MLS board / market whose feed we ingest.
type Board struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	FeedURL   string    `json:"feed_url,omitempty"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// Agent is a real-estate agent with clients on the platform.
type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	BoardSlug string    `json:"board_slug,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is a buyer/seller attached to an agent.
type Client struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"` // push notification target
	CreatedAt time.Time `json:"created_at"`
}

// ListingShare records a listing shared by an agent with a client.
type ListingShare struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agent_id"`
	ClientID   string         `json:"client_id"`
	ListingID  string         `json:"listing_id"`
	Note       string         `json:"note,omitempty"`
	NotifiedAt *time.Time     `json:"notified_at,omitempty"`
	ViewedAt   *time.Time     `json:"viewed_at,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Appointment statuses.
const (
	AppointmentRequested = "requested"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
)

// Appointment is a showing request for a listing.
type Appointment struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	ClientID  string    `json:"client_id"`
	ListingID string    `json:"listing_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SavedSearch is a persisted filter set for a client.
type SavedSearch struct {
	ID        string            `json:"id"`
	ClientID  string            `json:"client_id"`
	Name      string            `json:"name"`
	Filters   map[string]string `json:"filters"`
	Bounds    *Bounds           `json:"bounds,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListingEvent is published when a listing changes (new, price drop, status).
type ListingEvent struct {
	Type      string    `json:"type"` // "new" | "price_change" | "status_change"
	ListingID string    `json:"listing_id"`
	BoardSlug string    `json:"board_slug"`
	OldPrice  int64     `json:"old_price,omitempty"`
	NewPrice  int64     `json:"new_price,omitempty"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	At        time.Time `json:"at"`
}

// ViewportFilters is the parsed filter set a map search accepts.
// Fields left at zero are not applied.
type ViewportFilters struct {
	MinPrice     int64    `json:"min_price,omitempty"`
	MaxPrice     int64    `json:"max_price,omitempty"`
	MinBeds      int      `json:"min_beds,omitempty"`
	MinBaths     float64  `json:"min_baths,omitempty"`
	MinSqFt      int      `json:"min_sqft,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
}

// Empty reports whether no filter is set.
func (f ViewportFilters) Empty() bool {
	return f.MinPrice == 0 && f.MaxPrice == 0 && f.MinBeds == 0 &&
		f.MinBaths == 0 && f.MinSqFt == 0 && f.PropertyType == "" &&
		len(f.Statuses) == 0
}
