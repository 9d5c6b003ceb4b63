// Package mapclient fetches map-viewport-scoped listing data from a
// search endpoint while avoiding redundant or overlapping network
// calls. It throttles and coalesces rapid viewport changes, cancels
// superseded requests, rejects out-of-order responses with a sequence
// number, and retries connectivity failures with linear backoff.
package mapclient

import "encoding/json"

// Bounds is the geographic bounding box visible on the map.
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Center returns the midpoint of the box.
func (b Bounds) Center() (lat, lon float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// ViewportQuery is the parameter set of a single fetch. A query is
// immutable once constructed; a new user action builds a new query.
type ViewportQuery struct {
	Bounds  Bounds
	Zoom    int
	Filters map[string]string

	// IsNewFilter marks a filter change rather than a pan/zoom refresh.
	IsNewFilter bool
	// IsInitialLoad bypasses throttling and the significance check, and
	// omits the bounding box from the request.
	IsInitialLoad bool
	// IsStateRestoration marks a query replayed from saved UI state.
	IsStateRestoration bool
}

// Result is what a settled fetch hands to the consumer. Listings are
// opaque to this package and passed through to rendering collaborators.
type Result struct {
	Listings []json.RawMessage
	Total    int
	// FitBounds tells the camera to move to enclose the listings. Set
	// on initial loads and filter changes, not on pan/zoom refreshes.
	FitBounds bool
}
