package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/ports"
)

// mapSearchLimit caps listings returned per viewport query.
const mapSearchLimit = 200

// mapSearchError responds in the envelope the map client consumes.
func mapSearchError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"data":    fiber.Map{"message": msg},
	})
}

// MapSearchHandler serves viewport-scoped listing queries from the map
// UI. It accepts form-encoded POSTs with a bounding box, zoom, an
// optional JSON filter set, and lifecycle flags; the request_id is
// echoed back so the client can match responses to requests.
func MapSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.SearchToken != "" {
			token := c.FormValue("security")
			if subtle.ConstantTimeCompare([]byte(token), []byte(deps.SearchToken)) != 1 {
				return mapSearchError(c, 401, "invalid security token")
			}
		}

		requestID := c.FormValue("request_id")
		isInitial := c.FormValue("is_initial_load") == "true"

		filters, err := parseViewportFilters(c.FormValue("filters"))
		if err != nil {
			return mapSearchError(c, 400, "invalid filters: "+err.Error())
		}

		var result *viewportData
		if isInitial || c.FormValue("north") == "" {
			res, err := deps.Listings.InitialLoad(c.Context(), deps.DefaultBoard, mapSearchLimit)
			if err != nil {
				return mapSearchError(c, 500, "unable to load listings")
			}
			result = &viewportData{Listings: res.Listings, Total: res.Total}
		} else {
			bounds, perr := parseBounds(c)
			if perr != nil {
				return mapSearchError(c, 400, perr.Error())
			}
			res, err := deps.Listings.SearchViewport(c.Context(), bounds, filters, mapSearchLimit)
			if err != nil {
				if errors.Is(err, domain.ErrInvertedBounds) {
					return mapSearchError(c, 400, err.Error())
				}
				return mapSearchError(c, 500, "unable to load listings")
			}
			result = &viewportData{Listings: res.Listings, Total: res.Total}
		}

		result.RequestID = requestID
		return c.JSON(fiber.Map{
			"success": true,
			"data":    result,
		})
	}
}

type viewportData struct {
	Listings  []domain.Listing `json:"listings"`
	Total     int              `json:"total"`
	RequestID string           `json:"request_id,omitempty"`
}

// parseBounds reads the bounding box form fields.
func parseBounds(c *fiber.Ctx) (domain.Bounds, error) {
	var b domain.Bounds
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"north", &b.North},
		{"south", &b.South},
		{"east", &b.East},
		{"west", &b.West},
	} {
		raw := c.FormValue(f.name)
		if raw == "" {
			return b, fiber.NewError(400, f.name+" is required")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return b, fiber.NewError(400, f.name+" must be a number")
		}
		*f.dst = v
	}
	return b, nil
}

// parseViewportFilters decodes the opaque filters map the client sends
// into the typed filter set the repository applies.
func parseViewportFilters(raw string) (domain.ViewportFilters, error) {
	var f domain.ViewportFilters
	if raw == "" {
		return f, nil
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return f, err
	}

	var err error
	for k, v := range m {
		if v == "" {
			continue
		}
		switch k {
		case "min_price":
			f.MinPrice, err = strconv.ParseInt(v, 10, 64)
		case "max_price":
			f.MaxPrice, err = strconv.ParseInt(v, 10, 64)
		case "min_beds":
			f.MinBeds, err = strconv.Atoi(v)
		case "min_baths":
			f.MinBaths, err = strconv.ParseFloat(v, 64)
		case "min_sqft":
			f.MinSqFt, err = strconv.Atoi(v)
		case "property_type":
			f.PropertyType = v
		case "statuses":
			f.Statuses = strings.Split(v, ",")
		}
		if err != nil {
			return f, fiber.NewError(400, "bad value for "+k)
		}
	}
	return f, nil
}

// GetListingHandler returns a single listing by ID.
func GetListingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}
		listing, err := deps.Listings.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "listing not found")
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(listing)
	}
}

// ListListingsHandler lists listings for a board, optionally by status.
func ListListingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		board := c.Query("board")
		if board == "" {
			return errBadRequest(c, "board query parameter is required")
		}
		status := c.Query("status")
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		listings, total, err := deps.Listings.List(c.Context(), board, status, offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: listings, Pagination: pg})
	}
}

// SearchListingsHandler performs text search on addresses and MLS numbers.
func SearchListingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		listings, err := deps.Listings.Search(c.Context(), query, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(listings)
	}
}

// ListBoardsHandler returns all configured MLS boards.
func ListBoardsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		boards, err := deps.Boards.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(boards)
	}
}

// FeedStats holds row counts from the listings tables.
type FeedStats struct {
	Boards       int    `json:"boards"`
	Listings     int    `json:"listings"`
	Shares       int    `json:"shares"`
	Appointments int    `json:"appointments"`
	LastIngest   string `json:"last_ingest,omitempty"`
}

// FeedStatsHandler returns ingest statistics.
func FeedStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats FeedStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM boards),
				(SELECT count(*) FROM listings),
				(SELECT count(*) FROM listing_shares),
				(SELECT count(*) FROM appointments),
				COALESCE((SELECT max(updated_at)::text FROM listings), '')
		`)
		if err := row.Scan(&stats.Boards, &stats.Listings, &stats.Shares,
			&stats.Appointments, &stats.LastIngest); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// CreateAgentHandler registers an agent in the directory.
func CreateAgentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name      string `json:"name"`
			Email     string `json:"email"`
			Phone     string `json:"phone"`
			BoardSlug string `json:"board_slug"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Name == "" || body.Email == "" {
			return errBadRequest(c, "name and email are required")
		}

		agent := &domain.Agent{
			Name:      body.Name,
			Email:     body.Email,
			Phone:     body.Phone,
			BoardSlug: body.BoardSlug,
		}
		if err := deps.Agents.Create(c.Context(), agent); err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(201).JSON(agent)
	}
}

// GetAgentHandler returns an agent by ID.
func GetAgentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		agent, err := deps.Agents.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return errNotFound(c, "agent not found")
		}
		return c.JSON(agent)
	}
}

// CreateClientHandler registers a client under an agent.
func CreateClientHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			AgentID  string `json:"agent_id"`
			Name     string `json:"name"`
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			DeviceID string `json:"device_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.AgentID == "" || body.Name == "" || body.Email == "" {
			return errBadRequest(c, "agent_id, name, and email are required")
		}

		client := &domain.Client{
			AgentID:  body.AgentID,
			Name:     body.Name,
			Email:    body.Email,
			Phone:    body.Phone,
			DeviceID: body.DeviceID,
		}
		if err := deps.Clients.Create(c.Context(), client); err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(201).JSON(client)
	}
}

// AgentClientsHandler lists an agent's clients.
func AgentClientsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		agentID := c.Params("id")
		if agentID == "" {
			return errBadRequest(c, "agent id is required")
		}
		clients, err := deps.Clients.ListByAgent(c.Context(), agentID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(clients)
	}
}

// CreateSharesHandler shares a set of listings with a client.
func CreateSharesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			AgentID    string   `json:"agent_id"`
			ClientID   string   `json:"client_id"`
			ListingIDs []string `json:"listing_ids"`
			Note       string   `json:"note"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.AgentID == "" || body.ClientID == "" {
			return errBadRequest(c, "agent_id and client_id are required")
		}

		shares, err := deps.Shares.ShareListings(c.Context(), body.AgentID, body.ClientID, body.ListingIDs, body.Note)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(fiber.Map{
			"shares": shares,
			"count":  len(shares),
		})
	}
}

// ClientSharesHandler lists listings shared with a client.
func ClientSharesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Params("id")
		if clientID == "" {
			return errBadRequest(c, "client id is required")
		}
		shares, err := deps.Shares.ListForClient(c.Context(), clientID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(shares)
	}
}

// MarkShareViewedHandler records that a client opened a shared listing.
func MarkShareViewedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "share id is required")
		}
		if err := deps.Shares.MarkViewed(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// DeleteShareHandler removes a share.
func DeleteShareHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "share id is required")
		}
		if err := deps.Shares.Unshare(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// CreateSavedSearchHandler persists a named filter set for a client.
func CreateSavedSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Params("id")
		var body struct {
			Name    string            `json:"name"`
			Filters map[string]string `json:"filters"`
			Bounds  *domain.Bounds    `json:"bounds"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Name == "" {
			return errBadRequest(c, "name is required")
		}
		if body.Bounds != nil &&
			(body.Bounds.North <= body.Bounds.South || body.Bounds.East <= body.Bounds.West) {
			return errBadRequest(c, domain.ErrInvertedBounds.Error())
		}
		if _, err := deps.Clients.GetByID(c.Context(), clientID); err != nil {
			return errNotFound(c, "client not found")
		}

		search := &domain.SavedSearch{
			ClientID: clientID,
			Name:     body.Name,
			Filters:  body.Filters,
			Bounds:   body.Bounds,
		}
		if err := deps.Searches.Create(c.Context(), search); err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(201).JSON(search)
	}
}

// ClientSavedSearchesHandler lists a client's saved searches.
func ClientSavedSearchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Params("id")
		if clientID == "" {
			return errBadRequest(c, "client id is required")
		}
		searches, err := deps.Searches.ListByClient(c.Context(), clientID)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(searches)
	}
}

// DeleteSavedSearchHandler removes a saved search.
func DeleteSavedSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "search id is required")
		}
		if err := deps.Searches.Delete(c.Context(), id); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// CreateAppointmentHandler requests a showing.
func CreateAppointmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			AgentID   string    `json:"agent_id"`
			ClientID  string    `json:"client_id"`
			ListingID string    `json:"listing_id"`
			StartsAt  time.Time `json:"starts_at"`
			EndsAt    time.Time `json:"ends_at"`
			Note      string    `json:"note"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.AgentID == "" || body.ClientID == "" || body.ListingID == "" {
			return errBadRequest(c, "agent_id, client_id, and listing_id are required")
		}

		appt, err := deps.Appointments.Request(c.Context(), body.AgentID, body.ClientID,
			body.ListingID, body.StartsAt, body.EndsAt, body.Note)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(appt)
	}
}

// UpdateAppointmentStatusHandler confirms, cancels, or completes a showing.
func UpdateAppointmentStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "appointment id is required")
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Appointments.UpdateStatus(c.Context(), id, body.Status); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"id": id, "status": body.Status})
	}
}

// AgentAppointmentsHandler lists an agent's upcoming showings.
func AgentAppointmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "agent id is required")
		}
		appts, err := deps.Appointments.ListForAgent(c.Context(), id, c.QueryInt("limit", 50))
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(appts)
	}
}

// ClientAppointmentsHandler lists a client's upcoming showings.
func ClientAppointmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "client id is required")
		}
		appts, err := deps.Appointments.ListForClient(c.Context(), id, c.QueryInt("limit", 50))
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(appts)
	}
}

// AssistChatHandler runs one turn of the property-assistant chat.
func AssistChatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Message string `json:"message"`
			History []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"history"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(body.Message) == "" {
			return errBadRequest(c, "message is required")
		}
		if deps.Assist == nil {
			return errInternal(c, "assistant not configured")
		}

		history := make([]ports.ChatMessage, 0, len(body.History))
		for _, m := range body.History {
			if m.Role != "user" && m.Role != "assistant" {
				return errBadRequest(c, "history roles must be user or assistant")
			}
			history = append(history, ports.ChatMessage{Role: m.Role, Content: m.Content})
		}

		reply, err := deps.Assist.Chat(c.Context(), history, body.Message)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"reply": reply})
	}
}
