package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nestmap/nestmap/internal/core/domain"
	"github.com/nestmap/nestmap/internal/core/ports"
	"github.com/nestmap/nestmap/internal/pkg/geospatial"
)

// maxToolRounds bounds the tool-calling loop so a misbehaving model
// cannot spin forever.
const maxToolRounds = 5

const assistSystemPrompt = "You are a real-estate search assistant. " +
	"Use the search_listings tool to find properties and the get_listing " +
	"tool for details. Answer concisely and never invent listings."

// AssistService runs the assistant conversation loop over a ChatModel,
// executing listing tools between rounds.
type AssistService struct {
	model    ports.ChatModel
	listings *ListingService
}

// NewAssistService creates a new AssistService.
func NewAssistService(model ports.ChatModel, listings *ListingService) *AssistService {
	return &AssistService{model: model, listings: listings}
}

// Chat answers a user message, resolving tool calls until the model
// produces a final text reply or the round cap is hit.
func (s *AssistService) Chat(ctx context.Context, history []ports.ChatMessage, userMessage string) (string, error) {
	if userMessage == "" {
		return "", fmt.Errorf("message must not be empty")
	}

	messages := make([]ports.ChatMessage, 0, len(history)+2)
	messages = append(messages, ports.ChatMessage{Role: "system", Content: assistSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ports.ChatMessage{Role: "user", Content: userMessage})

	tools := s.toolSpecs()

	for round := 0; round < maxToolRounds; round++ {
		reply, err := s.model.Complete(ctx, messages, tools)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			result := s.runTool(ctx, call)
			messages = append(messages, ports.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("assistant exceeded %d tool rounds without a final answer", maxToolRounds)
}

func (s *AssistService) toolSpecs() []ports.ToolSpec {
	return []ports.ToolSpec{
		{
			Name:        "search_listings",
			Description: "Search active listings by text query (address, neighborhood, keywords).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"limit": map[string]any{"type": "integer", "maximum": 10},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "search_near",
			Description: "Find active listings within a radius of a point. Radius is in meters.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lat":      map[string]any{"type": "number"},
					"lon":      map[string]any{"type": "number"},
					"radius_m": map[string]any{"type": "number", "maximum": 50000},
				},
				"required": []string{"lat", "lon"},
			},
		},
		{
			Name:        "get_listing",
			Description: "Fetch full details for one listing by its ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"listing_id": map[string]any{"type": "string"},
				},
				"required": []string{"listing_id"},
			},
		},
	}
}

// runTool executes one tool call. Errors become tool results so the
// model can recover instead of aborting the conversation.
func (s *AssistService) runTool(ctx context.Context, call ports.ToolCall) string {
	switch call.Name {
	case "search_listings":
		var args struct {
			Query string `json:"query"`
			Limit int    `json:"limit"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return toolError("invalid arguments: " + err.Error())
		}
		if args.Limit <= 0 || args.Limit > 10 {
			args.Limit = 5
		}
		listings, err := s.listings.Search(ctx, args.Query, args.Limit)
		if err != nil {
			return toolError(err.Error())
		}
		return toolResult(summarizeListings(listings))

	case "search_near":
		var args struct {
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
			RadiusM float64 `json:"radius_m"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return toolError("invalid arguments: " + err.Error())
		}
		if args.RadiusM <= 0 || args.RadiusM > 50000 {
			args.RadiusM = 2000
		}
		minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(args.Lat, args.Lon, args.RadiusM)
		res, err := s.listings.SearchViewport(ctx, domain.Bounds{
			North: maxLat,
			South: minLat,
			East:  maxLon,
			West:  minLon,
		}, domain.ViewportFilters{Statuses: []string{domain.StatusActive}}, 10)
		if err != nil {
			return toolError(err.Error())
		}
		return toolResult(summarizeListings(res.Listings))

	case "get_listing":
		var args struct {
			ListingID string `json:"listing_id"`
		}
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return toolError("invalid arguments: " + err.Error())
		}
		listing, err := s.listings.GetByID(ctx, args.ListingID)
		if err != nil {
			return toolError(err.Error())
		}
		return toolResult(listing)

	default:
		slog.Warn("assistant requested unknown tool", "tool", call.Name)
		return toolError("unknown tool: " + call.Name)
	}
}

// summarizeListings trims listings to the fields the model needs,
// keeping tool payloads small.
func summarizeListings(listings []domain.Listing) []map[string]any {
	out := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		out = append(out, map[string]any{
			"id":      l.ID,
			"address": l.Address,
			"city":    l.City,
			"price":   l.Price,
			"beds":    l.Beds,
			"baths":   l.Baths,
			"sqft":    l.SqFt,
			"status":  l.Status,
		})
	}
	return out
}

func toolResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError("marshal result: " + err.Error())
	}
	return string(data)
}

func toolError(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
