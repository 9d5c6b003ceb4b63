package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/nestmap/nestmap/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Viewport map search (form-encoded, used by the map UI)
	v1.Post("/map/search", timeout.NewWithContext(MapSearchHandler(deps), 15*time.Second))

	// Listings
	v1.Get("/listings", timeout.NewWithContext(ListListingsHandler(deps), 15*time.Second))
	v1.Get("/listings/search", timeout.NewWithContext(SearchListingsHandler(deps), 15*time.Second))
	v1.Get("/listings/:id", timeout.NewWithContext(GetListingHandler(deps), 15*time.Second))

	// Boards and feed status
	v1.Get("/boards", timeout.NewWithContext(ListBoardsHandler(deps), 15*time.Second))
	v1.Get("/feeds/status", timeout.NewWithContext(FeedStatsHandler(deps), 15*time.Second))

	// Agents and clients
	v1.Post("/agents", timeout.NewWithContext(CreateAgentHandler(deps), 15*time.Second))
	v1.Get("/agents/:id", timeout.NewWithContext(GetAgentHandler(deps), 15*time.Second))
	v1.Post("/clients", timeout.NewWithContext(CreateClientHandler(deps), 15*time.Second))
	v1.Get("/agents/:id/clients", timeout.NewWithContext(AgentClientsHandler(deps), 15*time.Second))

	// Saved searches
	v1.Post("/clients/:id/searches", timeout.NewWithContext(CreateSavedSearchHandler(deps), 15*time.Second))
	v1.Get("/clients/:id/searches", timeout.NewWithContext(ClientSavedSearchesHandler(deps), 15*time.Second))
	v1.Delete("/searches/:id", timeout.NewWithContext(DeleteSavedSearchHandler(deps), 15*time.Second))

	// Shares
	v1.Post("/shares", timeout.NewWithContext(CreateSharesHandler(deps), 15*time.Second))
	v1.Get("/clients/:id/shares", timeout.NewWithContext(ClientSharesHandler(deps), 15*time.Second))
	v1.Post("/shares/:id/viewed", timeout.NewWithContext(MarkShareViewedHandler(deps), 15*time.Second))
	v1.Delete("/shares/:id", timeout.NewWithContext(DeleteShareHandler(deps), 15*time.Second))

	// Appointments
	v1.Post("/appointments", timeout.NewWithContext(CreateAppointmentHandler(deps), 15*time.Second))
	v1.Patch("/appointments/:id/status", timeout.NewWithContext(UpdateAppointmentStatusHandler(deps), 15*time.Second))
	v1.Get("/agents/:id/appointments", timeout.NewWithContext(AgentAppointmentsHandler(deps), 15*time.Second))
	v1.Get("/clients/:id/appointments", timeout.NewWithContext(ClientAppointmentsHandler(deps), 15*time.Second))

	// AI assistant
	v1.Post("/assist/chat", timeout.NewWithContext(AssistChatHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
