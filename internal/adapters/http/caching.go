package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0"

		case path == "/v1/boards":
			ttl = "public, max-age=3600" // Boards rarely change

		case strings.HasPrefix(path, "/v1/listings/search"):
			ttl = "public, max-age=120" // Search results go stale on ingest

		case strings.HasPrefix(path, "/v1/listings/"):
			ttl = "public, max-age=300" // Single listing

		case path == "/v1/feeds/status":
			ttl = "public, max-age=60" // Ingest stats

		case strings.Contains(path, "/shares") || strings.Contains(path, "/appointments") ||
			strings.Contains(path, "/clients"):
			ttl = "private, max-age=0" // Per-user data, never shared caches

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=120"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
