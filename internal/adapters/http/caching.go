package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Adds sensible defaults if not already set by the handler.
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
			ttl = "public, max-age=10" // system checks

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/graphql":
			ttl = "private, max-age=0"

		case strings.HasPrefix(path, "/v1/stops/search"):
			ttl = "public, max-age=300" // matches the Valkey TTL

		case strings.HasPrefix(path, "/v1/stops/nearby"):
			ttl = "public, max-age=300"

		case strings.HasSuffix(path, "/arrivals") || strings.HasPrefix(path, "/v1/arrivals"):
			ttl = "public, max-age=10" // live predictions go stale fast

		case strings.HasPrefix(path, "/v1/vehicles/"):
			ttl = "public, max-age=10"

		case strings.HasPrefix(path, "/v1/favorites"):
			ttl = "private, no-store" // user data

		case strings.HasPrefix(path, "/v1/map/tiles"):
			ttl = "public, max-age=60" // pure function of the query

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
