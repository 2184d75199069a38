package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler probes the backing services. The database is required;
// NATS and the cache degrade gracefully, so their absence only shows in
// the per-check detail.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	type check struct {
		name     string
		required bool
		probe    func(ctx context.Context) string // "" means healthy
	}

	checks := []check{
		{
			name:     "database",
			required: true,
			probe: func(ctx context.Context) string {
				if deps.DB == nil {
					return "not configured"
				}
				if err := deps.DB.Pool.Ping(ctx); err != nil {
					return "error: " + err.Error()
				}
				return ""
			},
		},
		{
			name: "nats",
			probe: func(ctx context.Context) string {
				if deps.NATS == nil {
					return "not configured"
				}
				if !deps.NATS.IsConnected() {
					return "disconnected"
				}
				return ""
			},
		},
		{
			name: "cache",
			probe: func(ctx context.Context) string {
				if deps.Cache == nil {
					return "not configured"
				}
				// A missing key is the expected answer here.
				_, err := deps.Cache.Get(ctx, "__health_check__")
				if err != nil && err.Error() != "valkey nil message" {
					return "error: " + err.Error()
				}
				return ""
			},
		},
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, ck := range checks {
			msg := ck.probe(ctx)
			if msg == "" {
				results[ck.name] = "ok"
				continue
			}
			results[ck.name] = msg
			if ck.required || msg != "not configured" {
				ready = false
			}
		}

		status, code := "ready", 200
		if !ready {
			status, code = "not ready", 503
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	}
}
