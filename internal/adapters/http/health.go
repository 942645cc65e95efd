package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler answers liveness probes; it touches no dependencies.
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

// ReadyHandler reports per-dependency readiness. Postgres and valkey are
// mandatory (valkey backs sessions); an absent NATS only degrades
// broadcasts and is reported without failing readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		fail := func(name, detail string) {
			checks[name] = detail
			ready = false
		}

		switch {
		case deps.DB == nil:
			fail("database", "not configured")
		case deps.DB.Pool.Ping(ctx) != nil:
			fail("database", "unreachable")
		default:
			checks["database"] = "ok"
		}

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case !deps.NATS.IsConnected():
			fail("nats", "disconnected")
		default:
			checks["nats"] = "ok"
		}

		switch {
		case deps.Cache == nil:
			fail("cache", "not configured")
		case deps.Cache.Ping(ctx) != nil:
			fail("cache", "unreachable")
		default:
			checks["cache"] = "ok"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
