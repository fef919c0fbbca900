package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kadal/internal/adapters/earthengine"
)

// HealthHandler reports backend initialisation and echoes configuration.
// It answers 200 even when degraded.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		var ee earthengine.Status
		if deps.Backend != nil {
			ee = deps.Backend.Status()
		}

		status := "healthy"
		if !ee.Initialized {
			status = "degraded"
		}

		planner := "none"
		if deps.Queries != nil {
			planner = deps.Queries.PlannerName()
		}

		return c.JSON(fiber.Map{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startedAt).String(),
			"version":   deps.Version,
			"services": fiber.Map{
				"earth_engine": ee,
				"planner":      planner,
			},
			"environment": deps.Env,
		})
	}
}

// ReadyHandler checks the analytic backend plus any configured DB, NATS,
// and cache connections.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		if deps.Backend != nil && deps.Backend.Status().Initialized {
			checks["earth_engine"] = "ok"
		} else {
			checks["earth_engine"] = "not initialized"
			allOK = false
		}

		probe := func(name string, p Pinger) {
			if p == nil {
				checks[name] = "not configured"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "error: " + err.Error()
				allOK = false
				return
			}
			checks[name] = "ok"
		}
		probe("database", deps.DB)
		probe("cache", deps.Cache)

		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
