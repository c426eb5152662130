package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "geolocator",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// readyCheck probes one dependency. required checks fail readiness when
// the dependency is missing; optional ones only when it is unhealthy.
type readyCheck struct {
	name     string
	required bool
	probe    func(ctx context.Context) error // nil: not configured
}

func readyChecks(deps *Dependencies) []readyCheck {
	checks := []readyCheck{
		{name: "database", required: true},
		{name: "nats"},
		{name: "valkey"},
	}
	if deps.DB != nil {
		checks[0].probe = deps.DB.Ping
	}
	if deps.NATS != nil {
		checks[1].probe = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}
	if deps.Valkey != nil {
		checks[2].probe = deps.Valkey.Ping
	}
	return checks
}

// ReadyHandler checks DB, NATS and Valkey connectivity.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		results := make(map[string]string)
		allOK := true
		for _, chk := range readyChecks(deps) {
			if chk.probe == nil {
				results[chk.name] = "not configured"
				if chk.required {
					allOK = false
				}
				continue
			}
			if err := chk.probe(ctx); err != nil {
				results[chk.name] = "error: " + err.Error()
				allOK = false
			} else {
				results[chk.name] = "ok"
			}
		}

		if !allOK {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
