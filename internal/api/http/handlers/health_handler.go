package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-hq/helpdesk/internal/config"
	"github.com/helpdesk-hq/helpdesk/internal/persistence"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	cfg      config.AppConfig
	postgres *persistence.Postgres
	redis    *persistence.Redis
	started  time.Time
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(cfg config.AppConfig, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		cfg:      cfg,
		postgres: postgres,
		redis:    redis,
		started:  time.Now(),
	}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"name":    h.cfg.Name,
		"version": h.cfg.Version,
		"uptime":  time.Since(h.started).String(),
	})
}

// Ready reports dependency readiness. Degraded dependencies flip the status
// and the HTTP code but the response body still names each check.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if err := h.postgres.Ping(c.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.Ping(c.Context()); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := "ok"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}
