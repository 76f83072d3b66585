package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/response"
)

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	store database.Storage
	cache cache.Cache
	start time.Time
}

func NewHealthHandler(store database.Storage, c cache.Cache) *HealthHandler {
	return &HealthHandler{store: store, cache: c, start: time.Now()}
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Health handles GET /api/v1/health. It answers 503 when the store is down.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "cache": "ok"}
	healthy := true

	if err := h.store.HealthCheck(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if _, err := h.cache.Exists(ctx, "health:probe"); err != nil {
		// cache loss degrades performance only
		checks["cache"] = err.Error()
	}

	data := fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.start).Round(time.Second).String(),
		"checks": checks,
	}
	if !healthy {
		data["status"] = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.Response{Success: false, Data: data})
	}
	return response.Success(c, data)
}
