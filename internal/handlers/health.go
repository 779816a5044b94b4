package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"safeguard/internal/preflight"
	"safeguard/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	connManager *services.ConnectionManager
	monitor     *services.MonitorService
	caps        preflight.Capabilities
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(connManager *services.ConnectionManager, monitor *services.MonitorService, caps preflight.Capabilities) *HealthHandler {
	return &HealthHandler{connManager: connManager, monitor: monitor, caps: caps}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"monitoring":   h.monitor.State().Status,
		"connections":  h.connManager.Count(),
		"capabilities": h.caps,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}
