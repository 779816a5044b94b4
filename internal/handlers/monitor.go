package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"safeguard/internal/services"
)

// MonitorHandler controls the monitoring session over HTTP.
type MonitorHandler struct {
	monitor *services.MonitorService
	drill   *services.SimulatedSource // nil when the drill capability is off
}

// NewMonitorHandler creates a new monitor handler.
func NewMonitorHandler(monitor *services.MonitorService, drill *services.SimulatedSource) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, drill: drill}
}

// Start handles POST /api/monitor/start.
func (h *MonitorHandler) Start(c *fiber.Ctx) error {
	h.monitor.Start()
	return c.JSON(h.statusPayload())
}

// Stop handles POST /api/monitor/stop.
func (h *MonitorHandler) Stop(c *fiber.Ctx) error {
	h.monitor.Stop()
	return c.JSON(h.statusPayload())
}

// Status handles GET /api/monitor/status.
func (h *MonitorHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.statusPayload())
}

func (h *MonitorHandler) statusPayload() fiber.Map {
	state := h.monitor.State()

	payload := fiber.Map{
		"status":           state.Status,
		"recentAlertCount": state.RecentAlertCount,
		"escalated":        state.Escalated,
	}
	if state.SessionStartedAt != nil {
		payload["sessionStartedAt"] = state.SessionStartedAt.Format(time.RFC3339)
	}
	if h.drill != nil {
		if next, ok := h.drill.NextRun(); ok {
			payload["drillNextRun"] = next.Format(time.RFC3339)
		}
	}
	return payload
}
