package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"safeguard/internal/models"
	"safeguard/internal/store"
)

// AlertsHandler serves the persisted alert log.
type AlertsHandler struct {
	store *store.AlertStore
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(alertStore *store.AlertStore) *AlertsHandler {
	return &AlertsHandler{store: alertStore}
}

// List handles GET /api/alerts — every record in insertion order.
func (h *AlertsHandler) List(c *fiber.Ctx) error {
	alerts := h.store.All()
	return c.JSON(models.AlertListResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}

// Recent handles GET /api/alerts/recent?within=SECONDS (default one hour).
func (h *AlertsHandler) Recent(c *fiber.Ctx) error {
	within := time.Hour
	if v := c.Query("within"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query parameter 'within' must be a positive number of seconds",
			})
		}
		within = time.Duration(seconds) * time.Second
	}

	alerts := h.store.Recent(within)
	return c.JSON(models.AlertListResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}

// Clear handles DELETE /api/alerts. Administrative; guarded by admin auth.
func (h *AlertsHandler) Clear(c *fiber.Ctx) error {
	if err := h.store.Clear(c.Context()); err != nil {
		// The in-memory log is already empty; only persistence failed.
		log.Printf("⚠️  [ALERTS] Clear persisted with error: %v", err)
	}

	userID, _ := c.Locals("user_id").(string)
	log.Printf("🗑️  [ALERTS] Alert log cleared by %s", userID)

	return c.JSON(fiber.Map{"cleared": true})
}
