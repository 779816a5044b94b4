package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"safeguard/internal/models"
	"safeguard/internal/services"
)

const maxCaptureLen = 10_000

// CaptureHandler ingests raw text from capture sources (clipboard paste and
// forwarded device notifications) and feeds it to the monitoring session.
type CaptureHandler struct {
	monitor *services.MonitorService
	limiter *services.CaptureRateLimiter
}

// NewCaptureHandler creates a new capture handler.
func NewCaptureHandler(monitor *services.MonitorService, limiter *services.CaptureRateLimiter) *CaptureHandler {
	return &CaptureHandler{monitor: monitor, limiter: limiter}
}

// Handle processes POST /api/capture.
func (h *CaptureHandler) Handle(c *fiber.Ctx) error {
	var req models.CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Field 'text' is required",
		})
	}
	if len(req.Text) > maxCaptureLen {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Capture text too large",
		})
	}

	if req.Source == "" {
		req.Source = models.SourceClipboard
	}
	if !req.Source.Valid() || req.Source == models.SourceSimulated {
		// The simulated source is internal; external callers may not spoof it.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Field 'source' must be 'clipboard' or 'notification'",
		})
	}

	if !h.limiter.Allow(req.Source) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Capture rate limit exceeded",
		})
	}

	score, recorded, err := h.monitor.OnCapturedText(c.Context(), req.Text, req.Source)
	if err != nil {
		if errors.Is(err, services.ErrNotMonitoring) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Monitoring session is not running",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process capture",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(models.CaptureResponse{
		Score:    score,
		Recorded: recorded,
	})
}
