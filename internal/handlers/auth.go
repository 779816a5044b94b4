package handlers

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"safeguard/pkg/auth"
)

// AuthHandler issues admin tokens for the administrative endpoints.
type AuthHandler struct {
	jwtAuth      *auth.LocalJWTAuth
	passwordHash string
}

// NewAuthHandler creates a new auth handler. passwordHash is an argon2id
// hash; in development a plain ADMIN_PASSWORD env var is accepted instead.
func NewAuthHandler(jwtAuth *auth.LocalJWTAuth, passwordHash string) *AuthHandler {
	return &AuthHandler{jwtAuth: jwtAuth, passwordHash: passwordHash}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if h.jwtAuth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Authentication is not configured",
		})
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Field 'password' is required",
		})
	}

	if !h.verifyPassword(req.Password) {
		log.Printf("❌ [AUTH] Failed admin login from %s", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := h.jwtAuth.GenerateToken("admin", "admin")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue token",
		})
	}

	return c.JSON(fiber.Map{"token": token})
}

func (h *AuthHandler) verifyPassword(password string) bool {
	if h.passwordHash != "" {
		ok, err := auth.VerifyPassword(h.passwordHash, password)
		if err != nil {
			log.Printf("⚠️  [AUTH] Password hash malformed: %v", err)
			return false
		}
		return ok
	}

	// Plain comparison allowed only outside production
	if os.Getenv("ENVIRONMENT") != "production" {
		plain := os.Getenv("ADMIN_PASSWORD")
		return plain != "" && plain == password
	}
	return false
}
