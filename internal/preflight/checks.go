// Package preflight probes the environment once at startup and reports a
// fixed set of capability flags. Core logic branches only on these flags,
// never on platform identity.
package preflight

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"safeguard/internal/config"
	"safeguard/internal/database"
	"safeguard/internal/store"
)

// Capabilities is the fixed set of booleans the rest of the system keys off.
type Capabilities struct {
	Database bool `json:"database"`
	Redis    bool `json:"redis"`
	Webhook  bool `json:"webhook"`
	Drill    bool `json:"drill"`
	Auth     bool `json:"auth"`
}

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before the server starts.
type Checker struct {
	cfg     *config.Config
	db      *database.DB
	redisKV *store.RedisKV
}

// NewChecker creates a new preflight checker.
func NewChecker(cfg *config.Config, db *database.DB, redisKV *store.RedisKV) *Checker {
	return &Checker{cfg: cfg, db: db, redisKV: redisKV}
}

// RunAll runs every check, logs a summary and returns the capability flags.
func (c *Checker) RunAll() (Capabilities, []CheckResult) {
	log.Println("🔍 Running pre-flight checks...")

	caps := Capabilities{}
	results := []CheckResult{
		c.checkDatabase(&caps),
		c.checkRedis(&caps),
		c.checkWebhook(&caps),
		c.checkDrill(&caps),
		c.checkAuth(&caps),
	}

	passed, failed, warnings := 0, 0, 0
	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("🔍 Pre-flight complete: %d passed, %d warnings, %d failed", passed, warnings, failed)
	return caps, results
}

func (c *Checker) checkDatabase(caps *Capabilities) CheckResult {
	if c.db == nil {
		return CheckResult{
			Name:    "Database",
			Status:  "warning",
			Message: "no DATABASE_URL configured, alerts persist to memory or Redis only",
		}
	}

	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "fail",
			Message: "database unreachable",
			Error:   err,
		}
	}

	caps.Database = true
	return CheckResult{
		Name:    "Database",
		Status:  "pass",
		Message: fmt.Sprintf("connected (%s)", c.db.Driver),
	}
}

func (c *Checker) checkRedis(caps *Capabilities) CheckResult {
	if c.redisKV == nil {
		return CheckResult{
			Name:    "Redis",
			Status:  "warning",
			Message: "no REDIS_URL configured",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, _, err := c.redisKV.Get(ctx, "preflight"); err != nil {
		return CheckResult{
			Name:    "Redis",
			Status:  "fail",
			Message: "redis unreachable",
			Error:   err,
		}
	}

	caps.Redis = true
	return CheckResult{Name: "Redis", Status: "pass", Message: "connected"}
}

func (c *Checker) checkWebhook(caps *Capabilities) CheckResult {
	if c.cfg.WebhookURL == "" {
		return CheckResult{
			Name:    "Webhook",
			Status:  "warning",
			Message: "no NOTIFY_WEBHOOK_URL configured, webhook channel disabled",
		}
	}

	u, err := url.Parse(c.cfg.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return CheckResult{
			Name:    "Webhook",
			Status:  "fail",
			Message: "NOTIFY_WEBHOOK_URL is not a valid http(s) URL",
			Error:   err,
		}
	}

	caps.Webhook = true
	return CheckResult{Name: "Webhook", Status: "pass", Message: "configured"}
}

func (c *Checker) checkDrill(caps *Capabilities) CheckResult {
	if !c.cfg.DrillEnabled {
		return CheckResult{
			Name:    "Drill",
			Status:  "warning",
			Message: "simulated capture source disabled",
		}
	}

	caps.Drill = true
	return CheckResult{Name: "Drill", Status: "pass", Message: "simulated capture source enabled"}
}

func (c *Checker) checkAuth(caps *Capabilities) CheckResult {
	if c.cfg.JWTSecret == "" {
		if os.Getenv("ENVIRONMENT") == "production" {
			return CheckResult{
				Name:    "Auth",
				Status:  "fail",
				Message: "JWT_SECRET is required in production",
			}
		}
		return CheckResult{
			Name:    "Auth",
			Status:  "warning",
			Message: "JWT_SECRET not set, admin routes open in development mode",
		}
	}

	caps.Auth = true
	return CheckResult{Name: "Auth", Status: "pass", Message: "admin JWT configured"}
}
