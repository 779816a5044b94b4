package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"safeguard/internal/config"
	"safeguard/internal/database"
	"safeguard/internal/detection"
	"safeguard/internal/handlers"
	"safeguard/internal/logging"
	"safeguard/internal/middleware"
	"safeguard/internal/models"
	"safeguard/internal/preflight"
	"safeguard/internal/services"
	"safeguard/internal/store"
	"safeguard/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting SafeGuard Pro Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Threat rule set: built-in defaults, optionally overridden by YAML
	ruleSet := detection.DefaultRuleSet()
	if cfg.RulesPath != "" {
		loaded, err := detection.LoadRuleSet(cfg.RulesPath)
		if err != nil {
			log.Printf("⚠️  Failed to load threat rules from %s, using defaults: %v", cfg.RulesPath, err)
		} else {
			ruleSet = loaded
			log.Printf("✅ Threat rules loaded from %s", cfg.RulesPath)
		}
	}

	engine, err := detection.NewEngine(ruleSet)
	if err != nil {
		log.Fatalf("❌ Failed to compile threat rules: %v", err)
	}

	if cfg.RulesPath != "" {
		go detection.WatchRules(cfg.RulesPath, engine)
	}

	// Optional SQL database (SQLite file path or mysql:// DSN). Storage
	// failures never stop the service; it degrades to in-memory alerts.
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️  Failed to connect to database, continuing without SQL persistence: %v", err)
			db = nil
		} else if err := db.Initialize(); err != nil {
			log.Printf("⚠️  Failed to initialize database schema, continuing without SQL persistence: %v", err)
			db.Close()
			db = nil
		} else {
			defer db.Close()
		}
	}

	// Optional Redis backend
	var redisKV *store.RedisKV
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisKV, err = store.NewRedisKV(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Printf("⚠️  Failed to connect to Redis, continuing without it: %v", err)
			redisKV = nil
		} else {
			defer redisKV.Close()
		}
	}

	// Capability probe: everything downstream branches on these flags only
	checker := preflight.NewChecker(cfg, db, redisKV)
	caps, _ := checker.RunAll()

	// Pick the alert persistence backend: Redis > SQL > in-memory
	var kv store.KV
	switch {
	case caps.Redis:
		kv = redisKV
		log.Println("💾 Alert persistence: Redis")
	case caps.Database:
		kv = store.NewSQLKV(db)
		log.Println("💾 Alert persistence: SQL")
	default:
		kv = store.NewMemoryKV(0)
		log.Println("💾 Alert persistence: in-memory (alerts will not survive a restart)")
	}

	// Notifier fanout: structured log + WebSocket stream (+ optional webhook)
	connManager := services.NewConnectionManager()
	metrics := services.InitMetrics(connManager)

	channels := []services.Notifier{
		services.NewLogNotifier(),
		services.NewWebSocketNotifier(connManager),
	}
	if caps.Webhook {
		channels = append(channels, services.NewWebhookNotifier(cfg.WebhookURL))
		log.Printf("🔗 Webhook notifications enabled: %s", cfg.WebhookURL)
	}
	notifier := services.NewMultiNotifier(metrics, channels...)

	// Alert store, with storage degradation surfaced through the notifier
	warn := func(message string, err error) {
		metrics.RecordStorageDegraded()
		notifier.Notify(context.Background(), models.Notification{
			Kind:      models.KindStorageWarning,
			Priority:  models.PriorityNormal,
			Warning:   message,
			Timestamp: time.Now(),
		})
	}
	alertStore := store.NewAlertStore(context.Background(), kv, warn)

	// Monitoring session. Always constructed stopped; monitoring state is
	// not persisted across restarts.
	monitor := services.NewMonitorService(engine, alertStore, notifier, metrics, cfg.TickInterval)

	// Simulated capture source (drill)
	var drill *services.SimulatedSource
	if caps.Drill {
		drill, err = services.NewSimulatedSource(monitor, services.DrillConfig{
			Enabled:  true,
			Interval: cfg.DrillInterval,
			Cron:     cfg.DrillCron,
			Chance:   cfg.DrillChance,
		}, nil, nil)
		if err != nil {
			log.Printf("⚠️  Failed to set up drill source: %v", err)
			drill = nil
		} else {
			drill.Start()
		}
	}

	// Admin JWT auth
	var jwtAuth *auth.LocalJWTAuth
	if caps.Auth {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SafeGuard Pro v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // captures are text snippets
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("safeguard")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Capture=%d/min, Auth=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.CaptureMax,
		rateLimitConfig.AuthMax,
		rateLimitConfig.WebSocketMax,
	)

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	allowCredentials := allowedOrigins != "*"

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowCredentials,
	}))

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(connManager, monitor, caps)
	captureHandler := handlers.NewCaptureHandler(monitor, services.NewCaptureRateLimiter(20, 5))
	alertsHandler := handlers.NewAlertsHandler(alertStore)
	monitorHandler := handlers.NewMonitorHandler(monitor, drill)
	authHandler := handlers.NewAuthHandler(jwtAuth, cfg.AdminPasswordHash)
	wsHandler := handlers.NewWebSocketHandler(connManager)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Post("/auth/login", middleware.AuthRateLimiter(rateLimitConfig), authHandler.Login)

	api.Post("/capture", middleware.CaptureRateLimiter(rateLimitConfig), captureHandler.Handle)

	api.Get("/alerts", alertsHandler.List)
	api.Get("/alerts/recent", alertsHandler.Recent)
	api.Delete("/alerts", middleware.LocalAuthMiddleware(jwtAuth), middleware.AdminOnly(), alertsHandler.Clear)

	api.Get("/monitor/status", monitorHandler.Status)
	api.Post("/monitor/start", middleware.LocalAuthMiddleware(jwtAuth), middleware.AdminOnly(), monitorHandler.Start)
	api.Post("/monitor/stop", middleware.LocalAuthMiddleware(jwtAuth), middleware.AdminOnly(), monitorHandler.Stop)

	// WebSocket alert stream
	app.Use("/ws/alerts", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("client_ip", c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws/alerts", middleware.WebSocketRateLimiter(rateLimitConfig))

	wsConfig := websocket.Config{
		Origins: strings.Split(allowedOrigins, ","),
	}
	app.Get("/ws/alerts", websocket.New(wsHandler.Handle, wsConfig))

	// Start server
	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("🔗 Alert stream: ws://localhost:%s/ws/alerts", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Println("ℹ️  Monitoring session starts stopped; POST /api/monitor/start to begin")

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if drill != nil {
			if err := drill.Stop(); err != nil {
				log.Printf("⚠️  Error stopping drill source: %v", err)
			}
		}

		// Cancel the session timer so no orphaned ticks survive shutdown
		monitor.Stop()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
