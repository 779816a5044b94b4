package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"safeguard/internal/detection"
	"safeguard/internal/models"
	"safeguard/internal/services"
	"safeguard/internal/store"
	"safeguard/pkg/auth"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notification) {}

type testEnv struct {
	app     *fiber.App
	monitor *services.MonitorService
	alerts  *store.AlertStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	engine, err := detection.NewEngine(detection.DefaultRuleSet())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	alertStore := store.NewAlertStore(context.Background(), store.NewMemoryKV(0), nil)
	monitor := services.NewMonitorService(engine, alertStore, nopNotifier{}, nil, time.Hour)

	app := fiber.New()
	captureHandler := NewCaptureHandler(monitor, services.NewCaptureRateLimiter(1000, 1000))
	alertsHandler := NewAlertsHandler(alertStore)
	monitorHandler := NewMonitorHandler(monitor, nil)

	app.Post("/api/capture", captureHandler.Handle)
	app.Get("/api/alerts", alertsHandler.List)
	app.Get("/api/alerts/recent", alertsHandler.Recent)
	app.Delete("/api/alerts", alertsHandler.Clear)
	app.Post("/api/monitor/start", monitorHandler.Start)
	app.Post("/api/monitor/stop", monitorHandler.Stop)
	app.Get("/api/monitor/status", monitorHandler.Status)

	t.Cleanup(monitor.Stop)

	return &testEnv{app: app, monitor: monitor, alerts: alertStore}
}

func (e *testEnv) request(t *testing.T, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	payload := map[string]interface{}{}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, data)
		}
	}
	return resp, payload
}

func TestCaptureWhileStoppedConflicts(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, "POST", "/api/capture", `{"text":"hello"}`)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 while stopped, got %d", resp.StatusCode)
	}
}

func TestCaptureValidation(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.Start()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing text", `{}`, fiber.StatusBadRequest},
		{"invalid source", `{"text":"hi","source":"webcam"}`, fiber.StatusBadRequest},
		{"spoofed simulated source", `{"text":"hi","source":"simulated"}`, fiber.StatusBadRequest},
		{"oversized text", `{"text":"` + strings.Repeat("a", 10_001) + `"}`, fiber.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := env.request(t, "POST", "/api/capture", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestCaptureScoringFlow(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.Start()

	// Benign capture: accepted but not recorded.
	resp, payload := env.request(t, "POST", "/api/capture", `{"text":"see you at lunch"}`)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if recorded, _ := payload["recorded"].(bool); recorded {
		t.Error("benign capture must not be recorded")
	}

	// Hostile capture: scores above the threshold and lands in the log.
	resp, payload = env.request(t, "POST", "/api/capture", `{"text":"I will kill you, you worthless loser","source":"notification"}`)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if recorded, _ := payload["recorded"].(bool); !recorded {
		t.Fatalf("hostile capture should be recorded, payload: %v", payload)
	}

	resp, payload = env.request(t, "GET", "/api/alerts", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if count, _ := payload["count"].(float64); count != 1 {
		t.Errorf("expected 1 alert, got %v", payload["count"])
	}
}

func TestAlertsRecentValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, "GET", "/api/alerts/recent?within=abc", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric within, got %d", resp.StatusCode)
	}

	resp, _ = env.request(t, "GET", "/api/alerts/recent?within=-5", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 for negative within, got %d", resp.StatusCode)
	}

	resp, payload := env.request(t, "GET", "/api/alerts/recent?within=3600", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if count, _ := payload["count"].(float64); count != 0 {
		t.Errorf("expected empty recent list, got %v", payload["count"])
	}
}

func TestAlertsClear(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.Start()

	if _, _, err := env.monitor.OnCapturedText(context.Background(), "I will kill you, you worthless loser", models.SourceClipboard); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	resp, payload := env.request(t, "DELETE", "/api/alerts", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cleared, _ := payload["cleared"].(bool); !cleared {
		t.Error("expected cleared=true")
	}

	_, payload = env.request(t, "GET", "/api/alerts", "")
	if count, _ := payload["count"].(float64); count != 0 {
		t.Errorf("expected empty log after clear, got %v", payload["count"])
	}
}

func TestMonitorLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	_, payload := env.request(t, "GET", "/api/monitor/status", "")
	if payload["status"] != "stopped" {
		t.Fatalf("expected stopped status, got %v", payload["status"])
	}
	if _, ok := payload["sessionStartedAt"]; ok {
		t.Error("stopped session must not report a start time")
	}

	_, payload = env.request(t, "POST", "/api/monitor/start", "")
	if payload["status"] != "running" {
		t.Fatalf("expected running status, got %v", payload["status"])
	}
	if _, ok := payload["sessionStartedAt"]; !ok {
		t.Error("running session must report a start time")
	}

	// Starting twice is a no-op, not an error.
	resp, _ := env.request(t, "POST", "/api/monitor/start", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("double start should be 200, got %d", resp.StatusCode)
	}

	_, payload = env.request(t, "POST", "/api/monitor/stop", "")
	if payload["status"] != "stopped" {
		t.Fatalf("expected stopped status, got %v", payload["status"])
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth failed: %v", err)
	}
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	app := fiber.New()
	app.Post("/api/auth/login", NewAuthHandler(jwtAuth, hash).Login)
	env := &testEnv{app: app}

	resp, _ := env.request(t, "POST", "/api/auth/login", `{"password":"wrong"}`)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}

	resp, payload := env.request(t, "POST", "/api/auth/login", `{"password":"hunter2"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	token, _ := payload["token"].(string)
	user, err := jwtAuth.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("expected admin role, got %q", user.Role)
	}
}

func TestLoginWithoutAuthConfigured(t *testing.T) {
	app := fiber.New()
	app.Post("/api/auth/login", NewAuthHandler(nil, "").Login)
	env := &testEnv{app: app}

	resp, _ := env.request(t, "POST", "/api/auth/login", `{"password":"x"}`)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 when auth is not configured, got %d", resp.StatusCode)
	}
}
