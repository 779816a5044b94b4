package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONITOR_TICK_INTERVAL", "DRILL_ENABLED", "DRILL_CHANCE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("expected default port 3001, got %q", cfg.Port)
	}
	if cfg.TickInterval != 30*time.Second {
		t.Errorf("expected default tick interval 30s, got %v", cfg.TickInterval)
	}
	if cfg.DrillEnabled {
		t.Error("drill must be disabled by default")
	}
	if cfg.DrillChance != 0.01 {
		t.Errorf("expected default drill chance 0.01, got %v", cfg.DrillChance)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MONITOR_TICK_INTERVAL", "5s")
	t.Setenv("DRILL_ENABLED", "true")
	t.Setenv("DRILL_CHANCE", "0.5")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.TickInterval != 5*time.Second {
		t.Errorf("expected 5s tick interval, got %v", cfg.TickInterval)
	}
	if !cfg.DrillEnabled {
		t.Error("expected drill enabled")
	}
	if cfg.DrillChance != 0.5 {
		t.Errorf("expected drill chance 0.5, got %v", cfg.DrillChance)
	}
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("MONITOR_TICK_INTERVAL", "not-a-duration")
	t.Setenv("DRILL_ENABLED", "maybe")
	t.Setenv("DRILL_CHANCE", "lots")

	cfg := Load()

	if cfg.TickInterval != 30*time.Second {
		t.Errorf("expected default tick interval, got %v", cfg.TickInterval)
	}
	if cfg.DrillEnabled {
		t.Error("unparseable bool must fall back to default")
	}
	if cfg.DrillChance != 0.01 {
		t.Errorf("expected default drill chance, got %v", cfg.DrillChance)
	}
}
