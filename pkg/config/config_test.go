package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("unexpected listen %q", cfg.Listen)
	}
	if cfg.FreshnessWindow() != 15*time.Minute {
		t.Errorf("unexpected freshness window %s", cfg.FreshnessWindow())
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "listen: \":9090\"\nfreshness_minutes: 5\nrefresh_minutes: 0\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CP_FRESHNESS_MINUTES", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("file value not applied, listen=%q", cfg.Listen)
	}
	if cfg.FreshnessMinutes != 30 {
		t.Errorf("env override not applied, freshness=%d", cfg.FreshnessMinutes)
	}
	if cfg.RefreshInterval() != 0 {
		t.Errorf("expected auto-refresh disabled, got %s", cfg.RefreshInterval())
	}
}

func TestNormalize_RepairsZeroValues(t *testing.T) {
	c := &Config{FreshnessMinutes: -1, RefreshMinutes: -5}
	c.Normalize()
	if c.FreshnessMinutes != 15 {
		t.Errorf("unexpected freshness %d", c.FreshnessMinutes)
	}
	if c.RefreshMinutes != 0 {
		t.Errorf("unexpected refresh %d", c.RefreshMinutes)
	}
	if c.DBPath == "" || c.Listen == "" || c.LogLevel == "" {
		t.Errorf("zero values not repaired: %+v", c)
	}
}
