package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	path := writeConfig(t, `
api:
  key: file-key
  qps: 5
fetch:
  initial_concurrency: 20
  concurrency_decay: 0.5
  min_concurrency: 4
  max_rounds: 2
  per_call_timeout: 10s
render:
  mode: color
server:
  listen: ":9999"
query:
  timezone: Europe/Berlin
  interval_minutes: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Key != "file-key" {
		t.Errorf("API.Key = %q, want file-key", cfg.API.Key)
	}
	if cfg.API.QPS != 5 {
		t.Errorf("API.QPS = %d, want 5", cfg.API.QPS)
	}
	if cfg.Fetch.InitialConcurrency != 20 || cfg.Fetch.MaxRounds != 2 {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Fetch.PerCallTimeout != 10*time.Second {
		t.Errorf("PerCallTimeout = %v, want 10s", cfg.Fetch.PerCallTimeout)
	}
	if cfg.Render.Mode != "color" {
		t.Errorf("Render.Mode = %q, want color", cfg.Render.Mode)
	}
	if cfg.Server.Listen != ":9999" {
		t.Errorf("Server.Listen = %q, want :9999", cfg.Server.Listen)
	}
	if cfg.Query.Timezone != "Europe/Berlin" {
		t.Errorf("Query.Timezone = %q", cfg.Query.Timezone)
	}
}

func TestLoad_EnvKeyOverridesFile(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "env-key")
	path := writeConfig(t, "api:\n  key: file-key\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Key != "env-key" {
		t.Errorf("API.Key = %q, want env-key", cfg.API.Key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	path := writeConfig(t, "api:\n  key: k\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Render.Mode != "text" {
		t.Errorf("Render.Mode = %q, want text", cfg.Render.Mode)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Server.Listen = %q, want :8080", cfg.Server.Listen)
	}
	if cfg.Query.IntervalMinutes != 15 {
		t.Errorf("Query.IntervalMinutes = %d, want 15", cfg.Query.IntervalMinutes)
	}
	if cfg.Query.Timezone != "America/Los_Angeles" {
		t.Errorf("Query.Timezone = %q", cfg.Query.Timezone)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "api: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_RejectsBadRenderMode(t *testing.T) {
	path := writeConfig(t, "render:\n  mode: neon\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for render.mode")
	}
}

func TestLoad_RejectsBadDecay(t *testing.T) {
	path := writeConfig(t, "fetch:\n  concurrency_decay: 1.5\n")
	if _, err := Load(path); err == nil {
		t.Error("expected validation error for concurrency_decay")
	}
}

func TestLoad_UnsetDecayIsValid(t *testing.T) {
	// An omitted decay decodes to 0, which defers to the
	// orchestrator's default rather than failing validation.
	path := writeConfig(t, "fetch:\n  max_rounds: 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.ConcurrencyDecay != 0 {
		t.Errorf("ConcurrencyDecay = %v, want 0", cfg.Fetch.ConcurrencyDecay)
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "env-key")
	cfg := Default()
	if cfg.API.Key != "env-key" {
		t.Errorf("API.Key = %q, want env-key", cfg.API.Key)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}
