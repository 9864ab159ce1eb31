package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.Type != "bolt" {
		t.Fatalf("expected bolt storage, got %q", cfg.Storage.Type)
	}
	if cfg.Engine.SaveInterval != "5s" {
		t.Fatalf("expected 5s save interval, got %q", cfg.Engine.SaveInterval)
	}
	if cfg.Control.Port != 8787 {
		t.Fatalf("expected control port 8787, got %d", cfg.Control.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kquota.yaml")
	content := `
engine:
  poll_interval: 500ms
  own_identity: com.example.kquota
storage:
  type: redis
  namespace: flutter
detector:
  source: push
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Engine.PollInterval != "500ms" {
		t.Fatalf("expected 500ms poll, got %q", cfg.Engine.PollInterval)
	}
	if cfg.Engine.OwnIdentity != "com.example.kquota" {
		t.Fatalf("unexpected own identity %q", cfg.Engine.OwnIdentity)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.Namespace != "flutter" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Storage.Redis.Port != 6379 {
		t.Fatalf("expected default redis port, got %d", cfg.Storage.Redis.Port)
	}
	if cfg.Detector.Source != "push" {
		t.Fatalf("expected push detector, got %q", cfg.Detector.Source)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KQUOTA_ENGINE_SAVE_INTERVAL", "2s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.SaveInterval != "2s" {
		t.Fatalf("expected env override 2s, got %q", cfg.Engine.SaveInterval)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad poll", func(c *Config) { c.Engine.PollInterval = "fast" }},
		{"zero poll", func(c *Config) { c.Engine.PollInterval = "0s" }},
		{"bonus range inverted", func(c *Config) { c.Engine.BonusMin = "20m"; c.Engine.BonusMax = "10m" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"bolt without path", func(c *Config) { c.Storage.Path = "" }},
		{"unknown detector", func(c *Config) { c.Detector.Source = "accessibility" }},
		{"control port", func(c *Config) { c.Control.Port = 70000 }},
		{"negative bus", func(c *Config) { c.Detector.BusSize = -1 }},
		{"negative history", func(c *Config) { c.Executor.HistorySize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("750ms", time.Second); got != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %v", got)
	}
	if got := Duration("nope", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
