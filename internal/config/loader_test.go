package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Arena.VariantCount != 3 {
		t.Errorf("expected 3 variants, got %d", cfg.Arena.VariantCount)
	}
	if cfg.Task.MaxInputChars != 500 {
		t.Errorf("expected max_input_chars 500, got %d", cfg.Task.MaxInputChars)
	}
	if cfg.Store.MaxRuns != 100 {
		t.Errorf("expected max_runs 100, got %d", cfg.Store.MaxRuns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if len(cfg.Task.Labels) == 0 {
		t.Error("expected non-empty default labels")
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promptarena.yaml")
	data := `
server:
  port: "9090"
task:
  labels: [sales, support]
  max_input_chars: 300
arena:
  variant_count: 2
provider:
  model: test-model
  temperature: [0.1, 0.9]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if len(cfg.Task.Labels) != 2 || cfg.Task.Labels[0] != "sales" {
		t.Errorf("expected labels [sales support], got %v", cfg.Task.Labels)
	}
	if cfg.Task.MaxInputChars != 300 {
		t.Errorf("expected max_input_chars 300, got %d", cfg.Task.MaxInputChars)
	}
	if cfg.Provider.Model != "test-model" {
		t.Errorf("expected model test-model, got %s", cfg.Provider.Model)
	}
	// Untouched sections keep defaults.
	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("expected default breaker max_failures 5, got %d", cfg.Breaker.MaxFailures)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("ARENA_PORT", "7070")
	t.Setenv("ARENA_LOG_LEVEL", "warn")
	t.Setenv("ARENA_VARIANT_COUNT", "2")
	t.Setenv("ARENA_PER_VARIANT_TIMEOUT", "5s")
	t.Setenv("ARENA_TEMPERATURES", "0.5, 0.9")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Arena.VariantCount != 2 {
		t.Errorf("expected variant_count 2, got %d", cfg.Arena.VariantCount)
	}
	if cfg.Arena.PerVariantTimeout != 5*time.Second {
		t.Errorf("expected per-variant timeout 5s, got %v", cfg.Arena.PerVariantTimeout)
	}
	if len(cfg.Provider.Temperature) != 2 || cfg.Provider.Temperature[1] != 0.9 {
		t.Errorf("expected temperatures [0.5 0.9], got %v", cfg.Provider.Temperature)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected NATS URL set, got %s", cfg.NATS.URL)
	}
}

func TestNormalizeTemperatures(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		count int
		want  []float64
	}{
		{"exact", []float64{0.1, 0.2, 0.3}, 3, []float64{0.1, 0.2, 0.3}},
		{"repeat last", []float64{0.1}, 3, []float64{0.1, 0.1, 0.1}},
		{"truncate", []float64{0.1, 0.2, 0.3, 0.4}, 2, []float64{0.1, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeTemperatures(tt.temps, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestValidateNormalizesTemperatures(t *testing.T) {
	cfg := Defaults()
	cfg.Arena.VariantCount = 5
	cfg.Provider.Temperature = []float64{0.2, 0.7}

	if err := validate(&cfg); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if len(cfg.Provider.Temperature) != 5 {
		t.Fatalf("expected 5 temperatures after normalization, got %d", len(cfg.Provider.Temperature))
	}
	if cfg.Provider.Temperature[4] != 0.7 {
		t.Errorf("expected last temperature repeated, got %v", cfg.Provider.Temperature)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "empty labels",
			modify: func(c *Config) { c.Task.Labels = nil },
			errMsg: "task.labels must be a non-empty list",
		},
		{
			name:   "zero variants",
			modify: func(c *Config) { c.Arena.VariantCount = 0 },
			errMsg: "arena.variant_count must be >= 1",
		},
		{
			name:   "zero timeout",
			modify: func(c *Config) { c.Arena.PerVariantTimeout = 0 },
			errMsg: "arena timeouts must be positive",
		},
		{
			name:   "negative weight",
			modify: func(c *Config) { c.Arena.Weights.NoHedging = -0.1 },
			errMsg: "must be non-negative",
		},
		{
			name:   "empty temperatures",
			modify: func(c *Config) { c.Provider.Temperature = nil },
			errMsg: "provider.temperature must have at least one entry",
		},
		{
			name:   "zero max runs",
			modify: func(c *Config) { c.Store.MaxRuns = 0 },
			errMsg: "store.max_runs must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
