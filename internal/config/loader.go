package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "promptarena.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ARENA_PORT")
	setString(&cfg.Server.CORSOrigin, "ARENA_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "ARENA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ARENA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ARENA_LOG_ASYNC")
	setInt(&cfg.Task.MaxInputChars, "ARENA_MAX_INPUT_CHARS")
	setInt(&cfg.Arena.VariantCount, "ARENA_VARIANT_COUNT")
	setDuration(&cfg.Arena.PerVariantTimeout, "ARENA_PER_VARIANT_TIMEOUT")
	setDuration(&cfg.Arena.RunTimeout, "ARENA_RUN_TIMEOUT")
	setString(&cfg.Provider.URL, "ARENA_PROVIDER_URL")
	setString(&cfg.Provider.APIKey, "ARENA_PROVIDER_KEY")
	setString(&cfg.Provider.Model, "ARENA_PROVIDER_MODEL")
	setFloatList(&cfg.Provider.Temperature, "ARENA_TEMPERATURES")
	setBool(&cfg.Provider.Cache.Enabled, "ARENA_CACHE_ENABLED")
	setInt64(&cfg.Provider.Cache.MaxSizeMB, "ARENA_CACHE_SIZE_MB")
	setDuration(&cfg.Provider.Cache.TTL, "ARENA_CACHE_TTL")
	setInt(&cfg.Store.MaxRuns, "ARENA_MAX_RUNS")
	setDuration(&cfg.Store.PollInterval, "ARENA_POLL_INTERVAL")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.SubjectPrefix, "ARENA_NATS_PREFIX")
	setString(&cfg.Telemetry.Endpoint, "ARENA_OTEL_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "ARENA_OTEL_INSECURE")
	setInt(&cfg.Breaker.MaxFailures, "ARENA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ARENA_BREAKER_TIMEOUT")
}

// validate checks required fields and normalizes the temperature list to
// exactly VariantCount entries.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if len(cfg.Task.Labels) == 0 {
		return errors.New("task.labels must be a non-empty list")
	}
	if cfg.Task.MaxInputChars < 1 {
		return errors.New("task.max_input_chars must be >= 1")
	}
	if cfg.Arena.VariantCount < 1 {
		return errors.New("arena.variant_count must be >= 1")
	}
	if cfg.Arena.PerVariantTimeout <= 0 || cfg.Arena.RunTimeout <= 0 {
		return errors.New("arena timeouts must be positive")
	}
	w := cfg.Arena.Weights
	for name, v := range map[string]float64{
		"label_valid":    w.LabelValid,
		"label_match":    w.LabelMatch,
		"summary_len_ok": w.SummaryLenOK,
		"no_hedging":     w.NoHedging,
		"format_ok":      w.FormatOK,
	} {
		if v < 0 {
			return fmt.Errorf("arena.weights.%s must be non-negative", name)
		}
	}
	if cfg.Provider.URL == "" {
		return errors.New("provider.url is required")
	}
	if len(cfg.Provider.Temperature) == 0 {
		return errors.New("provider.temperature must have at least one entry")
	}
	if cfg.Store.MaxRuns < 1 {
		return errors.New("store.max_runs must be >= 1")
	}
	if cfg.Store.PollInterval <= 0 {
		return errors.New("store.poll_interval must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}

	cfg.Provider.Temperature = normalizeTemperatures(cfg.Provider.Temperature, cfg.Arena.VariantCount)

	return nil
}

// normalizeTemperatures resizes temps to exactly count entries:
// shorter lists repeat the last value, longer lists truncate.
func normalizeTemperatures(temps []float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		if i < len(temps) {
			out[i] = temps[i]
		} else {
			out[i] = temps[len(temps)-1]
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setFloatList parses a comma-separated list of floats, e.g. "0.2,0.7,0.4".
func setFloatList(dst *[]float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return
		}
		out = append(out, f)
	}
	*dst = out
}
