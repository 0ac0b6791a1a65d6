// Package config provides hierarchical configuration loading for Prompt Arena.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the arena service.
type Config struct {
	Server       Server    `yaml:"server"`
	Logging      Logging   `yaml:"logging"`
	Task         Task      `yaml:"task"`
	Arena        Arena     `yaml:"arena"`
	Provider     Provider  `yaml:"provider"`
	Store        Store     `yaml:"store"`
	NATS         NATS      `yaml:"nats"`
	Telemetry    Telemetry `yaml:"telemetry"`
	Breaker      Breaker   `yaml:"breaker"`
	DemoExamples []string  `yaml:"demo_examples"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Task describes the classification task presented to every run.
type Task struct {
	Labels          []string `yaml:"labels"`
	SummaryRequired bool     `yaml:"summary_required"`
	MaxInputChars   int      `yaml:"max_input_chars"`
}

// Arena holds run orchestration configuration.
type Arena struct {
	VariantCount      int           `yaml:"variant_count"`
	PerVariantTimeout time.Duration `yaml:"per_variant_timeout"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	Weights           Weights       `yaml:"weights"`
}

// Weights are the non-negative multipliers for the five score components.
type Weights struct {
	LabelValid   float64 `yaml:"label_valid"`
	LabelMatch   float64 `yaml:"label_match"`
	SummaryLenOK float64 `yaml:"summary_len_ok"`
	NoHedging    float64 `yaml:"no_hedging"`
	FormatOK     float64 `yaml:"format_ok"`
}

// Provider holds completion provider configuration. Temperature carries one
// entry per variant; validation normalizes the list to exactly VariantCount
// entries (shorter lists repeat the last value, longer lists truncate).
type Provider struct {
	URL         string    `yaml:"url"`
	APIKey      string    `yaml:"api_key"`
	Model       string    `yaml:"model"`
	Temperature []float64 `yaml:"temperature"`
	Cache       Cache     `yaml:"cache"`
}

// Cache holds the in-process completion cache configuration.
type Cache struct {
	Enabled   bool          `yaml:"enabled"`
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// Store holds run store retention and stream polling configuration.
type Store struct {
	MaxRuns      int           `yaml:"max_runs"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// NATS holds the optional JetStream event mirror configuration.
// An empty URL disables the mirror.
type NATS struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Telemetry holds OTLP exporter configuration. An empty endpoint disables it.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Breaker holds circuit breaker configuration for provider calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "promptarena",
		},
		Task: Task{
			Labels:          []string{"billing", "technical", "cancellation", "urgent", "other"},
			SummaryRequired: true,
			MaxInputChars:   500,
		},
		Arena: Arena{
			VariantCount:      3,
			PerVariantTimeout: 10 * time.Second,
			RunTimeout:        60 * time.Second,
			Weights: Weights{
				LabelValid:   0.3,
				LabelMatch:   0.3,
				SummaryLenOK: 0.2,
				NoHedging:    0.1,
				FormatOK:     0.1,
			},
		},
		Provider: Provider{
			URL:         "http://localhost:4000",
			Model:       "gpt-4o-mini",
			Temperature: []float64{0.2, 0.7, 0.4},
			Cache: Cache{
				Enabled:   true,
				MaxSizeMB: 32,
				TTL:       5 * time.Minute,
			},
		},
		Store: Store{
			MaxRuns:      100,
			PollInterval: 100 * time.Millisecond,
		},
		NATS: NATS{
			SubjectPrefix: "runs",
		},
		Telemetry: Telemetry{
			Insecure: true,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		DemoExamples: []string{
			"I was charged twice for my subscription",
			"The app keeps crashing when I open it",
			"Please cancel my account immediately",
			"I need help right now, this is urgent!",
		},
	}
}
