package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carepulse/carepulse/internal/pipeline"
)

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier. Together with the hospital
	// id it forms the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "hsi >= 0.9", "icu_full_count > 0",
	// "status == escalation", "er == freeze".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultRunTTL         = 1 * time.Hour
	DefaultMaxRuns        = 200
	DefaultStreamInterval = 5 * time.Second
	DefaultRateLimit      = 5.0
	DefaultRateBurst      = 10
	DefaultMaxUploadBytes = 10 << 20
)

// Config is the server configuration file.
type Config struct {
	Server ServerConfig `yaml:"server"`

	// Fields overrides the source column list of canonical patient fields.
	Fields pipeline.FieldAliases `yaml:"fields"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates REST clients.
	Auth AuthConfig `yaml:"auth"`

	// Runs controls in-memory run retention.
	Runs RunsConfig `yaml:"runs"`

	// RateLimit throttles the analyze endpoints.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// StreamInterval is how often the WebSocket hub pushes the latest run.
	StreamInterval time.Duration `yaml:"stream_interval"`

	// MaxUploadBytes caps multipart uploads and JSON bodies.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "X-API-Key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// RunsConfig controls in-memory run retention.
type RunsConfig struct {
	// TTL is how long a run stays in the store after it was received.
	TTL time.Duration `yaml:"ttl"`

	// Max bounds the number of runs held; the oldest is dropped first.
	Max int `yaml:"max"`
}

// RateLimitConfig is a token bucket: RPS refill rate and Burst size.
// RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			Runs:           RunsConfig{TTL: DefaultRunTTL, Max: DefaultMaxRuns},
			RateLimit:      RateLimitConfig{RPS: DefaultRateLimit, Burst: DefaultRateBurst},
			StreamInterval: DefaultStreamInterval,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	if s.Auth.Mode == "apikey" && s.Auth.KeyEnv == "" {
		return fmt.Errorf("server.auth.key_env is required for apikey mode")
	}
	if s.Runs.TTL <= 0 {
		return fmt.Errorf("server.runs.ttl must be positive")
	}
	if s.Runs.Max <= 0 {
		return fmt.Errorf("server.runs.max must be positive")
	}
	if s.RateLimit.RPS < 0 || s.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if s.RateLimit.RPS > 0 && s.RateLimit.Burst == 0 {
		return fmt.Errorf("server.rate_limit.burst must be positive when rps is set")
	}
	if s.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	for i, r := range s.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("server.alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("server.alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range s.Alerts.Webhooks {
		switch w.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("server.alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	if _, err := pipeline.NewNormalizer(cfg.Fields); err != nil {
		return err
	}
	return nil
}
