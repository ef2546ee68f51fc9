package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carepulse/carepulse/internal/pipeline"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultReportDir     = "reports"
	DefaultTimeout       = 10 * time.Second
	DefaultRetries       = 3
	DefaultRetryWait     = 1 * time.Second
	DefaultRetryMaxWait  = 5 * time.Second
	DefaultWatchDebounce = 500 * time.Millisecond
	DefaultAPIKeyHeader  = "X-API-Key"
)

// Config is the analyzer configuration file. Fields map 1:1 to
// analyzer.example.yaml.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer"`

	// Fields overrides the source column list of canonical patient fields.
	Fields pipeline.FieldAliases `yaml:"fields"`
}

// AnalyzerConfig holds the input, output and shipping settings.
type AnalyzerConfig struct {
	// Patients is the path of the patient sheet (.xlsx, .csv or .json).
	Patients string `yaml:"patients"`

	// Hospital is the path of the hospital sheet. Only its first row is used.
	Hospital string `yaml:"hospital"`

	// ReportDir receives one workbook per analysis.
	ReportDir string `yaml:"report_dir"`

	// WatchDebounce collapses bursts of file events in watch mode.
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Server is optional; when Endpoint is empty nothing is shipped.
	Server ServerTarget `yaml:"server"`
}

// ServerTarget describes the carepulse-server the analyzer ships batches to.
type ServerTarget struct {
	// Endpoint is the base URL, e.g. http://localhost:8080.
	Endpoint string `yaml:"endpoint"`

	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	RetryWait    time.Duration `yaml:"retry_wait"`
	RetryMaxWait time.Duration `yaml:"retry_max_wait"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies how the analyzer authenticates to the server.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header the API key is sent in.
	Header string `yaml:"header"`

	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env"`
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			ReportDir:     DefaultReportDir,
			WatchDebounce: DefaultWatchDebounce,
			Server: ServerTarget{
				Timeout:      DefaultTimeout,
				Retries:      DefaultRetries,
				RetryWait:    DefaultRetryWait,
				RetryMaxWait: DefaultRetryMaxWait,
				Auth:         AuthConfig{Header: DefaultAPIKeyHeader},
			},
		},
	}
}

func validate(cfg *Config) error {
	a := cfg.Analyzer
	if a.ReportDir == "" {
		return fmt.Errorf("analyzer.report_dir must not be empty")
	}
	if a.WatchDebounce < 0 {
		return fmt.Errorf("analyzer.watch_debounce must not be negative")
	}
	if a.Server.Timeout <= 0 {
		return fmt.Errorf("analyzer.server.timeout must be positive")
	}
	if a.Server.Retries < 0 {
		return fmt.Errorf("analyzer.server.retries must not be negative")
	}
	switch a.Server.Auth.Mode {
	case "apikey", "bearer", "none", "":
	default:
		return fmt.Errorf("analyzer.server.auth: unknown mode %q", a.Server.Auth.Mode)
	}
	if a.Server.Auth.Mode == "apikey" && a.Server.Auth.KeyEnv == "" {
		return fmt.Errorf("analyzer.server.auth: key_env is required for apikey mode")
	}
	if _, err := pipeline.NewNormalizer(cfg.Fields); err != nil {
		return err
	}
	return nil
}
