package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
analyzer:
  patients: data/patients.xlsx
  hospital: data/hospital.csv
  report_dir: out
  server:
    endpoint: "http://localhost:8080"
    timeout: 5s
    retries: 2
    auth:
      mode: apikey
      key_env: CAREPULSE_API_KEY
fields:
  heart_rate_bpm: [heart_rate_bpm, pulse]
`
	cfg := loadFromString(t, yaml)

	a := cfg.Analyzer
	if a.Patients != "data/patients.xlsx" || a.Hospital != "data/hospital.csv" {
		t.Errorf("inputs: got %q / %q", a.Patients, a.Hospital)
	}
	if a.ReportDir != "out" {
		t.Errorf("report_dir: got %q", a.ReportDir)
	}
	if a.Server.Timeout != 5*time.Second || a.Server.Retries != 2 {
		t.Errorf("server: got timeout %v retries %d", a.Server.Timeout, a.Server.Retries)
	}
	if a.Server.Auth.Header != DefaultAPIKeyHeader {
		t.Errorf("auth header default: got %q", a.Server.Auth.Header)
	}
	if got := cfg.Fields["heart_rate_bpm"]; len(got) != 2 || got[1] != "pulse" {
		t.Errorf("fields: got %v", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFromString(t, "analyzer: {}\n")

	a := cfg.Analyzer
	if a.ReportDir != DefaultReportDir {
		t.Errorf("default report_dir: got %q, want %q", a.ReportDir, DefaultReportDir)
	}
	if a.WatchDebounce != DefaultWatchDebounce {
		t.Errorf("default watch_debounce: got %v", a.WatchDebounce)
	}
	if a.Server.Timeout != DefaultTimeout || a.Server.Retries != DefaultRetries {
		t.Errorf("default server: got %v / %d", a.Server.Timeout, a.Server.Retries)
	}
	if a.Server.RetryWait != DefaultRetryWait || a.Server.RetryMaxWait != DefaultRetryMaxWait {
		t.Errorf("default retry waits: got %v / %v", a.Server.RetryWait, a.Server.RetryMaxWait)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown auth mode", "analyzer:\n  server:\n    auth:\n      mode: magictoken\n"},
		{"apikey without key_env", "analyzer:\n  server:\n    auth:\n      mode: apikey\n"},
		{"negative retries", "analyzer:\n  server:\n    retries: -1\n"},
		{"zero timeout", "analyzer:\n  server:\n    timeout: 0s\n"},
		{"empty report dir", "analyzer:\n  report_dir: \"\"\n"},
		{"unknown field override", "fields:\n  pulse_ox: [spo2]\n"},
		{"empty field override", "fields:\n  bmi: []\n"},
		{"bad yaml", "analyzer: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAuthConfig_Key(t *testing.T) {
	t.Setenv("TEST_API_KEY", "supersecret")
	a := AuthConfig{Mode: "apikey", KeyEnv: "TEST_API_KEY"}
	if got := a.Key(); got != "supersecret" {
		t.Errorf("Key(): got %q, want %q", got, "supersecret")
	}
	if got := (AuthConfig{Mode: "apikey"}).Key(); got != "" {
		t.Errorf("Key() with no KeyEnv: got %q, want empty", got)
	}
}

func TestAuthConfig_Token(t *testing.T) {
	t.Setenv("TEST_BEARER_TOKEN", "mytoken")
	a := AuthConfig{Mode: "bearer", TokenEnv: "TEST_BEARER_TOKEN"}
	if got := a.Token(); got != "mytoken" {
		t.Errorf("Token(): got %q, want %q", got, "mytoken")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "analyzer:\n  report_dir: first\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "analyzer:\n  report_dir: second\n")

	// A truncate may surface as its own event, so wait for the final content.
	deadline := time.After(3 * time.Second)
	for seen := false; !seen; {
		select {
		case c := <-got:
			seen = c.Analyzer.ReportDir == "second"
		case <-deadline:
			t.Fatal("no reload with the new content within 3s")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_Example(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "config", "analyzer.example.yaml"))
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	if cfg.Analyzer.Server.Endpoint != "http://localhost:8080" {
		t.Errorf("endpoint: got %q", cfg.Analyzer.Server.Endpoint)
	}
	if got := cfg.Fields["heart_rate_bpm"]; len(got) != 3 || got[2] != "pulse" {
		t.Errorf("fields.heart_rate_bpm: got %v", got)
	}
}
