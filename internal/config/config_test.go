package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"OXYLABS_USERNAME", "OXYLABS_PASSWORD", "OXYLABS_BASE_URL", "HTTPS_PROXY",
		"HISTORY_PATH", "HISTORY_S3_BUCKET", "HISTORY_S3_ACCESS_KEY", "HISTORY_S3_SECRET_KEY",
		"SQLITE_PATH", "CRON_DAILY", "TRACKER_FAILURE_POLICY", "TRACKER_CONCURRENCY", "API_LISTEN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.History.Backend != "file" || cfg.History.Path != "data/data.json" {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Tracking.FailurePolicy != "abort" {
		t.Errorf("FailurePolicy = %s, want abort", cfg.Tracking.FailurePolicy)
	}
	if cfg.Tracking.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Tracking.Concurrency)
	}
	if !cfg.Tracking.DetectDrops {
		t.Error("DetectDrops should default to true")
	}
	if cfg.Oxylabs.Source != "universal_ecommerce" || cfg.Oxylabs.GeoLocation != "United States" {
		t.Errorf("oxylabs defaults = %+v", cfg.Oxylabs)
	}
	if cfg.Schedule.DailyCron != "0 0 9 * * *" {
		t.Errorf("DailyCron = %s", cfg.Schedule.DailyCron)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
oxylabs:
  username: file-user
  password: file-pass
  timeout: 45s
tracking:
  urls:
    - https://www.bestbuy.com/site/a
    - https://www.bestbuy.com/site/b
  failure_policy: skip
  detect_drops: false
history:
  path: /var/lib/prices/data.json
`)
	t.Setenv("OXYLABS_PASSWORD", "env-pass")
	t.Setenv("TRACKER_CONCURRENCY", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Oxylabs.Username != "file-user" {
		t.Errorf("Username = %s", cfg.Oxylabs.Username)
	}
	if cfg.Oxylabs.Password != "env-pass" {
		t.Errorf("Password = %s, want env override", cfg.Oxylabs.Password)
	}
	if cfg.Oxylabs.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", cfg.Oxylabs.Timeout)
	}
	if len(cfg.Tracking.URLs) != 2 {
		t.Errorf("URLs = %v", cfg.Tracking.URLs)
	}
	if cfg.Tracking.FailurePolicy != "skip" || cfg.Tracking.DetectDrops {
		t.Errorf("tracking = %+v", cfg.Tracking)
	}
	if cfg.Tracking.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Tracking.Concurrency)
	}
	if cfg.History.Path != "/var/lib/prices/data.json" {
		t.Errorf("History.Path = %s", cfg.History.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_BadInput(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "tracking: [not, a, map")); err == nil {
		t.Error("expected parse error")
	}
	t.Setenv("TRACKER_CONCURRENCY", "many")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for non-numeric TRACKER_CONCURRENCY")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Oxylabs.Username = "u"
		cfg.Oxylabs.Password = "p"
		cfg.Tracking.URLs = []string{"https://shop.example/p/1"}
		cfg.Tracking.FailurePolicy = "abort"
		cfg.Tracking.Concurrency = 1
		cfg.History.Backend = "file"
		cfg.History.Path = "data.json"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing credentials", func(c *Config) { c.Oxylabs.Password = "" }, "OXYLABS_PASSWORD"},
		{"no urls", func(c *Config) { c.Tracking.URLs = nil }, "tracking.urls"},
		{"blank url", func(c *Config) { c.Tracking.URLs = []string{""} }, "tracking.urls[0]"},
		{"bad policy", func(c *Config) { c.Tracking.FailurePolicy = "retry" }, "failure_policy"},
		{"bad concurrency", func(c *Config) { c.Tracking.Concurrency = 0 }, "concurrency"},
		{"s3 without bucket", func(c *Config) { c.History.Backend = "s3" }, "bucket"},
		{"unknown backend", func(c *Config) { c.History.Backend = "ftp" }, "history.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStorage_IgnoresFetchSettings(t *testing.T) {
	cfg := &Config{}
	cfg.History.Backend = "file"
	cfg.History.Path = "data.json"
	if err := cfg.ValidateStorage(); err != nil {
		t.Errorf("ValidateStorage() = %v, want nil without credentials or urls", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should still require credentials")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	// A directory in place of the file cannot be read.
	unreadable := filepath.Join(dir, "dir.env")
	if err := os.Mkdir(unreadable, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := loadDotEnv(unreadable); err == nil {
		t.Error("expected error for unreadable .env")
	}

	const key = "PRICE_SENTINEL_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })
	valid := filepath.Join(dir, "valid.env")
	if err := os.WriteFile(valid, []byte(key+"=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := loadDotEnv(valid); err != nil {
		t.Fatalf("loadDotEnv() = %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q, want from-dotenv", key, got)
	}
}
