package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PriceSentinel/internal/tracker"
)

// Config holds all application configuration.
type Config struct {
	Oxylabs struct {
		Username          string        `yaml:"username"`
		Password          string        `yaml:"password"`
		BaseURL           string        `yaml:"base_url"`
		Source            string        `yaml:"source"`
		GeoLocation       string        `yaml:"geo_location"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Timeout           time.Duration `yaml:"timeout"`
	} `yaml:"oxylabs"`
	Tracking struct {
		URLs          []string `yaml:"urls"`
		FailurePolicy string   `yaml:"failure_policy"`
		Concurrency   int      `yaml:"concurrency"`
		DetectDrops   bool     `yaml:"detect_drops"`
	} `yaml:"tracking"`
	History struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		S3      struct {
			Endpoint       string `yaml:"endpoint"`
			Region         string `yaml:"region"`
			Bucket         string `yaml:"bucket"`
			Key            string `yaml:"key"`
			AccessKey      string `yaml:"access_key"`
			SecretKey      string `yaml:"secret_key"`
			ForcePathStyle bool   `yaml:"force_path_style"`
		} `yaml:"s3"`
	} `yaml:"history"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, loads a .env file if present, then
// applies environment variable overrides and defaults. A missing config file
// is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Tracking.DetectDrops = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; existing environment variables take precedence.
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Environment variable overrides
	setStr(&cfg.Oxylabs.Username, "OXYLABS_USERNAME")
	setStr(&cfg.Oxylabs.Password, "OXYLABS_PASSWORD")
	setStr(&cfg.Oxylabs.BaseURL, "OXYLABS_BASE_URL")
	setStr(&cfg.Proxy, "HTTPS_PROXY")
	setStr(&cfg.History.Path, "HISTORY_PATH")
	setStr(&cfg.History.S3.Bucket, "HISTORY_S3_BUCKET")
	setStr(&cfg.History.S3.AccessKey, "HISTORY_S3_ACCESS_KEY")
	setStr(&cfg.History.S3.SecretKey, "HISTORY_S3_SECRET_KEY")
	setStr(&cfg.Database.SQLitePath, "SQLITE_PATH")
	setStr(&cfg.Schedule.DailyCron, "CRON_DAILY")
	setStr(&cfg.Tracking.FailurePolicy, "TRACKER_FAILURE_POLICY")
	setStr(&cfg.API.Listen, "API_LISTEN")
	if v := os.Getenv("TRACKER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse TRACKER_CONCURRENCY: %w", err)
		}
		cfg.Tracking.Concurrency = n
	}

	// Defaults
	if cfg.Oxylabs.Source == "" {
		cfg.Oxylabs.Source = "universal_ecommerce"
	}
	if cfg.Oxylabs.GeoLocation == "" {
		cfg.Oxylabs.GeoLocation = "United States"
	}
	if cfg.Oxylabs.Timeout == 0 {
		cfg.Oxylabs.Timeout = 90 * time.Second
	}
	if cfg.Tracking.FailurePolicy == "" {
		cfg.Tracking.FailurePolicy = string(tracker.PolicyAbort)
	}
	if cfg.Tracking.Concurrency == 0 {
		cfg.Tracking.Concurrency = 1
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "file"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "data/data.json"
	}
	if cfg.History.S3.Key == "" {
		cfg.History.S3.Key = "data.json"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 9 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/tracker.db"
	}

	return cfg, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that all required fields are set. It runs before any
// fetch so that a missing credential never produces a partial run.
func (c *Config) Validate() error {
	if c.Oxylabs.Username == "" || c.Oxylabs.Password == "" {
		return fmt.Errorf("oxylabs.username and oxylabs.password are required (or set OXYLABS_USERNAME and OXYLABS_PASSWORD)")
	}
	if len(c.Tracking.URLs) == 0 {
		return fmt.Errorf("tracking.urls must list at least one product URL")
	}
	for i, u := range c.Tracking.URLs {
		if u == "" {
			return fmt.Errorf("tracking.urls[%d] is empty", i)
		}
	}
	if _, err := tracker.ParsePolicy(c.Tracking.FailurePolicy); err != nil {
		return fmt.Errorf("tracking.failure_policy: %w", err)
	}
	if c.Tracking.Concurrency < 1 {
		return fmt.Errorf("tracking.concurrency must be at least 1")
	}
	return c.ValidateStorage()
}

// ValidateStorage checks only the history backend settings. It is enough for
// runs that read the history without fetching.
func (c *Config) ValidateStorage() error {
	switch c.History.Backend {
	case "file":
		if c.History.Path == "" {
			return fmt.Errorf("history.path is required for the file backend")
		}
	case "s3":
		if c.History.S3.Bucket == "" {
			return fmt.Errorf("history.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("history.backend must be 'file' or 's3', got: %s", c.History.Backend)
	}
	return nil
}
