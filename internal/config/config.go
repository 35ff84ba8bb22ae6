package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Scoring struct {
		// WeightsPath points at the weights resource; empty uses the embedded default.
		WeightsPath      string `yaml:"weights_path"`
		SignalWindowDays int    `yaml:"signal_window_days"`
		Workers          int    `yaml:"workers"`
	} `yaml:"scoring"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
	Schedule struct {
		RecomputeCron string `yaml:"recompute_cron"`
		DigestCron    string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Teams struct {
		WebhookURL string `yaml:"webhook_url"`
		DigestSize int    `yaml:"digest_size"`
	} `yaml:"teams"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Logging struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

const defaultSignalWindowDays = 30

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env. Missing files are fine.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	// Set before decoding so an explicit 0 (no age limit) is kept.
	cfg.Scoring.SignalWindowDays = defaultSignalWindowDays
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SCORING_WEIGHTS_PATH"); v != "" {
		c.Scoring.WeightsPath = v
	}
	if v := os.Getenv("SCORING_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scoring.Workers = n
		}
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("CRON_RECOMPUTE"); v != "" {
		c.Schedule.RecomputeCron = v
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		c.Schedule.DigestCron = v
	}
	if v := os.Getenv("TEAMS_WEBHOOK_URL"); v != "" {
		c.Teams.WebhookURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Scoring.Workers == 0 {
		c.Scoring.Workers = 4
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Schedule.RecomputeCron == "" {
		c.Schedule.RecomputeCron = "0 0 6 * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 30 7 * * 1-5"
	}
	if c.Teams.DigestSize == 0 {
		c.Teams.DigestSize = 5
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/ssp.db"
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks field ranges. The Teams webhook is optional; without it digests are skipped.
func (c *Config) Validate() error {
	var errs []error
	if c.Scoring.SignalWindowDays < 0 {
		errs = append(errs, &ValidationError{Field: "scoring.signal_window_days", Message: "must not be negative"})
	}
	if c.Scoring.Workers < 1 {
		errs = append(errs, &ValidationError{Field: "scoring.workers", Message: "must be at least 1"})
	}
	if c.Teams.DigestSize < 1 {
		errs = append(errs, &ValidationError{Field: "teams.digest_size", Message: "must be at least 1"})
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"})
	}
	return errors.Join(errs...)
}
