package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wbtariffs/internal/alerting"
)

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres, postgrespool.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Config is the full runtime configuration. Values come from an optional
// YAML file (CONFIG_FILE) overridden by environment variables.
type Config struct {
	// APIKey is the WB API bearer credential.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the WB API host; empty means the public endpoint.
	BaseURL string `yaml:"base_url"`
	// Interval is the reconciliation cadence: integer seconds or a cron
	// expression. Defaults to hourly.
	Interval string `yaml:"interval"`
	// Listen is the health/metrics listen address.
	Listen   string          `yaml:"listen"`
	LogLevel string          `yaml:"log_level"`
	Storage  StorageConfig   `yaml:"storage"`
	Alert    alerting.Config `yaml:"alert"`
}

// Load builds a Config with sane defaults, an optional YAML file and
// environment overrides, in that order.
func Load() (*Config, error) {
	cfg := &Config{
		Interval: "3600",
		Listen:   ":5005",
		Storage:  StorageConfig{Driver: "memory"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	overrideString(&cfg.APIKey, "WBTARIFFS_API_KEY")
	overrideString(&cfg.BaseURL, "WBTARIFFS_BASE_URL")
	overrideString(&cfg.Interval, "WBTARIFFS_INTERVAL")
	overrideString(&cfg.Listen, "WBTARIFFS_LISTEN")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideString(&cfg.Storage.Driver, "WBTARIFFS_DB_DRIVER")
	overrideString(&cfg.Storage.DSN, "WBTARIFFS_DB_DSN")
	overrideString(&cfg.Alert.WebhookURL, "ALERT_WEBHOOK_URL")
	overrideString(&cfg.Alert.WebhookType, "ALERT_WEBHOOK_TYPE")
	overrideString(&cfg.Alert.Email.APIKey, "SENDGRID_API_KEY")
	overrideString(&cfg.Alert.Email.To, "ALERT_EMAIL_TO")
	overrideString(&cfg.Alert.Email.FromAddress, "ALERT_EMAIL_FROM")

	return cfg, nil
}

func overrideString(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}
