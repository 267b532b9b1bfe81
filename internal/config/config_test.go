package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Interval != "3600" {
		t.Errorf("unexpected default interval: %q", cfg.Interval)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("unexpected default driver: %q", cfg.Storage.Driver)
	}
	if cfg.Listen != ":5005" {
		t.Errorf("unexpected default listen: %q", cfg.Listen)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WBTARIFFS_API_KEY", "secret")
	t.Setenv("WBTARIFFS_DB_DRIVER", "postgrespool")
	t.Setenv("WBTARIFFS_DB_DSN", "postgres://localhost/wb")
	t.Setenv("WBTARIFFS_INTERVAL", "0 * * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("api key not overridden: %q", cfg.APIKey)
	}
	if cfg.Storage.Driver != "postgrespool" || cfg.Storage.DSN != "postgres://localhost/wb" {
		t.Errorf("storage not overridden: %+v", cfg.Storage)
	}
	if cfg.Interval != "0 * * * *" {
		t.Errorf("interval not overridden: %q", cfg.Interval)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
api_key: from-file
interval: "600"
storage:
  driver: sqlite
  dsn: tariffs.db
alert:
  webhook_url: https://hooks.slack.com/services/T/B/X
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WBTARIFFS_API_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("env must win over file, got %q", cfg.APIKey)
	}
	if cfg.Interval != "600" || cfg.Storage.Driver != "sqlite" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Alert.WebhookURL == "" {
		t.Errorf("alert config not applied")
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
