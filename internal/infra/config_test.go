package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"supply_go/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
supply:
  per_account_cap: 7
  clear_accounts_on_reset: true
storage:
  driver: badger
  path: /tmp/supply
notify:
  kafka:
    enabled: true
    brokers: ["localhost:9092"]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Supply.PerAccountCap != 7 {
		t.Errorf("Expected per-account cap 7, got %d", cfg.Supply.PerAccountCap)
	}
	if cfg.Supply.DailyCap != domain.DefaultDailyCap {
		t.Errorf("Expected default daily cap, got %d", cfg.Supply.DailyCap)
	}
	if !cfg.Supply.ClearAccountsOnReset {
		t.Error("Expected clear_accounts_on_reset")
	}
	if cfg.Storage.Driver != DriverBadger {
		t.Errorf("Expected badger, got %s", cfg.Storage.Driver)
	}
	if cfg.Notify.Kafka.Topic != "supply.events" {
		t.Errorf("Expected default topic, got %s", cfg.Notify.Kafka.Topic)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "supply:\n  per_account_cap: 7\n")
	t.Setenv("SUPPLY_PER_ACCOUNT_CAP", "9")
	t.Setenv("SUPPLY_STORAGE_DRIVER", "memory")
	t.Setenv("SUPPLY_KAFKA_BROKERS", "a:1,b:2")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Supply.PerAccountCap != 9 {
		t.Errorf("Expected env override 9, got %d", cfg.Supply.PerAccountCap)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Expected memory driver, got %s", cfg.Storage.Driver)
	}
	if len(cfg.Notify.Kafka.Brokers) != 2 {
		t.Errorf("Expected 2 brokers, got %v", cfg.Notify.Kafka.Brokers)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := LoadConfig(missing); !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	cfg, err := LoadConfigOrDefault(missing)
	if err != nil {
		t.Fatalf("LoadConfigOrDefault failed: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr, got %s", cfg.Server.Addr)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero per-account cap", func(c *Config) { c.Supply.PerAccountCap = 0 }, "supply.per_account_cap"},
		{"zero daily cap", func(c *Config) { c.Supply.DailyCap = 0 }, "supply.daily_cap"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"missing path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"kafka without brokers", func(c *Config) { c.Notify.Kafka.Enabled = true }, "notify.kafka"},
		{"nats without url", func(c *Config) { c.Notify.NATS.Enabled = true }, "notify.nats"},
		{"redis without addr", func(c *Config) { c.Notify.Redis.Enabled = true }, "notify.redis"},
		{"bad sample ratio", func(c *Config) { c.Tracing.SampleRatio = 2 }, "tracing.sample_ratio"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, ce.Field)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retryCount int
		wantMs     int64
	}{
		{-1, 100},
		{0, 100},
		{1, 200},
		{3, 800},
		{6, 6400},
		{7, 10000}, // capped
		{100, 10000},
	}

	for _, tt := range tests {
		if got := CalculateBackoff(tt.retryCount).Milliseconds(); got != tt.wantMs {
			t.Errorf("CalculateBackoff(%d) = %dms, want %d", tt.retryCount, got, tt.wantMs)
		}
	}
}
