package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"supply_go/internal/domain"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMemory  = "memory"
	DriverSQLite  = "sqlite"
	DriverBadger  = "badger"
	DriverLevelDB = "leveldb"
)

// DefaultIdentityHeader carries the caller identity resolved by the fronting environment.
const DefaultIdentityHeader = "X-Account-ID"

// Config holds all application settings.
// After LoadConfig, environment variables override file values.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Supply struct {
		DailyCap             uint32 `yaml:"daily_cap"`
		PerAccountCap        uint32 `yaml:"per_account_cap"`
		ClearAccountsOnReset bool   `yaml:"clear_accounts_on_reset"`
		ResetOnOrder         bool   `yaml:"reset_on_order"`
		ResetPollIntervalSec int    `yaml:"reset_poll_interval_sec"` // 0 disables the scheduler
		InboxSize            int    `yaml:"inbox_size"`
		OutboxSize           int    `yaml:"outbox_size"`
	} `yaml:"supply"`

	Server struct {
		Addr            string `yaml:"addr"`
		Mode            string `yaml:"mode"` // gin mode: debug, release, test
		IdentityHeader  string `yaml:"identity_header"`
		ShutdownTimeout int    `yaml:"shutdown_timeout_sec"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`

	Notify struct {
		MaxRetries int `yaml:"max_retries"`
		Kafka      struct {
			Enabled bool     `yaml:"enabled"`
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
		NATS struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
			Subject string `yaml:"subject"`
		} `yaml:"nats"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Key      string `yaml:"key"`
			MaxLen   int64  `yaml:"max_len"`
		} `yaml:"redis"`
		Feed struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"feed"`
		Log struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"log"`
	} `yaml:"notify"`

	Tracing struct {
		Endpoint    string  `yaml:"endpoint"` // empty disables export
		URLPath     string  `yaml:"url_path"`
		Insecure    bool    `yaml:"insecure"`
		SampleRatio float64 `yaml:"sample_ratio"`
	} `yaml:"tracing"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration that runs with no external services.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "supply"
	cfg.App.Version = "1.0.0"

	cfg.Supply.DailyCap = domain.DefaultDailyCap
	cfg.Supply.PerAccountCap = 5
	cfg.Supply.ResetPollIntervalSec = 60
	cfg.Supply.InboxSize = 1024
	cfg.Supply.OutboxSize = 1024

	cfg.Server.Addr = ":8080"
	cfg.Server.Mode = "release"
	cfg.Server.IdentityHeader = DefaultIdentityHeader
	cfg.Server.ShutdownTimeout = 10

	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.Path = "data/supply.db"

	cfg.Notify.MaxRetries = 3
	cfg.Notify.Kafka.Topic = "supply.events"
	cfg.Notify.NATS.Subject = "supply.events"
	cfg.Notify.Redis.Key = "supply:events"
	cfg.Notify.Redis.MaxLen = 1000
	cfg.Notify.Feed.Enabled = true
	cfg.Notify.Log.Enabled = true

	cfg.Tracing.URLPath = "/v1/traces"
	cfg.Tracing.SampleRatio = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig reads and parses the configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadConfigOrDefault behaves like LoadConfig but falls back to DefaultConfig
// (with environment overrides) when the file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err == nil || !errors.Is(err, domain.ErrConfigNotFound) {
		return cfg, err
	}

	cfg = DefaultConfig()
	overrideWithEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	// Supply
	if c.Supply.DailyCap == 0 {
		return configErr("supply.daily_cap", "must be positive")
	}
	if c.Supply.PerAccountCap == 0 {
		return configErr("supply.per_account_cap", "must be positive")
	}
	if c.Supply.ResetPollIntervalSec < 0 {
		return configErr("supply.reset_poll_interval_sec", "must not be negative")
	}
	if c.Supply.InboxSize <= 0 {
		return configErr("supply.inbox_size", "must be positive")
	}
	if c.Supply.OutboxSize < 0 {
		return configErr("supply.outbox_size", "must not be negative")
	}

	// Server
	if c.Server.Addr == "" {
		return configErr("server.addr", "is required")
	}
	if c.Server.IdentityHeader == "" {
		return configErr("server.identity_header", "is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return configErr("server.mode", fmt.Sprintf("unknown mode %q", c.Server.Mode))
	}

	// Storage
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverBadger, DriverLevelDB:
		if c.Storage.Path == "" {
			return configErr("storage.path", "is required for driver "+c.Storage.Driver)
		}
	default:
		return configErr("storage.driver", fmt.Sprintf("unknown driver %q", c.Storage.Driver))
	}

	// Notify
	if c.Notify.MaxRetries < 0 {
		return configErr("notify.max_retries", "must not be negative")
	}
	if c.Notify.Kafka.Enabled && (len(c.Notify.Kafka.Brokers) == 0 || c.Notify.Kafka.Topic == "") {
		return configErr("notify.kafka", "brokers and topic are required")
	}
	if c.Notify.NATS.Enabled && (c.Notify.NATS.URL == "" || c.Notify.NATS.Subject == "") {
		return configErr("notify.nats", "url and subject are required")
	}
	if c.Notify.Redis.Enabled && (c.Notify.Redis.Addr == "" || c.Notify.Redis.Key == "") {
		return configErr("notify.redis", "addr and key are required")
	}

	// Tracing
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return configErr("tracing.sample_ratio", "must be within [0, 1]")
	}

	// Logging
	if _, ok := parseLevel(c.Logging.Level); !ok {
		return configErr("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}

	return nil
}

func configErr(field, msg string) error {
	return &domain.ConfigError{Field: field, Err: errors.New(msg)}
}

// overrideWithEnv replaces settings with environment variables when present.
func overrideWithEnv(cfg *Config) {
	if v, ok := envUint32("SUPPLY_DAILY_CAP"); ok {
		cfg.Supply.DailyCap = v
	}
	if v, ok := envUint32("SUPPLY_PER_ACCOUNT_CAP"); ok {
		cfg.Supply.PerAccountCap = v
	}
	if addr := os.Getenv("SUPPLY_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if driver := os.Getenv("SUPPLY_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path := os.Getenv("SUPPLY_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if brokers := os.Getenv("SUPPLY_KAFKA_BROKERS"); brokers != "" {
		cfg.Notify.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if url := os.Getenv("SUPPLY_NATS_URL"); url != "" {
		cfg.Notify.NATS.URL = url
	}
	if addr := os.Getenv("SUPPLY_REDIS_ADDR"); addr != "" {
		cfg.Notify.Redis.Addr = addr
	}
	if pass := os.Getenv("SUPPLY_REDIS_PASSWORD"); pass != "" {
		cfg.Notify.Redis.Password = pass
	}
	if endpoint := os.Getenv("SUPPLY_TRACING_ENDPOINT"); endpoint != "" {
		cfg.Tracing.Endpoint = endpoint
	}
	if level := os.Getenv("SUPPLY_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func envUint32(key string) (uint32, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
