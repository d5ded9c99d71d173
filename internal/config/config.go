package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Notifier backends.
const (
	NotifierLog   = "log"
	NotifierRedis = "redis"
)

// Config holds the runtime settings of the sales API.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	LogMode         string        `yaml:"log_mode"`
	LogLevel        string        `yaml:"log_level"`
	Storage         string        `yaml:"storage"`
	SQLitePath      string        `yaml:"sqlite_path"`
	PostgresDSN     string        `yaml:"postgres_dsn"`
	Notifier        string        `yaml:"notifier"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisChannel    string        `yaml:"redis_channel"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		HTTPAddr:        ":8081",
		LogMode:         "dev",
		Storage:         StorageMemory,
		SQLitePath:      "sales.db",
		Notifier:        NotifierLog,
		RedisChannel:    "sales.created",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load starts from Default, applies the YAML file named by SALES_CONFIG_FILE
// if set, then environment overrides, and validates the result.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("SALES_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTPAddr, "SALES_HTTP_ADDR")
	setString(&c.LogMode, "SALES_LOG_MODE")
	setString(&c.LogLevel, "SALES_LOG_LEVEL")
	setString(&c.Storage, "SALES_STORAGE")
	setString(&c.SQLitePath, "SALES_SQLITE_PATH")
	setString(&c.PostgresDSN, "SALES_POSTGRES_DSN")
	setString(&c.Notifier, "SALES_NOTIFIER")
	setString(&c.RedisAddr, "SALES_REDIS_ADDR")
	setString(&c.RedisChannel, "SALES_REDIS_CHANNEL")

	if v := strings.TrimSpace(os.Getenv("SALES_SHUTDOWN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SALES_SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

// Validate rejects unknown backends and missing connection settings.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite storage requires SALES_SQLITE_PATH")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres storage requires SALES_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	switch c.Notifier {
	case NotifierLog:
	case NotifierRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis notifier requires SALES_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown notifier %q", c.Notifier)
	}

	if c.HTTPAddr == "" {
		return fmt.Errorf("http address is required")
	}
	return nil
}

func setString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}
