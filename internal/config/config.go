// Package config loads the service configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen"` // Listen address, defaults to :8080.
}

// DatabaseConfig holds catalog and rule storage settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL or SQLite DSN.
}

// RedisConfig holds cache backend settings. An empty address selects the
// in-process memory cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port, empty disables Redis.
	Password string `yaml:"password"` // Optional auth.
	DB       int    `yaml:"db"`       // Logical database index.
}

// LogConfig holds logging settings.
type LogConfig struct {
	File  string `yaml:"file"`  // Rotating log file, empty logs to stderr.
	Level string `yaml:"level"` // logrus level name, defaults to info.
}

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads and parses the configuration file, applying defaults and
// environment overrides (STOREFRONT_DB_DSN, STOREFRONT_REDIS_ADDR).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if strings.TrimSpace(path) != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errParse := yaml.Unmarshal(data, cfg); errParse != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
			}
		case errors.Is(errRead, os.ErrNotExist):
			// A missing file runs on defaults; env overrides still apply.
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("STOREFRONT_DB_DSN")); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if addr := strings.TrimSpace(os.Getenv("STOREFRONT_REDIS_ADDR")); addr != "" {
		cfg.Redis.Addr = addr
	}

	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":8080"
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = "file:data/storefront.db"
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}
