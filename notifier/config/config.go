// Package config layers the notifier configuration: embedded YAML defaults,
// then environment overrides, then validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type MongoConfig struct {
	URL            string        `env:"MONGO_URL"`
	Database       string        `env:"MONGO_DATABASE"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT"`
	MaxPoolSize    uint64        `env:"MONGO_MAX_POOL_SIZE"`
	RetryAttempts  int           `env:"MONGO_RETRY_ATTEMPTS"`
	RetryInterval  time.Duration `env:"MONGO_RETRY_INTERVAL"`
}

type RedisConfig struct {
	Enabled     bool          `env:"REDIS_ENABLED"`
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB"`
	TTL         time.Duration `env:"REDIS_TTL"`
	PingTimeout time.Duration `env:"REDIS_PING_TIMEOUT"`
}

// Config is the single, authoritative configuration.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR"`

	Mongo MongoConfig
	Redis RedisConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final
// validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	redisAddrBefore := cfg.Redis.Addr
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	// PORT wins over LISTEN_ADDR so the usual container contract holds.
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}

	// Pointing REDIS_ADDR somewhere implies the cache is wanted, unless
	// REDIS_ENABLED says otherwise.
	if cfg.Redis.Addr != redisAddrBefore && os.Getenv("REDIS_ENABLED") == "" {
		cfg.Redis.Enabled = true
	}

	// Final validation and defaults.
	if cfg.Mongo.URL == "" {
		return nil, fmt.Errorf("mongo url is required (set via YAML or MONGO_URL env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":30701"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "tribeca_notifier"
	}
	if cfg.Mongo.ConnectTimeout <= 0 {
		cfg.Mongo.ConnectTimeout = 10 * time.Second
	}
	if cfg.Mongo.RetryAttempts <= 0 {
		cfg.Mongo.RetryAttempts = 5
	}
	if cfg.Mongo.RetryInterval <= 0 {
		cfg.Mongo.RetryInterval = 2 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Redis.PingTimeout <= 0 {
		cfg.Redis.PingTimeout = 2 * time.Second
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
