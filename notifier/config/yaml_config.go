package config

import (
	"log/slog"
	"time"
)

type YamlMongoConfig struct {
	URL            string        `yaml:"url"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxPoolSize    uint64        `yaml:"max_pool_size"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
}

type YamlRedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	TTL         time.Duration `yaml:"ttl"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

// YamlConfig mirrors the raw local.yaml file.
type YamlConfig struct {
	ListenAddr  string          `yaml:"listen_addr"`
	MongoConfig YamlMongoConfig `yaml:"mongo"`
	RedisConfig YamlRedisConfig `yaml:"redis"`
}

// NewConfigFromYaml converts the YamlConfig into the clean base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ListenAddr: baseCfg.ListenAddr,
		Mongo: MongoConfig{
			URL:            baseCfg.MongoConfig.URL,
			Database:       baseCfg.MongoConfig.Database,
			ConnectTimeout: baseCfg.MongoConfig.ConnectTimeout,
			MaxPoolSize:    baseCfg.MongoConfig.MaxPoolSize,
			RetryAttempts:  baseCfg.MongoConfig.RetryAttempts,
			RetryInterval:  baseCfg.MongoConfig.RetryInterval,
		},
		Redis: RedisConfig{
			Enabled:     baseCfg.RedisConfig.Enabled,
			Addr:        baseCfg.RedisConfig.Addr,
			Password:    baseCfg.RedisConfig.Password,
			DB:          baseCfg.RedisConfig.DB,
			TTL:         baseCfg.RedisConfig.TTL,
			PingTimeout: baseCfg.RedisConfig.PingTimeout,
		},
	}

	logger.Debug("YAML config mapping complete",
		"listen_addr", cfg.ListenAddr,
		"mongo_database", cfg.Mongo.Database,
	)

	return cfg, nil
}
