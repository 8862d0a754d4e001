package main

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tribeca/notifier/internal/notify"
	"github.com/tribeca/notifier/internal/platform/fcm"
	"github.com/tribeca/notifier/internal/storage/cache"
	"github.com/tribeca/notifier/internal/storage/mongodb"
	"github.com/tribeca/notifier/notifier"
	"github.com/tribeca/notifier/notifier/config"
	"github.com/tribeca/notifier/pkg/target"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "tribeca-notifier")
	slog.SetDefault(logger)

	// A .env file is a local convenience; absence is fine.
	_ = godotenv.Load()

	ctx := context.Background()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Storage ---
	mongoClient, err := mongodb.Connect(ctx, mongodb.ClientConfig{
		URL:            cfg.Mongo.URL,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		RetryAttempts:  cfg.Mongo.RetryAttempts,
		RetryInterval:  cfg.Mongo.RetryInterval,
	})
	if err != nil {
		logger.Error("Mongo connection failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	db := mongoClient.Database(cfg.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Error("Index bootstrap failed", "err", err)
		os.Exit(1)
	}

	var targetStore target.Store = mongodb.NewTargetStore(db)
	credentialStore := mongodb.NewCredentialStore(db)
	logger.Info("TargetStore initialized", "type", "mongodb")

	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cache.RedisOptions{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PingTimeout: cfg.Redis.PingTimeout,
		})
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		targetStore = cache.NewCachedTargetStore(targetStore, redisClient, cfg.Redis.TTL)
		logger.Info("TargetStore upgraded", "type", "redis_cached_mongodb")
	}

	targets := target.NewRegistry(targetStore, logger)

	// --- Tenant delivery clients ---
	delivery := fcm.NewRegistry(fcm.DefaultFactory(logger), logger)
	if err := delivery.LoadAll(ctx, credentialStore); err != nil {
		logger.Error("Tenant credential load failed", "err", err)
		os.Exit(1)
	}

	resolver := notify.NewResolver(targets, delivery, logger)

	service := notifier.New(
		cfg,
		targets,
		resolver,
		credentialStore,
		delivery,
		mongodb.Healthcheck(mongoClient),
		logger,
	)

	// --- Lifecycle ---
	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := service.Shutdown(drainCtx); err != nil {
			logger.Error("Shutdown failed", "err", err)
		}
	}()

	logger.Info("Starting service...", "addr", cfg.ListenAddr)
	if err := service.Start(); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}
