// Package config содержит конфигурацию сервиса заметок.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/errs"
	"notekeeper/pkg/logger"
)

// EnvConfigPath - переменная с путем к YAML-файлу конфигурации.
// Переменные окружения имеют приоритет над значениями из файла.
const EnvConfigPath = "NOTES_CONFIG_PATH"

// Константы ошибок и сообщений для конфигурации.
const (
	LogLoadingConfig    = "loading notes service configuration"
	LogConfigLoaded     = "configuration loaded successfully"
	ErrFailedLoadConfig = "failed to load configuration"
	ErrInvalidConfig    = "invalid configuration"
)

// Config представляет полную конфигурацию сервиса заметок.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Logging    LoggingConfig    `yaml:"logging"`
	Shutdown   ShutdownConfig   `yaml:"shutdown"`
	Resilience ResilienceConfig `yaml:"resilience"`
}

// Load загружает конфигурацию из переменных окружения
// или из файла, указанного в NOTES_CONFIG_PATH.
func Load(ctx context.Context) (*Config, error) {
	const op = "config.Load"
	log := logger.Log(ctx)

	path := os.Getenv(EnvConfigPath)
	log.Info(ctx, LogLoadingConfig, zap.String("path", path))

	var (
		cfg Config
		err error
	)
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, errs.E(errs.Configuration, op, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err))
	}

	if err := cfg.Validate(); err != nil {
		log.Error(ctx, ErrInvalidConfig, zap.Error(err))
		return nil, errs.E(errs.Configuration, op, fmt.Errorf("%s: %w", ErrInvalidConfig, err))
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("grpc_address", cfg.GRPC.GetAddress()),
		zap.String("jwt_algorithm", cfg.JWT.Algorithm),
		zap.Duration("jwt_token_lifetime", cfg.JWT.TokenLifetime),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Duration("shutdown_timeout", cfg.Shutdown.Timeout))

	return &cfg, nil
}

// Validate проверяет зависимости между полями, которые не выражаются тегами.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Storage.Driver == DriverMongo {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}
	return c.JWT.Validate()
}
