package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"notekeeper/internal/notes/adapters/services"
	"notekeeper/internal/notes/config"
	"notekeeper/pkg/logger"
)

const (
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrCreateTokenService   = "failed to create token service"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "notes",
		Short:         "Notes service",
		Long:          "Notes service: HTTP API over a tagged note store, with operator token minting.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newTokenCommand())

	return cmd
}

// loadConfig читает конфигурацию и переключает глобальный логгер на ее настройки.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadConfig, err)
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInitLoggerWithConfig, err)
	}
	logger.SetGlobalLogger(finalLogger)

	return cfg, nil
}

func newTokenService(cfg *config.JWTConfig) (*services.ServiceJWT, error) {
	method, err := services.ParseHMACMethod(cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrCreateTokenService, err)
	}

	tokens, err := services.NewJWT(services.JWTConfig{
		Secret:   []byte(cfg.Secret),
		Method:   method,
		Lifetime: cfg.TokenLifetime,
		Issuer:   cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrCreateTokenService, err)
	}
	return tokens, nil
}
