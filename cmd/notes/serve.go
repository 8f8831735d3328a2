package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notekeeper/internal/notes/adapters/grpc"
	httpadapter "notekeeper/internal/notes/adapters/http"
	"notekeeper/internal/notes/app"
	"notekeeper/internal/notes/db"
	"notekeeper/internal/notes/resilience"
	"notekeeper/pkg/logger"
	"notekeeper/pkg/shutdown"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "notes service started"
	LogServiceShutdownDone = "notes service shutdown complete"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingStorage      = "closing notes storage"
	LogStartingHTTP        = "starting HTTP server"

	ErrInitStorage     = "failed to initialize storage"
	ErrStartGRPCServer = "failed to start gRPC server"
	ErrStartHTTPServer = "failed to start HTTP server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notes HTTP API and gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := logger.Log(ctx)

	log.Info(ctx, LogServiceStarted,
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("startup_time", time.Now().Format(time.RFC3339)))

	tokens, err := newTokenService(&cfg.JWT)
	if err != nil {
		return err
	}

	storage, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrInitStorage, err)
	}

	noteService := resilience.NewNoteService("notes", app.NewNoteStore(storage.Repository), cfg.Resilience.Options().Retry)

	grpcServer := grpc.New(cfg.GRPC.GetAddress())
	if err := grpcServer.Start(ctx); err != nil {
		_ = storage.Close(ctx)
		return fmt.Errorf("%s: %w", ErrStartGRPCServer, err)
	}

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})
	httpadapter.SetupRouter(fiberApp, noteService, tokens)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
	go func() {
		if err := fiberApp.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			stop()
		}
	}()

	shutdown.Wait(serveCtx, cfg.Shutdown.Timeout,
		grpcServer.Stop,
		// HTTP останавливается раньше хранилища, чтобы не обрывать запросы.
		func(ctx context.Context) error {
			log.Info(ctx, LogStoppingHTTP)
			httpErr := fiberApp.ShutdownWithContext(ctx)
			log.Info(ctx, LogClosingStorage)
			return errors.Join(httpErr, storage.Close(ctx))
		},
	)

	log.Info(ctx, LogServiceShutdownDone)
	return nil
}
