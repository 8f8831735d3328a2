// Package db собирает хранилище заметок по конфигурации:
// драйвер, отказоустойчивость и необязательный кэш.
package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cacheadapter "notekeeper/internal/notes/adapters/cache"
	mongoadapter "notekeeper/internal/notes/adapters/mongo"
	pgadapter "notekeeper/internal/notes/adapters/postgres"
	"notekeeper/internal/notes/config"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/internal/notes/resilience"
	"notekeeper/pkg/db/mongo"
	"notekeeper/pkg/db/postgres"
	"notekeeper/pkg/db/redis"
	"notekeeper/pkg/logger"
)

// Константы для сообщений logger.
const (
	LogDBInitializing    = "initializing notes storage"
	LogDBInitialized     = "notes storage initialized successfully"
	LogMigrationStarting = "starting database migrations for notes service"
	LogCacheEnabled      = "notes cache enabled"
)

// Константы для сообщений об ошибках.
const (
	ErrDBMigrations   = "failed to apply notes database migrations"
	ErrDBConnection   = "failed to connect to notes database"
	ErrCreateIndexes  = "failed to create notes indexes"
	ErrCacheConnect   = "failed to connect to notes cache"
	ErrUnknownStorage = "unknown storage driver"
)

// Closer освобождает ресурс хранилища.
type Closer func(ctx context.Context) error

// Storage - собранное хранилище и функции его закрытия в обратном порядке открытия.
type Storage struct {
	Repository repositories.NoteRepository
	closers    []Closer
}

// Close закрывает все ресурсы и возвращает первую ошибку.
func (s *Storage) Close(ctx context.Context) error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New открывает выбранное хранилище и оборачивает его декораторами.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	log := logger.Log(ctx).With(zap.String("driver", cfg.Storage.Driver))
	log.Info(ctx, LogDBInitializing)

	storage := &Storage{}

	backend, err := openBackend(ctx, cfg, storage)
	if err != nil {
		_ = storage.Close(ctx)
		return nil, err
	}

	storage.Repository = resilience.NewNoteRepository(cfg.Storage.Driver, backend, cfg.Resilience.Options().Breaker)

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.GetAddress(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			_ = storage.Close(ctx)
			return nil, fmt.Errorf("%s: %w", ErrCacheConnect, err)
		}
		redisCache := cacheadapter.NewRedisCache(client, cfg.Redis.TTL)
		storage.add(func(context.Context) error { return redisCache.Close() })
		storage.Repository = cacheadapter.NewNoteRepository(storage.Repository, redisCache, cfg.Redis.TTL)
		log.Info(ctx, LogCacheEnabled, zap.Duration("ttl", cfg.Redis.TTL))
	}

	log.Info(ctx, LogDBInitialized)
	return storage, nil
}

func (s *Storage) add(c Closer) {
	s.closers = append(s.closers, c)
}

func openBackend(ctx context.Context, cfg *config.Config, storage *Storage) (repositories.NoteRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, storage)
	case config.DriverMongo:
		return openMongo(ctx, cfg, storage)
	default:
		return nil, fmt.Errorf("%s: %q", ErrUnknownStorage, cfg.Storage.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, storage *Storage) (repositories.NoteRepository, error) {
	log := logger.Log(ctx)
	pg := cfg.Postgres

	log.Info(ctx, LogMigrationStarting,
		zap.String("host", pg.Host),
		zap.Int("port", pg.Port),
		zap.String("database", pg.Database),
		zap.String("migrations_path", cfg.Storage.MigrationsPath))

	if err := postgres.Migrate(ctx, pg.GetConnectionURL(), cfg.Storage.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBMigrations, err)
	}

	database, err := postgres.New(ctx, postgres.Options{
		DSN:     pg.GetDSN(),
		MinConn: pg.MinConn,
		MaxConn: pg.MaxConn,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}
	storage.add(func(ctx context.Context) error {
		database.Close(ctx)
		return nil
	})

	return pgadapter.NewNoteRepository(database.Pool()), nil
}

func openMongo(ctx context.Context, cfg *config.Config, storage *Storage) (repositories.NoteRepository, error) {
	database, err := mongo.New(ctx, mongo.Options{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}
	storage.add(database.Close)

	repo := mongoadapter.NewNoteRepository(database.Collection(cfg.Mongo.Collection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrCreateIndexes, err)
	}
	return repo, nil
}
