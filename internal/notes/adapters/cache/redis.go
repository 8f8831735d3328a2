// Package cache содержит реализацию кэширования с использованием Redis.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notekeeper/internal/notes/ports/cache"
	"notekeeper/pkg/logger"
)

// Константы для логирования.
const (
	LogMethodGet    = "RedisCache.Get"
	LogMethodSet    = "RedisCache.Set"
	LogMethodDelete = "RedisCache.Delete"
	LogMethodCAS    = "RedisCache.SetIfUnchanged"
	LogMethodBump   = "RedisCache.Bump"

	ErrorFailedToGet    = "failed to get value from redis"
	ErrorFailedToSet    = "failed to set value in redis"
	ErrorFailedToDelete = "failed to delete value from redis"
	ErrorFailedToCAS    = "failed to conditionally set value in redis"
	ErrorFailedToBump   = "failed to bump counter in redis"
	ErrorFailedToClose  = "failed to close redis connection"
)

// RedisCache реализует интерфейс Cache с использованием Redis.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache создает новый экземпляр RedisCache поверх подключенного клиента.
func NewRedisCache(client *redis.Client, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     client,
		defaultTTL: defaultTTL,
	}
}

var _ cache.Cache = (*RedisCache)(nil)

// Get получает значение по ключу.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodGet), zap.String("key", key))

	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		log.Error(ctx, ErrorFailedToGet, zap.Error(err))
		return nil, false, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}

	return value, true, nil
}

// Set устанавливает значение для ключа с временем жизни.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSet), zap.String("key", key))

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error(ctx, ErrorFailedToSet, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToSet, err)
	}

	return nil
}

var errGuardChanged = errors.New("guard changed")

// SetIfUnchanged записывает value под WATCH на guardKey.
// Если guardKey изменился между чтением и EXEC, запись отменяется.
func (c *RedisCache) SetIfUnchanged(ctx context.Context, guardKey string, guard []byte, key string, value []byte, ttl time.Duration) (bool, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodCAS), zap.String("key", key))

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, guardKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			current = nil
		case err != nil:
			return err
		}
		if !bytes.Equal(current, guard) || (current == nil) != (guard == nil) {
			return errGuardChanged
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		return err
	}, guardKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errGuardChanged), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		log.Error(ctx, ErrorFailedToCAS, zap.Error(err))
		return false, fmt.Errorf("%s: %w", ErrorFailedToCAS, err)
	}
}

// Bump выполняет INCR и EXPIRE одной транзакцией.
func (c *RedisCache) Bump(ctx context.Context, key string, ttl time.Duration) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodBump), zap.String("key", key))

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		log.Error(ctx, ErrorFailedToBump, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToBump, err)
	}

	return nil
}

// Delete удаляет значение по ключу.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodDelete), zap.String("key", key))

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Error(ctx, ErrorFailedToDelete, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDelete, err)
	}

	return nil
}

// Close закрывает соединение с Redis.
func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}
