// Package cache определяет интерфейсы для кэширования.
package cache

import (
	"context"
	"time"
)

// Cache определяет интерфейс для работы с кэшем.
// Get возвращает ok == false при промахе.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfUnchanged записывает value, только если guardKey все еще хранит guard
	// (nil - ключ отсутствует). Проверка и запись атомарны.
	SetIfUnchanged(ctx context.Context, guardKey string, guard []byte, key string, value []byte, ttl time.Duration) (bool, error)

	// Bump увеличивает счетчик в key и продлевает его время жизни.
	Bump(ctx context.Context, key string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}
