package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/cache"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

const (
	keyPrefix = "note:"
	genSuffix = ":gen"

	logCacheHit        = "note cache hit"
	logCacheDegraded   = "note cache unavailable, using backend"
	logCacheBadPayload = "dropping undecodable cache entry"
	logCacheRaced      = "note changed during read, not caching"
)

// NoteKey возвращает ключ кэша для заметки.
func NoteKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// GenerationKey возвращает ключ счетчика изменений заметки.
// Каждое обновление и удаление увеличивает счетчик, и запись в кэш
// после чтения из хранилища проходит только при неизменном счетчике.
func GenerationKey(id uuid.UUID) string {
	return keyPrefix + id.String() + genSuffix
}

// NoteRepository - read-through кэш поиска по id поверх другого репозитория.
// Ошибки кэша не прерывают операцию: запрос уходит в основное хранилище.
type NoteRepository struct {
	next  repositories.NoteRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewNoteRepository оборачивает репозиторий кэшем.
func NewNoteRepository(next repositories.NoteRepository, c cache.Cache, ttl time.Duration) *NoteRepository {
	return &NoteRepository{next: next, cache: c, ttl: ttl}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// InsertOne сохраняет заметку без прогрева кэша.
func (r *NoteRepository) InsertOne(ctx context.Context, note *entities.Note) error {
	return r.next.InsertOne(ctx, note)
}

// FindOne обслуживает поиск только по id из кэша, остальные фильтры проходят насквозь.
func (r *NoteRepository) FindOne(ctx context.Context, filter repositories.NoteFilter) (*entities.Note, error) {
	if filter.ID == nil || filter.Title != nil || filter.Tags != nil {
		return r.next.FindOne(ctx, filter)
	}

	log := logger.Log(ctx).With(zap.String("method", "CachedNoteRepository.FindOne"))
	key := NoteKey(*filter.ID)

	raw, ok, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn(ctx, logCacheDegraded, zap.Error(err))
	case ok:
		var note entities.Note
		if err := json.Unmarshal(raw, &note); err == nil {
			log.Debug(ctx, logCacheHit, zap.String("key", key))
			return &note, nil
		}
		log.Warn(ctx, logCacheBadPayload, zap.String("key", key))
		r.drop(ctx, key)
	}

	genKey := GenerationKey(*filter.ID)
	gen, _, genErr := r.cache.Get(ctx, genKey)
	if genErr != nil {
		log.Warn(ctx, logCacheDegraded, zap.Error(genErr))
	}

	note, err := r.next.FindOne(ctx, filter)
	if err != nil || note == nil || genErr != nil {
		return note, err
	}

	if payload, err := json.Marshal(note); err == nil {
		stored, err := r.cache.SetIfUnchanged(ctx, genKey, gen, key, payload, r.ttl)
		switch {
		case err != nil:
			log.Warn(ctx, logCacheDegraded, zap.Error(err))
		case !stored:
			log.Debug(ctx, logCacheRaced, zap.String("key", key))
		}
	}

	return note, nil
}

// FindMany не кэшируется.
func (r *NoteRepository) FindMany(ctx context.Context, filter repositories.NoteFilter, opts repositories.FindOptions) ([]*entities.Note, error) {
	return r.next.FindMany(ctx, filter, opts)
}

// UpdateByID обновляет заметку и сбрасывает запись кэша.
func (r *NoteRepository) UpdateByID(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error) {
	matched, err := r.next.UpdateByID(ctx, id, upd, updatedAt)
	r.invalidate(ctx, id)
	return matched, err
}

// DeleteByID удаляет заметку и сбрасывает запись кэша.
func (r *NoteRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	deleted, err := r.next.DeleteByID(ctx, id)
	r.invalidate(ctx, id)
	return deleted, err
}

// Ping проверяет только основное хранилище.
func (r *NoteRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// invalidate сначала сдвигает поколение, чтобы незавершенные чтения
// не вернули в кэш старую версию, затем удаляет запись.
func (r *NoteRepository) invalidate(ctx context.Context, id uuid.UUID) {
	genKey := GenerationKey(id)
	if err := r.cache.Bump(ctx, genKey, 2*r.ttl); err != nil {
		logger.Log(ctx).Warn(ctx, logCacheDegraded, zap.String("key", genKey), zap.Error(err))
	}
	r.drop(ctx, NoteKey(id))
}

func (r *NoteRepository) drop(ctx context.Context, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		logger.Log(ctx).Warn(ctx, logCacheDegraded, zap.String("key", key), zap.Error(err))
	}
}
