package resilience

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// Config объединяет настройки Circuit Breaker и повторов.
type Config struct {
	Breaker CircuitBreakerConfig
	Retry   RetryConfig
}

// NoteRepository защищает хранилище Circuit Breaker'ом.
// Каждый вызов доходит до хранилища не более одного раза:
// повторы выполняет NoteService поверх хранилища заметок.
type NoteRepository struct {
	next    repositories.NoteRepository
	breaker *CircuitBreaker
}

// NewNoteRepository оборачивает репозиторий Circuit Breaker'ом.
func NewNoteRepository(name string, next repositories.NoteRepository, cfg CircuitBreakerConfig) *NoteRepository {
	return &NoteRepository{
		next:    next,
		breaker: NewCircuitBreaker(name, cfg),
	}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// Breaker возвращает Circuit Breaker хранилища.
func (r *NoteRepository) Breaker() *CircuitBreaker {
	return r.breaker
}

func (r *NoteRepository) call(ctx context.Context, op string, fn func() error) error {
	logger.Log(ctx).Debug(ctx, "executing storage call", zap.String("operation", op))
	return r.breaker.Execute(ctx, fn)
}

// InsertOne делегирует вставку.
func (r *NoteRepository) InsertOne(ctx context.Context, note *entities.Note) error {
	return r.call(ctx, "InsertOne", func() error {
		return r.next.InsertOne(ctx, note)
	})
}

// FindOne делегирует поиск.
func (r *NoteRepository) FindOne(ctx context.Context, filter repositories.NoteFilter) (*entities.Note, error) {
	var note *entities.Note
	err := r.call(ctx, "FindOne", func() error {
		var err error
		note, err = r.next.FindOne(ctx, filter)
		return err
	})
	return note, err
}

// FindMany делегирует выборку.
func (r *NoteRepository) FindMany(ctx context.Context, filter repositories.NoteFilter, opts repositories.FindOptions) ([]*entities.Note, error) {
	var notes []*entities.Note
	err := r.call(ctx, "FindMany", func() error {
		var err error
		notes, err = r.next.FindMany(ctx, filter, opts)
		return err
	})
	return notes, err
}

// UpdateByID делегирует обновление.
func (r *NoteRepository) UpdateByID(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error) {
	var matched int64
	err := r.call(ctx, "UpdateByID", func() error {
		var err error
		matched, err = r.next.UpdateByID(ctx, id, upd, updatedAt)
		return err
	})
	return matched, err
}

// DeleteByID делегирует удаление.
func (r *NoteRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	var deleted int64
	err := r.call(ctx, "DeleteByID", func() error {
		var err error
		deleted, err = r.next.DeleteByID(ctx, id)
		return err
	})
	return deleted, err
}

// Ping делегирует проверку.
func (r *NoteRepository) Ping(ctx context.Context) error {
	return r.call(ctx, "Ping", func() error {
		return r.next.Ping(ctx)
	})
}
