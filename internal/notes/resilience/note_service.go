package resilience

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/domain/errs"
	"notekeeper/internal/notes/ports/services"
)

// NoteService повторяет чтения хранилища заметок при ошибках вида Storage.
// Сам NoteStore возвращает первую же ошибку хранилища; повторы живут здесь,
// снаружи, и включаются только при MaxAttempts > 1.
// Записи не повторяются: они могли примениться до ошибки.
type NoteService struct {
	next  services.NoteService
	retry *Retry
}

// NewNoteService оборачивает хранилище заметок повторами чтений.
func NewNoteService(name string, next services.NoteService, cfg RetryConfig) *NoteService {
	base := cfg.ShouldRetry
	if base == nil {
		base = defaultShouldRetry
	}
	cfg.ShouldRetry = func(err error) bool {
		return errs.KindOf(err) == errs.Storage &&
			!errors.Is(err, errs.ErrDeleteLostRace) &&
			base(err)
	}
	return &NoteService{next: next, retry: NewRetry(name, cfg)}
}

var _ services.NoteService = (*NoteService)(nil)

// Create делегирует создание без повторов.
func (s *NoteService) Create(ctx context.Context, title, content string, tags []entities.Tag) (uuid.UUID, error) {
	return s.next.Create(ctx, title, content, tags)
}

// Delete делегирует удаление без повторов.
func (s *NoteService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.next.Delete(ctx, id)
}

// Update делегирует обновление без повторов.
func (s *NoteService) Update(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate) error {
	return s.next.Update(ctx, id, upd)
}

func (s *NoteService) GetByID(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	var note *entities.Note
	err := s.retry.Execute(ctx, func() error {
		var err error
		note, err = s.next.GetByID(ctx, id)
		return err
	})
	return note, err
}

func (s *NoteService) GetByTitle(ctx context.Context, title string) (*entities.Note, error) {
	var note *entities.Note
	err := s.retry.Execute(ctx, func() error {
		var err error
		note, err = s.next.GetByTitle(ctx, title)
		return err
	})
	return note, err
}

func (s *NoteService) FindByTags(ctx context.Context, tags []entities.Tag) ([]*entities.Note, error) {
	var notes []*entities.Note
	err := s.retry.Execute(ctx, func() error {
		var err error
		notes, err = s.next.FindByTags(ctx, tags)
		return err
	})
	return notes, err
}

func (s *NoteService) ListPage(ctx context.Context, page uint) ([]*entities.NotePreview, error) {
	var previews []*entities.NotePreview
	err := s.retry.Execute(ctx, func() error {
		var err error
		previews, err = s.next.ListPage(ctx, page)
		return err
	})
	return previews, err
}

// Ping не повторяется: health должен видеть первую ошибку.
func (s *NoteService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
