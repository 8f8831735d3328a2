// Package app implements application business logic for the notes service.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/domain/errs"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/internal/notes/ports/services"
)

// Имена операций для ошибок.
const (
	opCreate     = "NoteStore.Create"
	opDelete     = "NoteStore.Delete"
	opUpdate     = "NoteStore.Update"
	opGetByID    = "NoteStore.GetByID"
	opGetByTitle = "NoteStore.GetByTitle"
	opFindByTags = "NoteStore.FindByTags"
	opListPage   = "NoteStore.ListPage"
	opPing       = "NoteStore.Ping"
)

// NoteStore представляет собой бизнес-логику работы с заметками.
// Не хранит изменяемого состояния: каждый вызов независим.
type NoteStore struct {
	repo  repositories.NoteRepository
	now   func() time.Time
	newID func() (uuid.UUID, error)
}

// Option настраивает NoteStore.
type Option func(*NoteStore)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *NoteStore) {
		s.now = now
	}
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(gen func() (uuid.UUID, error)) Option {
	return func(s *NoteStore) {
		s.newID = gen
	}
}

// NewNoteStore создает новый экземпляр NoteStore.
func NewNoteStore(repo repositories.NoteRepository, opts ...Option) *NoteStore {
	s := &NoteStore{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewRandom,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ services.NoteService = (*NoteStore)(nil)

// Create сохраняет новую заметку и возвращает ее идентификатор.
func (s *NoteStore) Create(ctx context.Context, title, content string, tags []entities.Tag) (uuid.UUID, error) {
	if title == "" {
		return uuid.Nil, errs.E(errs.InvalidArgument, opCreate, nil).WithField("title")
	}
	if err := validateTags(opCreate, tags); err != nil {
		return uuid.Nil, err
	}

	id, err := s.newID()
	if err != nil {
		return uuid.Nil, errs.E(errs.Storage, opCreate, err)
	}

	note := entities.NewNote(id, title, content, tags, s.now())
	if err := s.repo.InsertOne(ctx, note); err != nil {
		return uuid.Nil, storageErr(opCreate, err)
	}

	return id, nil
}

// Delete удаляет заметку. Отсутствующая заметка дает NotFound.
func (s *NoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.requireExisting(ctx, opDelete, id); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return storageErr(opDelete, err)
	}
	if deleted == 0 {
		return errs.E(errs.Storage, opDelete, errs.ErrDeleteLostRace).WithNoteID(id.String())
	}

	return nil
}

// Update меняет только переданные поля и всегда обновляет updated_at.
func (s *NoteStore) Update(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate) error {
	if upd.Title != nil && *upd.Title == "" {
		return errs.E(errs.InvalidArgument, opUpdate, nil).WithField("title")
	}
	if upd.Tags != nil {
		if err := validateTags(opUpdate, *upd.Tags); err != nil {
			return err
		}
	}

	existing, err := s.requireExisting(ctx, opUpdate, id)
	if err != nil {
		return err
	}

	// Часы могли отстать от момента создания: updated_at не меньше created_at.
	updatedAt := max(s.now().Unix(), existing.CreatedAt)
	matched, err := s.repo.UpdateByID(ctx, id, upd, updatedAt)
	if err != nil {
		return storageErr(opUpdate, err)
	}
	if matched == 0 {
		return errs.E(errs.NotFound, opUpdate, nil).WithNoteID(id.String())
	}

	return nil
}

// GetByID возвращает заметку или nil, если ее нет.
func (s *NoteStore) GetByID(ctx context.Context, id uuid.UUID) (*entities.Note, error) {
	note, err := s.repo.FindOne(ctx, repositories.NoteFilter{ID: &id})
	if err != nil {
		return nil, storageErr(opGetByID, err)
	}
	return note, nil
}

// GetByTitle возвращает первую заметку с точно совпадающим заголовком.
func (s *NoteStore) GetByTitle(ctx context.Context, title string) (*entities.Note, error) {
	note, err := s.repo.FindOne(ctx, repositories.NoteFilter{Title: &title})
	if err != nil {
		return nil, storageErr(opGetByTitle, err)
	}
	return note, nil
}

// FindByTags возвращает заметки, у которых есть хотя бы один тег из набора.
// nil возвращает все заметки, пустой набор - ни одной.
func (s *NoteStore) FindByTags(ctx context.Context, tags []entities.Tag) ([]*entities.Note, error) {
	if tags != nil && len(tags) == 0 {
		return []*entities.Note{}, nil
	}
	if err := validateTags(opFindByTags, tags); err != nil {
		return nil, err
	}

	notes, err := s.repo.FindMany(ctx, repositories.NoteFilter{Tags: tags}, repositories.FindOptions{})
	if err != nil {
		return nil, storageErr(opFindByTags, err)
	}
	return notes, nil
}

// Ping проверяет доступность хранилища.
func (s *NoteStore) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return storageErr(opPing, err)
	}
	return nil
}

func (s *NoteStore) requireExisting(ctx context.Context, op string, id uuid.UUID) (*entities.Note, error) {
	note, err := s.repo.FindOne(ctx, repositories.NoteFilter{ID: &id})
	if err != nil {
		return nil, storageErr(op, err)
	}
	if note == nil {
		return nil, errs.E(errs.NotFound, op, nil).WithNoteID(id.String())
	}
	return note, nil
}

func validateTags(op string, tags []entities.Tag) error {
	if tag, bad := entities.FirstInvalidTag(tags); bad {
		return errs.E(errs.InvalidArgument, op, entities.ErrUnknownTag).WithField("tags:" + tag.String())
	}
	return nil
}

// storageErr оставляет типизированные ошибки как есть, остальные считает ошибками хранилища.
func storageErr(op string, err error) error {
	var typed *errs.Error
	if errors.As(err, &typed) {
		return err
	}
	return errs.E(errs.Storage, op, err)
}
