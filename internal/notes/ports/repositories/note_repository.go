// Package repositories defines repository interfaces for the notes service.
package repositories

import (
	"context"

	"github.com/google/uuid"

	"notekeeper/internal/notes/domain/entities"
)

// NoteFilter задает условия выборки. Пустые поля не участвуют в фильтре.
// Tags == nil означает отсутствие фильтра по тегам; непустой набор выбирает
// заметки, у которых есть хотя бы один тег из набора.
type NoteFilter struct {
	ID    *uuid.UUID
	Title *string
	Tags  []entities.Tag
}

// FindOptions управляет выборкой FindMany.
type FindOptions struct {
	Skip           int64
	Limit          int64
	ExcludeContent bool
	SortByCreation bool
}

// NoteRepository определяет интерфейс для работы с хранилищем заметок.
// FindOne возвращает nil, nil, если заметка не найдена.
type NoteRepository interface {
	InsertOne(ctx context.Context, note *entities.Note) error
	FindOne(ctx context.Context, filter NoteFilter) (*entities.Note, error)
	FindMany(ctx context.Context, filter NoteFilter, opts FindOptions) ([]*entities.Note, error)
	UpdateByID(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (int64, error)
	Ping(ctx context.Context) error
}
