package services

import (
	"context"

	"github.com/google/uuid"

	"notekeeper/internal/notes/domain/entities"
)

// NoteService определяет операции над заметками, доступные транспортным адаптерам.
type NoteService interface {
	Create(ctx context.Context, title, content string, tags []entities.Tag) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Note, error)
	GetByTitle(ctx context.Context, title string) (*entities.Note, error)
	FindByTags(ctx context.Context, tags []entities.Tag) ([]*entities.Note, error)
	ListPage(ctx context.Context, page uint) ([]*entities.NotePreview, error)
	Ping(ctx context.Context) error
}
