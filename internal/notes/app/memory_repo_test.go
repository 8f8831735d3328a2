package app_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
)

// memoryRepo хранит заметки в порядке вставки.
type memoryRepo struct {
	mu    sync.Mutex
	notes []*entities.Note
}

func (r *memoryRepo) InsertOne(_ context.Context, note *entities.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *note
	r.notes = append(r.notes, &cp)
	return nil
}

func (r *memoryRepo) FindOne(_ context.Context, filter repositories.NoteFilter) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if matches(n, filter) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) FindMany(_ context.Context, filter repositories.NoteFilter, opts repositories.FindOptions) ([]*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entities.Note, 0)
	for _, n := range r.notes {
		if matches(n, filter) {
			cp := *n
			if opts.ExcludeContent {
				cp.Content = nil
			}
			out = append(out, &cp)
		}
	}

	if opts.SortByCreation {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CreatedAt != out[j].CreatedAt {
				return out[i].CreatedAt < out[j].CreatedAt
			}
			return out[i].ID.String() < out[j].ID.String()
		})
	}

	if opts.Skip >= int64(len(out)) {
		return []*entities.Note{}, nil
	}
	out = out[opts.Skip:]
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *memoryRepo) UpdateByID(_ context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if n.ID != id {
			continue
		}
		if upd.Title != nil {
			n.Title = *upd.Title
		}
		if upd.Content != nil {
			content := *upd.Content
			n.Content = &content
		}
		if upd.Tags != nil {
			n.Tags = append([]entities.Tag{}, *upd.Tags...)
		}
		n.UpdatedAt = updatedAt
		return 1, nil
	}
	return 0, nil
}

func (r *memoryRepo) DeleteByID(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notes {
		if n.ID == id {
			r.notes = append(r.notes[:i], r.notes[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memoryRepo) Ping(context.Context) error {
	return nil
}

func matches(n *entities.Note, f repositories.NoteFilter) bool {
	if f.ID != nil && n.ID != *f.ID {
		return false
	}
	if f.Title != nil && n.Title != *f.Title {
		return false
	}
	if f.Tags != nil && !n.HasAnyTag(f.Tags) {
		return false
	}
	return true
}
