package app

import (
	"context"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/domain/errs"
	"notekeeper/internal/notes/ports/repositories"
)

// PageSize - фиксированный размер страницы.
const PageSize = 10

// PageOptions переводит номер страницы (с единицы) в параметры выборки.
func PageOptions(page uint) (repositories.FindOptions, error) {
	if page == 0 {
		return repositories.FindOptions{}, errs.E(errs.InvalidArgument, opListPage, nil).WithField("page")
	}
	return repositories.FindOptions{
		Skip:           int64(page-1) * PageSize,
		Limit:          PageSize,
		ExcludeContent: true,
		SortByCreation: true,
	}, nil
}

// ListPage возвращает страницу превью заметок, упорядоченных по created_at и id.
func (s *NoteStore) ListPage(ctx context.Context, page uint) ([]*entities.NotePreview, error) {
	opts, err := PageOptions(page)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.FindMany(ctx, repositories.NoteFilter{}, opts)
	if err != nil {
		return nil, storageErr(opListPage, err)
	}

	previews := make([]*entities.NotePreview, 0, len(notes))
	for _, n := range notes {
		previews = append(previews, n.Preview())
	}
	return previews, nil
}
