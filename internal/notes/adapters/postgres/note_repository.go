// Package postgres provides PostgreSQL implementations of repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// DBTX - общий интерфейс pgxpool.Pool и транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const (
	fullColumns    = "id, title, content, created_at, updated_at, tags"
	previewColumns = "id, title, created_at, updated_at, tags"
)

// Сообщения об ошибках.
const (
	ErrInsertNote  = "failed to insert note"
	ErrFindNote    = "failed to find note"
	ErrFindNotes   = "failed to find notes"
	ErrScanNote    = "failed to scan note"
	ErrIterateRows = "error iterating rows"
	ErrUpdateNote  = "failed to update note"
	ErrDeleteNote  = "failed to delete note"
	ErrPing        = "failed to ping database"
	ErrDecodeTags  = "failed to decode tags"
)

// NoteRepository реализует интерфейс repositories.NoteRepository.
type NoteRepository struct {
	db DBTX
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(db DBTX) *NoteRepository {
	return &NoteRepository{db: db}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// InsertOne сохраняет новую заметку в БД.
func (r *NoteRepository) InsertOne(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.InsertOne"))
	log.Debug(ctx, "inserting note", zap.String("noteID", note.ID.String()))

	_, err := r.db.Exec(ctx,
		`INSERT INTO notes (id, title, content, created_at, updated_at, tags) VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt, entities.TagsToStrings(note.Tags),
	)
	if err != nil {
		log.Error(ctx, ErrInsertNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrInsertNote, err)
	}

	return nil
}

// FindOne получает первую заметку, подходящую под фильтр.
func (r *NoteRepository) FindOne(ctx context.Context, filter repositories.NoteFilter) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FindOne"))

	where, args := buildWhere(filter)
	query := "SELECT " + fullColumns + " FROM notes" + where + " ORDER BY created_at ASC, id ASC LIMIT 1"
	log.Debug(ctx, "finding note", zap.String("query", query))

	note, err := scanNote(r.db.QueryRow(ctx, query, args...), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found")
			return nil, nil
		}
		log.Error(ctx, ErrFindNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFindNote, err)
	}

	return note, nil
}

// FindMany получает заметки по фильтру с учетом смещения, лимита и проекции.
func (r *NoteRepository) FindMany(ctx context.Context, filter repositories.NoteFilter, opts repositories.FindOptions) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FindMany"))

	query, args := buildFindMany(filter, opts)
	log.Debug(ctx, "finding notes", zap.String("query", query))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Error(ctx, ErrFindNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFindNotes, err)
	}
	defer rows.Close()

	notes := make([]*entities.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows, opts.ExcludeContent)
		if err != nil {
			log.Error(ctx, ErrScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrScanNote, err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrIterateRows, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrIterateRows, err)
	}

	return notes, nil
}

// UpdateByID обновляет переданные поля и updated_at. Возвращает число найденных строк.
func (r *NoteRepository) UpdateByID(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.UpdateByID"))
	log.Debug(ctx, "updating note", zap.String("noteID", id.String()))

	query, args := buildUpdate(id, upd, updatedAt)
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		log.Error(ctx, ErrUpdateNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrUpdateNote, err)
	}

	return result.RowsAffected(), nil
}

// DeleteByID удаляет заметку. Возвращает число удаленных строк.
func (r *NoteRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.DeleteByID"))
	log.Debug(ctx, "deleting note", zap.String("noteID", id.String()))

	result, err := r.db.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		log.Error(ctx, ErrDeleteNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}

	return result.RowsAffected(), nil
}

// Ping проверяет соединение с БД.
func (r *NoteRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		logger.Log(ctx).Error(ctx, ErrPing, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrPing, err)
	}
	return nil
}

func buildWhere(filter repositories.NoteFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conds = append(conds, "id = $"+strconv.Itoa(len(args)))
	}
	if filter.Title != nil {
		args = append(args, *filter.Title)
		conds = append(conds, "title = $"+strconv.Itoa(len(args)))
	}
	if filter.Tags != nil {
		args = append(args, entities.TagsToStrings(filter.Tags))
		conds = append(conds, "tags && $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildFindMany(filter repositories.NoteFilter, opts repositories.FindOptions) (string, []any) {
	columns := fullColumns
	if opts.ExcludeContent {
		columns = previewColumns
	}

	where, args := buildWhere(filter)
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM notes")
	b.WriteString(where)
	if opts.SortByCreation {
		b.WriteString(" ORDER BY created_at ASC, id ASC")
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

func buildUpdate(id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (string, []any) {
	var (
		sets []string
		args []any
	)
	if upd.Title != nil {
		args = append(args, *upd.Title)
		sets = append(sets, "title = $"+strconv.Itoa(len(args)))
	}
	if upd.Content != nil {
		args = append(args, *upd.Content)
		sets = append(sets, "content = $"+strconv.Itoa(len(args)))
	}
	if upd.Tags != nil {
		args = append(args, entities.TagsToStrings(*upd.Tags))
		sets = append(sets, "tags = $"+strconv.Itoa(len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id)

	return "UPDATE notes SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args)), args
}

func scanNote(row pgx.Row, preview bool) (*entities.Note, error) {
	var (
		note entities.Note
		tags []string
		err  error
	)
	if preview {
		err = row.Scan(&note.ID, &note.Title, &note.CreatedAt, &note.UpdatedAt, &tags)
	} else {
		err = row.Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt, &tags)
	}
	if err != nil {
		return nil, err
	}

	note.Tags, err = entities.TagsFromStrings(tags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDecodeTags, err)
	}
	return &note, nil
}
