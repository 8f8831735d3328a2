// Package mongo provides MongoDB implementations of repositories.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
	"notekeeper/pkg/logger"
)

// Сообщения об ошибках.
const (
	ErrInsertNote    = "failed to insert note"
	ErrFindNote      = "failed to find note"
	ErrFindNotes     = "failed to find notes"
	ErrDecodeNote    = "failed to decode note"
	ErrUpdateNote    = "failed to update note"
	ErrDeleteNote    = "failed to delete note"
	ErrPing          = "failed to ping mongo"
	ErrCreateIndexes = "failed to create indexes"
)

// noteDocument - представление заметки в коллекции.
type noteDocument struct {
	ID        string   `bson:"id"`
	Title     string   `bson:"title"`
	Content   *string  `bson:"content,omitempty"`
	CreatedAt int64    `bson:"created_at"`
	UpdatedAt int64    `bson:"updated_at"`
	Tags      []string `bson:"tags"`
}

func toDocument(n *entities.Note) noteDocument {
	return noteDocument{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Tags:      entities.TagsToStrings(n.Tags),
	}
}

func (d noteDocument) toEntity() (*entities.Note, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDecodeNote, err)
	}
	tags, err := entities.TagsFromStrings(d.Tags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDecodeNote, err)
	}
	return &entities.Note{
		ID:        id,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Tags:      tags,
	}, nil
}

var creationOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}}

// NoteRepository реализует интерфейс repositories.NoteRepository поверх коллекции.
type NoteRepository struct {
	coll *mongo.Collection
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(coll *mongo.Collection) *NoteRepository {
	return &NoteRepository{coll: coll}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// EnsureIndexes создает индексы коллекции.
func (r *NoteRepository) EnsureIndexes(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.EnsureIndexes"))

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: creationOrder},
	})
	if err != nil {
		log.Error(ctx, ErrCreateIndexes, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrCreateIndexes, err)
	}

	log.Debug(ctx, "indexes ensured")
	return nil
}

// InsertOne сохраняет новую заметку.
func (r *NoteRepository) InsertOne(ctx context.Context, note *entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.InsertOne"))
	log.Debug(ctx, "inserting note", zap.String("noteID", note.ID.String()))

	if _, err := r.coll.InsertOne(ctx, toDocument(note)); err != nil {
		log.Error(ctx, ErrInsertNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrInsertNote, err)
	}

	return nil
}

// FindOne получает первую заметку, подходящую под фильтр.
func (r *NoteRepository) FindOne(ctx context.Context, filter repositories.NoteFilter) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FindOne"))
	log.Debug(ctx, "finding note")

	var doc noteDocument
	err := r.coll.FindOne(ctx, buildFilter(filter), options.FindOne().SetSort(creationOrder)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Debug(ctx, "note not found")
			return nil, nil
		}
		log.Error(ctx, ErrFindNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFindNote, err)
	}

	return doc.toEntity()
}

// FindMany получает заметки по фильтру с учетом смещения, лимита и проекции.
func (r *NoteRepository) FindMany(ctx context.Context, filter repositories.NoteFilter, opts repositories.FindOptions) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.FindMany"))
	log.Debug(ctx, "finding notes", zap.Int64("skip", opts.Skip), zap.Int64("limit", opts.Limit))

	cursor, err := r.coll.Find(ctx, buildFilter(filter), buildFindOptions(opts))
	if err != nil {
		log.Error(ctx, ErrFindNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFindNotes, err)
	}

	var docs []noteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error(ctx, ErrDecodeNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrDecodeNote, err)
	}

	notes := make([]*entities.Note, 0, len(docs))
	for _, doc := range docs {
		note, err := doc.toEntity()
		if err != nil {
			log.Error(ctx, ErrDecodeNote, zap.Error(err))
			return nil, err
		}
		notes = append(notes, note)
	}

	return notes, nil
}

// UpdateByID применяет $set к переданным полям и updated_at.
func (r *NoteRepository) UpdateByID(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.UpdateByID"))
	log.Debug(ctx, "updating note", zap.String("noteID", id.String()))

	set := bson.D{}
	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *upd.Content})
	}
	if upd.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: entities.TagsToStrings(*upd.Tags)})
	}
	set = append(set, bson.E{Key: "updated_at", Value: updatedAt})

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "id", Value: id.String()}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		log.Error(ctx, ErrUpdateNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrUpdateNote, err)
	}

	return res.MatchedCount, nil
}

// DeleteByID удаляет заметку.
func (r *NoteRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.DeleteByID"))
	log.Debug(ctx, "deleting note", zap.String("noteID", id.String()))

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "id", Value: id.String()}})
	if err != nil {
		log.Error(ctx, ErrDeleteNote, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}

	return res.DeletedCount, nil
}

// Ping проверяет соединение с сервером.
func (r *NoteRepository) Ping(ctx context.Context) error {
	if err := r.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		logger.Log(ctx).Error(ctx, ErrPing, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrPing, err)
	}
	return nil
}

func buildFilter(filter repositories.NoteFilter) bson.D {
	f := bson.D{}
	if filter.ID != nil {
		f = append(f, bson.E{Key: "id", Value: filter.ID.String()})
	}
	if filter.Title != nil {
		f = append(f, bson.E{Key: "title", Value: *filter.Title})
	}
	if filter.Tags != nil {
		f = append(f, bson.E{Key: "tags", Value: bson.D{{Key: "$in", Value: entities.TagsToStrings(filter.Tags)}}})
	}
	return f
}

func buildFindOptions(opts repositories.FindOptions) *options.FindOptions {
	fo := options.Find()
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if opts.ExcludeContent {
		fo.SetProjection(bson.D{{Key: "content", Value: 0}})
	}
	if opts.SortByCreation {
		fo.SetSort(creationOrder)
	}
	return fo
}
