package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/notes/adapters/cache"
	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/ports/repositories"
)

var errBackend = errors.New("backend failure")

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) InsertOne(ctx context.Context, note *entities.Note) error {
	return m.Called(ctx, note).Error(0)
}

func (m *mockNoteRepository) FindOne(ctx context.Context, filter repositories.NoteFilter) (*entities.Note, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) FindMany(ctx context.Context, filter repositories.NoteFilter, opts repositories.FindOptions) ([]*entities.Note, error) {
	args := m.Called(ctx, filter, opts)
	return args.Get(0).([]*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) UpdateByID(ctx context.Context, id uuid.UUID, upd entities.NoteUpdate, updatedAt int64) (int64, error) {
	args := m.Called(ctx, id, upd, updatedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func mockRedisServer(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return s, cache.NewRedisCache(client, time.Hour)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.InDelta(t, time.Hour.Seconds(), s.TTL("k").Seconds(), 5)

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, s.TTL("short"))

	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, s.Exists("k"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)
	s.Close()

	_, _, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), cache.ErrorFailedToGet)

	err = c.Set(ctx, "k", []byte("v"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cache.ErrorFailedToSet)

	err = c.Delete(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), cache.ErrorFailedToDelete)
}

func TestCachedNoteRepository_FindOneReadThrough(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)

	note := entities.NewNote(uuid.New(), "t", "body", []entities.Tag{entities.TagKernel}, time.Unix(100, 0))
	filter := repositories.NoteFilter{ID: &note.ID}

	backend := new(mockNoteRepository)
	backend.On("FindOne", mock.Anything, filter).Return(note, nil).Once()

	repo := cache.NewNoteRepository(backend, c, time.Minute)

	first, err := repo.FindOne(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, note, first)
	assert.True(t, s.Exists(cache.NoteKey(note.ID)))

	second, err := repo.FindOne(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, note, second)

	backend.AssertExpectations(t)
}

func TestCachedNoteRepository_MissIsNotCached(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)
	id := uuid.New()
	filter := repositories.NoteFilter{ID: &id}

	backend := new(mockNoteRepository)
	backend.On("FindOne", mock.Anything, filter).Return(nil, nil).Twice()

	repo := cache.NewNoteRepository(backend, c, time.Minute)
	for i := 0; i < 2; i++ {
		note, err := repo.FindOne(ctx, filter)
		require.NoError(t, err)
		assert.Nil(t, note)
	}

	assert.False(t, s.Exists(cache.NoteKey(id)))
	backend.AssertExpectations(t)
}

func TestCachedNoteRepository_NonIDFiltersBypassCache(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)
	title := "t"
	filter := repositories.NoteFilter{Title: &title}

	backend := new(mockNoteRepository)
	backend.On("FindOne", mock.Anything, filter).Return(&entities.Note{ID: uuid.New()}, nil).Once()

	_, err := cache.NewNoteRepository(backend, c, time.Minute).FindOne(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, s.Keys())
	backend.AssertExpectations(t)
}

func TestCachedNoteRepository_Invalidation(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)
	id := uuid.New()
	key := cache.NoteKey(id)

	backend := new(mockNoteRepository)
	backend.On("UpdateByID", mock.Anything, id, entities.NoteUpdate{}, int64(5)).Return(int64(1), nil).Once()
	backend.On("DeleteByID", mock.Anything, id).Return(int64(1), nil).Once()

	repo := cache.NewNoteRepository(backend, c, time.Minute)

	require.NoError(t, s.Set(key, "{}"))
	_, err := repo.UpdateByID(ctx, id, entities.NoteUpdate{}, 5)
	require.NoError(t, err)
	assert.False(t, s.Exists(key))

	require.NoError(t, s.Set(key, "{}"))
	_, err = repo.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, s.Exists(key))

	backend.AssertExpectations(t)
}

func TestCachedNoteRepository_BadPayloadFallsBack(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)

	note := entities.NewNote(uuid.New(), "t", "body", nil, time.Unix(100, 0))
	filter := repositories.NoteFilter{ID: &note.ID}
	require.NoError(t, s.Set(cache.NoteKey(note.ID), "not json"))

	backend := new(mockNoteRepository)
	backend.On("FindOne", mock.Anything, filter).Return(note, nil).Once()

	got, err := cache.NewNoteRepository(backend, c, time.Minute).FindOne(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, note, got)
	backend.AssertExpectations(t)
}

func TestCachedNoteRepository_RedisDownDegrades(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)
	s.Close()

	note := entities.NewNote(uuid.New(), "t", "body", nil, time.Unix(100, 0))
	filter := repositories.NoteFilter{ID: &note.ID}

	backend := new(mockNoteRepository)
	backend.On("FindOne", mock.Anything, filter).Return(note, nil).Once()
	backend.On("DeleteByID", mock.Anything, note.ID).Return(int64(1), nil).Once()

	repo := cache.NewNoteRepository(backend, c, time.Minute)

	got, err := repo.FindOne(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, note, got)

	deleted, err := repo.DeleteByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	backend.AssertExpectations(t)
}

func TestCachedNoteRepository_PassThrough(t *testing.T) {
	ctx := context.Background()
	_, c := mockRedisServer(t)
	note := &entities.Note{ID: uuid.New()}

	backend := new(mockNoteRepository)
	backend.On("InsertOne", mock.Anything, note).Return(errBackend).Once()
	backend.On("FindMany", mock.Anything, repositories.NoteFilter{}, repositories.FindOptions{}).Return([]*entities.Note{note}, nil).Once()
	backend.On("Ping", mock.Anything).Return(nil).Once()

	repo := cache.NewNoteRepository(backend, c, time.Minute)

	require.ErrorIs(t, repo.InsertOne(ctx, note), errBackend)
	notes, err := repo.FindMany(ctx, repositories.NoteFilter{}, repositories.FindOptions{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	require.NoError(t, repo.Ping(ctx))

	backend.AssertExpectations(t)
}

func TestRedisCache_SetIfUnchanged(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)

	stored, err := c.SetIfUnchanged(ctx, "g", nil, "k", []byte("v1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, time.Minute, s.TTL("k"))

	require.NoError(t, c.Bump(ctx, "g", time.Hour))
	gen, err := s.Get("g")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	assert.Equal(t, time.Hour, s.TTL("g"))

	stored, err = c.SetIfUnchanged(ctx, "g", nil, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, stored, "guard moved from absent to 1")

	stored, err = c.SetIfUnchanged(ctx, "g", []byte("1"), "k", []byte("v3"), time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v3", value)
}

func TestRedisCache_ConditionalOpsServerDown(t *testing.T) {
	ctx := context.Background()
	s, c := mockRedisServer(t)
	s.Close()

	_, err := c.SetIfUnchanged(ctx, "g", nil, "k", []byte("v"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cache.ErrorFailedToCAS)

	err = c.Bump(ctx, "g", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cache.ErrorFailedToBump)
}

func TestCachedNoteRepository_WriteDuringReadIsNotCached(t *testing.T) {
	content := "body"
	oldNote := &entities.Note{ID: uuid.New(), Title: "old", Content: &content, CreatedAt: 1, UpdatedAt: 1, Tags: []entities.Tag{}}
	newTitle := "new"
	newNote := *oldNote
	newNote.Title = newTitle
	newNote.UpdatedAt = 2
	filter := repositories.NoteFilter{ID: &oldNote.ID}

	tests := []struct {
		name  string
		write func(ctx context.Context, repo *cache.NoteRepository) error
		after *entities.Note
		setup func(backend *mockNoteRepository)
	}{
		{
			name: "update",
			write: func(ctx context.Context, repo *cache.NoteRepository) error {
				_, err := repo.UpdateByID(ctx, oldNote.ID, entities.NoteUpdate{Title: &newTitle}, 2)
				return err
			},
			after: &newNote,
			setup: func(backend *mockNoteRepository) {
				backend.On("UpdateByID", mock.Anything, oldNote.ID, entities.NoteUpdate{Title: &newTitle}, int64(2)).Return(int64(1), nil).Once()
			},
		},
		{
			name: "delete",
			write: func(ctx context.Context, repo *cache.NoteRepository) error {
				_, err := repo.DeleteByID(ctx, oldNote.ID)
				return err
			},
			after: nil,
			setup: func(backend *mockNoteRepository) {
				backend.On("DeleteByID", mock.Anything, oldNote.ID).Return(int64(1), nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, c := mockRedisServer(t)

			backend := new(mockNoteRepository)
			repo := cache.NewNoteRepository(backend, c, time.Minute)
			tt.setup(backend)

			// Первое чтение уже получило строку из хранилища, когда запись завершилась.
			backend.On("FindOne", mock.Anything, filter).Return(oldNote, nil).Once().Run(func(mock.Arguments) {
				require.NoError(t, tt.write(ctx, repo))
			})
			if tt.after != nil {
				backend.On("FindOne", mock.Anything, filter).Return(tt.after, nil).Once()
			} else {
				backend.On("FindOne", mock.Anything, filter).Return(nil, nil).Once()
			}

			stale, err := repo.FindOne(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, "old", stale.Title)
			assert.False(t, s.Exists(cache.NoteKey(oldNote.ID)))

			fresh, err := repo.FindOne(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, tt.after, fresh)

			backend.AssertExpectations(t)
		})
	}
}
