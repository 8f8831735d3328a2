package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekeeper/internal/notes/app"
	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/domain/errs"
	"notekeeper/internal/notes/ports/repositories"
)

var errTransient = errors.New("transient failure")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := newCircuitBreaker("test", CircuitBreakerConfig{
		ErrorThreshold:   2,
		Timeout:          time.Second,
		SuccessThreshold: 2,
	}, clock.Now)

	fail := func() error { return errTransient }
	ok := func() error { return nil }

	require.ErrorIs(t, cb.Execute(ctx, fail), errTransient)
	assert.Equal(t, StateClosed, cb.State())
	require.ErrorIs(t, cb.Execute(ctx, fail), errTransient)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock.Advance(time.Second)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	cb := newCircuitBreaker("test", CircuitBreakerConfig{ErrorThreshold: 1, Timeout: time.Second, SuccessThreshold: 1}, clock.Now)

	_ = cb.Execute(ctx, func() error { return errTransient })
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(2 * time.Second)
	_ = cb.Execute(ctx, func() error { return errTransient })
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{ErrorThreshold: 2, Timeout: time.Minute, SuccessThreshold: 1})

	_ = cb.Execute(ctx, func() error { return errTransient })
	_ = cb.Execute(ctx, func() error { return nil })
	_ = cb.Execute(ctx, func() error { return errTransient })
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := NewRetry("test", fastRetry()).Execute(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsAtMaxAttempts(t *testing.T) {
	attempts := 0
	err := NewRetry("test", fastRetry()).Execute(context.Background(), func() error {
		attempts++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, attempts)
}

func TestRetry_DoesNotRetryContextErrors(t *testing.T) {
	attempts := 0
	err := NewRetry("test", fastRetry()).Execute(context.Background(), func() error {
		attempts++
		return context.DeadlineExceeded
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestRetry_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry()
	cfg.InitialBackoff = time.Hour

	err := NewRetry("test", cfg).Execute(ctx, func() error {
		cancel()
		return errTransient
	})

	require.ErrorIs(t, err, ErrContextCanceled)
	require.ErrorIs(t, err, context.Canceled)
}

type countingRepo struct {
	failures int
	calls    map[string]int
}

func newCountingRepo(failures int) *countingRepo {
	return &countingRepo{failures: failures, calls: map[string]int{}}
}

func (r *countingRepo) step(op string) error {
	r.calls[op]++
	if r.calls[op] <= r.failures {
		return errTransient
	}
	return nil
}

func (r *countingRepo) InsertOne(context.Context, *entities.Note) error {
	return r.step("InsertOne")
}

func (r *countingRepo) FindOne(context.Context, repositories.NoteFilter) (*entities.Note, error) {
	if err := r.step("FindOne"); err != nil {
		return nil, err
	}
	return &entities.Note{Title: "found"}, nil
}

func (r *countingRepo) FindMany(context.Context, repositories.NoteFilter, repositories.FindOptions) ([]*entities.Note, error) {
	if err := r.step("FindMany"); err != nil {
		return nil, err
	}
	return []*entities.Note{{Title: "a"}}, nil
}

func (r *countingRepo) UpdateByID(context.Context, uuid.UUID, entities.NoteUpdate, int64) (int64, error) {
	if err := r.step("UpdateByID"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *countingRepo) DeleteByID(context.Context, uuid.UUID) (int64, error) {
	if err := r.step("DeleteByID"); err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *countingRepo) Ping(context.Context) error {
	return r.step("Ping")
}

func testBreaker() CircuitBreakerConfig {
	return CircuitBreakerConfig{ErrorThreshold: 10, Timeout: time.Minute, SuccessThreshold: 1}
}

func TestNoteRepository_CallsBackendOnce(t *testing.T) {
	ctx := context.Background()
	backend := newCountingRepo(1)
	repo := NewNoteRepository("notes", backend, testBreaker())

	_, err := repo.FindOne(ctx, repositories.NoteFilter{})
	require.ErrorIs(t, err, errTransient)
	_, err = repo.FindMany(ctx, repositories.NoteFilter{}, repositories.FindOptions{})
	require.ErrorIs(t, err, errTransient)
	require.ErrorIs(t, repo.Ping(ctx), errTransient)
	require.ErrorIs(t, repo.InsertOne(ctx, &entities.Note{}), errTransient)
	_, err = repo.UpdateByID(ctx, uuid.New(), entities.NoteUpdate{}, 1)
	require.ErrorIs(t, err, errTransient)
	_, err = repo.DeleteByID(ctx, uuid.New())
	require.ErrorIs(t, err, errTransient)

	for _, op := range []string{"FindOne", "FindMany", "Ping", "InsertOne", "UpdateByID", "DeleteByID"} {
		assert.Equal(t, 1, backend.calls[op], op)
	}

	note, err := repo.FindOne(ctx, repositories.NoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, "found", note.Title)

	matched, err := repo.UpdateByID(ctx, uuid.New(), entities.NoteUpdate{}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
}

func TestNoteStoreSurfacesFirstBackendFailure(t *testing.T) {
	ctx := context.Background()
	backend := newCountingRepo(1)
	store := app.NewNoteStore(NewNoteRepository("notes", backend, DefaultCircuitBreakerConfig()))

	_, err := store.GetByID(ctx, uuid.New())

	require.ErrorIs(t, err, errs.Storage)
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, backend.calls["FindOne"])
}

func TestNoteRepository_OpenBreakerShortCircuits(t *testing.T) {
	ctx := context.Background()
	backend := newCountingRepo(100)
	cfg := testBreaker()
	cfg.ErrorThreshold = 2
	repo := NewNoteRepository("notes", backend, cfg)

	for i := 0; i < 2; i++ {
		_, err := repo.FindOne(ctx, repositories.NoteFilter{})
		require.ErrorIs(t, err, errTransient)
	}
	assert.Equal(t, StateOpen, repo.Breaker().State())

	_, err := repo.FindOne(ctx, repositories.NoteFilter{})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, backend.calls["FindOne"])

	err = repo.InsertOne(ctx, &entities.Note{})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, backend.calls["InsertOne"])
}

type flakyNoteService struct {
	failures int
	err      error
	calls    map[string]int
}

func newFlakyNoteService(failures int, err error) *flakyNoteService {
	return &flakyNoteService{failures: failures, err: err, calls: map[string]int{}}
}

func (s *flakyNoteService) step(op string) error {
	s.calls[op]++
	if s.calls[op] <= s.failures {
		return s.err
	}
	return nil
}

func (s *flakyNoteService) Create(context.Context, string, string, []entities.Tag) (uuid.UUID, error) {
	return uuid.Nil, s.step("Create")
}

func (s *flakyNoteService) Delete(context.Context, uuid.UUID) error {
	return s.step("Delete")
}

func (s *flakyNoteService) Update(context.Context, uuid.UUID, entities.NoteUpdate) error {
	return s.step("Update")
}

func (s *flakyNoteService) GetByID(context.Context, uuid.UUID) (*entities.Note, error) {
	if err := s.step("GetByID"); err != nil {
		return nil, err
	}
	return &entities.Note{Title: "found"}, nil
}

func (s *flakyNoteService) GetByTitle(context.Context, string) (*entities.Note, error) {
	if err := s.step("GetByTitle"); err != nil {
		return nil, err
	}
	return &entities.Note{Title: "found"}, nil
}

func (s *flakyNoteService) FindByTags(context.Context, []entities.Tag) ([]*entities.Note, error) {
	if err := s.step("FindByTags"); err != nil {
		return nil, err
	}
	return []*entities.Note{}, nil
}

func (s *flakyNoteService) ListPage(context.Context, uint) ([]*entities.NotePreview, error) {
	if err := s.step("ListPage"); err != nil {
		return nil, err
	}
	return []*entities.NotePreview{}, nil
}

func (s *flakyNoteService) Ping(context.Context) error {
	return s.step("Ping")
}

func TestNoteService_RetriesStorageReads(t *testing.T) {
	ctx := context.Background()
	next := newFlakyNoteService(1, errs.E(errs.Storage, "NoteStore.GetByID", errTransient))
	svc := NewNoteService("notes", next, fastRetry())

	note, err := svc.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "found", note.Title)

	_, err = svc.GetByTitle(ctx, "t")
	require.NoError(t, err)
	_, err = svc.FindByTags(ctx, nil)
	require.NoError(t, err)
	_, err = svc.ListPage(ctx, 1)
	require.NoError(t, err)

	for _, op := range []string{"GetByID", "GetByTitle", "FindByTags", "ListPage"} {
		assert.Equal(t, 2, next.calls[op], op)
	}
}

func TestNoteService_DoesNotRetryWritesOrCallerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("writes and ping", func(t *testing.T) {
		next := newFlakyNoteService(1, errs.E(errs.Storage, "NoteStore", errTransient))
		svc := NewNoteService("notes", next, fastRetry())

		_, err := svc.Create(ctx, "t", "", nil)
		require.ErrorIs(t, err, errs.Storage)
		require.ErrorIs(t, svc.Update(ctx, uuid.New(), entities.NoteUpdate{}), errs.Storage)
		require.ErrorIs(t, svc.Delete(ctx, uuid.New()), errs.Storage)
		require.ErrorIs(t, svc.Ping(ctx), errs.Storage)

		for _, op := range []string{"Create", "Update", "Delete", "Ping"} {
			assert.Equal(t, 1, next.calls[op], op)
		}
	})

	t.Run("invalid argument", func(t *testing.T) {
		next := newFlakyNoteService(1, errs.E(errs.InvalidArgument, "NoteStore.ListPage", nil))
		svc := NewNoteService("notes", next, fastRetry())

		_, err := svc.ListPage(ctx, 0)
		require.ErrorIs(t, err, errs.InvalidArgument)
		assert.Equal(t, 1, next.calls["ListPage"])
	})

	t.Run("open breaker", func(t *testing.T) {
		next := newFlakyNoteService(1, errs.E(errs.Storage, "NoteStore.GetByID", ErrCircuitOpen))
		svc := NewNoteService("notes", next, fastRetry())

		_, err := svc.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, 1, next.calls["GetByID"])
	})

	t.Run("single attempt", func(t *testing.T) {
		next := newFlakyNoteService(1, errs.E(errs.Storage, "NoteStore.GetByID", errTransient))
		cfg := fastRetry()
		cfg.MaxAttempts = 1
		svc := NewNoteService("notes", next, cfg)

		_, err := svc.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 1, next.calls["GetByID"])
	})
}
