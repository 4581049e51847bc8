package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage/memory"
)

func newService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestAddPrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 100, Focus: "first"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "alice", models.HistoryEntry{ID: 200, Focus: "second"})
	require.NoError(t, err)

	entries, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Focus)
	assert.Equal(t, "first", entries[1].Focus)
}

func TestAddKeepsIDsUnique(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	first, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 100})
	require.NoError(t, err)
	second, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 100})
	require.NoError(t, err)

	assert.Equal(t, int64(100), first.ID)
	assert.Equal(t, int64(101), second.ID)
}

func TestHistoryIsPerIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 1})
	require.NoError(t, err)

	bob, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob)
	assert.NotNil(t, bob)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	for _, id := range []int64{1, 2, 3} {
		_, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: id})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, "alice", 2))
	entries, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ID)
	assert.Equal(t, int64(1), entries[1].ID)

	err = svc.Delete(ctx, "alice", 2)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "bob", models.HistoryEntry{ID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "alice"))
	alice, _ := svc.List(ctx, "alice")
	bob, _ := svc.List(ctx, "bob")
	assert.Empty(t, alice)
	assert.Len(t, bob, 1)
}

func TestListBackfillsDefaults(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	require.NoError(t, store.Save(ctx, "alice", []models.HistoryEntry{{
		ID:        1,
		TestCases: []models.TestCase{{ID: "TC_001", Scenario: "legacy record"}},
	}}))

	entries, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	tc := entries[0].TestCases[0]
	assert.Equal(t, models.DomainFunctional, tc.Domain)
	assert.Equal(t, models.SuiteRegression, tc.SuiteType)
	assert.Equal(t, models.TypePositive, tc.Type)
}

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, string) ([]models.HistoryEntry, error) {
	return nil, f.err
}

func (f failingStore) Save(context.Context, string, []models.HistoryEntry) error {
	return f.err
}

func (f failingStore) Update(context.Context, string, func([]models.HistoryEntry) ([]models.HistoryEntry, error)) error {
	return f.err
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(failingStore{err: boom}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.List(context.Background(), "alice")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Add(context.Background(), "alice", models.HistoryEntry{ID: 1})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Clear(context.Background(), "alice"), boom)
	assert.ErrorIs(t, svc.Delete(context.Background(), "alice", 1), boom)
}

// slowStore delays every read so that unserialized load-modify-save cycles overlap.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, identity string) ([]models.HistoryEntry, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, identity)
}

func (s slowStore) Update(ctx context.Context, identity string, fn func([]models.HistoryEntry) ([]models.HistoryEntry, error)) error {
	return s.Store.Update(ctx, identity, func(entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
		time.Sleep(2 * time.Millisecond)
		return fn(entries)
	})
}

func TestConcurrentAddsKeepEveryEntry(t *testing.T) {
	ctx := context.Background()
	svc := NewService(slowStore{memory.NewStore()}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	const writers = 8
	var wg sync.WaitGroup
	saved := make([]int64, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: int64(1000 + i)})
			assert.NoError(t, err)
			saved[i] = entry.ID
		}()
	}
	wg.Wait()

	entries, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, writers)

	stored := make(map[int64]bool, writers)
	for _, e := range entries {
		stored[e.ID] = true
	}
	require.Len(t, stored, writers, "entry ids must stay unique")
	for _, id := range saved {
		assert.True(t, stored[id], "entry %d returned by Add is missing from history", id)
	}
}

func TestConcurrentAddAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(slowStore{memory.NewStore()}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Add(ctx, "alice", models.HistoryEntry{ID: 50})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, svc.Delete(ctx, "alice", 1))
	}()
	wg.Wait()

	entries, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(50), entries[0].ID)
}
