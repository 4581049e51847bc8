package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/storage"
)

func TestHistoryIsScopedPerIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Save(ctx, "alice", []models.HistoryEntry{{ID: 1}, {ID: 2}}))
	require.NoError(t, s.Save(ctx, "bob", []models.HistoryEntry{{ID: 3}}))

	alice, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	bob, err := s.Load(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, int64(3), bob[0].ID)

	none, err := s.Load(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Error(t, s.Save(ctx, "", nil))
}

func TestUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "alice", func(entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
				time.Sleep(time.Millisecond)
				return append(entries, models.HistoryEntry{ID: int64(i)}), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestUpdateErrorLeavesListUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Save(ctx, "alice", []models.HistoryEntry{{ID: 1}}))

	boom := errors.New("abort")
	err := s.Update(ctx, "alice", func(entries []models.HistoryEntry) ([]models.HistoryEntry, error) {
		entries[0].ID = 99
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := s.Load(ctx, "alice")
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	assert.Error(t, s.Update(ctx, "", func(e []models.HistoryEntry) ([]models.HistoryEntry, error) { return e, nil }))
}

func TestLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Save(ctx, "alice", []models.HistoryEntry{{ID: 1}}))

	got, _ := s.Load(ctx, "alice")
	got[0].ID = 99

	again, _ := s.Load(ctx, "alice")
	assert.Equal(t, int64(1), again[0].ID)
}

func TestArtifactRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	url, err := s.StoreArtifact(ctx, "alice/job-1/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "memory://alice/job-1/a.png", url)

	data, ct, err := s.GetArtifact(ctx, "alice/job-1/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, "image/png", ct)

	_, _, err = s.GetArtifact(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJobLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.CreatePendingJob(ctx, &models.GenerationJob{ID: "j1", Identity: "alice", Status: "whatever"}))
	job, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, job.Status)

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", models.JobRunning))
	job, _ = s.GetJob(ctx, "j1")
	assert.Equal(t, models.JobRunning, job.Status)
	assert.Equal(t, fixed, job.StartedAt)

	require.NoError(t, s.CompleteJob(ctx, "j1", 42))
	job, _ = s.GetJob(ctx, "j1")
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, int64(42), job.EntryID)
	assert.Equal(t, fixed, job.EndedAt)

	require.NoError(t, s.CreatePendingJob(ctx, &models.GenerationJob{ID: "j2", Identity: "alice"}))
	require.NoError(t, s.FailJob(ctx, "j2", "model unavailable"))
	job, _ = s.GetJob(ctx, "j2")
	assert.Equal(t, models.JobFailed, job.Status)
	assert.Equal(t, "model unavailable", job.Error)

	_, err = s.GetJob(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.FailJob(ctx, "nope", "x"), storage.ErrNotFound)
	assert.Error(t, s.CreatePendingJob(ctx, &models.GenerationJob{ID: "j3"}))
}
