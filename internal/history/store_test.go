package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/filesnap/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{
			name:   "creates database successfully",
			dbPath: filepath.Join(t.TempDir(), "history.db"),
		},
		{
			name:   "handles in-memory database",
			dbPath: ":memory:",
		},
		{
			name:   "creates parent directories if needed",
			dbPath: filepath.Join(t.TempDir(), "nested", "dir", "history.db"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			runs, err := store.ListRuns(context.Background(), 0)
			require.NoError(t, err)
			assert.Empty(t, runs)
		})
	}
}

func TestRecordRun_AssignsUUID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		BaseDir:      "/work",
		ManifestPath: "manifest.json",
		FileCount:    3,
		Fingerprint:  "abc",
		PatternText:  "**\n!*.log",
		Hashed:       true,
		Status:       models.StatusSucceeded,
		Duration:     1500 * time.Millisecond,
	}
	require.NoError(t, store.RecordRun(ctx, run))

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.False(t, run.StartedAt.IsZero())

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "/work", got.BaseDir)
	assert.Equal(t, 3, got.FileCount)
	assert.Equal(t, "**\n!*.log", got.PatternText)
	assert.True(t, got.Hashed)
	assert.True(t, got.Succeeded())
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
}

func TestListRuns_MostRecentFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordRun(ctx, &Run{
			ID:           string(rune('a' + i)),
			BaseDir:      "/work",
			ManifestPath: "manifest.json",
			Status:       models.StatusSucceeded,
			StartedAt:    base.Add(time.Duration(i) * time.Minute),
			FinishedAt:   base.Add(time.Duration(i)*time.Minute + time.Second),
		}))
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"e", "d", "c"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestLatestSuccessful(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	latest, err := store.LatestSuccessful(ctx, "manifest.json")
	require.NoError(t, err)
	assert.Nil(t, latest)

	records := []*Run{
		{ID: "old-ok", ManifestPath: "manifest.json", Status: models.StatusSucceeded, Fingerprint: "f1", StartedAt: base},
		{ID: "new-ok", ManifestPath: "manifest.json", Status: models.StatusSucceeded, Fingerprint: "f2", StartedAt: base.Add(time.Minute)},
		{ID: "newest-failed", ManifestPath: "manifest.json", Status: models.StatusFailed, ErrorKind: "hash read failure", ErrorMessage: "boom", StartedAt: base.Add(2 * time.Minute)},
		{ID: "other-dest", ManifestPath: "other.json", Status: models.StatusSucceeded, StartedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		r.BaseDir = "/work"
		r.FinishedAt = r.StartedAt
		require.NoError(t, store.RecordRun(ctx, r))
	}

	latest, err = store.LatestSuccessful(ctx, "manifest.json")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "new-ok", latest.ID)
	assert.Equal(t, "f2", latest.Fingerprint)

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	var failed *Run
	for _, r := range runs {
		if r.ID == "newest-failed" {
			failed = r
		}
	}
	require.NotNil(t, failed)
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "hash read failure", failed.ErrorKind)
	assert.Equal(t, "boom", failed.ErrorMessage)
}

func TestRecordRun_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &Run{ID: "same", ManifestPath: "m.json", Status: models.StatusSucceeded}
	require.NoError(t, store.RecordRun(ctx, run))
	assert.Error(t, store.RecordRun(ctx, &Run{ID: "same", ManifestPath: "m.json", Status: models.StatusSucceeded}))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(ctx, &Run{ManifestPath: "m.json", Status: models.StatusSucceeded}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
