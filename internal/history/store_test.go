package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/etransfer-sync/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore("")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	runs := []model.SyncRun{
		{
			ID:            "run-1",
			Mode:          model.RunModeRobot,
			Status:        model.RunStatusSucceeded,
			StartedAt:     base,
			FinishedAt:    base.Add(30 * time.Second),
			MessagesFound: 5,
			Parsed:        5,
			Duplicates:    3,
			NewRows:       2,
			Appended:      2,
		},
		{
			ID:         "run-2",
			Mode:       model.RunModeManual,
			Status:     model.RunStatusFailed,
			Error:      "failed to read ledger: boom",
			StartedAt:  base.Add(time.Hour),
			FinishedAt: base.Add(time.Hour + 10*time.Second),
		},
	}
	for i := range runs {
		require.NoError(t, store.RecordRun(ctx, &runs[i]))
	}

	listed, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// Newest first.
	assert.Equal(t, "run-2", listed[0].ID)
	assert.Equal(t, model.RunStatusFailed, listed[0].Status)
	assert.Equal(t, "failed to read ledger: boom", listed[0].Error)

	assert.Equal(t, "run-1", listed[1].ID)
	assert.Equal(t, model.RunModeRobot, listed[1].Mode)
	assert.Equal(t, 5, listed[1].MessagesFound)
	assert.Equal(t, 3, listed[1].Duplicates)
	assert.Equal(t, 2, listed[1].Appended)
	assert.Equal(t, base, listed[1].StartedAt.UTC())
}

func TestRecordRunAssignsID(t *testing.T) {
	store := newTestStore(t)

	run := &model.SyncRun{
		Mode:      model.RunModeManual,
		Status:    model.RunStatusDryRun,
		StartedAt: time.Now(),
	}
	require.NoError(t, store.RecordRun(context.Background(), run))
	assert.NotEmpty(t, run.ID)
}

func TestRecordRunRejectsNil(t *testing.T) {
	store := newTestStore(t)
	require.Error(t, store.RecordRun(context.Background(), nil))
}

func TestRecentRunsHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := &model.SyncRun{
			Mode:      model.RunModeRobot,
			Status:    model.RunStatusSucceeded,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.RecordRun(ctx, run))
	}

	listed, err := store.RecentRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}
