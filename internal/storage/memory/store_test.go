package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prismql/prism/internal/storage"
)

func TestStore_PersistedQueries(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.GetQuery(ctx, "deadbeef")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.PutQuery(ctx, "deadbeef", "{ me { id } }"))

	pq, err := store.GetQuery(ctx, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, "{ me { id } }", pq.Query)
}

func TestStore_Runs(t *testing.T) {
	store := New()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, status := range []string{storage.RunStatusOK, storage.RunStatusError} {
		require.NoError(t, store.RecordRun(ctx, &storage.RunRecord{
			ID:        "run-" + string(rune('a'+i)),
			Status:    status,
			Trace:     []string{"document.Parse"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.Equal(t, []string{"document.Parse"}, got.Trace)

	all, err := store.ListRuns(ctx, storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "run-b", all[0].ID)

	failed, err := store.ListRuns(ctx, storage.ListOptions{Status: storage.RunStatusError, Limit: 1})
	require.NoError(t, err)
	require.Len(t, failed, 1)
}
