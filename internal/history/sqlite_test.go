package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snapshot := &Snapshot{Kind: KindSite, Theme: "modern", HTML: "<html>v1</html>"}
	require.NoError(t, store.Save(ctx, snapshot))
	assert.NotEqual(t, uuid.Nil, snapshot.ID)
	assert.False(t, snapshot.CreatedAt.IsZero())

	got, err := store.Get(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Kind, got.Kind)
	assert.Equal(t, snapshot.Theme, got.Theme)
	assert.Equal(t, snapshot.HTML, got.HTML)
	assert.WithinDuration(t, snapshot.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestSaveUpsertsByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snapshot := &Snapshot{Kind: KindSite, HTML: "<html>v1</html>"}
	require.NoError(t, store.Save(ctx, snapshot))

	snapshot.HTML = "<html>v2</html>"
	require.NoError(t, store.Save(ctx, snapshot))

	got, err := store.Get(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, "<html>v2</html>", got.HTML)

	all, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersAndOrders(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{KindSite, KindResume, KindSite} {
		require.NoError(t, store.Save(ctx, &Snapshot{
			Kind:      kind,
			HTML:      "<html></html>",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	sites, err := store.List(ctx, KindSite, 10)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.True(t, sites[0].CreatedAt.After(sites[1].CreatedAt))

	all, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := store.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snapshot := &Snapshot{Kind: KindResume, HTML: "<html></html>"}
	require.NoError(t, store.Save(ctx, snapshot))
	require.NoError(t, store.Delete(ctx, snapshot.ID))

	_, err := store.Get(ctx, snapshot.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is fine.
	assert.NoError(t, store.Delete(ctx, snapshot.ID))
}

func TestMigrationIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer store.Close()

	version, err := getUserVersion(store.db)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}
