package versions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "versions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndListVersions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	orig, err := store.EnsureOriginal(ctx, "item-1", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, OriginalNumber, orig.Number)
	assert.Equal(t, "Original", orig.Label())

	// EnsureOriginal is idempotent and keeps the first URL.
	again, err := store.EnsureOriginal(ctx, "item-1", "https://cdn.example.com/other.png")
	require.NoError(t, err)
	assert.Equal(t, orig.URL, again.URL)

	v1, err := store.AddVersion(ctx, "item-1", "file:///tmp/v1.png")
	require.NoError(t, err)
	v2, err := store.AddVersion(ctx, "item-1", "file:///tmp/v2.png")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Number)
	assert.Equal(t, 2, v2.Number)
	assert.Equal(t, "v2", v2.Label())

	other, err := store.AddVersion(ctx, "item-2", "file:///tmp/x.png")
	require.NoError(t, err)
	assert.Equal(t, 1, other.Number, "items without an original start at 1")

	list, err := store.ListVersions(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{list[0].Number, list[1].Number, list[2].Number})
	assert.Equal(t, "file:///tmp/v1.png", list[1].URL)
	assert.False(t, list[1].CreatedAt.IsZero())
}

func TestRemoveVersion(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.EnsureOriginal(ctx, "item", "orig")
	require.NoError(t, err)
	_, err = store.AddVersion(ctx, "item", "one")
	require.NoError(t, err)
	_, err = store.AddVersion(ctx, "item", "two")
	require.NoError(t, err)

	require.NoError(t, store.RemoveVersion(ctx, "item", 1))
	assert.ErrorIs(t, store.RemoveVersion(ctx, "item", 1), ErrNotFound)
	assert.ErrorIs(t, store.RemoveVersion(ctx, "item", OriginalNumber), ErrOriginal)

	// Numbers are never reused below the highest live version.
	v, err := store.AddVersion(ctx, "item", "three")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Number)

	list, err := store.ListVersions(ctx, "item")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestRemoveLatestDoesNotReuseNumber(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.AddVersion(ctx, "item", "one")
	require.NoError(t, err)
	_, err = store.AddVersion(ctx, "item", "two")
	require.NoError(t, err)
	require.NoError(t, store.RemoveVersion(ctx, "item", 2))

	v, err := store.AddVersion(ctx, "item", "three")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Number, "v2 stays retired after removal")

	require.NoError(t, store.RemoveVersion(ctx, "item", 3))
	require.NoError(t, store.RemoveVersion(ctx, "item", 1))
	v, err = store.AddVersion(ctx, "item", "four")
	require.NoError(t, err)
	assert.Equal(t, 4, v.Number, "an item emptied of versions keeps counting")

	other, err := store.AddVersion(ctx, "other", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, other.Number, "counters are per item")
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = store.AddVersion(ctx, "item", "one")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	list, err := store.ListVersions(ctx, "item")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(ctx, path)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}
