package kvstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) Store {
	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = database.Exec(Schema)
	require.NoError(t, err)
	return NewStore(database)
}

func TestGetMissingKeys(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	values, err := store.Get(ctx, "campaigns", "inventory")
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestSetMergeOverlay(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := store.SetMerge(ctx, map[string]any{
		"campaigns":   []string{"a", "b"},
		"lastUpdated": "2024-06-01T00:00:00Z",
	})
	require.NoError(t, err)

	// a later write naming only one key must not clobber the other
	err = store.SetMerge(ctx, map[string]any{
		"lastUpdated": "2024-06-02T00:00:00Z",
	})
	require.NoError(t, err)

	var campaigns []string
	found, err := store.GetJSON(ctx, "campaigns", &campaigns)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"a", "b"}, campaigns)

	var lastUpdated string
	found, err = store.GetJSON(ctx, "lastUpdated", &lastUpdated)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2024-06-02T00:00:00Z", lastUpdated)
}

func TestClear(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetMerge(ctx, map[string]any{"inventory": 1}))
	require.NoError(t, store.Clear(ctx))

	values, err := store.Get(ctx, "inventory")
	require.NoError(t, err)
	require.Empty(t, values)
}
