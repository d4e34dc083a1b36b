package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/tasksync/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadEntriesAbsent(t *testing.T) {
	db := openTestDB(t)

	entries, ok, err := db.LoadEntries(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, entries)
}

func TestSaveAndLoadEntries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := []model.Entry{
		{ID: "1", Description: "buy milk"},
		{ID: "2", Description: "walk dog", Completed: true},
		{ID: "3", Description: "buy milk", Editing: true},
	}
	require.NoError(t, db.SaveEntries(ctx, "list", want))

	got, ok, err := db.LoadEntries(ctx, "list")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSaveEmptyListIsPresent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveEntries(ctx, "list", nil))

	got, ok, err := db.LoadEntries(ctx, "list")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestSaveEntriesReplaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveEntries(ctx, "list", []model.Entry{
		{ID: "1", Description: "a"},
		{ID: "2", Description: "b"},
		{ID: "3", Description: "c"},
	}))
	require.NoError(t, db.SaveEntries(ctx, "list", []model.Entry{
		{ID: "3", Description: "c"},
	}))

	got, _, err := db.LoadEntries(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{{ID: "3", Description: "c"}}, got)
}

func TestSaveEntriesHonorsCancelledContext(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveEntries(context.Background(), "self", []model.Entry{{ID: "1", Description: "kept"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := db.SaveEntries(ctx, "self", []model.Entry{{ID: "2", Description: "dropped"}})
	assert.ErrorIs(t, err, context.Canceled)

	entries, ok, err := db.LoadEntries(context.Background(), "self")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []model.Entry{{ID: "1", Description: "kept"}}, entries)
}

func TestKeysAreIsolated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveEntries(ctx, "one", []model.Entry{{ID: "1", Description: "a"}}))
	require.NoError(t, db.SaveEntries(ctx, "two", []model.Entry{{ID: "2", Description: "b"}}))

	one, _, err := db.LoadEntries(ctx, "one")
	require.NoError(t, err)
	two, _, err := db.LoadEntries(ctx, "two")
	require.NoError(t, err)

	assert.Equal(t, "a", one[0].Description)
	assert.Equal(t, "b", two[0].Description)
}

func TestDeleteListCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveEntries(ctx, "list", []model.Entry{{ID: "1", Description: "a"}}))
	require.NoError(t, db.DeleteList(ctx, "list"))

	_, ok, err := db.LoadEntries(ctx, "list")
	require.NoError(t, err)
	assert.False(t, ok)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count))
	assert.Zero(t, count)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveEntries(ctx, "list", []model.Entry{{ID: "1", Description: "a"}}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, ok, err := db.LoadEntries(ctx, "list")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, got, 1)
}

// TestSaveWhileLoadingNoDeadlock guards against holding the single
// connection (SetMaxOpenConns(1)) across the load and the save transaction.
func TestSaveWhileLoadingNoDeadlock(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveEntries(ctx, "list", []model.Entry{{ID: "1", Description: "a"}}))

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			entries, _, err := db.LoadEntries(ctx, "list")
			if err != nil {
				done <- err
				return
			}
			entries = append(entries, model.Entry{ID: "x", Description: "more"})
			if err := db.SaveEntries(ctx, "list", entries); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}
