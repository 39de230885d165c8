package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teemo/internal/features"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.CreateTables(context.Background()))
	return store
}

func entries(n int) []Entry {
	stats := make([]features.Stats, n)
	for i := range stats {
		stats[i] = features.Stats{"win": i%2 == 0, "kills": i, "champLevel": 10 + i, "firstBloodKill": true}
	}
	table := features.Normalize(stats)

	out := make([]Entry, len(table.Rows))
	for i, row := range table.Rows {
		out[i] = Entry{GameID: int64(500 + i), Slot: i % 10, Name: "Alice", Row: row}
	}
	return out
}

func TestStore_SaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	want := entries(3)

	require.NoError(t, store.SaveRun(ctx, "run-a", want))

	got, err := store.LoadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	table := Table(got)
	assert.Equal(t, features.Columns[:], table.Columns)
	assert.Equal(t, []float64{10, 11, 12}, table.Column("champlvl"))
}

func TestStore_SavesLargeRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	want := entries(250)

	require.NoError(t, store.SaveRun(ctx, "run-big", want))

	got, err := store.LoadRun(ctx, "run-big")
	require.NoError(t, err)
	require.Len(t, got, 250)
	assert.Equal(t, want[249], got[249])
}

func TestStore_FailedSaveKeepsNothing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `CREATE TRIGGER fail_row BEFORE INSERT ON feature_rows
		WHEN NEW.row_index = 150 BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	require.NoError(t, err)

	err = store.SaveRun(ctx, "run-x", entries(250))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert row 150")

	ids, err := store.RunIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	got, err := store.LoadRun(ctx, "run-x")
	require.NoError(t, err)
	assert.Empty(t, got)

	// The same run ID is free for a retry
	_, err = store.db.ExecContext(ctx, `DROP TRIGGER fail_row`)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(ctx, "run-x", entries(250)))
	got, err = store.LoadRun(ctx, "run-x")
	require.NoError(t, err)
	assert.Len(t, got, 250)
}

func TestStore_RunsAreSeparate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, "run-a", entries(2)))
	require.NoError(t, store.SaveRun(ctx, "run-b", entries(1)))

	a, err := store.LoadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, a, 2)

	ids, err := store.RunIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-a", "run-b"}, ids)

	missing, err := store.LoadRun(ctx, "run-z")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStore_DuplicateRunRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, "run-a", entries(1)))
	assert.Error(t, store.SaveRun(ctx, "run-a", entries(1)))
}

func TestStore_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	store, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, store.CreateTables(ctx))
	require.NoError(t, store.SaveRun(ctx, "run-a", entries(2)))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}
