package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRecords(n int) []StatsRecord {
	out := make([]StatsRecord, n)
	for i := range out {
		out[i] = StatsRecord{
			RunID:      "run-1",
			GameID:     int64(1000 + i),
			Slot:       i % 10,
			Name:       "Alice",
			ExportedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Stats:      map[string]any{"kills": float64(i), "win": i%2 == 0},
		}
	}
	return out
}

func TestFileRotator_WriteCloseRead(t *testing.T) {
	r, err := NewFileRotator(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleRecords(3)))
	count, name := r.Stats()
	assert.Equal(t, 3, count)
	assert.NotEmpty(t, name)

	require.NoError(t, r.Close())

	warm, err := filepath.Glob(filepath.Join(r.WarmDir(), "*.jsonl"))
	require.NoError(t, err)
	require.Len(t, warm, 1)

	records, err := ReadFile(warm[0])
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(3), records)
}

func TestFileRotator_EmptyWriteCreatesNothing(t *testing.T) {
	base := t.TempDir()
	r, err := NewFileRotator(base, nil)
	require.NoError(t, err)

	require.NoError(t, r.Write(nil))
	require.NoError(t, r.Close())

	for _, dir := range []string{"hot", "warm", "cold"} {
		entries, err := os.ReadDir(filepath.Join(base, dir))
		require.NoError(t, err)
		assert.Empty(t, entries, dir)
	}
}

func TestFileRotator_RotatesWhenFull(t *testing.T) {
	r, err := NewFileRotator(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleRecords(MaxRecordsPerFile+1)))

	warm, err := filepath.Glob(filepath.Join(r.WarmDir(), "*.jsonl"))
	require.NoError(t, err)
	assert.Len(t, warm, 1, "the full file moves to warm")

	count, _ := r.Stats()
	assert.Equal(t, 1, count)
	require.NoError(t, r.Close())
}

func TestFileRotator_CompressWarm(t *testing.T) {
	r, err := NewFileRotator(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Write(sampleRecords(4)))
	require.NoError(t, r.Close())

	cold, err := r.CompressWarm()
	require.NoError(t, err)
	require.Len(t, cold, 1)
	assert.Equal(t, r.ColdDir(), filepath.Dir(cold[0]))

	warm, err := filepath.Glob(filepath.Join(r.WarmDir(), "*.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, warm)

	records, err := ReadFile(cold[0])
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(4), records)
}

func TestReadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"gameId\":1}\n\nnot json\n"), 0o644))

	_, err := ReadFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
