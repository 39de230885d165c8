package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoDatabase(t *testing.T) *DB {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	db, err := New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.CreateSchema(context.Background()))
	return db
}

func TestNew_EmptyURL(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	db := skipIfNoDatabase(t)
	ctx := context.Background()

	run := &Run{
		RunID:     uuid.New(),
		Names:     []string{"Alice", "Bob"},
		ModelPath: "model.json",
		Score:     0.5,
		Rows: []Prediction{
			{GameID: 1001, Name: "Alice", Predicted: 1, PLoss: 0.2, PWin: 0.8, Actual: 1},
			{GameID: 1002, Name: "Bob", Predicted: 1, PLoss: 0.4, PWin: 0.6, Actual: 0},
		},
	}
	require.NoError(t, db.SaveRun(ctx, run))

	got, err := db.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Names, got.Names)
	assert.Equal(t, run.Score, got.Score)
	assert.Equal(t, run.Rows, got.Rows)

	count, err := db.GetRunCount(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}
