package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Run is one logged prediction run
type Run struct {
	RunID     uuid.UUID
	CreatedAt time.Time
	Names     []string
	ModelPath string
	Score     float64
	Rows      []Prediction
}

// Prediction is the model's output for one observation
type Prediction struct {
	GameID    int64
	Name      string
	Predicted int
	PLoss     float64
	PWin      float64
	Actual    int
}

// SaveRun stores a run and its predictions in one transaction
func (db *DB) SaveRun(ctx context.Context, run *Run) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO prediction_runs (run_id, names, model_path, row_count, score)
		VALUES ($1, $2, $3, $4, $5)
	`, run.RunID, run.Names, run.ModelPath, len(run.Rows), run.Score)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"predictions"},
		[]string{"run_id", "row_index", "game_id", "summoner_name", "predicted", "p_loss", "p_win", "actual"},
		pgx.CopyFromSlice(len(run.Rows), func(i int) ([]any, error) {
			p := run.Rows[i]
			return []any{run.RunID, i, p.GameID, p.Name, int16(p.Predicted), p.PLoss, p.PWin, int16(p.Actual)}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy predictions for run %s: %w", run.RunID, err)
	}

	return tx.Commit(ctx)
}

// GetRun loads a run and its predictions in row order
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run := &Run{RunID: runID}
	err := db.pool.QueryRow(ctx, `
		SELECT created_at, names, model_path, score FROM prediction_runs WHERE run_id = $1
	`, runID).Scan(&run.CreatedAt, &run.Names, &run.ModelPath, &run.Score)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, `
		SELECT game_id, summoner_name, predicted, p_loss, p_win, actual
		FROM predictions WHERE run_id = $1 ORDER BY row_index
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Prediction
		var predicted, actual int16
		if err := rows.Scan(&p.GameID, &p.Name, &predicted, &p.PLoss, &p.PWin, &actual); err != nil {
			return nil, err
		}
		p.Predicted, p.Actual = int(predicted), int(actual)
		run.Rows = append(run.Rows, p)
	}
	return run, rows.Err()
}

// GetRunCount returns the total number of logged runs
func (db *DB) GetRunCount(ctx context.Context) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prediction_runs`).Scan(&count)
	return count, err
}
