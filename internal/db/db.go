// Package db is the Postgres prediction log.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool for url
func New(ctx context.Context, url string) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.pool.Close()
}

// CreateSchema creates the prediction log tables if they don't exist
func (db *DB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS prediction_runs (
			run_id UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			names TEXT[] NOT NULL,
			model_path TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			score DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			run_id UUID NOT NULL REFERENCES prediction_runs(run_id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			game_id BIGINT NOT NULL,
			summoner_name TEXT NOT NULL,
			predicted SMALLINT NOT NULL,
			p_loss DOUBLE PRECISION NOT NULL,
			p_win DOUBLE PRECISION NOT NULL,
			actual SMALLINT NOT NULL,
			PRIMARY KEY (run_id, row_index)
		)`,
	}

	for _, q := range queries {
		if _, err := db.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
