// Package archive keeps normalized feature rows in a SQL store, a local SQLite file
// or a remote libSQL (Turso) database, so past runs can be re-scored.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"teemo/internal/features"
)

// Supported drivers
const (
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
)

// Entry is one archived observation
type Entry struct {
	GameID int64
	Slot   int
	Name   string
	Row    features.Row
}

// Store is a feature row archive
type Store struct {
	db *sql.DB
}

// Open connects to the archive. dsn is a file path or ":memory:" for sqlite and a
// libsql:// URL (authToken in the query) for libsql.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverLibSQL:
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if driver == DriverSQLite {
		// one writer; also keeps an in-memory database on a single connection
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the archive connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the required tables if they don't exist
func (s *Store) CreateTables(ctx context.Context) error {
	cols := make([]string, 0, features.NumColumns)
	for _, c := range features.Columns {
		cols = append(cols, fmt.Sprintf("%s REAL NOT NULL DEFAULT 0", c))
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			row_count INTEGER NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS feature_rows (
			run_id TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			game_id INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			summoner_name TEXT NOT NULL,
			%s,
			PRIMARY KEY (run_id, row_index)
		)`, strings.Join(cols, ",\n\t\t\t")),
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

var insertRowSQL = func() string {
	cols := append([]string{"run_id", "row_index", "game_id", "slot", "summoner_name"}, features.Columns[:]...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO feature_rows (%s) VALUES (%s)", strings.Join(cols, ", "), marks)
}()

// SaveRun stores a run and its entries in order. Nothing is kept when any insert fails.
func (s *Store) SaveRun(ctx context.Context, runID string, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, row_count) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), len(entries)); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRowSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		args := make([]any, 0, 5+features.NumColumns)
		args = append(args, runID, i, e.GameID, e.Slot, e.Name)
		for _, v := range e.Row {
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadRun returns a run's entries in their original order
func (s *Store) LoadRun(ctx context.Context, runID string) ([]Entry, error) {
	query := fmt.Sprintf(
		"SELECT game_id, slot, summoner_name, %s FROM feature_rows WHERE run_id = ? ORDER BY row_index",
		strings.Join(features.Columns[:], ", "))

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		dest := make([]any, 0, 3+features.NumColumns)
		dest = append(dest, &e.GameID, &e.Slot, &e.Name)
		for i := range e.Row {
			dest = append(dest, &e.Row[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Table rebuilds a feature table from archived entries
func Table(entries []Entry) features.Table {
	t := features.Table{
		Columns: append([]string(nil), features.Columns[:]...),
		Rows:    make([]features.Row, 0, len(entries)),
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, e.Row)
	}
	return t
}

// RunIDs returns every archived run, newest first
func (s *Store) RunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
