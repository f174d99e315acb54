// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a SQLite history of converted files so runs can be
// listed and exported after the fact.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ppm-batch/pkg/types"
)

const defaultLimit = 100

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating the parent
// directory and the schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			format TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			bytes INTEGER NOT NULL,
			converted_at TEXT NOT NULL,
			source_deleted INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_run_id ON conversions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one conversion to the ledger.
func (s *Store) Record(ctx context.Context, c types.Conversion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (run_id, source, output, format, width, height, bytes, converted_at, source_deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Source, c.Output, c.Format, c.Width, c.Height, c.Bytes,
		c.ConvertedAt.UTC().Format(timeLayout), c.SourceDeleted,
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", c.Source, err)
	}
	return nil
}

// ListOptions filters ledger queries. Zero values mean no filter.
type ListOptions struct {
	RunID  string
	Source string
	// Limit caps the number of rows (default 100).
	Limit int
}

// List returns recorded conversions, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Conversion, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT run_id, source, output, format, width, height, bytes, converted_at, source_deleted
		FROM conversions WHERE 1=1`
	var args []any
	if opts.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, opts.RunID)
	}
	if opts.Source != "" {
		query += ` AND source = ?`
		args = append(args, opts.Source)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	out := []types.Conversion{}
	for rows.Next() {
		var (
			c  types.Conversion
			at string
		)
		if err := rows.Scan(&c.RunID, &c.Source, &c.Output, &c.Format,
			&c.Width, &c.Height, &c.Bytes, &at, &c.SourceDeleted); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		c.ConvertedAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parsing converted_at %q: %w", at, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RunSummary aggregates the ledger rows written by one batch run.
type RunSummary struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Conversions int       `json:"conversions" yaml:"conversions"`
	Bytes       int64     `json:"bytes" yaml:"bytes"`
	FirstAt     time.Time `json:"first_at" yaml:"first_at"`
	LastAt      time.Time `json:"last_at" yaml:"last_at"`
}

// Runs returns one summary per run, most recent run first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, count(*), sum(bytes), min(converted_at), max(converted_at), max(id) AS last_id
		 FROM conversions GROUP BY run_id ORDER BY last_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		var (
			r           RunSummary
			first, last string
			lastID      int64
		)
		if err := rows.Scan(&r.RunID, &r.Conversions, &r.Bytes, &first, &last, &lastID); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if r.FirstAt, err = time.Parse(timeLayout, first); err != nil {
			return nil, fmt.Errorf("parsing first_at %q: %w", first, err)
		}
		if r.LastAt, err = time.Parse(timeLayout, last); err != nil {
			return nil, fmt.Errorf("parsing last_at %q: %w", last, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
