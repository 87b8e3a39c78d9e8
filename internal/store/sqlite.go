package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"constituencies/internal/logging"

	_ "modernc.org/sqlite"
)

// SQLite keeps the latest snapshot in a SQLite database file.
type SQLite struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// OpenSQLite creates or opens a snapshot database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Get(logging.CategoryStore).Info("sqlite snapshot store opened at %s", path)
	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) initSchema() error {
	stmts := []string{
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			fetched_utc TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS provinces (
			name TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS constituencies (
			province TEXT NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (province, position)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get loads the stored snapshot.
func (s *SQLite) Get(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fetched string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_utc FROM snapshot WHERE id = 1`).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, fetched)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot timestamp %q: %w", fetched, err)
	}

	snap := &Snapshot{Provinces: make(map[string][]string), FetchedAt: fetchedAt}

	prows, err := s.db.QueryContext(ctx, `SELECT name FROM provinces`)
	if err != nil {
		return nil, fmt.Errorf("failed to read provinces: %w", err)
	}
	for prows.Next() {
		var name string
		if err := prows.Scan(&name); err != nil {
			prows.Close()
			return nil, fmt.Errorf("failed to scan province: %w", err)
		}
		snap.Provinces[name] = []string{}
	}
	prows.Close()
	if err := prows.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT province, name FROM constituencies ORDER BY province, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read constituencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var province, name string
		if err := rows.Scan(&province, &name); err != nil {
			return nil, fmt.Errorf("failed to scan constituency: %w", err)
		}
		snap.Provinces[province] = append(snap.Provinces[province], name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Put replaces the stored snapshot in one transaction.
func (s *SQLite) Put(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"constituencies", "provinces"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO constituencies (province, name, position) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for province, names := range snap.Provinces {
		if _, err := tx.ExecContext(ctx, `INSERT INTO provinces (name) VALUES (?)`, province); err != nil {
			return fmt.Errorf("failed to insert province %s: %w", province, err)
		}
		for i, name := range names {
			if _, err := stmt.ExecContext(ctx, province, name, i); err != nil {
				return fmt.Errorf("failed to insert %s/%s: %w", province, name, err)
			}
			count++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, fetched_utc) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET fetched_utc = excluded.fetched_utc`,
		snap.FetchedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	logging.Get(logging.CategoryStore).Debug("sqlite snapshot written: %d provinces, %d constituencies",
		len(snap.Provinces), count)
	return nil
}
