// Package store writes query output into a SQLite results database for
// downstream tooling. Strictly an output sink: nothing here is read
// back by the query pipeline.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DB is a results database handle.
type DB struct {
	db *sql.DB
}

// Open opens or creates the results database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating results dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening results db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveRun records one completed extraction: metadata plus every output
// line, in emission order. Returns the run id.
func (d *DB) SaveRun(host, description string, lines []string) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO runs (ran_at, host, description, line_count)
		VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), host, description, len(lines),
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO run_lines (run_id, seq, line) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	for i, line := range lines {
		if _, err := stmt.Exec(runID, i, line); err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

// RunCount returns the number of stored runs.
func (d *DB) RunCount() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// LoadRun reads back the output lines of a stored run, in order.
func (d *DB) LoadRun(runID int64) ([]string, error) {
	rows, err := d.db.Query("SELECT line FROM run_lines WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
