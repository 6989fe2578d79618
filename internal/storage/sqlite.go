package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default backend: a single-file SQLite database holding
// the store slot and the import log. Suited to the single-user deployments
// this application targets.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path, creating parent
// directories and the schema as needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS store_slot (
		name       TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		revision   INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating store_slot table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS import_log (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		source           TEXT NOT NULL,
		mode             TEXT NOT NULL,
		status           TEXT NOT NULL,
		sessions_added   INTEGER NOT NULL DEFAULT 0,
		sessions_skipped INTEGER NOT NULL DEFAULT 0,
		error_message    TEXT
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating import_log table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the slot payload.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM store_slot WHERE name = ?`, slotKey,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading store slot: %w", err)
	}
	return data, true, nil
}

// Save rewrites the slot payload, bumping the revision counter.
func (s *SQLiteStore) Save(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO store_slot (name, payload, revision, updated_at)
		 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET
		   payload = excluded.payload,
		   revision = store_slot.revision + 1,
		   updated_at = CURRENT_TIMESTAMP`,
		slotKey, data,
	)
	if err != nil {
		return fmt.Errorf("saving store slot: %w", err)
	}
	return nil
}

// Revision returns the slot's save counter, 0 before the first save.
func (s *SQLiteStore) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM store_slot WHERE name = ?`, slotKey,
	).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading slot revision: %w", err)
	}
	return rev, nil
}

// InsertImportRecord appends one backup import outcome to the log.
func (s *SQLiteStore) InsertImportRecord(ctx context.Context, rec ImportRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO import_log (source, mode, status, sessions_added, sessions_skipped, error_message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Source, rec.Mode, rec.Status, rec.SessionsAdded, rec.SessionsSkipped, rec.ErrorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting import record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading import record id: %w", err)
	}
	return id, nil
}

// QueryImportRecords returns the most recent import records.
func (s *SQLiteStore) QueryImportRecords(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, mode, status, sessions_added, sessions_skipped, error_message
		 FROM import_log
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import records: %w", err)
	}
	defer rows.Close()

	var result []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Source, &rec.Mode, &rec.Status,
			&rec.SessionsAdded, &rec.SessionsSkipped, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import record: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Backend = (*SQLiteStore)(nil)
