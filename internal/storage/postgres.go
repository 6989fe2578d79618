package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the optional backend for deployments that already run a
// Postgres instance. Schema is owned by the migrations directory.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Load reads the slot payload.
func (p *PostgresStore) Load(ctx context.Context) ([]byte, bool, error) {
	var data []byte
	err := p.Pool.QueryRow(ctx,
		`SELECT payload FROM store_slot WHERE name = $1`, slotKey,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading store slot: %w", err)
	}
	return data, true, nil
}

// Save rewrites the slot payload, bumping the revision counter.
func (p *PostgresStore) Save(ctx context.Context, data []byte) error {
	_, err := p.Pool.Exec(ctx,
		`INSERT INTO store_slot (name, payload, revision, updated_at)
		 VALUES ($1, $2, 1, now())
		 ON CONFLICT (name) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   revision = store_slot.revision + 1,
		   updated_at = now()`,
		slotKey, data,
	)
	if err != nil {
		return fmt.Errorf("saving store slot: %w", err)
	}
	return nil
}

// Revision returns the slot's save counter, 0 before the first save.
func (p *PostgresStore) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := p.Pool.QueryRow(ctx,
		`SELECT revision FROM store_slot WHERE name = $1`, slotKey,
	).Scan(&rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading slot revision: %w", err)
	}
	return rev, nil
}

// InsertImportRecord appends one backup import outcome to the log.
func (p *PostgresStore) InsertImportRecord(ctx context.Context, rec ImportRecord) (int64, error) {
	var id int64
	err := p.Pool.QueryRow(ctx,
		`INSERT INTO import_log (source, mode, status, sessions_added, sessions_skipped, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		rec.Source, rec.Mode, rec.Status, rec.SessionsAdded, rec.SessionsSkipped, rec.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import record: %w", err)
	}
	return id, nil
}

// QueryImportRecords returns the most recent import records.
func (p *PostgresStore) QueryImportRecords(ctx context.Context, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.Pool.Query(ctx,
		`SELECT id, created_at, source, mode, status, sessions_added, sessions_skipped, error_message
		 FROM import_log
		 ORDER BY id DESC
		 LIMIT $1`, limit)
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

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	p.Pool.Close()
	return nil
}

var _ Backend = (*PostgresStore)(nil)
