package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the subset of pgxpool.Pool the storage uses, kept narrow so
// tests can substitute a pgxmock pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresPoolStorage struct {
	pool PgxPool
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/wbtariffs?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

// NewPostgresPoolStorage wraps an existing pool; used by tests.
func NewPostgresPoolStorage(pool PgxPool) *PostgresPoolStorage {
	return &PostgresPoolStorage{pool: pool}
}

func (s *PostgresPoolStorage) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the underlying pool for metrics collection.
func (s *PostgresPoolStorage) Pool() PgxPool { return s.pool }

func (s *PostgresPoolStorage) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tariffs (
            id SERIAL PRIMARY KEY,
            "warehouseName" TEXT NOT NULL UNIQUE,
            "boxDeliveryAndStorageExpr" INTEGER NOT NULL,
            "boxDeliveryBase" TEXT NOT NULL,
            "boxDeliveryLiter" TEXT NOT NULL,
            "boxStorageBase" TEXT,
            "boxStorageLiter" TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS daily_data (
            id SERIAL PRIMARY KEY,
            tariff_id INTEGER REFERENCES tariffs(id),
            "warehouseName" TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            "boxDeliveryAndStorageExpr" INTEGER NOT NULL,
            "boxDeliveryBase" TEXT NOT NULL,
            "boxDeliveryLiter" TEXT NOT NULL,
            "boxStorageBase" TEXT,
            "boxStorageLiter" TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT,
            updated_at TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS scheduled_jobs (
            name TEXT PRIMARY KEY,
            last_run_at TIMESTAMPTZ,
            last_duration_ms BIGINT,
            last_success BOOLEAN,
            last_error TEXT
        );`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const tariffColumns = `id, "warehouseName", "boxDeliveryAndStorageExpr", "boxDeliveryBase", "boxDeliveryLiter", "boxStorageBase", "boxStorageLiter"`

func (s *PostgresPoolStorage) GetByWarehouseName(ctx context.Context, name string) (*Tariff, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+tariffColumns+` FROM tariffs WHERE "warehouseName"=$1`, name)
	var t Tariff
	err := row.Scan(&t.ID, &t.WarehouseName, &t.BoxDeliveryAndStorageExpr,
		&t.BoxDeliveryBase, &t.BoxDeliveryLiter, &t.BoxStorageBase, &t.BoxStorageLiter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *PostgresPoolStorage) Create(ctx context.Context, name string, f TariffFields) (*Tariff, error) {
	row := s.pool.QueryRow(ctx, `
        INSERT INTO tariffs ("warehouseName", "boxDeliveryAndStorageExpr", "boxDeliveryBase", "boxDeliveryLiter", "boxStorageBase", "boxStorageLiter")
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT ("warehouseName") DO NOTHING
        RETURNING id
    `, name, f.BoxDeliveryAndStorageExpr, f.BoxDeliveryBase, f.BoxDeliveryLiter, f.BoxStorageBase, f.BoxStorageLiter)

	var id uint
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: another create won the race for this warehouse.
			return nil, ErrDuplicateWarehouse
		}
		return nil, err
	}
	return &Tariff{ID: id, WarehouseName: name, TariffFields: f}, nil
}

func (s *PostgresPoolStorage) UpdateByWarehouseName(ctx context.Context, name string, f TariffFields) (*Tariff, error) {
	row := s.pool.QueryRow(ctx, `
        UPDATE tariffs
        SET "boxDeliveryAndStorageExpr"=$2, "boxDeliveryBase"=$3, "boxDeliveryLiter"=$4, "boxStorageBase"=$5, "boxStorageLiter"=$6
        WHERE "warehouseName"=$1
        RETURNING id
    `, name, f.BoxDeliveryAndStorageExpr, f.BoxDeliveryBase, f.BoxDeliveryLiter, f.BoxStorageBase, f.BoxStorageLiter)

	var id uint
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row vanished between lookup and update.
			return nil, nil
		}
		return nil, err
	}
	return &Tariff{ID: id, WarehouseName: name, TariffFields: f}, nil
}

func (s *PostgresPoolStorage) AppendHistory(ctx context.Context, e HistoryEntry) (*HistoryEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	row := s.pool.QueryRow(ctx, `
        INSERT INTO daily_data (tariff_id, "warehouseName", created_at, "boxDeliveryAndStorageExpr", "boxDeliveryBase", "boxDeliveryLiter", "boxStorageBase", "boxStorageLiter")
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id
    `, e.TariffID, e.WarehouseName, e.CreatedAt, e.BoxDeliveryAndStorageExpr,
		e.BoxDeliveryBase, e.BoxDeliveryLiter, e.BoxStorageBase, e.BoxStorageLiter)

	if err := row.Scan(&e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,$3)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
    `, key, value, time.Now())
	return err
}

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (name) DO UPDATE SET
            last_run_at=EXCLUDED.last_run_at,
            last_duration_ms=EXCLUDED.last_duration_ms,
            last_success=EXCLUDED.last_success,
            last_error=EXCLUDED.last_error
    `, name, started, dur.Milliseconds(), success, errMsg)
	return err
}

// AcquireAdvisoryLock takes a session-level Postgres advisory lock so that in
// a multi-replica deployment only one worker reconciles at a time. Returns
// false when the lock is held elsewhere.
func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key)
	var got bool
	if err := row.Scan(&got); err != nil {
		return false, err
	}
	return got, nil
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key)
	var released bool
	if err := row.Scan(&released); err != nil {
		return false, err
	}
	return released, nil
}
