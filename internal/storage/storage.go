package storage

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateWarehouse is returned by Create when a row for the same
// warehouseName already exists (two creates racing for one warehouse).
var ErrDuplicateWarehouse = errors.New("storage: tariff already exists for warehouse")

// TariffStore is the current-state store: one mutable row per warehouse.
type TariffStore interface {
	// GetByWarehouseName returns (nil, nil) when no row exists.
	GetByWarehouseName(ctx context.Context, name string) (*Tariff, error)
	Create(ctx context.Context, name string, f TariffFields) (*Tariff, error)
	// UpdateByWarehouseName returns (nil, nil) when the row vanished between
	// lookup and update (concurrent delete through the external CRUD API).
	UpdateByWarehouseName(ctx context.Context, name string, f TariffFields) (*Tariff, error)
}

// HistoryStore is the append-only audit log of tariff states.
type HistoryStore interface {
	AppendHistory(ctx context.Context, e HistoryEntry) (*HistoryEntry, error)
}

// Storage abstracts persistence for tariffs, history and worker bookkeeping.
type Storage interface {
	TariffStore
	HistoryStore

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
