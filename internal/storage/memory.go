package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	nextID   uint
	tariffs  map[string]Tariff // keyed by warehouseName
	history  []HistoryEntry
	settings map[string]string
	jobs     map[string]ScheduledJob
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		tariffs:  make(map[string]Tariff),
		settings: make(map[string]string),
		jobs:     make(map[string]ScheduledJob),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) GetByWarehouseName(ctx context.Context, name string) (*Tariff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tariffs[name]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (m *MemoryStorage) Create(ctx context.Context, name string, f TariffFields) (*Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tariffs[name]; ok {
		return nil, ErrDuplicateWarehouse
	}
	m.nextID++
	t := Tariff{ID: m.nextID, WarehouseName: name, TariffFields: f}
	m.tariffs[name] = t
	cp := t
	return &cp, nil
}

func (m *MemoryStorage) UpdateByWarehouseName(ctx context.Context, name string, f TariffFields) (*Tariff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tariffs[name]
	if !ok {
		return nil, nil
	}
	t.TariffFields = f
	m.tariffs[name] = t
	cp := t
	return &cp, nil
}

func (m *MemoryStorage) AppendHistory(ctx context.Context, e HistoryEntry) (*HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.ID = uint(len(m.history) + 1)
	m.history = append(m.history, e)
	cp := e
	return &cp, nil
}

// HistoryEntries returns the appended history rows for one warehouse in
// insertion order. The pipeline itself never reads history; this exists for
// tests.
func (m *MemoryStorage) HistoryEntries(name string) []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []HistoryEntry
	for _, e := range m.history {
		if e.WarehouseName == name {
			out = append(out, e)
		}
	}
	return out
}

// TariffCount returns the number of current-state rows.
func (m *MemoryStorage) TariffCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tariffs)
}

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    success,
		LastError:      errMsg,
	}
	return nil
}

// ScheduledJobRow returns the recorded row for a job, or nil.
func (m *MemoryStorage) ScheduledJobRow(name string) *ScheduledJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[name]
	if !ok {
		return nil
	}
	cp := j
	return &cp
}
