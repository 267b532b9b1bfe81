package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func sampleFields() TariffFields {
	return TariffFields{
		BoxDeliveryAndStorageExpr: 160,
		BoxDeliveryBase:           "48",
		BoxDeliveryLiter:          "11.2",
		BoxStorageBase:            "0.14",
		BoxStorageLiter:           "0.07",
	}
}

func TestMemory_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	created, err := m.Create(ctx, "Koledino", sampleFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Errorf("expected assigned id")
	}

	got, err := m.GetByWarehouseName(ctx, "Koledino")
	if err != nil {
		t.Fatalf("GetByWarehouseName failed: %v", err)
	}
	if got == nil || got.TariffFields != sampleFields() {
		t.Fatalf("unexpected row: %+v", got)
	}

	absent, err := m.GetByWarehouseName(ctx, "Nope")
	if err != nil || absent != nil {
		t.Fatalf("expected (nil, nil) for absent row, got (%v, %v)", absent, err)
	}
}

func TestMemory_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Create(ctx, "Koledino", sampleFields()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := m.Create(ctx, "Koledino", sampleFields())
	if !errors.Is(err, ErrDuplicateWarehouse) {
		t.Fatalf("expected ErrDuplicateWarehouse, got %v", err)
	}
	if m.TariffCount() != 1 {
		t.Errorf("expected exactly 1 row, got %d", m.TariffCount())
	}
}

func TestMemory_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Create(ctx, "Koledino", sampleFields())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrDuplicateWarehouse) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 successful create, got %d", winners)
	}
	if m.TariffCount() != 1 {
		t.Fatalf("expected exactly 1 row, got %d", m.TariffCount())
	}
}

func TestMemory_UpdateByWarehouseName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	created, _ := m.Create(ctx, "Koledino", sampleFields())

	f := sampleFields()
	f.BoxDeliveryBase = "50"
	updated, err := m.UpdateByWarehouseName(ctx, "Koledino", f)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated == nil || updated.BoxDeliveryBase != "50" {
		t.Fatalf("unexpected updated row: %+v", updated)
	}
	if updated.ID != created.ID {
		t.Errorf("update changed the id: %d -> %d", created.ID, updated.ID)
	}

	gone, err := m.UpdateByWarehouseName(ctx, "Vanished", f)
	if err != nil || gone != nil {
		t.Fatalf("expected (nil, nil) for vanished row, got (%v, %v)", gone, err)
	}
}

func TestMemory_AppendHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i, base := range []string{"10", "11", "12"} {
		f := sampleFields()
		f.BoxDeliveryBase = base
		e := HistoryEntry{TariffID: 1, WarehouseName: "Koledino", TariffFields: f,
			CreatedAt: time.Date(2024, 11, 10+i, 0, 0, 0, 0, time.UTC)}
		if _, err := m.AppendHistory(ctx, e); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
	}

	hist := m.HistoryEntries("Koledino")
	if len(hist) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(hist))
	}
	for i, want := range []string{"10", "11", "12"} {
		if hist[i].BoxDeliveryBase != want {
			t.Errorf("entry %d out of order: %q", i, hist[i].BoxDeliveryBase)
		}
	}
}

func TestMemory_AppendHistoryDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	e, err := m.AppendHistory(ctx, HistoryEntry{TariffID: 1, WarehouseName: "Koledino", TariffFields: sampleFields()})
	if err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if e.CreatedAt.IsZero() {
		t.Errorf("expected defaulted created_at")
	}
}

func TestMemory_SettingsAndScheduledJob(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetSetting(ctx, "reconcile_interval", "600"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	val, err := m.GetSetting(ctx, "reconcile_interval")
	if err != nil || val != "600" {
		t.Fatalf("GetSetting = (%q, %v)", val, err)
	}

	started := time.Now()
	if err := m.UpdateScheduledJob(ctx, "reconcile_tariffs", started, 2*time.Second, false, "boom"); err != nil {
		t.Fatalf("UpdateScheduledJob failed: %v", err)
	}
	job := m.ScheduledJobRow("reconcile_tariffs")
	if job == nil || job.LastSuccess || job.LastError != "boom" || job.LastDurationMs != 2000 {
		t.Fatalf("unexpected job row: %+v", job)
	}
}
