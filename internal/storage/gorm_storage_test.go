package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newSQLiteStorage(t *testing.T) *GormStorage {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "tariffs.db")
	st, err := NewGormStorage("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewGormStorage failed: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestGorm_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStorage(t)

	created, err := st.Create(ctx, "Koledino", sampleFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Errorf("expected assigned id")
	}

	got, err := st.GetByWarehouseName(ctx, "Koledino")
	if err != nil {
		t.Fatalf("GetByWarehouseName failed: %v", err)
	}
	if got == nil || got.TariffFields != sampleFields() {
		t.Fatalf("unexpected row: %+v", got)
	}

	f := sampleFields()
	f.BoxDeliveryBase = "52"
	f.BoxDeliveryAndStorageExpr = 170
	updated, err := st.UpdateByWarehouseName(ctx, "Koledino", f)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated == nil || updated.BoxDeliveryBase != "52" || updated.BoxDeliveryAndStorageExpr != 170 {
		t.Fatalf("unexpected updated row: %+v", updated)
	}
	if updated.ID != created.ID {
		t.Errorf("update changed the id: %d -> %d", created.ID, updated.ID)
	}
}

func TestGorm_AbsentRows(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStorage(t)

	got, err := st.GetByWarehouseName(ctx, "Nope")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}

	updated, err := st.UpdateByWarehouseName(ctx, "Nope", sampleFields())
	if err != nil || updated != nil {
		t.Fatalf("expected (nil, nil) for vanished row, got (%v, %v)", updated, err)
	}
}

func TestGorm_DuplicateCreate(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStorage(t)

	if _, err := st.Create(ctx, "Koledino", sampleFields()); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := st.Create(ctx, "Koledino", sampleFields())
	if !errors.Is(err, ErrDuplicateWarehouse) {
		t.Fatalf("expected ErrDuplicateWarehouse, got %v", err)
	}
}

func TestGorm_AppendHistory(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStorage(t)

	created, err := st.Create(ctx, "Koledino", sampleFields())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	e, err := st.AppendHistory(ctx, HistoryEntry{
		TariffID:      created.ID,
		WarehouseName: "Koledino",
		TariffFields:  sampleFields(),
	})
	if err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if e.ID == 0 {
		t.Errorf("expected assigned history id")
	}
	if e.CreatedAt.IsZero() {
		t.Errorf("expected defaulted created_at")
	}
}

func TestGorm_SettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStorage(t)

	val, err := st.GetSetting(ctx, "reconcile_interval")
	if err != nil || val != "" {
		t.Fatalf("expected empty setting, got (%q, %v)", val, err)
	}

	if err := st.SetSetting(ctx, "reconcile_interval", "0 * * * *"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	val, err = st.GetSetting(ctx, "reconcile_interval")
	if err != nil || val != "0 * * * *" {
		t.Fatalf("GetSetting = (%q, %v)", val, err)
	}
}
