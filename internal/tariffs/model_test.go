package tariffs

import (
	"testing"

	"wbtariffs/internal/storage"
)

func TestObservationFields_CoercesCoefficient(t *testing.T) {
	obs := testObservation("Koledino")
	obs.BoxDeliveryAndStorageExpr = "185"

	f, err := obs.Fields()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.BoxDeliveryAndStorageExpr != 185 {
		t.Errorf("expected 185, got %d", f.BoxDeliveryAndStorageExpr)
	}
	if f.BoxDeliveryBase != obs.BoxDeliveryBase || f.BoxStorageLiter != obs.BoxStorageLiter {
		t.Errorf("price fields not carried over: %+v", f)
	}
}

func TestObservationFields_MalformedCoefficient(t *testing.T) {
	obs := testObservation("Koledino")
	obs.BoxDeliveryAndStorageExpr = "12.5" // the API sends whole numbers only

	if _, err := obs.Fields(); err == nil {
		t.Fatalf("expected error for non-integer coefficient")
	}
}

func TestChangePolicy_WatchedFields(t *testing.T) {
	cur := &storage.Tariff{
		WarehouseName: "Koledino",
		TariffFields: storage.TariffFields{
			BoxDeliveryAndStorageExpr: 160,
			BoxDeliveryBase:           "10",
			BoxDeliveryLiter:          "2",
			BoxStorageBase:            "5",
			BoxStorageLiter:           "1",
		},
	}

	same := testObservation("Koledino")
	if WatchedFields.Changed(cur, same) {
		t.Errorf("identical observation reported as changed")
	}

	coeffOnly := same
	coeffOnly.BoxDeliveryAndStorageExpr = "200"
	if WatchedFields.Changed(cur, coeffOnly) {
		t.Errorf("coefficient-only change must not count under WatchedFields")
	}
	if !AllFields.Changed(cur, coeffOnly) {
		t.Errorf("coefficient-only change must count under AllFields")
	}

	for _, mutate := range []func(*Observation){
		func(o *Observation) { o.BoxDeliveryBase = "11" },
		func(o *Observation) { o.BoxDeliveryLiter = "3" },
		func(o *Observation) { o.BoxStorageBase = "6" },
		func(o *Observation) { o.BoxStorageLiter = "2" },
	} {
		obs := testObservation("Koledino")
		mutate(&obs)
		if !WatchedFields.Changed(cur, obs) {
			t.Errorf("watched-field change not detected: %+v", obs)
		}
	}
}
