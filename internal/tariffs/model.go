package tariffs

import (
	"fmt"
	"strconv"

	"wbtariffs/internal/storage"
)

// Observation is one warehouse entry from the WB box-tariffs endpoint. All
// values are kept in their source string form; the price fields are compared
// by exact string equality, so "10.0" and "10" are different values.
type Observation struct {
	WarehouseName             string `json:"warehouseName"`
	BoxDeliveryAndStorageExpr string `json:"boxDeliveryAndStorageExpr"`
	BoxDeliveryBase           string `json:"boxDeliveryBase"`
	BoxDeliveryLiter          string `json:"boxDeliveryLiter"`
	BoxStorageBase            string `json:"boxStorageBase"`
	BoxStorageLiter           string `json:"boxStorageLiter"`
}

// Fields converts the observation into storable tariff fields, coercing the
// coefficient from its numeric-string source form to an integer.
func (o Observation) Fields() (storage.TariffFields, error) {
	expr, err := strconv.Atoi(o.BoxDeliveryAndStorageExpr)
	if err != nil {
		return storage.TariffFields{}, fmt.Errorf("parse boxDeliveryAndStorageExpr %q: %w", o.BoxDeliveryAndStorageExpr, err)
	}
	return storage.TariffFields{
		BoxDeliveryAndStorageExpr: expr,
		BoxDeliveryBase:           o.BoxDeliveryBase,
		BoxDeliveryLiter:          o.BoxDeliveryLiter,
		BoxStorageBase:            o.BoxStorageBase,
		BoxStorageLiter:           o.BoxStorageLiter,
	}, nil
}

// ChangePolicy decides which fields participate in change detection when an
// observation is compared against the stored current-state row.
type ChangePolicy int

const (
	// WatchedFields compares only the four delivery/storage price fields.
	// boxDeliveryAndStorageExpr does not participate in the decision, so a
	// coefficient-only change is reported as unchanged and writes nothing.
	WatchedFields ChangePolicy = iota
	// AllFields additionally compares boxDeliveryAndStorageExpr.
	AllFields
)

// Changed reports whether the observation differs from the stored row under
// the policy's field set. Comparison is exact, with no numeric tolerance.
func (p ChangePolicy) Changed(cur *storage.Tariff, obs Observation) bool {
	if cur.BoxDeliveryBase != obs.BoxDeliveryBase ||
		cur.BoxStorageBase != obs.BoxStorageBase ||
		cur.BoxDeliveryLiter != obs.BoxDeliveryLiter ||
		cur.BoxStorageLiter != obs.BoxStorageLiter {
		return true
	}
	if p == AllFields {
		return strconv.Itoa(cur.BoxDeliveryAndStorageExpr) != obs.BoxDeliveryAndStorageExpr
	}
	return false
}
