package tariffs

import "fmt"

// FetchError covers everything that can go wrong retrieving a snapshot:
// transport failures, non-2xx responses and malformed payloads. A FetchError
// aborts the whole run; there is no partial snapshot to reconcile.
type FetchError struct {
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch tariffs: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("fetch tariffs: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StoreReadError is a failed current-state lookup for one warehouse.
type StoreReadError struct {
	Warehouse string
	Err       error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("read tariff for %s: %v", e.Warehouse, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError is a failed create, update or history append for one
// warehouse.
type StoreWriteError struct {
	Warehouse string
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("write tariff for %s: %v", e.Warehouse, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// RaceConditionError means the current-state row vanished between lookup and
// update, e.g. a concurrent delete through the CRUD API.
type RaceConditionError struct {
	Warehouse string
}

func (e *RaceConditionError) Error() string {
	return fmt.Sprintf("tariff for %s disappeared between read and update", e.Warehouse)
}
