package storage

import "time"

// TariffFields holds the five tariff values shared by the current-state row
// and every history row. The four delivery/storage prices are kept exactly as
// the WB API sends them (decimal-as-text, no normalization); the coefficient
// is coerced to an integer before it reaches storage.
type TariffFields struct {
	BoxDeliveryAndStorageExpr int    `json:"boxDeliveryAndStorageExpr" gorm:"column:boxDeliveryAndStorageExpr"`
	BoxDeliveryBase           string `json:"boxDeliveryBase" gorm:"column:boxDeliveryBase"`
	BoxDeliveryLiter          string `json:"boxDeliveryLiter" gorm:"column:boxDeliveryLiter"`
	BoxStorageBase            string `json:"boxStorageBase" gorm:"column:boxStorageBase"`
	BoxStorageLiter           string `json:"boxStorageLiter" gorm:"column:boxStorageLiter"`
}

// Tariff is the current-state record: the latest known tariff for one
// warehouse. At most one row exists per warehouseName.
type Tariff struct {
	ID            uint   `json:"id" gorm:"primaryKey;column:id"`
	WarehouseName string `json:"warehouseName" gorm:"column:warehouseName;uniqueIndex"`
	TariffFields  `gorm:"embedded"`
}

func (Tariff) TableName() string { return "tariffs" }

// HistoryEntry is one append-only audit row: a copy of the tariff values at
// the moment a creation or watched-field change was detected. Rows are never
// updated or deleted.
type HistoryEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey;column:id"`
	TariffID      uint      `json:"tariff_id" gorm:"column:tariff_id;index"`
	WarehouseName string    `json:"warehouseName" gorm:"column:warehouseName"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
	TariffFields  `gorm:"embedded"`
}

func (HistoryEntry) TableName() string { return "daily_data" }

// Setting is a key/value runtime setting, e.g. the worker interval override.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Setting) TableName() string { return "settings" }

// ScheduledJob records the outcome of the last run of a named background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    bool      `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}

func (ScheduledJob) TableName() string { return "scheduled_jobs" }
