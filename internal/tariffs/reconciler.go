package tariffs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wbtariffs/internal/storage"
)

// Reconciler compares a fetched snapshot against the current-state store and
// drives both stores: at most one create or update plus at most one history
// append per warehouse. Warehouses present in the store but absent from the
// snapshot are left untouched.
type Reconciler struct {
	store   storage.TariffStore
	history storage.HistoryStore
	policy  ChangePolicy
	log     *zap.Logger
	now     func() time.Time
}

// NewReconciler builds a reconciler with the default WatchedFields policy.
func NewReconciler(store storage.TariffStore, history storage.HistoryStore, log *zap.Logger) *Reconciler {
	return NewReconcilerWithPolicy(store, history, log, WatchedFields)
}

func NewReconcilerWithPolicy(store storage.TariffStore, history storage.HistoryStore, log *zap.Logger, policy ChangePolicy) *Reconciler {
	return &Reconciler{
		store:   store,
		history: history,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// WithClock replaces the timestamp source; tests use this to pin history
// creation times.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Reconcile processes the snapshot in order. A failure for one warehouse is
// recorded and does not abort processing of the rest of the batch.
func (r *Reconciler) Reconcile(ctx context.Context, snapshot []Observation) BatchResult {
	started := time.Now()
	br := BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Results:   make([]Result, 0, len(snapshot)),
	}

	for _, obs := range snapshot {
		res := r.reconcileOne(ctx, obs)
		br.Results = append(br.Results, res)

		switch res.Outcome {
		case OutcomeCreated:
			r.log.Info("new tariff added", zap.String("warehouse", res.Warehouse), zap.String("run_id", br.RunID))
		case OutcomeUpdated:
			r.log.Info("tariff updated", zap.String("warehouse", res.Warehouse), zap.String("run_id", br.RunID))
		case OutcomeFailed:
			r.log.Error("tariff reconciliation failed",
				zap.String("warehouse", res.Warehouse),
				zap.String("run_id", br.RunID),
				zap.Error(res.Err))
		}
	}

	br.Duration = time.Since(started)
	r.log.Info("reconciliation run completed",
		zap.String("run_id", br.RunID),
		zap.Duration("duration", br.Duration),
		zap.String("summary", br.Summary()))
	return br
}

func (r *Reconciler) reconcileOne(ctx context.Context, obs Observation) Result {
	name := obs.WarehouseName

	cur, err := r.store.GetByWarehouseName(ctx, name)
	if err != nil {
		return Result{Warehouse: name, Outcome: OutcomeFailed, Err: &StoreReadError{Warehouse: name, Err: err}}
	}

	fields, err := obs.Fields()
	if err != nil {
		return Result{Warehouse: name, Outcome: OutcomeFailed, Err: err}
	}

	if cur == nil {
		created, err := r.store.Create(ctx, name, fields)
		if err != nil {
			return Result{Warehouse: name, Outcome: OutcomeFailed, Err: &StoreWriteError{Warehouse: name, Err: err}}
		}
		if err := r.appendHistory(ctx, created.ID, name, fields); err != nil {
			return Result{Warehouse: name, Outcome: OutcomeFailed, Err: &StoreWriteError{Warehouse: name, Err: err}}
		}
		return Result{Warehouse: name, Outcome: OutcomeCreated}
	}

	if !r.policy.Changed(cur, obs) {
		return Result{Warehouse: name, Outcome: OutcomeUnchanged}
	}

	// All fields are written on update, the coefficient included, even
	// though it did not gate the decision.
	updated, err := r.store.UpdateByWarehouseName(ctx, name, fields)
	if err != nil {
		return Result{Warehouse: name, Outcome: OutcomeFailed, Err: &StoreWriteError{Warehouse: name, Err: err}}
	}
	if updated == nil {
		return Result{Warehouse: name, Outcome: OutcomeFailed, Err: &RaceConditionError{Warehouse: name}}
	}
	if err := r.appendHistory(ctx, updated.ID, name, fields); err != nil {
		return Result{Warehouse: name, Outcome: OutcomeFailed, Err: &StoreWriteError{Warehouse: name, Err: err}}
	}
	return Result{Warehouse: name, Outcome: OutcomeUpdated}
}

func (r *Reconciler) appendHistory(ctx context.Context, tariffID uint, name string, fields storage.TariffFields) error {
	_, err := r.history.AppendHistory(ctx, storage.HistoryEntry{
		TariffID:      tariffID,
		WarehouseName: name,
		CreatedAt:     r.now(),
		TariffFields:  fields,
	})
	return err
}
