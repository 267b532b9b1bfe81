package cron

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wbtariffs/internal/alerting"
	"wbtariffs/internal/metrics"
	"wbtariffs/internal/storage"
	"wbtariffs/internal/tariffs"
)

// JobName identifies the reconciliation job in metrics and the
// scheduled_jobs table.
const JobName = "reconcile_tariffs"

// advisoryLockKey guards the job across replicas on the pgxpool backend.
const advisoryLockKey int64 = 73217121

// intervalSettingKey is the storage setting that overrides the run interval
// at runtime; the value is integer seconds or a cron expression.
const intervalSettingKey = "reconcile_interval"

// ErrRunInProgress is returned when a run is requested while another is
// still active (in this process or, via the advisory lock, in another one).
var ErrRunInProgress = errors.New("cron: reconciliation run already in progress")

// SnapshotSource produces the per-warehouse observations for one run.
type SnapshotSource interface {
	Fetch(ctx context.Context) ([]tariffs.Observation, error)
}

// Reconciler drives the stores from a snapshot.
type Reconciler interface {
	Reconcile(ctx context.Context, snapshot []tariffs.Observation) tariffs.BatchResult
}

// Worker periodically fetches a tariff snapshot and reconciles it. At most
// one run is active at a time: an in-process mutex always, plus a Postgres
// advisory lock when the backend supports it.
type Worker struct {
	st       storage.Storage
	fetch    SnapshotSource
	rec      Reconciler
	alerter  *alerting.Alerter
	log      *zap.Logger
	interval string

	mu sync.Mutex // run-in-progress guard
}

func NewWorker(st storage.Storage, fetch SnapshotSource, rec Reconciler, alerter *alerting.Alerter, log *zap.Logger, interval string) *Worker {
	if interval == "" {
		interval = "3600"
	}
	return &Worker{
		st:       st,
		fetch:    fetch,
		rec:      rec,
		alerter:  alerter,
		log:      log,
		interval: interval,
	}
}

// nextRunFrom computes the next run time from a setting that is either
// integer seconds or a cron expression. Falls back to hourly.
func nextRunFrom(setting string, last time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return last.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(last)
	}
	return last.Add(time.Hour)
}

// Run is the scheduler loop. The first run fires immediately; afterwards the
// interval setting (overridable through storage) decides the cadence. A
// failed run is not retried, the loop simply waits for the next slot.
func (w *Worker) Run(ctx context.Context) error {
	setting := w.interval
	if val, err := w.st.GetSetting(ctx, intervalSettingKey); err == nil && val != "" {
		setting = val
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	nextRun := time.Now()
	w.log.Info("worker starting", zap.String("interval", setting))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := w.st.GetSetting(ctx, intervalSettingKey); err == nil && val != "" && val != setting {
				w.log.Info("run interval updated", zap.String("from", setting), zap.String("to", val))
				setting = val
				nextRun = nextRunFrom(setting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}

			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
				w.log.Error("reconciliation run failed", zap.Error(err))
			}
			nextRun = nextRunFrom(setting, time.Now())
		}
	}
}

// RunOnce executes one fetch+reconcile pass. Per-warehouse failures are part
// of the returned BatchResult, not the error; the error covers run-level
// conditions only (lock held, fetch failure).
func (w *Worker) RunOnce(ctx context.Context) (*tariffs.BatchResult, error) {
	if !w.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer w.mu.Unlock()

	started := time.Now()

	if pg, ok := w.st.(*storage.PostgresPoolStorage); ok {
		got, err := pg.AcquireAdvisoryLock(ctx, advisoryLockKey)
		if err != nil {
			metrics.UpdateJobMetrics(JobName, started, err)
			return nil, fmt.Errorf("acquire advisory lock: %w", err)
		}
		if !got {
			w.log.Info("advisory lock held by another worker, skipping run")
			return nil, ErrRunInProgress
		}
		defer func() {
			if _, err := pg.ReleaseAdvisoryLock(ctx, advisoryLockKey); err != nil {
				w.log.Warn("release advisory lock failed", zap.Error(err))
			}
		}()
	}

	snapshot, err := w.fetch.Fetch(ctx)
	if err != nil {
		metrics.UpdateJobMetrics(JobName, started, err)
		metrics.ReconcileRunsTotal.WithLabelValues("fetch_failed").Inc()
		if jobErr := w.st.UpdateScheduledJob(ctx, JobName, started, time.Since(started), false, err.Error()); jobErr != nil {
			w.log.Warn("update scheduled_jobs failed", zap.Error(jobErr))
		}
		return nil, err
	}
	metrics.SnapshotWarehouses.Set(float64(len(snapshot)))

	br := w.rec.Reconcile(ctx, snapshot)

	var runErr error
	if n := br.Count(tariffs.OutcomeFailed); n > 0 {
		runErr = fmt.Errorf("%d of %d warehouses failed", n, len(br.Results))
	}

	metrics.UpdateJobMetrics(JobName, started, runErr)
	metrics.RecordOutcomes(map[string]int{
		string(tariffs.OutcomeCreated):   br.Count(tariffs.OutcomeCreated),
		string(tariffs.OutcomeUpdated):   br.Count(tariffs.OutcomeUpdated),
		string(tariffs.OutcomeUnchanged): br.Count(tariffs.OutcomeUnchanged),
		string(tariffs.OutcomeFailed):    br.Count(tariffs.OutcomeFailed),
	})
	status := "ok"
	if runErr != nil {
		status = "partial_failure"
	}
	metrics.ReconcileRunsTotal.WithLabelValues(status).Inc()

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := w.st.UpdateScheduledJob(ctx, JobName, started, time.Since(started), runErr == nil, errMsg); err != nil {
		w.log.Warn("update scheduled_jobs failed", zap.Error(err))
	}

	if w.alerter != nil && runErr != nil {
		failures := br.Failures()
		details := make([]alerting.WarehouseFailure, 0, len(failures))
		for _, f := range failures {
			details = append(details, alerting.WarehouseFailure{
				Warehouse: f.Warehouse,
				Error:     f.Err.Error(),
			})
		}
		w.alerter.SendBatchAlert(ctx, alerting.BatchAlert{
			JobName:       JobName,
			RunID:         br.RunID,
			TotalCount:    len(br.Results),
			SuccessCount:  len(br.Results) - len(failures),
			FailedCount:   len(failures),
			Duration:      br.Duration,
			FailedDetails: details,
			Timestamp:     time.Now(),
		})
	}

	return &br, nil
}
