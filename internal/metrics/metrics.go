package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcileOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbtariffs_reconcile_outcomes_total",
			Help: "Per-warehouse reconciliation outcomes across all runs",
		},
		[]string{"outcome"},
	)

	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbtariffs_reconcile_runs_total",
			Help: "Completed reconciliation runs by status",
		},
		[]string{"status"},
	)

	SnapshotWarehouses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wbtariffs_snapshot_warehouses",
			Help: "Number of warehouses in the last fetched snapshot",
		},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wbtariffs_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wbtariffs_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbtariffs_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

var (
	DBPoolTotalConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wbtariffs_db_pool_total_conns",
			Help: "Total number of connections in the DB pool",
		},
	)

	DBPoolIdleConns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wbtariffs_db_pool_idle_conns",
			Help: "Idle connections in the DB pool",
		},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}

// RecordOutcomes feeds the per-warehouse outcome counts of one run.
func RecordOutcomes(counts map[string]int) {
	for outcome, n := range counts {
		ReconcileOutcomesTotal.WithLabelValues(outcome).Add(float64(n))
	}
}
