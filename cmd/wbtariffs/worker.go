package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wbtariffs/internal/alerting"
	"wbtariffs/internal/api"
	"wbtariffs/internal/cron"
	"wbtariffs/internal/metrics"
	"wbtariffs/internal/storage"
	"wbtariffs/internal/tariffs"
)

func buildWorker(ctx context.Context, log *zap.Logger) (*cron.Worker, storage.Storage, error) {
	st, err := storage.Open(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		return nil, nil, err
	}

	fetcher := tariffs.NewFetcher(cfg.BaseURL, cfg.APIKey, log)
	rec := tariffs.NewReconciler(st, st, log)
	alerter := alerting.NewAlerter(cfg.Alert, log)

	return cron.NewWorker(st, fetcher, rec, alerter, log, cfg.Interval), st, nil
}

// collectPoolStats feeds the DB pool gauges while the worker runs. Only the
// pgxpool backend exposes stats; other drivers are a no-op.
func collectPoolStats(ctx context.Context, st storage.Storage) {
	pg, ok := st.(*storage.PostgresPoolStorage)
	if !ok {
		return
	}
	pool, ok := pg.Pool().(interface{ Stat() *pgxpool.Stat })
	if !ok {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := pool.Stat()
			metrics.DBPoolTotalConns.Set(float64(s.TotalConns()))
			metrics.DBPoolIdleConns.Set(float64(s.IdleConns()))
		}
	}
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the periodic reconciliation worker with health/metrics endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L()
		worker, st, err := buildWorker(ctx, log)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := &http.Server{Addr: cfg.Listen, Handler: api.NewMux()}
		go func() {
			log.Info("listening", zap.String("addr", cfg.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server failed", zap.Error(err))
			}
		}()
		defer srv.Close()

		go collectPoolStats(ctx, st)

		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
