package main

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wbtariffs/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health and metrics endpoints only (no worker)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{Addr: cfg.Listen, Handler: api.NewMux()}
		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("listening", zap.String("addr", cfg.Listen))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			return srv.Close()
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
