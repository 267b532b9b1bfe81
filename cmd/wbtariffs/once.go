package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single fetch+reconcile pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		worker, st, err := buildWorker(ctx, zap.L())
		if err != nil {
			return err
		}
		defer st.Close()

		br, err := worker.RunOnce(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("run %s: %s\n", br.RunID, br.Summary())
		for _, f := range br.Failures() {
			fmt.Printf("  failed %s: %v\n", f.Warehouse, f.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
