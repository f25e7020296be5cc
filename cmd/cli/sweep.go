package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/price-standard/price-service/internal/storage"
	"github.com/price-standard/price-service/internal/sweepers"
)

var sweepRetention time.Duration

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stored outputs older than the retention period",
	Example: `  price-standard sweep
  price-standard sweep --retention 72h`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().DurationVar(&sweepRetention, "retention", 0, "Retention period (default: storage.retention)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	retention := cfg.Storage.Retention
	if sweepRetention > 0 {
		retention = sweepRetention
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	sweeper := sweepers.NewOutputSweeper(store, logger, cfg.Storage.SweepInterval, retention)
	removed, err := sweeper.Sweep(context.Background())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Removed %d outputs older than %s from %s\n", removed, retention, store.GetBasePath())
	return nil
}
