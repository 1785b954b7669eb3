package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/importer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync importer on an interval",
	Long: `Runs sync cycles on a fixed interval until interrupted. Cycles never
overlap; on shutdown the in-flight batch finishes committing first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("watch"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		intervalSecs, _ := cmd.Flags().GetInt("interval")
		if intervalSecs <= 0 {
			intervalSecs = cfg.Importer.IntervalSecs
		}
		maxRows, _ := cmd.Flags().GetInt("max-rows")
		sourcePath, _ := cmd.Flags().GetString("source")

		imp, cleanup, err := newImporter(ctx, sourcePath)
		if err != nil {
			return err
		}
		defer cleanup()

		err = imp.Watch(ctx, time.Duration(intervalSecs)*time.Second, importer.Options{MaxRows: maxRows})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().Int("interval", 0, "seconds between cycles (default from config)")
	watchCmd.Flags().Int("max-rows", 0, "batch bound per cycle (default from config)")
	watchCmd.Flags().String("source", "", "working store path (default from config)")
	rootCmd.AddCommand(watchCmd)
}
