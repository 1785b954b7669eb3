package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/importer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the working store into the system of record",
	Long: `Runs one incremental sync cycle: reads leads past the watermark,
maps them into the CRM schema, dedups by email/phone identity, and
merges by quality score.

Use --force to re-scan from the beginning and merge regardless of
score. Use --dry-run to see the counts a real run would produce
without writing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		sourcePath, _ := cmd.Flags().GetString("source")
		maxRows, _ := cmd.Flags().GetInt("max-rows")

		imp, cleanup, err := newImporter(ctx, sourcePath)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := imp.Sync(ctx, importer.Options{
			Force:   force,
			DryRun:  dryRun,
			MaxRows: maxRows,
		})
		if err != nil {
			zap.L().Error("sync failed",
				zap.Int("processed", report.Processed),
				zap.Error(err),
			)
			return eris.Wrap(err, "sync")
		}

		fmt.Printf("imported %d, updated %d, skipped %d (processed %d)\n",
			report.Imported, report.Updated, report.Skipped, report.Processed)
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("force", false, "ignore the watermark and score gate")
	syncCmd.Flags().Bool("dry-run", false, "report without writing")
	syncCmd.Flags().String("source", "", "working store path (default from config)")
	syncCmd.Flags().Int("max-rows", 0, "batch bound per cycle (default from config)")
	rootCmd.AddCommand(syncCmd)
}
