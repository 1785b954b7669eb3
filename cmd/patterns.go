package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns [type]",
	Short: "Show learned provenance patterns by confidence",
	Long: `Lists the top patterns of a type (domain, query_term, url_path,
content_signal) ordered by confidence. This is the read surface the
query optimizer biases future candidate generation with.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("patterns"); err != nil {
			return err
		}

		typ, ok := model.ParsePatternType(args[0])
		if !ok {
			return eris.Errorf("patterns: unknown type %q", args[0])
		}
		limit, _ := cmd.Flags().GetInt("limit")

		working, ps, err := openWorking(ctx)
		if err != nil {
			return err
		}
		defer working.Close()

		top, err := ps.TopPatterns(ctx, typ, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VALUE\tCONFIDENCE\tSUCCESS\tFAIL")
		for _, p := range top {
			fmt.Fprintf(w, "%s\t%.3f\t%d\t%d\n", p.Value, p.Confidence(), p.SuccessCount, p.FailCount)
		}
		return w.Flush()
	},
}

var patternsPruneCmd = &cobra.Command{
	Use:   "prune [type]",
	Short: "Delete low-confidence patterns with enough samples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("patterns"); err != nil {
			return err
		}

		typ, ok := model.ParsePatternType(args[0])
		if !ok {
			return eris.Errorf("patterns: unknown type %q", args[0])
		}
		maxConf, _ := cmd.Flags().GetFloat64("max-confidence")
		minSamples, _ := cmd.Flags().GetInt64("min-samples")

		working, ps, err := openWorking(ctx)
		if err != nil {
			return err
		}
		defer working.Close()

		n, err := ps.Prune(ctx, typ, maxConf, minSamples)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d patterns\n", n)
		return nil
	},
}

func init() {
	patternsCmd.Flags().Int("limit", 20, "number of patterns to show")
	patternsPruneCmd.Flags().Float64("max-confidence", 0.05, "prune at or below this confidence")
	patternsPruneCmd.Flags().Int64("min-samples", 20, "only prune with at least this many observations")
	patternsCmd.AddCommand(patternsPruneCmd)
	rootCmd.AddCommand(patternsCmd)
}
