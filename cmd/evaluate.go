package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/gate"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/store"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [file]",
	Short: "Evaluate crawler candidates and persist admitted leads",
	Long: `Reads candidates as JSON lines from a file (or stdin with "-"),
runs each through the admission gate, and persists admitted leads to
the working store. Pattern outcomes are recorded as a side effect.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}
		log := zap.L().With(zap.String("command", "evaluate"))

		modeStr, _ := cmd.Flags().GetString("mode")
		if modeStr == "" {
			modeStr = cfg.Gate.Mode
		}
		mode := gate.ParseMode(modeStr)

		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = 4
		}

		in := os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return eris.Wrapf(err, "evaluate: open %s", args[0])
			}
			defer f.Close()
			in = f
		}

		working, ps, err := openWorking(ctx)
		if err != nil {
			return err
		}
		defer working.Close()

		g := gate.New(ps, cfg.Gate.HomeCountry)

		rep, err := runEvaluate(ctx, in, os.Stdout, working, g, mode, workers)
		if err != nil {
			return err
		}

		log.Info("evaluation complete",
			zap.Int("admitted", rep.admitted),
			zap.Int("rejected", rep.rejected),
			zap.Int("redirected", rep.redirected),
			zap.Int("malformed", rep.malformed),
		)
		fmt.Printf("admitted %d, rejected %d, redirected %d\n", rep.admitted, rep.rejected, rep.redirected)
		return nil
	},
}

type evalReport struct {
	admitted, rejected, redirected, malformed int
}

// runEvaluate fans candidates out over the classification workers and
// funnels decisions into a single-threaded persistence loop. Redirected
// intelligence is written to out as JSON lines.
func runEvaluate(ctx context.Context, in io.Reader, out io.Writer, working store.Working, g *gate.Gate, mode gate.Mode, workers int) (evalReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var rep evalReport
	results := make(chan gate.Decision)
	candidates := make(chan model.Candidate)

	grp, grpCtx := errgroup.WithContext(ctx)
	for range workers {
		grp.Go(func() error {
			for cand := range candidates {
				select {
				case results <- g.Evaluate(grpCtx, cand, mode):
				case <-grpCtx.Done():
					return grpCtx.Err()
				}
			}
			return nil
		})
	}

	// Writer: the working store insert stays single-threaded, the
	// classification above it fans out. A persist failure cancels the
	// workers so the pipeline unwinds instead of parking them on a
	// results channel nobody reads.
	done := make(chan error, 1)
	go func() {
		for dec := range results {
			switch dec.Outcome {
			case gate.OutcomeAdmit:
				if _, err := working.InsertLead(ctx, dec.Lead); err != nil {
					cancel()
					done <- err
					return
				}
				rep.admitted++
			case gate.OutcomeRedirect:
				rep.redirected++
				enc, _ := json.Marshal(dec.Intelligence)
				fmt.Fprintln(out, string(enc))
			default:
				rep.rejected++
				zap.L().Debug("candidate rejected", zap.String("reason", dec.Reason))
			}
		}
		done <- nil
	}()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
scan:
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cand model.Candidate
		if err := json.Unmarshal(line, &cand); err != nil {
			rep.malformed++
			continue
		}
		select {
		case candidates <- cand:
		case <-grpCtx.Done():
			break scan
		}
	}
	close(candidates)

	workersErr := grp.Wait()
	close(results)
	if err := <-done; err != nil {
		return rep, eris.Wrap(err, "evaluate: persist lead")
	}
	if workersErr != nil {
		return rep, eris.Wrap(workersErr, "evaluate: workers")
	}
	if err := scanner.Err(); err != nil {
		return rep, eris.Wrap(err, "evaluate: read input")
	}
	return rep, nil
}

func init() {
	evaluateCmd.Flags().String("mode", "", "admission mode: normal or talent_hunt")
	evaluateCmd.Flags().Int("workers", 4, "concurrent classification workers")
	rootCmd.AddCommand(evaluateCmd)
}
