// Package importer reconciles the crawler's working store with the
// system of record: watermark-based incremental read, field mapping,
// dedup by identity, score-gated merge. Replay-safe: the watermark only
// ever advances to rows that committed.
package importer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/sor"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/store"
)

// RecordStore is the importer's view of the system of record.
// *sor.Store satisfies it.
type RecordStore interface {
	FindByIdentity(ctx context.Context, key string) (*sor.Record, error)
	Insert(ctx context.Context, r *sor.Record) error
	Update(ctx context.Context, r *sor.Record) error
	Watermark(ctx context.Context, source string) (*sor.Watermark, error)
	SaveWatermark(ctx context.Context, w *sor.Watermark) error
}

var _ RecordStore = (*sor.Store)(nil)

// Options controls one sync invocation.
type Options struct {
	// Force ignores the watermark (re-scan from the beginning) and
	// merges matches regardless of the score comparison.
	Force bool
	// DryRun produces the same report a real run would, with zero
	// writes to the watermark or the system of record.
	DryRun bool
	// MaxRows bounds the batch so one cycle cannot run unboundedly
	// long. Zero means the configured default.
	MaxRows int
}

// Report summarizes one sync run.
type Report struct {
	Imported  int   `json:"imported"`
	Updated   int   `json:"updated"`
	Skipped   int   `json:"skipped"`
	Processed int   `json:"processed"`
	LastRowID int64 `json:"last_row_id"`
	DryRun    bool  `json:"dry_run,omitempty"`
}

// Importer moves admitted leads into the system of record. It is the
// only component that writes across both stores; consistency rests on
// watermark replay safety, not on a cross-store transaction.
type Importer struct {
	working store.Working
	record  RecordStore
	source  string
	maxRows int
	limiter *rate.Limiter
}

// Config tunes an Importer.
type Config struct {
	// Source names the working store in the watermark table, normally
	// its file path.
	Source string
	// MaxRows is the default per-cycle batch bound.
	MaxRows int
	// WritesPerSec rate-limits system-of-record writes; zero disables
	// limiting.
	WritesPerSec float64
	WriteBurst   int
}

// New creates an Importer over the two stores.
func New(working store.Working, record RecordStore, cfg Config) *Importer {
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 500
	}
	var limiter *rate.Limiter
	if cfg.WritesPerSec > 0 {
		burst := cfg.WriteBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSec), burst)
	}
	return &Importer{
		working: working,
		record:  record,
		source:  cfg.Source,
		maxRows: maxRows,
		limiter: limiter,
	}
}

// Sync runs one incremental reconciliation cycle. On a mid-batch
// failure the returned report carries the partial progress and the
// watermark stays at the last committed row, so a re-run resumes
// without duplicating leads.
func (imp *Importer) Sync(ctx context.Context, opts Options) (Report, error) {
	log := zap.L().With(zap.String("source", imp.source))

	var cursor int64
	var prior *sor.Watermark
	if !opts.Force {
		w, err := imp.record.Watermark(ctx, imp.source)
		if err != nil {
			return Report{DryRun: opts.DryRun}, eris.Wrap(err, "importer: read watermark")
		}
		prior = w
		if w != nil {
			cursor = w.LastImportedRowID
		}
	}

	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = imp.maxRows
	}

	leads, err := imp.working.LeadsAfter(ctx, cursor, maxRows)
	if err != nil {
		return Report{DryRun: opts.DryRun}, eris.Wrap(err, "importer: read working store")
	}

	report := Report{LastRowID: cursor, DryRun: opts.DryRun}
	// Simulated writes, so a dry run sees its own earlier rows the way
	// a real run sees committed ones.
	pending := make(map[string]*sor.Record)
	committed := cursor

	for _, lead := range leads {
		if err := imp.syncOne(ctx, lead, opts, pending, &report); err != nil {
			// Persist partial progress before surfacing the failure.
			if saveErr := imp.advance(ctx, opts, prior, committed, report); saveErr != nil {
				log.Error("importer: persist partial watermark failed", zap.Error(saveErr))
			}
			report.LastRowID = committed
			return report, eris.Wrapf(err, "importer: sync row %d", lead.RowID)
		}
		committed = lead.RowID
		report.Processed++
		report.LastRowID = committed
	}

	if err := imp.advance(ctx, opts, prior, committed, report); err != nil {
		return report, err
	}

	log.Info("importer: sync complete",
		zap.Int("imported", report.Imported),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int64("last_row_id", report.LastRowID),
		zap.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

// syncOne maps, dedups, and writes a single lead.
func (imp *Importer) syncOne(ctx context.Context, lead model.Lead, opts Options, pending map[string]*sor.Record, report *Report) error {
	key := IdentityKey(lead)
	if !lead.HasContact() || key == "" {
		// Integrity violation: a lead with neither email nor phone, or
		// whose contact fields normalize to nothing, never crashes the
		// cycle, it is skipped with a diagnostic.
		zap.L().Warn("importer: lead has no contact identity, skipping",
			zap.Int64("row_id", lead.RowID),
			zap.String("source_url", lead.SourceURL),
		)
		report.Skipped++
		return nil
	}

	incoming := MapLead(lead)

	existing, err := imp.lookup(ctx, key, opts, pending)
	if err != nil {
		return err
	}

	if existing == nil {
		if err := imp.write(ctx, opts, pending, func() error {
			r := incoming
			return imp.record.Insert(ctx, &r)
		}, &incoming); err != nil {
			return err
		}
		report.Imported++
		return nil
	}

	if incoming.QualityScore <= existing.QualityScore && !opts.Force {
		report.Skipped++
		return nil
	}

	merged := Merge(*existing, incoming)
	if err := imp.write(ctx, opts, pending, func() error {
		m := merged
		return imp.record.Update(ctx, &m)
	}, &merged); err != nil {
		return err
	}
	report.Updated++
	return nil
}

// lookup consults pending dry-run writes first, then the store.
func (imp *Importer) lookup(ctx context.Context, key string, opts Options, pending map[string]*sor.Record) (*sor.Record, error) {
	if opts.DryRun {
		if r, ok := pending[key]; ok {
			return r, nil
		}
	}
	return imp.record.FindByIdentity(ctx, key)
}

// write commits a record, or simulates the commit in dry-run mode.
func (imp *Importer) write(ctx context.Context, opts Options, pending map[string]*sor.Record, commit func() error, r *sor.Record) error {
	if opts.DryRun {
		cp := *r
		pending[cp.IdentityKey] = &cp
		return nil
	}
	if imp.limiter != nil {
		if err := imp.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "importer: rate limiter")
		}
	}
	return commit()
}

// advance persists the watermark after a committed batch. Dry runs and
// empty batches leave it untouched.
func (imp *Importer) advance(ctx context.Context, opts Options, prior *sor.Watermark, committed int64, report Report) error {
	if opts.DryRun || report.Processed == 0 {
		return nil
	}
	w := sor.Watermark{Source: imp.source, LastSyncedAt: time.Now().UTC()}
	if prior != nil {
		w.Imported = prior.Imported
		w.Updated = prior.Updated
		w.Skipped = prior.Skipped
	}
	w.LastImportedRowID = committed
	w.Imported += int64(report.Imported)
	w.Updated += int64(report.Updated)
	w.Skipped += int64(report.Skipped)
	return eris.Wrap(imp.record.SaveWatermark(ctx, &w), "importer: advance watermark")
}
