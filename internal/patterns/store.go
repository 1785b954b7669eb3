// Package patterns is the online-learning table of provenance signals:
// which domains, query terms, URL path segments, and content phrases
// tend to produce admitted leads.
package patterns

import (
	"context"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// Store records admission outcomes per provenance value and serves the
// derived confidence back to the query optimizer.
//
// RecordOutcome is the only mutation path and must be safe under
// concurrent callers for the same key: implementations use an atomic
// upsert-and-increment, not read-modify-write. Reads may observe
// slightly stale counters under concurrent writers.
type Store interface {
	RecordOutcome(ctx context.Context, typ model.PatternType, value string, success bool) error
	ConfidenceOf(ctx context.Context, typ model.PatternType, value string) (float64, error)
	TopPatterns(ctx context.Context, typ model.PatternType, limit int) ([]model.Pattern, error)
}

// Pruner is the optional maintenance surface: drop entries whose
// confidence stayed below a floor despite enough samples. Not part of
// the hot path.
type Pruner interface {
	Prune(ctx context.Context, typ model.PatternType, maxConfidence float64, minSamples int64) (int, error)
}
