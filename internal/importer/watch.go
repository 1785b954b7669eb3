package importer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Watch re-invokes Sync on a fixed interval. Cycles are single-flight
// by construction: the loop is sequential, so a new cycle can never
// start while the previous one is running. On shutdown the in-flight
// batch finishes committing before Watch returns; MaxRows bounds how
// long that can take.
func (imp *Importer) Watch(ctx context.Context, interval time.Duration, opts Options) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log := zap.L().With(zap.String("source", imp.source))
	log.Info("importer: watch mode started", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// The batch runs on a detached context so cancellation waits
		// for the current commit instead of aborting mid-write.
		report, err := imp.Sync(context.WithoutCancel(ctx), opts)
		if err != nil {
			log.Error("importer: sync cycle failed",
				zap.Int("processed", report.Processed),
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			log.Info("importer: watch mode stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
