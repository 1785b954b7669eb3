package db

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/resilience"
)

// Dial opens a fresh pool. Resilient calls it lazily and again after a
// broken connection is detected.
type Dial func(ctx context.Context) (Pool, error)

// Resilient wraps a Pool with a validate-before-use, reopen-on-failure
// contract: every operation goes through it, a broken pool is replaced
// transparently, and a failed operation is retried exactly once against
// the fresh pool. A second consecutive failure propagates to the
// caller.
type Resilient struct {
	mu   sync.Mutex
	dial Dial
	pool Pool
}

var _ Pool = (*Resilient)(nil)

// NewResilient creates a wrapper around dial. No connection is opened
// until the first operation.
func NewResilient(dial Dial) *Resilient {
	return &Resilient{dial: dial}
}

// acquire returns a validated pool, opening or reopening as needed.
func (r *Resilient) acquire(ctx context.Context) (Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pool != nil {
		if err := r.pool.Ping(ctx); err == nil {
			return r.pool, nil
		}
		zap.L().Warn("db: pool failed validation, reopening")
		r.pool.Close()
		r.pool = nil
	}

	pool, err := r.dial(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "db: dial")
	}
	r.pool = pool
	return pool, nil
}

// invalidate drops a pool that just failed, unless it was already
// replaced by a concurrent caller.
func (r *Resilient) invalidate(p Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool == p {
		r.pool.Close()
		r.pool = nil
	}
}

// do runs op against a validated pool, reconnecting and retrying once
// on a connection-level failure.
func (r *Resilient) do(ctx context.Context, op func(Pool) error) error {
	pool, err := r.acquire(ctx)
	if err != nil {
		return err
	}

	err = op(pool)
	if err == nil || !resilience.IsConnectionFailure(err) {
		return err
	}

	zap.L().Warn("db: operation hit broken connection, retrying once", zap.Error(err))
	r.invalidate(pool)

	pool, aerr := r.acquire(ctx)
	if aerr != nil {
		return aerr
	}
	return op(pool)
}

// Exec runs a statement with the reconnect-retry contract.
func (r *Resilient) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := r.do(ctx, func(p Pool) error {
		var err error
		tag, err = p.Exec(ctx, sql, args...)
		return err
	})
	return tag, err
}

// Query runs a query with the reconnect-retry contract. The caller owns
// the returned rows.
func (r *Resilient) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows pgx.Rows
	err := r.do(ctx, func(p Pool) error {
		var err error
		rows, err = p.Query(ctx, sql, args...)
		return err
	})
	return rows, err
}

// QueryRow runs a single-row query. The pool is validated up front;
// errors surfacing at Scan time are the caller's to handle, since the
// row cannot be replayed after a partial read.
func (r *Resilient) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := r.acquire(ctx)
	if err != nil {
		return errRow{err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

// Begin opens a transaction on a validated pool. Transactions are not
// replayed: a connection loss mid-transaction rolls back server-side
// and surfaces to the caller.
func (r *Resilient) Begin(ctx context.Context) (pgx.Tx, error) {
	var tx pgx.Tx
	err := r.do(ctx, func(p Pool) error {
		var err error
		tx, err = p.Begin(ctx)
		return err
	})
	return tx, err
}

// Ping validates the wrapper end to end.
func (r *Resilient) Ping(ctx context.Context) error {
	_, err := r.acquire(ctx)
	return err
}

// Close shuts the current pool down, if any.
func (r *Resilient) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

// errRow satisfies pgx.Row for acquisition failures.
type errRow struct{ err error }

func (e errRow) Scan(...any) error { return e.err }
