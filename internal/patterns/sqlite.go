package patterns

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// SQLiteStore persists patterns in the crawler working database.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ Store  = (*SQLiteStore)(nil)
	_ Pruner = (*SQLiteStore)(nil)
)

// NewSQLite opens a pattern store at the given SQLite DSN.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "patterns: open")
	}
	// One pooled connection: single writer, and :memory: stays one
	// database instead of one per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "patterns: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteFromDB wraps an already-open handle (shared with the working
// store).
func NewSQLiteFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS patterns (
	type          TEXT NOT NULL,
	value         TEXT NOT NULL,
	success_count INTEGER NOT NULL DEFAULT 0,
	fail_count    INTEGER NOT NULL DEFAULT 0,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (type, value)
);

CREATE INDEX IF NOT EXISTS idx_patterns_type ON patterns(type);
`

// Migrate creates the patterns table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "patterns: migrate")
}

// Close closes the underlying handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordOutcome upserts the (type, value) row and increments the
// matching counter. The single INSERT ... ON CONFLICT statement is the
// serialization point: concurrent callers for the same key cannot lose
// updates.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, typ model.PatternType, value string, success bool) error {
	succ, fail := 0, 1
	if success {
		succ, fail = 1, 0
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patterns (type, value, success_count, fail_count, updated_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(type, value) DO UPDATE SET
		   success_count = success_count + excluded.success_count,
		   fail_count    = fail_count + excluded.fail_count,
		   updated_at    = datetime('now')`,
		string(typ), value, succ, fail,
	)
	return eris.Wrapf(err, "patterns: record outcome %s/%s", typ, value)
}

// ConfidenceOf returns the smoothed success rate for a key. Unseen keys
// get the neutral prior (zero counts), never an error.
func (s *SQLiteStore) ConfidenceOf(ctx context.Context, typ model.PatternType, value string) (float64, error) {
	var p model.Pattern
	err := s.db.QueryRowContext(ctx,
		`SELECT success_count, fail_count FROM patterns WHERE type = ? AND value = ?`,
		string(typ), value,
	).Scan(&p.SuccessCount, &p.FailCount)
	if err == sql.ErrNoRows {
		return model.Pattern{}.Confidence(), nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "patterns: confidence of %s/%s", typ, value)
	}
	return p.Confidence(), nil
}

// TopPatterns lists patterns of a type by descending confidence, ties
// broken by descending success count (bigger sample wins).
func (s *SQLiteStore) TopPatterns(ctx context.Context, typ model.PatternType, limit int) ([]model.Pattern, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, value, success_count, fail_count, updated_at FROM patterns
		 WHERE type = ?
		 ORDER BY CAST(success_count AS REAL) / (success_count + fail_count + 1) DESC,
		          success_count DESC, value ASC
		 LIMIT ?`,
		string(typ), limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "patterns: top patterns %s", typ)
	}
	defer rows.Close()

	var out []model.Pattern
	for rows.Next() {
		var p model.Pattern
		if err := rows.Scan(&p.Type, &p.Value, &p.SuccessCount, &p.FailCount, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "patterns: scan pattern")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "patterns: top patterns iterate")
}

// Prune deletes entries whose confidence stayed at or below
// maxConfidence after at least minSamples observations.
func (s *SQLiteStore) Prune(ctx context.Context, typ model.PatternType, maxConfidence float64, minSamples int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM patterns
		 WHERE type = ?
		   AND success_count + fail_count >= ?
		   AND CAST(success_count AS REAL) / (success_count + fail_count + 1) <= ?`,
		string(typ), minSamples, maxConfidence,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "patterns: prune %s", typ)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "patterns: prune rows affected")
}
