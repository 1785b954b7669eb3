package sor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/db"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/resilience"
)

// Store provides access to the system-of-record database.
type Store struct {
	pool db.Pool
}

// PoolConfig holds connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// Open connects to the system of record behind the resilient wrapper:
// the pool is dialed lazily, validated before use, and reopened
// transparently when it breaks.
func Open(connString string, poolCfg PoolConfig) *Store {
	dial := func(ctx context.Context) (db.Pool, error) {
		retryCfg := resilience.DialRetryConfig()
		retryCfg.OnRetry = resilience.RetryLogger("sor", "dial")

		var pool *pgxpool.Pool
		err := resilience.Do(ctx, retryCfg, func(ctx context.Context) error {
			pgxCfg, err := pgxpool.ParseConfig(connString)
			if err != nil {
				return eris.Wrap(err, "sor: parse config")
			}
			maxConns := int32(10)
			minConns := int32(2)
			if poolCfg.MaxConns > 0 {
				maxConns = poolCfg.MaxConns
			}
			if poolCfg.MinConns > 0 {
				minConns = poolCfg.MinConns
			}
			pgxCfg.MaxConns = maxConns
			pgxCfg.MinConns = minConns
			pgxCfg.MaxConnLifetime = 30 * time.Minute
			pgxCfg.MaxConnIdleTime = 5 * time.Minute

			pool, err = pgxpool.NewWithConfig(ctx, pgxCfg)
			if err != nil {
				return eris.Wrap(err, "sor: create pool")
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				pool = nil
				return eris.Wrap(err, "sor: ping")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return pool, nil
	}
	return &Store{pool: db.NewResilient(dial)}
}

// NewWithPool wraps an existing pool (tests).
func NewWithPool(pool db.Pool) *Store {
	return &Store{pool: pool}
}

const migration = `
CREATE SCHEMA IF NOT EXISTS crm;

CREATE TABLE IF NOT EXISTS crm.leads (
	id            TEXT PRIMARY KEY,
	identity_key  TEXT NOT NULL UNIQUE,
	name          TEXT,
	email         TEXT,
	phone         TEXT,
	company       TEXT,
	role          TEXT,
	location      TEXT,
	source_url    TEXT,
	quality_score INTEGER NOT NULL DEFAULT 0,
	lead_type     TEXT NOT NULL DEFAULT 'unknown',
	linkedin_url  TEXT,
	xing_url      TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_crm_leads_email ON crm.leads(email);
CREATE INDEX IF NOT EXISTS idx_crm_leads_lead_type ON crm.leads(lead_type);

CREATE TABLE IF NOT EXISTS crm.sync_watermarks (
	source               TEXT PRIMARY KEY,
	last_synced_at       TIMESTAMPTZ NOT NULL,
	last_imported_row_id BIGINT NOT NULL DEFAULT 0,
	imported             BIGINT NOT NULL DEFAULT 0,
	updated              BIGINT NOT NULL DEFAULT 0,
	skipped              BIGINT NOT NULL DEFAULT 0
);
`

// Migrate creates the crm schema and tables.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migration)
	return eris.Wrap(err, "sor: migrate")
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

const recordColumns = `id, identity_key, name, email, phone, company, role, location,
	source_url, quality_score, lead_type, linkedin_url, xing_url, created_at, updated_at`

// FindByIdentity looks up a record by its dedup identity key. Returns
// nil when no record matches.
func (s *Store) FindByIdentity(ctx context.Context, key string) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM crm.leads WHERE identity_key = $1`, key)

	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sor: find by identity %s", key)
	}
	return r, nil
}

// Insert writes a new record. The caller has already established that
// no record with this identity key exists.
func (s *Store) Insert(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO crm.leads (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.IdentityKey, r.Name, r.Email, r.Phone, r.Company, r.Role, r.Location,
		r.SourceURL, r.QualityScore, string(r.LeadType), r.LinkedInURL, r.XingURL,
		r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "sor: insert %s", r.IdentityKey)
}

// Update overwrites the mutable fields of an existing record.
func (s *Store) Update(ctx context.Context, r *Record) error {
	r.UpdatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`UPDATE crm.leads SET name = $1, email = $2, phone = $3, company = $4,
		        role = $5, location = $6, source_url = $7, quality_score = $8,
		        lead_type = $9, linkedin_url = $10, xing_url = $11, updated_at = $12
		 WHERE identity_key = $13`,
		r.Name, r.Email, r.Phone, r.Company, r.Role, r.Location, r.SourceURL,
		r.QualityScore, string(r.LeadType), r.LinkedInURL, r.XingURL, r.UpdatedAt,
		r.IdentityKey,
	)
	return eris.Wrapf(err, "sor: update %s", r.IdentityKey)
}

// Watermark returns the sync cursor for a source, or nil if the source
// has never completed a sync.
func (s *Store) Watermark(ctx context.Context, source string) (*Watermark, error) {
	var w Watermark
	err := s.pool.QueryRow(ctx,
		`SELECT source, last_synced_at, last_imported_row_id, imported, updated, skipped
		 FROM crm.sync_watermarks WHERE source = $1`, source,
	).Scan(&w.Source, &w.LastSyncedAt, &w.LastImportedRowID, &w.Imported, &w.Updated, &w.Skipped)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sor: watermark for %s", source)
	}
	return &w, nil
}

// SaveWatermark upserts the sync cursor. Called only after the batch it
// describes has committed.
func (s *Store) SaveWatermark(ctx context.Context, w *Watermark) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO crm.sync_watermarks
		   (source, last_synced_at, last_imported_row_id, imported, updated, skipped)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (source) DO UPDATE SET
		   last_synced_at = EXCLUDED.last_synced_at,
		   last_imported_row_id = EXCLUDED.last_imported_row_id,
		   imported = EXCLUDED.imported,
		   updated = EXCLUDED.updated,
		   skipped = EXCLUDED.skipped`,
		w.Source, w.LastSyncedAt, w.LastImportedRowID, w.Imported, w.Updated, w.Skipped,
	)
	return eris.Wrapf(err, "sor: save watermark for %s", w.Source)
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	var name, email, phone, company, role, location *string
	var sourceURL, linkedinURL, xingURL *string
	var leadType string

	err := row.Scan(&r.ID, &r.IdentityKey, &name, &email, &phone, &company, &role,
		&location, &sourceURL, &r.QualityScore, &leadType, &linkedinURL, &xingURL,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	r.Name = deref(name)
	r.Email = deref(email)
	r.Phone = deref(phone)
	r.Company = deref(company)
	r.Role = deref(role)
	r.Location = deref(location)
	r.SourceURL = deref(sourceURL)
	r.LinkedInURL = deref(linkedinURL)
	r.XingURL = deref(xingURL)
	r.LeadType = model.ParseLeadType(leadType)
	return &r, nil
}
