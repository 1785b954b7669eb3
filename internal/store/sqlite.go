package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// SQLiteWorking implements Working using modernc.org/sqlite.
type SQLiteWorking struct {
	db *sql.DB
}

var (
	_ Working    = (*SQLiteWorking)(nil)
	_ DBProvider = (*SQLiteWorking)(nil)
)

// NewSQLite opens the working database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteWorking, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	// modernc sqlite allows one writer at a time; a single pooled
	// connection also keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &SQLiteWorking{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	row_id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT,
	email              TEXT,
	phone              TEXT,
	company            TEXT,
	role               TEXT,
	role_guess         TEXT,
	region             TEXT,
	location_specific  TEXT,
	source_url         TEXT,
	source_detail      TEXT,
	social_profile_url TEXT,
	score              INTEGER NOT NULL DEFAULT 0,
	lead_type          TEXT NOT NULL DEFAULT 'unknown',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads(phone);
`

func (s *SQLiteWorking) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "store: migrate")
}

func (s *SQLiteWorking) Close() error {
	return s.db.Close()
}

// DB exposes the handle for the pattern store to share.
func (s *SQLiteWorking) DB() *sql.DB {
	return s.db
}

// InsertLead persists an admitted lead and returns its row id.
func (s *SQLiteWorking) InsertLead(ctx context.Context, lead *model.Lead) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (name, email, phone, company, role, role_guess, region,
		                    location_specific, source_url, source_detail,
		                    social_profile_url, score, lead_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.Name, lead.Email, lead.Phone, lead.Company, lead.Role, lead.RoleGuess,
		lead.Region, lead.LocationSpecific, lead.SourceURL, lead.SourceDetail,
		lead.SocialProfileURL, lead.Score, string(lead.LeadType), now, now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "store: insert lead")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "store: last insert id")
	}
	lead.RowID = id
	lead.CreatedAt = now
	lead.UpdatedAt = now
	return id, nil
}

// LeadsAfter returns up to limit leads with row id strictly greater
// than rowID, in ascending row-id order.
func (s *SQLiteWorking) LeadsAfter(ctx context.Context, rowID int64, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, name, email, phone, company, role, role_guess, region,
		        location_specific, source_url, source_detail, social_profile_url,
		        score, lead_type, created_at, updated_at
		 FROM leads WHERE row_id > ? ORDER BY row_id ASC LIMIT ?`,
		rowID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: leads after")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "store: leads after iterate")
}

func (s *SQLiteWorking) CountLeads(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, eris.Wrap(err, "store: count leads")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var name, email, phone, company, role, roleGuess, region sql.NullString
	var locSpecific, sourceURL, sourceDetail, socialURL sql.NullString
	var leadType string

	err := row.Scan(&l.RowID, &name, &email, &phone, &company, &role, &roleGuess,
		&region, &locSpecific, &sourceURL, &sourceDetail, &socialURL,
		&l.Score, &leadType, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan lead")
	}

	l.Name = name.String
	l.Email = email.String
	l.Phone = phone.String
	l.Company = company.String
	l.Role = role.String
	l.RoleGuess = roleGuess.String
	l.Region = region.String
	l.LocationSpecific = locSpecific.String
	l.SourceURL = sourceURL.String
	l.SourceDetail = sourceDetail.String
	l.SocialProfileURL = socialURL.String
	l.LeadType = model.ParseLeadType(leadType)
	return &l, nil
}
