// Package store is the crawler's working store: leads admitted by the
// gate, waiting for the importer to reconcile them into the system of
// record.
package store

import (
	"context"
	"database/sql"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// Working defines the persistence interface for admitted leads. The
// monotonic row id is the importer's incremental cursor.
type Working interface {
	InsertLead(ctx context.Context, lead *model.Lead) (int64, error)
	LeadsAfter(ctx context.Context, rowID int64, limit int) ([]model.Lead, error)
	CountLeads(ctx context.Context) (int64, error)
	Migrate(ctx context.Context) error
	Close() error
}

// DBProvider exposes the underlying handle so the pattern store can
// share one database file.
type DBProvider interface {
	DB() *sql.DB
}
