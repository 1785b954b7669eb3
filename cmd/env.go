package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/importer"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/patterns"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/sor"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/store"
)

// openWorking opens the working store and the pattern store on the
// shared database file, running migrations.
func openWorking(ctx context.Context) (*store.SQLiteWorking, *patterns.SQLiteStore, error) {
	working, err := store.NewSQLite(cfg.Working.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := working.Migrate(ctx); err != nil {
		working.Close()
		return nil, nil, err
	}

	ps := patterns.NewSQLiteFromDB(working.DB())
	if err := ps.Migrate(ctx); err != nil {
		working.Close()
		return nil, nil, err
	}
	return working, ps, nil
}

// openRecord connects to the system of record.
func openRecord() (*sor.Store, error) {
	if cfg.Record.DatabaseURL == "" {
		return nil, eris.New("record.database_url is not configured")
	}
	return sor.Open(cfg.Record.DatabaseURL, sor.PoolConfig{
		MaxConns: cfg.Record.MaxConns,
		MinConns: cfg.Record.MinConns,
	}), nil
}

// newImporter wires the importer over both stores. sourcePath overrides
// the configured working-store path when non-empty.
func newImporter(ctx context.Context, sourcePath string) (*importer.Importer, func(), error) {
	if sourcePath == "" {
		sourcePath = cfg.Importer.SourcePath
	}

	working, err := store.NewSQLite(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	if err := working.Migrate(ctx); err != nil {
		working.Close()
		return nil, nil, err
	}

	record, err := openRecord()
	if err != nil {
		working.Close()
		return nil, nil, err
	}
	if err := record.Migrate(ctx); err != nil {
		record.Close()
		working.Close()
		return nil, nil, err
	}

	imp := importer.New(working, record, importer.Config{
		Source:       sourcePath,
		MaxRows:      cfg.Importer.MaxRows,
		WritesPerSec: cfg.Importer.WritesPerSec,
		WriteBurst:   cfg.Importer.WriteBurst,
	})
	cleanup := func() {
		record.Close()
		working.Close()
	}
	return imp, cleanup, nil
}
