package importer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/sor"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/store"
)

// fakeRecordStore is an in-memory RecordStore double. failKey makes the
// write for that identity fail, to exercise mid-batch error handling.
type fakeRecordStore struct {
	mu         sync.Mutex
	records    map[string]sor.Record
	watermarks map[string]sor.Watermark
	inserts    int
	updates    int
	failKey    string
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		records:    make(map[string]sor.Record),
		watermarks: make(map[string]sor.Watermark),
	}
}

func (f *fakeRecordStore) FindByIdentity(_ context.Context, key string) (*sor.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[key]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRecordStore) Insert(_ context.Context, r *sor.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.IdentityKey == f.failKey {
		return errors.New("insert failed")
	}
	f.inserts++
	f.records[r.IdentityKey] = *r
	return nil
}

func (f *fakeRecordStore) Update(_ context.Context, r *sor.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.IdentityKey == f.failKey {
		return errors.New("update failed")
	}
	f.updates++
	f.records[r.IdentityKey] = *r
	return nil
}

func (f *fakeRecordStore) Watermark(_ context.Context, source string) (*sor.Watermark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.watermarks[source]; ok {
		cp := w
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRecordStore) SaveWatermark(_ context.Context, w *sor.Watermark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watermarks[w.Source] = *w
	return nil
}

func (f *fakeRecordStore) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

func newTestImporter(t *testing.T) (*Importer, *store.SQLiteWorking, *fakeRecordStore) {
	t.Helper()
	working, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { working.Close() })
	require.NoError(t, working.Migrate(context.Background()))

	record := newFakeRecordStore()
	imp := New(working, record, Config{Source: "test.db"})
	return imp, working, record
}

func insertLead(t *testing.T, working *store.SQLiteWorking, lead model.Lead) {
	t.Helper()
	_, err := working.InsertLead(context.Background(), &lead)
	require.NoError(t, err)
}

func TestSync_InsertsNewLeads(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 70, LeadType: model.LeadTeamMember})
	insertLead(t, working, model.Lead{Phone: "+4917612345678", Score: 60})
	insertLead(t, working, model.Lead{Email: "max@firma.de", Score: 50})

	report, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, int64(3), report.LastRowID)

	assert.Len(t, record.records, 3)
	w := record.watermarks["test.db"]
	assert.Equal(t, int64(3), w.LastImportedRowID)
	assert.Equal(t, int64(3), w.Imported)
	assert.False(t, w.LastSyncedAt.IsZero())
}

func TestSync_SecondRunIsIdempotent(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 70})

	_, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)

	report, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, report.Imported)
	assert.Zero(t, report.Updated)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Processed)
	assert.Equal(t, 1, record.inserts, "no duplicate writes on replay")
}

func TestSync_ScoreGatedMerge(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 40})
	_, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)

	// A higher-scoring re-discovery updates; an equal one skips.
	insertLead(t, working, model.Lead{Email: "anna@firma.de", Phone: "+4917612345678", Score: 70})
	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 70})

	report, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)

	got := record.records["email:anna@firma.de"]
	assert.Equal(t, 70, got.QualityScore)
	assert.Equal(t, "4917612345678", got.Phone, "merge backfilled the phone")

	// Cumulative counters across runs.
	w := record.watermarks["test.db"]
	assert.Equal(t, int64(1), w.Imported)
	assert.Equal(t, int64(1), w.Updated)
	assert.Equal(t, int64(1), w.Skipped)
	assert.Equal(t, int64(3), w.LastImportedRowID)
}

func TestSync_DryRunWritesNothing(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 40})
	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 70})
	insertLead(t, working, model.Lead{Phone: "+4917612345678", Score: 60})

	dry, err := imp.Sync(ctx, Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Empty(t, record.records)
	assert.Empty(t, record.watermarks)

	// The simulation sees its own earlier rows, so the counts match the
	// real run exactly.
	real, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, real.Imported, dry.Imported)
	assert.Equal(t, real.Updated, dry.Updated)
	assert.Equal(t, real.Skipped, dry.Skipped)
	assert.Equal(t, real.Processed, dry.Processed)
}

func TestSync_ForceRescansAndMerges(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Email: "anna@firma.de", Company: "Firma GmbH", Score: 70})
	_, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)

	// Without force the equal-score replay would skip; force merges.
	report, err := imp.Sync(ctx, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, record.updates)
}

func TestSync_MaxRowsBoundsBatch(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		insertLead(t, working, model.Lead{Email: "lead" + string(rune('a'+i)) + "@firma.de", Score: 50})
	}

	report, err := imp.Sync(ctx, Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, int64(2), record.watermarks["test.db"].LastImportedRowID)

	// The next cycle resumes at the watermark.
	report, err = imp.Sync(ctx, Options{MaxRows: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Len(t, record.records, 5)
}

func TestSync_SkipsLeadsWithoutIdentity(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Name: "Niemand Erreichbar", Score: 50})
	// A phone that normalizes to no digits is no identity either.
	insertLead(t, working, model.Lead{Name: "Frau Platzhalter", Phone: "folgt", Score: 50})
	insertLead(t, working, model.Lead{Email: "anna@firma.de", Score: 50})

	report, err := imp.Sync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 3, report.Processed)
	assert.Len(t, record.records, 1)
}

func TestSync_MidBatchFailureKeepsPartialProgress(t *testing.T) {
	imp, working, record := newTestImporter(t)
	ctx := context.Background()

	insertLead(t, working, model.Lead{Email: "ok@firma.de", Score: 50})
	insertLead(t, working, model.Lead{Email: "boom@firma.de", Score: 50})
	insertLead(t, working, model.Lead{Email: "after@firma.de", Score: 50})
	record.failKey = "email:boom@firma.de"

	report, err := imp.Sync(ctx, Options{})
	require.Error(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, int64(1), report.LastRowID)

	// The watermark stayed at the last committed row; clearing the
	// failure lets a re-run resume without duplicating the first lead.
	assert.Equal(t, int64(1), record.watermarks["test.db"].LastImportedRowID)
	record.failKey = ""

	report, err = imp.Sync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 3, record.inserts)
	assert.Len(t, record.records, 3)
}
