package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/gate"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/patterns"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/store"
)

func candidateLine(t *testing.T, cand model.Candidate) string {
	t.Helper()
	b, err := json.Marshal(cand)
	require.NoError(t, err)
	return string(b)
}

func admitCandidate(name, phone string) model.Candidate {
	return model.Candidate{
		Name:    name,
		Phone:   phone,
		URL:     "https://firma.de/team/",
		Title:   "Unser Team",
		Snippet: "Ihre Ansprechpartner im Vertrieb.",
		Provenance: model.Provenance{
			QueryTerm: "vertrieb köln",
			Domain:    "firma.de",
		},
	}
}

func TestRunEvaluate_PersistsAdmittedLeads(t *testing.T) {
	ctx := context.Background()
	working, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { working.Close() })
	require.NoError(t, working.Migrate(ctx))

	g := gate.New(patterns.NewMemory(), "DE")

	in := strings.Join([]string{
		candidateLine(t, admitCandidate("Anna Muster", "0176 12345678")),
		"",
		candidateLine(t, admitCandidate("Bernd Beispiel", "0171 7654321")),
		candidateLine(t, model.Candidate{
			Phone: "0176 12345678",
			URL:   "https://firma.de/jobs/vertriebsmitarbeiter",
			Title: "Vertriebsmitarbeiter (m/w/d)",
		}),
		"{not json",
	}, "\n")

	var out bytes.Buffer
	rep, err := runEvaluate(ctx, strings.NewReader(in), &out, working, g, gate.ModeNormal, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.admitted)
	assert.Equal(t, 1, rep.rejected)
	assert.Equal(t, 0, rep.redirected)
	assert.Equal(t, 1, rep.malformed)

	count, err := working.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Empty(t, out.String())
}

func TestRunEvaluate_RedirectWritesIntelligence(t *testing.T) {
	ctx := context.Background()
	working, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { working.Close() })
	require.NoError(t, working.Migrate(ctx))

	g := gate.New(patterns.NewMemory(), "DE")

	in := candidateLine(t, model.Candidate{
		URL:     "https://konkurrent.de/jobs/vertriebsmitarbeiter",
		Title:   "Vertriebsmitarbeiter (m/w/d) gesucht",
		Content: "Wir bieten Homeoffice und Firmenwagen.",
	})

	var out bytes.Buffer
	rep, err := runEvaluate(ctx, strings.NewReader(in), &out, working, g, gate.ModeTalentHunt, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.redirected)
	assert.Equal(t, 0, rep.admitted)

	var intel map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &intel))

	count, err := working.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

// brokenWorking fails every insert, standing in for a working store
// whose disk gave out mid-run.
type brokenWorking struct{}

func (brokenWorking) InsertLead(context.Context, *model.Lead) (int64, error) {
	return 0, errors.New("disk I/O error")
}

func (brokenWorking) LeadsAfter(context.Context, int64, int) ([]model.Lead, error) {
	return nil, nil
}

func (brokenWorking) CountLeads(context.Context) (int64, error) { return 0, nil }
func (brokenWorking) Migrate(context.Context) error             { return nil }
func (brokenWorking) Close() error                              { return nil }
func (brokenWorking) DB() *sql.DB                               { return nil }

func TestRunEvaluate_PersistFailureUnwindsPipeline(t *testing.T) {
	ctx := context.Background()
	g := gate.New(patterns.NewMemory(), "DE")

	// More candidates than workers, so a stalled results channel would
	// park every worker and block the input loop too.
	var lines []string
	for range 16 {
		lines = append(lines, candidateLine(t, admitCandidate("Anna Muster", "0176 12345678")))
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := runEvaluate(ctx, strings.NewReader(strings.Join(lines, "\n")), &bytes.Buffer{}, brokenWorking{}, g, gate.ModeNormal, 4)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "persist lead")
		assert.Contains(t, err.Error(), "disk I/O error")
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline stalled after a persist failure")
	}
}
