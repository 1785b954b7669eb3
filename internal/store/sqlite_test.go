package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

func newTestWorking(t *testing.T) *SQLiteWorking {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestInsertLeadAndCount(t *testing.T) {
	s := newTestWorking(t)
	ctx := context.Background()

	lead := &model.Lead{
		Name:     "Anna Muster",
		Email:    "anna@firma.de",
		Phone:    "+4917612345678",
		Company:  "Firma GmbH",
		Score:    70,
		LeadType: model.LeadTeamMember,
	}
	id, err := s.InsertLead(ctx, lead)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, id, lead.RowID)
	assert.False(t, lead.CreatedAt.IsZero())

	n, err := s.CountLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLeadsAfter_Cursor(t *testing.T) {
	s := newTestWorking(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.InsertLead(ctx, &model.Lead{
			Email:    "lead@firma.de",
			LeadType: model.LeadUnknown,
		})
		require.NoError(t, err)
	}

	leads, err := s.LeadsAfter(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, int64(1), leads[0].RowID)
	assert.Equal(t, int64(3), leads[2].RowID)

	// Paging resumes strictly after the cursor.
	leads, err = s.LeadsAfter(ctx, leads[2].RowID, 10)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, int64(4), leads[0].RowID)
	assert.Equal(t, int64(5), leads[1].RowID)

	// Past the end is empty, not an error.
	leads, err = s.LeadsAfter(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLeadsAfter_RoundTrip(t *testing.T) {
	s := newTestWorking(t)
	ctx := context.Background()

	in := &model.Lead{
		Name:             "Max Berater",
		Phone:            "+4915112345678",
		Company:          "Vertrieb AG",
		RoleGuess:        "Vertriebsmitarbeiter",
		Region:           "NRW",
		LocationSpecific: "Köln",
		SourceURL:        "https://vertrieb-ag.de/team/",
		SourceDetail:     "team page",
		SocialProfileURL: "https://www.linkedin.com/in/max-berater",
		Score:            85,
		LeadType:         model.LeadActiveSalesperson,
	}
	_, err := s.InsertLead(ctx, in)
	require.NoError(t, err)

	leads, err := s.LeadsAfter(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	got := leads[0]

	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Phone, got.Phone)
	assert.Empty(t, got.Email)
	assert.Equal(t, in.RoleGuess, got.RoleGuess)
	assert.Equal(t, in.LocationSpecific, got.LocationSpecific)
	assert.Equal(t, in.SocialProfileURL, got.SocialProfileURL)
	assert.Equal(t, in.Score, got.Score)
	assert.Equal(t, model.LeadActiveSalesperson, got.LeadType)
}
