package sor

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewWithPool(mock), mock
}

func recordRow(r Record) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "identity_key", "name", "email", "phone", "company", "role",
		"location", "source_url", "quality_score", "lead_type",
		"linkedin_url", "xing_url", "created_at", "updated_at",
	}).AddRow(
		r.ID, r.IdentityKey, &r.Name, &r.Email, &r.Phone, &r.Company, &r.Role,
		&r.Location, &r.SourceURL, r.QualityScore, string(r.LeadType),
		&r.LinkedInURL, &r.XingURL, r.CreatedAt, r.UpdatedAt,
	)
}

func TestFindByIdentity_Found(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	want := Record{
		ID:           "abc-123",
		IdentityKey:  "email:anna@firma.de",
		Name:         "Anna Muster",
		Email:        "anna@firma.de",
		QualityScore: 70,
		LeadType:     model.LeadTeamMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	mock.ExpectQuery(`(?s)SELECT .+ FROM crm\.leads WHERE identity_key = \$1`).
		WithArgs("email:anna@firma.de").
		WillReturnRows(recordRow(want))

	got, err := s.FindByIdentity(context.Background(), "email:anna@firma.de")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.QualityScore, got.QualityScore)
	assert.Equal(t, model.LeadTeamMember, got.LeadType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIdentity_NotFoundIsNil(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM crm\.leads WHERE identity_key = \$1`).
		WithArgs("phone:4917612345678").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.FindByIdentity(context.Background(), "phone:4917612345678")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_AssignsIDAndTimestamps(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO crm\.leads`).
		WithArgs(pgxmock.AnyArg(), "email:anna@firma.de", "Anna Muster", "anna@firma.de",
			"4917612345678", "Firma GmbH", "Vertrieb", "Köln", "https://firma.de/team/",
			85, "active_salesperson", "", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	r := &Record{
		IdentityKey:  "email:anna@firma.de",
		Name:         "Anna Muster",
		Email:        "anna@firma.de",
		Phone:        "4917612345678",
		Company:      "Firma GmbH",
		Role:         "Vertrieb",
		Location:     "Köln",
		SourceURL:    "https://firma.de/team/",
		QualityScore: 85,
		LeadType:     model.LeadActiveSalesperson,
	}
	require.NoError(t, s.Insert(context.Background(), r))
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE crm\.leads SET`).
		WithArgs("Anna Muster", "anna@firma.de", "4917612345678", "", "", "", "",
			90, "team_member", "", "", pgxmock.AnyArg(), "email:anna@firma.de").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	r := &Record{
		IdentityKey:  "email:anna@firma.de",
		Name:         "Anna Muster",
		Email:        "anna@firma.de",
		Phone:        "4917612345678",
		QualityScore: 90,
		LeadType:     model.LeadTeamMember,
	}
	require.NoError(t, s.Update(context.Background(), r))
	assert.False(t, r.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatermark_NeverSyncedIsNil(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM crm\.sync_watermarks WHERE source = \$1`).
		WithArgs("leads.db").
		WillReturnError(pgx.ErrNoRows)

	w, err := s.Watermark(context.Background(), "leads.db")
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatermark_Found(t *testing.T) {
	s, mock := newMockStore(t)
	syncedAt := time.Now().UTC()

	mock.ExpectQuery(`(?s)SELECT .+ FROM crm\.sync_watermarks WHERE source = \$1`).
		WithArgs("leads.db").
		WillReturnRows(pgxmock.NewRows([]string{
			"source", "last_synced_at", "last_imported_row_id", "imported", "updated", "skipped",
		}).AddRow("leads.db", syncedAt, int64(42), int64(30), int64(8), int64(4)))

	w, err := s.Watermark(context.Background(), "leads.db")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, int64(42), w.LastImportedRowID)
	assert.Equal(t, int64(30), w.Imported)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWatermark_Upserts(t *testing.T) {
	s, mock := newMockStore(t)
	syncedAt := time.Now().UTC()

	mock.ExpectExec(`(?s)INSERT INTO crm\.sync_watermarks.+ON CONFLICT \(source\) DO UPDATE`).
		WithArgs("leads.db", syncedAt, int64(42), int64(30), int64(8), int64(4)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveWatermark(context.Background(), &Watermark{
		Source:            "leads.db",
		LastSyncedAt:      syncedAt,
		LastImportedRowID: 42,
		Imported:          30,
		Updated:           8,
		Skipped:           4,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS crm`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
