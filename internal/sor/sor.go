// Package sor is the system-of-record boundary: the CRM's lead table
// and the per-source sync watermarks. This core only writes to it
// through the importer's mapping/merge contract.
package sor

import (
	"time"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// Record is a lead row in the system of record.
type Record struct {
	ID           string         `json:"id"`
	IdentityKey  string         `json:"identity_key"`
	Name         string         `json:"name,omitempty"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Company      string         `json:"company,omitempty"`
	Role         string         `json:"role,omitempty"`
	Location     string         `json:"location,omitempty"`
	SourceURL    string         `json:"source_url,omitempty"`
	QualityScore int            `json:"quality_score"`
	LeadType     model.LeadType `json:"lead_type"`
	LinkedInURL  string         `json:"linkedin_url,omitempty"`
	XingURL      string         `json:"xing_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Watermark is the persisted sync cursor for one source, advanced only
// after a batch has committed.
type Watermark struct {
	Source            string    `json:"source"`
	LastSyncedAt      time.Time `json:"last_synced_at"`
	LastImportedRowID int64     `json:"last_imported_row_id"`
	Imported          int64     `json:"imported"`
	Updated           int64     `json:"updated"`
	Skipped           int64     `json:"skipped"`
}
