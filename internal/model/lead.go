package model

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// LeadType is the closed classification of an admitted contact.
type LeadType string

const (
	LeadActiveSalesperson LeadType = "active_salesperson"
	LeadTeamMember        LeadType = "team_member"
	LeadFreelancer        LeadType = "freelancer"
	LeadHRContact         LeadType = "hr_contact"
	LeadCandidate         LeadType = "candidate"
	LeadUnknown           LeadType = "unknown"
)

// ParseLeadType maps a string onto the closed enum. Anything outside the
// set maps to LeadUnknown, never an error.
func ParseLeadType(s string) LeadType {
	switch LeadType(strings.TrimSpace(strings.ToLower(s))) {
	case LeadActiveSalesperson, LeadTeamMember, LeadFreelancer, LeadHRContact, LeadCandidate:
		return LeadType(strings.TrimSpace(strings.ToLower(s)))
	default:
		return LeadUnknown
	}
}

// Lead is an admitted contact in the crawler's working store. RowID is
// the monotonic cursor the sync importer pages by.
type Lead struct {
	RowID            int64     `json:"row_id,omitempty"`
	Name             string    `json:"name,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Company          string    `json:"company,omitempty"`
	Role             string    `json:"role,omitempty"`
	RoleGuess        string    `json:"role_guess,omitempty"`
	Region           string    `json:"region,omitempty"`
	LocationSpecific string    `json:"location_specific,omitempty"`
	SourceURL        string    `json:"source_url,omitempty"`
	SourceDetail     string    `json:"source_detail,omitempty"`
	SocialProfileURL string    `json:"social_profile_url,omitempty"`
	Score            int       `json:"score"`
	LeadType         LeadType  `json:"lead_type"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// HasContact reports whether the lead carries at least one identity
// channel (email or phone).
func (l Lead) HasContact() bool {
	return l.Email != "" || l.Phone != ""
}

// NormalizeEmail canonicalizes an email for identity comparison:
// trimmed, lowercased.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DigitsOnly strips everything but decimal digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName collapses whitespace and applies NFC so that names
// scraped from differently-encoded pages compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// ClampScore bounds a quality score to [0,100].
func ClampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
