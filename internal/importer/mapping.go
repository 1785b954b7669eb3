package importer

import (
	"strings"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/sor"
)

// IdentityKey computes the dedup key for a working-store lead:
// normalized email if present, else digits-only phone. Empty when the
// lead carries neither (an integrity violation the sync loop skips).
func IdentityKey(lead model.Lead) string {
	if email := model.NormalizeEmail(lead.Email); email != "" {
		return "email:" + email
	}
	if digits := model.DigitsOnly(lead.Phone); digits != "" {
		return "phone:" + digits
	}
	return ""
}

// MapLead converts a working-store lead into the system-of-record
// schema per the CRM field-mapping contract.
func MapLead(lead model.Lead) sor.Record {
	r := sor.Record{
		IdentityKey:  IdentityKey(lead),
		Name:         lead.Name,
		Email:        model.NormalizeEmail(lead.Email),
		Phone:        model.DigitsOnly(lead.Phone),
		Company:      lead.Company,
		SourceURL:    lead.SourceURL,
		QualityScore: model.ClampScore(lead.Score),
		LeadType:     model.ParseLeadType(string(lead.LeadType)),
	}

	// Prefer the derived guess over the raw scrape for role, the
	// specific location over the broad region.
	r.Role = lead.Role
	if lead.RoleGuess != "" {
		r.Role = lead.RoleGuess
	}
	r.Location = lead.Region
	if lead.LocationSpecific != "" {
		r.Location = lead.LocationSpecific
	}

	r.LinkedInURL, r.XingURL = routeSocialProfile(lead.SocialProfileURL)
	return r
}

// routeSocialProfile sends a generic social-profile URL to the matching
// destination field by domain sniffing. Unrecognized domains are
// dropped rather than misfiled.
func routeSocialProfile(url string) (linkedin, xing string) {
	lurl := strings.ToLower(url)
	switch {
	case strings.Contains(lurl, "linkedin.com"):
		return url, ""
	case strings.Contains(lurl, "xing.com"):
		return "", url
	default:
		return "", ""
	}
}

// Merge applies the incoming record onto the existing one: the score is
// overwritten, and company, role, location, and profile URLs are
// backfilled only where the existing record is empty. A populated field
// is never overwritten with an incoming empty one.
func Merge(existing, incoming sor.Record) sor.Record {
	merged := existing
	merged.QualityScore = incoming.QualityScore

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&merged.Name, incoming.Name)
	fill(&merged.Email, incoming.Email)
	fill(&merged.Phone, incoming.Phone)
	fill(&merged.Company, incoming.Company)
	fill(&merged.Role, incoming.Role)
	fill(&merged.Location, incoming.Location)
	fill(&merged.SourceURL, incoming.SourceURL)
	fill(&merged.LinkedInURL, incoming.LinkedInURL)
	fill(&merged.XingURL, incoming.XingURL)

	if merged.LeadType == model.LeadUnknown && incoming.LeadType != model.LeadUnknown {
		merged.LeadType = incoming.LeadType
	}
	return merged
}
