package gate

import (
	"net/url"
	"strings"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// Intelligence is the side-channel record produced when a job posting
// is redirected in talent-hunt mode. It never enters the working store
// as a lead.
type Intelligence struct {
	Company   string   `json:"company,omitempty"`
	HRContact string   `json:"hr_contact,omitempty"`
	Role      string   `json:"role,omitempty"`
	Benefits  []string `json:"benefits,omitempty"`
	SourceURL string   `json:"source_url"`
}

// benefitPhrases are advertised perks worth capturing from competitor
// postings.
var benefitPhrases = []string{
	"homeoffice",
	"home office",
	"remote",
	"firmenwagen",
	"dienstwagen",
	"30 urlaubstage",
	"flexible arbeitszeiten",
	"betriebliche altersvorsorge",
	"weiterbildung",
	"jobrad",
	"jobticket",
	"provision",
}

// ExtractIntelligence pulls competitor hiring intelligence out of a job
// posting: who is hiring, for which role, advertising which benefits.
// Pure heuristics over the already-fetched text.
func ExtractIntelligence(cand model.Candidate) *Intelligence {
	intel := &Intelligence{
		Company:   cand.Company,
		SourceURL: cand.URL,
		Role:      roleFromTitle(cand.Title),
	}
	if intel.Company == "" {
		intel.Company = companyFromDomain(cand.URL, cand.Provenance.Domain)
	}
	if containsAny(strings.ToLower(cand.Role), hrKeywords...) {
		intel.HRContact = model.NormalizeName(cand.Name)
	}

	content := strings.ToLower(cand.Content + " " + cand.Snippet)
	for _, b := range benefitPhrases {
		if strings.Contains(content, b) {
			intel.Benefits = append(intel.Benefits, b)
		}
	}
	return intel
}

// roleFromTitle strips gender tags and hiring boilerplate from a job
// title, leaving the advertised role.
func roleFromTitle(title string) string {
	role := title
	for _, cut := range []string{"(m/w/d)", "(w/m/d)", "(m/w/x)", "(m/f/d)"} {
		if idx := strings.Index(strings.ToLower(role), cut); idx >= 0 {
			role = role[:idx]
		}
	}
	role = strings.TrimSpace(role)
	role = strings.TrimSuffix(role, " gesucht")
	return strings.TrimSpace(role)
}

// companyFromDomain falls back to the registrable domain label as the
// company name.
func companyFromDomain(rawURL, provenanceDomain string) string {
	host := provenanceDomain
	if host == "" {
		if u, err := url.Parse(rawURL); err == nil {
			host = u.Hostname()
		}
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" {
		return ""
	}
	label, _, _ := strings.Cut(host, ".")
	return label
}
