// Package gate decides, candidate by candidate, whether a crawl hit is
// a contactable lead, noise to discard, or competitor intelligence to
// redirect. It is the only classification-path component with a side
// effect: pattern-store outcome recording.
package gate

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/jobad"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/patterns"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/phone"
)

// Mode selects the admission policy.
type Mode string

const (
	// ModeNormal admits mobile-reachable sales leads only.
	ModeNormal Mode = "normal"
	// ModeTalentHunt relaxes the mobile rule and turns job postings
	// into competitor intelligence instead of discards.
	ModeTalentHunt Mode = "talent_hunt"
)

// ParseMode maps a string onto a Mode, defaulting to ModeNormal.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeTalentHunt {
		return ModeTalentHunt
	}
	return ModeNormal
}

// Outcome is the gate's ternary verdict.
type Outcome string

const (
	OutcomeAdmit    Outcome = "admit"
	OutcomeReject   Outcome = "reject"
	OutcomeRedirect Outcome = "redirect"
)

// Reject reasons. The reason is part of the contract: the crawler reads
// not_mobile_number as "do not blacklist this URL, a deep fetch may
// still find a mobile number".
const (
	ReasonJobPosting    = "job_posting"
	ReasonNotMobile     = "not_mobile_number"
	ReasonNoContactInfo = "no_contact_info"
)

// Decision is the result of evaluating one candidate.
type Decision struct {
	Outcome      Outcome             `json:"outcome"`
	Lead         *model.Lead         `json:"lead,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	Intelligence *Intelligence       `json:"intelligence,omitempty"`
	Phone        model.NormalizedPhone `json:"phone,omitempty"`
}

// Gate orchestrates the classifiers and the pattern store. The pattern
// store is injected so tests run against an isolated in-memory store.
type Gate struct {
	patterns    patterns.Store
	homeCountry string
}

// New creates a Gate. homeCountry is the ISO code assumed for phone
// numbers without an international prefix.
func New(ps patterns.Store, homeCountry string) *Gate {
	if homeCountry == "" {
		homeCountry = "DE"
	}
	return &Gate{patterns: ps, homeCountry: homeCountry}
}

// Evaluate runs the admission algorithm in strict order: job-posting
// veto, phone qualification, identity requirement, lead construction,
// learning side effect. Classification never errors; malformed input
// degrades to a reject.
func (g *Gate) Evaluate(ctx context.Context, cand model.Candidate, mode Mode) Decision {
	// 1. Job-posting veto. Applies even to whitelisted URLs.
	if jobad.IsJobPosting(cand.URL, cand.Title, cand.Snippet, cand.Content) {
		if mode == ModeTalentHunt {
			intel := ExtractIntelligence(cand)
			zap.L().Debug("gate: job posting redirected",
				zap.String("url", cand.URL),
				zap.String("company", intel.Company),
			)
			return Decision{Outcome: OutcomeRedirect, Intelligence: intel}
		}
		// This candidate should not have been surfaced: penalize its
		// provenance here, once.
		g.recordOutcomes(ctx, cand, false)
		return Decision{Outcome: OutcomeReject, Reason: ReasonJobPosting}
	}

	// 2. Phone qualification: a mobile number found in any
	// phone-bearing field admits; landline presence is irrelevant once
	// a mobile qualifies.
	best, haveMobile := phone.FirstMobile(g.homeCountry, cand.Phone, cand.Snippet, cand.Content)
	email := model.NormalizeEmail(cand.Email)
	if !haveMobile {
		landlines := phone.ExtractAll(cand.Phone, g.homeCountry)
		if len(landlines) == 0 {
			landlines = phone.ExtractAll(cand.Snippet+" "+cand.Content, g.homeCountry)
		}
		if mode == ModeNormal {
			// Normal mode never admits landline-only or email-only
			// contacts. The not_mobile_number reason tells the crawler
			// the URL may still yield a mobile number on a deep fetch,
			// so it must not be blacklisted.
			g.recordOutcomes(ctx, cand, false)
			if len(landlines) > 0 {
				return Decision{Outcome: OutcomeReject, Reason: ReasonNotMobile}
			}
			return Decision{Outcome: OutcomeReject, Reason: ReasonNoContactInfo}
		}
		// Talent hunt accepts landline contacts.
		if len(landlines) > 0 {
			best = landlines[0]
		}
	}

	// 3. Identity requirement.
	if best.Kind == model.PhoneInvalid && email == "" {
		g.recordOutcomes(ctx, cand, false)
		return Decision{Outcome: OutcomeReject, Reason: ReasonNoContactInfo}
	}

	// 4. Admission.
	lead := g.buildLead(cand, best, email, mode)

	// 5. Learning side effect.
	g.recordOutcomes(ctx, cand, true)

	zap.L().Debug("gate: candidate admitted",
		zap.String("url", cand.URL),
		zap.String("lead_type", string(lead.LeadType)),
		zap.Int("score", lead.Score),
		zap.Strings("signals", jobad.Signals(cand.URL, cand.Title, cand.Snippet, cand.Content)),
	)
	return Decision{Outcome: OutcomeAdmit, Lead: lead, Phone: best}
}

// buildLead maps candidate fields into the working-store lead shape.
func (g *Gate) buildLead(cand model.Candidate, np model.NormalizedPhone, email string, mode Mode) *model.Lead {
	lead := &model.Lead{
		Name:             model.NormalizeName(cand.Name),
		Email:            email,
		Phone:            np.E164(),
		Company:          strings.TrimSpace(cand.Company),
		Role:             strings.TrimSpace(cand.Role),
		RoleGuess:        guessRole(cand),
		Region:           strings.TrimSpace(cand.Location),
		SourceURL:        cand.URL,
		SourceDetail:     cand.Provenance.QueryTerm,
		SocialProfileURL: socialProfileURL(cand),
		LeadType:         inferLeadType(cand, mode),
	}
	lead.Score = scoreLead(lead, np)
	return lead
}

// scoreLead derives the 0-100 quality score from contactability and
// field completeness.
func scoreLead(lead *model.Lead, np model.NormalizedPhone) int {
	score := 30
	if np.IsMobile() {
		score += 30
	} else if np.Kind == model.PhoneLandline {
		score += 10
	}
	if lead.Email != "" {
		score += 15
	}
	if lead.Name != "" {
		score += 10
	}
	if lead.Company != "" {
		score += 5
	}
	if lead.Role != "" || lead.RoleGuess != "" {
		score += 5
	}
	if lead.SocialProfileURL != "" {
		score += 5
	}
	return model.ClampScore(score)
}

// recordOutcomes writes one outcome per provenance value the candidate
// carries. Pattern-store failures are absorbed here: learning is
// advisory and must never fail a classification.
func (g *Gate) recordOutcomes(ctx context.Context, cand model.Candidate, success bool) {
	if g.patterns == nil {
		return
	}
	record := func(typ model.PatternType, value string) {
		if value == "" {
			return
		}
		if err := g.patterns.RecordOutcome(ctx, typ, value, success); err != nil {
			zap.L().Warn("gate: record outcome failed",
				zap.String("type", string(typ)),
				zap.String("value", value),
				zap.Error(err),
			)
		}
	}

	record(model.PatternDomain, cand.Provenance.Domain)
	record(model.PatternQueryTerm, cand.Provenance.QueryTerm)
	record(model.PatternURLPath, firstPathSegment(cand.URL))
	for _, sig := range contactSignals(cand.Title, cand.Content) {
		record(model.PatternContentSignal, sig)
	}
}

// firstPathSegment extracts the leading path segment of a URL as the
// url_path learning key.
func firstPathSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	seg, _, _ := strings.Cut(path, "/")
	return strings.ToLower(seg)
}

// contactSignalPhrases are page markers that correlate with genuine
// contact pages; matches become content_signal learning keys.
var contactSignalPhrases = []string{
	"ansprechpartner",
	"ihr kontakt",
	"unser team",
	"vertrieb",
	"sales",
	"geschäftsführung",
	"kontaktieren sie",
	"impressum",
}

func contactSignals(title, content string) []string {
	haystack := strings.ToLower(title + " " + content)
	var out []string
	for _, p := range contactSignalPhrases {
		if strings.Contains(haystack, p) {
			out = append(out, p)
		}
	}
	return out
}
