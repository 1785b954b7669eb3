package gate

import (
	"strings"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// Keyword tables for provenance-based lead typing. German first, the
// English variants cover international pages of DACH companies.
var (
	salesKeywords = []string{
		"vertrieb", "sales", "account manager", "key account",
		"business development", "außendienst", "handelsvertreter",
	}
	freelancerKeywords = []string{
		"freelancer", "freiberufler", "selbstständig", "freier mitarbeiter",
	}
	hrKeywords = []string{
		"personal", "human resources", "hr ", "recruiting", "recruiter",
		"talent acquisition", "personalreferent",
	}
	teamPageSegments = []string{
		"team", "unser-team", "ueber-uns", "about", "mitarbeiter", "ansprechpartner",
	}
)

// inferLeadType maps a candidate's role and provenance context onto the
// closed lead-type enum. Talent-hunt admissions default to candidate:
// in that mode the system is hunting people, not buyers.
func inferLeadType(cand model.Candidate, mode Mode) model.LeadType {
	haystack := strings.ToLower(cand.Role + " " + cand.Title + " " + cand.Snippet)

	if containsAny(haystack, salesKeywords...) {
		return model.LeadActiveSalesperson
	}
	if containsAny(haystack, hrKeywords...) {
		return model.LeadHRContact
	}
	if containsAny(haystack, freelancerKeywords...) {
		return model.LeadFreelancer
	}
	if mode == ModeTalentHunt {
		return model.LeadCandidate
	}
	if seg := firstPathSegment(cand.URL); seg != "" && containsAny(seg, teamPageSegments...) {
		return model.LeadTeamMember
	}
	return model.LeadUnknown
}

// guessRole extracts a role phrase from context when the candidate has
// no explicit role field.
func guessRole(cand model.Candidate) string {
	if cand.Role != "" {
		return ""
	}
	haystack := strings.ToLower(cand.Title + " " + cand.Snippet)
	for _, kw := range salesKeywords {
		if strings.Contains(haystack, kw) {
			return strings.TrimSpace(kw)
		}
	}
	for _, kw := range hrKeywords {
		if strings.Contains(haystack, kw) {
			return strings.TrimSpace(kw)
		}
	}
	return ""
}

// socialProfileURL pulls the first professional-network profile URL out
// of the candidate's text fields.
func socialProfileURL(cand model.Candidate) string {
	haystack := cand.Snippet + " " + cand.Content
	for _, domain := range []string{"linkedin.com/in/", "xing.com/profile/"} {
		idx := strings.Index(strings.ToLower(haystack), domain)
		if idx < 0 {
			continue
		}
		// Walk back to the scheme if present, forward to the end of
		// the URL token.
		start := idx
		for start > 0 && !isURLBoundary(haystack[start-1]) {
			start--
		}
		end := idx
		for end < len(haystack) && !isURLBoundary(haystack[end]) {
			end++
		}
		return strings.TrimRight(haystack[start:end], ".,;)")
	}
	return ""
}

func isURLBoundary(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '"' || b == '\'' || b == '<' || b == '>'
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
