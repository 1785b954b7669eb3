package gate

import "strings"

// whitelistSegments mark pages the upstream blacklist filter must never
// suppress: team, contact, and about pages are exactly where mobile
// numbers live. The job-posting veto inside Evaluate still applies to
// them.
var whitelistSegments = []string{
	"/team/",
	"/unser-team/",
	"/kontakt/",
	"/contact/",
	"/ansprechpartner/",
	"/ueber-uns/",
	"/about/",
	"/impressum/",
}

// IsWhitelistedPath reports whether a URL matches the always-allow path
// set. Consumed by the crawler's filtering stage; the gate itself never
// skips its own checks for whitelisted URLs.
func IsWhitelistedPath(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	// Normalize so a trailing segment without slash still matches.
	lurl := strings.ToLower(rawURL)
	if !strings.HasSuffix(lurl, "/") {
		lurl += "/"
	}
	for _, seg := range whitelistSegments {
		if strings.Contains(lurl, seg) {
			return true
		}
	}
	return false
}
