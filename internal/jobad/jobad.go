// Package jobad distinguishes hiring advertisements from genuine
// contact/team pages. Classification is a pure function of its inputs:
// no randomness, no external calls.
package jobad

import "strings"

// jobPathSegments are URL path fragments that only ever appear on
// job-board or career pages. Any single hit is conclusive.
var jobPathSegments = []string{
	"/jobs/",
	"/job/",
	"/karriere/",
	"/career/",
	"/careers/",
	"/stellenangebot/",
	"/stellenangebote/",
	"/stellen/",
	"/stellenanzeige/",
	"/vacancies/",
	"/vacancy/",
	"/bewerbung/",
	"/jobboerse/",
}

// titlePatterns are phrases that mark a page title as a job ad. Titles
// are curated, so one hit is conclusive.
var titlePatterns = []string{
	"(m/w/d)",
	"(w/m/d)",
	"(m/w/x)",
	"(m/f/d)",
	"stellenangebot",
	"stellenanzeige",
	"jobangebot",
	"wir stellen ein",
	"mitarbeiter gesucht",
	"jetzt bewerben",
}

// weakSignals are lexical markers that also occur on genuine team pages
// that merely mention hiring. At least two distinct weak signals must
// co-occur before they count.
var weakSignals = []string{
	"(m/w/d)",
	"(w/m/d)",
	"(m/w/x)",
	"wir suchen",
	"bewerbung",
	"bewerbungsunterlagen",
	"job-id",
	"kennziffer",
	"vollzeit",
	"teilzeit",
	"festanstellung",
	"unbefristet",
	"deine aufgaben",
	"ihre aufgaben",
	"dein profil",
	"ihr profil",
	"wir bieten",
	"benefits",
	"jetzt bewerben",
	"gehalt",
}

// IsJobPosting reports whether the page described by the four inputs is
// a hiring advertisement. Missing inputs are no signal for their
// family, never an error.
func IsJobPosting(url, title, snippet, content string) bool {
	// Cheap URL check first, short-circuits.
	if matchesJobPath(url) {
		return true
	}
	if matchesTitle(title) {
		return true
	}
	return countWeakSignals(snippet+" "+content) >= 2
}

// Signals returns the individual markers that fired, for diagnostics.
// The decision in IsJobPosting is authoritative; this is descriptive.
func Signals(url, title, snippet, content string) []string {
	var out []string
	lurl := strings.ToLower(url)
	for _, seg := range jobPathSegments {
		if strings.Contains(lurl, seg) {
			out = append(out, "url:"+seg)
		}
	}
	ltitle := strings.ToLower(title)
	for _, p := range titlePatterns {
		if strings.Contains(ltitle, p) {
			out = append(out, "title:"+p)
		}
	}
	body := strings.ToLower(snippet + " " + content)
	for _, w := range weakSignals {
		if strings.Contains(body, w) {
			out = append(out, "content:"+w)
		}
	}
	return out
}

func matchesJobPath(url string) bool {
	if url == "" {
		return false
	}
	lurl := strings.ToLower(url)
	for _, seg := range jobPathSegments {
		if strings.Contains(lurl, seg) {
			return true
		}
	}
	return false
}

func matchesTitle(title string) bool {
	if title == "" {
		return false
	}
	ltitle := strings.ToLower(title)
	for _, p := range titlePatterns {
		if strings.Contains(ltitle, p) {
			return true
		}
	}
	return false
}

func countWeakSignals(body string) int {
	if strings.TrimSpace(body) == "" {
		return 0
	}
	lbody := strings.ToLower(body)
	n := 0
	for _, w := range weakSignals {
		if strings.Contains(lbody, w) {
			n++
		}
	}
	return n
}
