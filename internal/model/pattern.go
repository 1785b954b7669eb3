package model

import "time"

// PatternType enumerates the provenance signal categories the system
// learns over.
type PatternType string

const (
	PatternDomain        PatternType = "domain"
	PatternQueryTerm     PatternType = "query_term"
	PatternURLPath       PatternType = "url_path"
	PatternContentSignal PatternType = "content_signal"
)

// PatternTypes lists all valid pattern types.
var PatternTypes = []PatternType{
	PatternDomain,
	PatternQueryTerm,
	PatternURLPath,
	PatternContentSignal,
}

// ParsePatternType maps a string to a PatternType, reporting whether it
// is one of the closed set.
func ParsePatternType(s string) (PatternType, bool) {
	for _, t := range PatternTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Pattern is one learned provenance signal with its admission history.
// Counters only ever increase.
type Pattern struct {
	Type         PatternType `json:"type"`
	Value        string      `json:"value"`
	SuccessCount int64       `json:"success_count"`
	FailCount    int64       `json:"fail_count"`
	UpdatedAt    time.Time   `json:"updated_at,omitempty"`
}

// Confidence returns the smoothed success rate. The +1 in the
// denominator keeps low-sample patterns near zero and stops a single
// early success from reading as certainty.
func (p Pattern) Confidence() float64 {
	return float64(p.SuccessCount) / float64(p.SuccessCount+p.FailCount+1)
}
