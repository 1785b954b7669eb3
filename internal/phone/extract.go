package phone

import (
	"regexp"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// phonePattern matches phone-shaped substrings in free text: an optional
// international prefix followed by digits interleaved with the usual
// separators. Minimum length keeps dates and prices out.
var phonePattern = regexp.MustCompile(`(?:\+|00)?\(?\d[\d\s()\-./]{6,18}\d`)

// ExtractAll scans free text (snippets, page content) for phone-shaped
// substrings, normalizes each against homeCountry, and returns the
// valid ones deduplicated by canonical form. Order of first appearance
// is preserved.
func ExtractAll(text, homeCountry string) []model.NormalizedPhone {
	if text == "" {
		return nil
	}

	var out []model.NormalizedPhone
	seen := make(map[string]bool)
	for _, m := range phonePattern.FindAllString(text, -1) {
		np := Normalize(m, homeCountry)
		if np.Kind == model.PhoneInvalid {
			continue
		}
		key := np.E164()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, np)
	}
	return out
}

// FirstMobile returns the first mobile number found across the given
// texts, scanning in order, or a zero value with found == false.
func FirstMobile(homeCountry string, texts ...string) (model.NormalizedPhone, bool) {
	for _, t := range texts {
		for _, np := range ExtractAll(t, homeCountry) {
			if np.IsMobile() {
				return np, true
			}
		}
	}
	return model.NormalizedPhone{Kind: model.PhoneInvalid}, false
}
