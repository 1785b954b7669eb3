package phone

import (
	"strings"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
)

// Normalize canonicalizes a raw phone string and classifies it against
// the national numbering plans. homeCountry (ISO code, e.g. "DE") is
// assumed when the raw string carries no international prefix.
//
// The function never fails: a string with no extractable digits, or a
// number that fits no supported plan, yields Kind == PhoneInvalid.
// Normalize is a fixed point over its own E164 output.
func Normalize(raw, homeCountry string) model.NormalizedPhone {
	invalid := model.NormalizedPhone{Kind: model.PhoneInvalid}

	digits, hadPlus := stripFormatting(raw)
	if digits == "" {
		return invalid
	}

	// Resolve international prefixes: "+49...", "0049...".
	international := hadPlus
	if !international && strings.HasPrefix(digits, "00") {
		digits = digits[2:]
		international = true
	}

	var plan *Plan
	var nsn string
	switch {
	case international:
		plan, nsn = splitCallingCode(digits)
	case strings.HasPrefix(digits, "0"):
		// Trunk form: national number in the home plan.
		plan = PlanFor(homeCountry)
		nsn = strings.TrimPrefix(digits, "0")
	default:
		// No prefix at all. Prefer a calling-code match if the leading
		// digits spell one out, otherwise read it as a bare national
		// number in the home plan.
		plan, nsn = splitCallingCode(digits)
		if plan == nil {
			plan = PlanFor(homeCountry)
			nsn = digits
		}
	}

	if plan == nil || nsn == "" {
		return invalid
	}
	// A trunk zero sometimes survives behind the country code
	// ("+49 (0) 176 ..."): drop it.
	nsn = strings.TrimPrefix(nsn, "0")

	if len(nsn) < plan.NSNMin || len(nsn) > plan.NSNMax {
		return invalid
	}

	np := model.NormalizedPhone{
		CountryCode:    plan.CallingCode,
		NationalNumber: nsn,
	}
	np.Kind = classify(plan, nsn)
	if np.Kind == model.PhoneInvalid {
		return invalid
	}
	return np
}

// Classify re-derives the kind of an already-normalized number. Numbers
// whose country is not in the plan table classify as invalid.
func Classify(np model.NormalizedPhone) model.PhoneKind {
	plan := plansByCode[np.CountryCode]
	if plan == nil || np.NationalNumber == "" {
		return model.PhoneInvalid
	}
	return classify(plan, np.NationalNumber)
}

func classify(plan *Plan, nsn string) model.PhoneKind {
	if plan.matchMobile(nsn) {
		if len(nsn) < plan.MobileMin || len(nsn) > plan.MobileMax {
			return model.PhoneInvalid
		}
		return model.PhoneMobile
	}
	// Service and premium ranges reach a machine or a call center, not
	// a person with a desk. Checked before the geographic table since
	// some of them share leading digits with area-code groups.
	if plan.matchService(nsn) {
		return model.PhoneInvalid
	}
	if plan.matchLandline(nsn) {
		return model.PhoneLandline
	}
	return model.PhoneInvalid
}

// stripFormatting removes everything but digits and records whether the
// string carried a leading "+".
func stripFormatting(raw string) (digits string, hadPlus bool) {
	s := strings.TrimSpace(raw)
	hadPlus = strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String(), hadPlus
}

// splitCallingCode matches the leading digits against the supported
// calling codes (longest first) and returns the plan plus the remainder.
func splitCallingCode(digits string) (*Plan, string) {
	for _, cc := range callingCodes {
		if strings.HasPrefix(digits, cc) {
			return plansByCode[cc], digits[len(cc):]
		}
	}
	return nil, ""
}
