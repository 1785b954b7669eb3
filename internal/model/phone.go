package model

// PhoneKind classifies a normalized number within its national plan.
type PhoneKind string

const (
	PhoneMobile   PhoneKind = "mobile"
	PhoneLandline PhoneKind = "landline"
	PhoneInvalid  PhoneKind = "invalid"
)

// NormalizedPhone is the canonical form of a raw phone string: country
// calling code, national significant number (no trunk zero), and the
// plan classification. It is a derived value, recomputed on demand.
type NormalizedPhone struct {
	CountryCode    string    `json:"country_code"`
	NationalNumber string    `json:"national_number"`
	Kind           PhoneKind `json:"kind"`
}

// E164 renders the number in +<cc><nsn> form. Invalid numbers render empty.
func (p NormalizedPhone) E164() string {
	if p.Kind == PhoneInvalid || p.CountryCode == "" || p.NationalNumber == "" {
		return ""
	}
	return "+" + p.CountryCode + p.NationalNumber
}

// IsMobile reports whether the number classified as mobile.
func (p NormalizedPhone) IsMobile() bool {
	return p.Kind == PhoneMobile
}
