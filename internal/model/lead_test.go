package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLeadType(t *testing.T) {
	assert.Equal(t, LeadActiveSalesperson, ParseLeadType("active_salesperson"))
	assert.Equal(t, LeadTeamMember, ParseLeadType(" Team_Member "))
	assert.Equal(t, LeadCandidate, ParseLeadType("candidate"))
	assert.Equal(t, LeadUnknown, ParseLeadType("unknown"))
	assert.Equal(t, LeadUnknown, ParseLeadType("ceo"))
	assert.Equal(t, LeadUnknown, ParseLeadType(""))
}

func TestHasContact(t *testing.T) {
	assert.False(t, Lead{Name: "Anna Muster"}.HasContact())
	assert.True(t, Lead{Email: "anna@firma.de"}.HasContact())
	assert.True(t, Lead{Phone: "+4917612345678"}.HasContact())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "anna@firma.de", NormalizeEmail("  Anna@Firma.DE "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "4917612345678", DigitsOnly("+49 (176) 123-456 78"))
	assert.Equal(t, "", DigitsOnly("keine"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Anna Muster", NormalizeName("  Anna \t Muster \n"))
	// Combining umlaut composes to the precomposed form.
	assert.Equal(t, "Jörg", NormalizeName("Jörg"))
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-10))
	assert.Equal(t, 55, ClampScore(55))
	assert.Equal(t, 100, ClampScore(140))
}

func TestPatternConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Pattern{}.Confidence())
	assert.InDelta(t, 0.5, Pattern{SuccessCount: 1}.Confidence(), 1e-9)
	assert.InDelta(t, 5.0/7.0, Pattern{SuccessCount: 5, FailCount: 1}.Confidence(), 1e-9)
	// More samples at the same ratio read as more confident.
	assert.Greater(t,
		Pattern{SuccessCount: 50, FailCount: 50}.Confidence(),
		Pattern{SuccessCount: 1, FailCount: 1}.Confidence())
}

func TestParsePatternType(t *testing.T) {
	typ, ok := ParsePatternType("query_term")
	assert.True(t, ok)
	assert.Equal(t, PatternQueryTerm, typ)

	_, ok = ParsePatternType("bogus")
	assert.False(t, ok)
}

func TestE164(t *testing.T) {
	p := NormalizedPhone{CountryCode: "49", NationalNumber: "17612345678", Kind: PhoneMobile}
	assert.Equal(t, "+4917612345678", p.E164())
	assert.True(t, p.IsMobile())

	assert.Empty(t, NormalizedPhone{Kind: PhoneInvalid}.E164())
	assert.Empty(t, NormalizedPhone{CountryCode: "49", Kind: PhoneLandline}.E164())
}
