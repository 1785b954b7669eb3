// Package phone canonicalizes raw phone strings and classifies them
// against the national numbering plans of the supported countries.
package phone

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var plansYAML []byte

// Plan describes one country's numbering plan: length bounds for the
// national significant number and the closed prefix tables for mobile,
// service, and geographic ranges.
type Plan struct {
	Country         string   `yaml:"country"`
	CallingCode     string   `yaml:"calling_code"`
	NSNMin          int      `yaml:"nsn_min"`
	NSNMax          int      `yaml:"nsn_max"`
	MobileMin       int      `yaml:"mobile_min"`
	MobileMax       int      `yaml:"mobile_max"`
	MobilePrefixes  []string `yaml:"mobile_prefixes"`
	ServicePrefixes []string `yaml:"service_prefixes"`
	LandlineLeading []string `yaml:"landline_leading"`
}

type planFile struct {
	Version string `yaml:"version"`
	Plans   []Plan `yaml:"plans"`
}

var (
	// plansByCountry and plansByCode index the embedded plan table.
	plansByCountry map[string]*Plan
	plansByCode    map[string]*Plan
	// callingCodes is sorted longest-first so prefix matching prefers
	// the most specific code.
	callingCodes []string
	plansVersion string
)

func init() {
	var pf planFile
	if err := yaml.Unmarshal(plansYAML, &pf); err != nil {
		panic(fmt.Sprintf("phone: parse embedded plans: %v", err))
	}
	plansVersion = pf.Version
	plansByCountry = make(map[string]*Plan, len(pf.Plans))
	plansByCode = make(map[string]*Plan, len(pf.Plans))
	for i := range pf.Plans {
		p := &pf.Plans[i]
		plansByCountry[p.Country] = p
		plansByCode[p.CallingCode] = p
		callingCodes = append(callingCodes, p.CallingCode)
	}
	sort.Slice(callingCodes, func(i, j int) bool {
		return len(callingCodes[i]) > len(callingCodes[j])
	})
}

// PlansVersion returns the version stamp of the embedded plan table.
func PlansVersion() string {
	return plansVersion
}

// PlanFor returns the numbering plan for an ISO country code, or nil if
// the country is not supported.
func PlanFor(country string) *Plan {
	return plansByCountry[strings.ToUpper(country)]
}

// matchMobile reports whether nsn starts with one of the plan's mobile
// prefixes.
func (p *Plan) matchMobile(nsn string) bool {
	for _, pre := range p.MobilePrefixes {
		if strings.HasPrefix(nsn, pre) {
			return true
		}
	}
	return false
}

// matchService reports whether nsn falls into a service or premium
// range (freephone, mass traffic, voice mail).
func (p *Plan) matchService(nsn string) bool {
	for _, pre := range p.ServicePrefixes {
		if strings.HasPrefix(nsn, pre) {
			return true
		}
	}
	return false
}

// matchLandline reports whether nsn starts with one of the plan's
// geographic leading digits.
func (p *Plan) matchLandline(nsn string) bool {
	for _, pre := range p.LandlineLeading {
		if strings.HasPrefix(nsn, pre) {
			return true
		}
	}
	return false
}
