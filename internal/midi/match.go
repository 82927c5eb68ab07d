package midi

import (
	"strings"

	"go.uber.org/zap"
)

// Default name tokens for Novation Launchpad ports
const (
	DefaultFamily    = "Launchpad"
	DefaultDAWMarker = "DAW"
)

// DefaultQualifiers are the tokens marking a Launchpad's MIDI (non-DAW) port
var DefaultQualifiers = []string{"MIDI", "LPMiniMK3 MIDI"}

// Candidate is an enumerated port together with the result of its name lookup
type Candidate struct {
	Index int
	Name  string
	Err   error
}

// Matcher picks the controller's port out of an enumeration
type Matcher struct {
	Family     string
	Qualifiers []string
	DAWMarker  string

	log *zap.Logger
}

// NewMatcher creates a matcher. Empty arguments fall back to the Launchpad defaults.
func NewMatcher(family string, qualifiers []string, dawMarker string, log *zap.Logger) Matcher {
	if family == "" {
		family = DefaultFamily
	}
	if len(qualifiers) == 0 {
		qualifiers = DefaultQualifiers
	}
	if dawMarker == "" {
		dawMarker = DefaultDAWMarker
	}
	if log == nil {
		log = zap.NewNop()
	}
	return Matcher{Family: family, Qualifiers: qualifiers, DAWMarker: dawMarker, log: log}
}

// Candidates looks up the name of every port
func Candidates[P Port](ports []P) []Candidate {
	cands := make([]Candidate, 0, len(ports))
	for i, p := range ports {
		name, err := p.Name()
		cands = append(cands, Candidate{Index: i, Name: name, Err: err})
	}
	return cands
}

// Match returns the best candidate, or false if none carries the family token.
//
// Candidates whose name could not be read are never considered. Among the rest:
//  1. family token plus a MIDI qualifier
//  2. family token without the DAW marker
//  3. family token alone
//
// Within a tier the first candidate in enumeration order wins.
func (m Matcher) Match(direction string, cands []Candidate) (Candidate, bool) {
	readable := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Err != nil {
			m.log.Info("skipping initializing port (name unavailable)",
				zap.String("direction", direction),
				zap.Int("index", c.Index),
				zap.Error(c.Err))
			continue
		}
		readable = append(readable, c)
	}

	tiers := []func(name string) bool{
		func(name string) bool { return m.isFamily(name) && m.hasQualifier(name) },
		func(name string) bool { return m.isFamily(name) && !strings.Contains(name, m.DAWMarker) },
		m.isFamily,
	}
	for _, tier := range tiers {
		for _, c := range readable {
			if tier(c.Name) {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

func (m Matcher) isFamily(name string) bool {
	return strings.Contains(name, m.Family)
}

func (m Matcher) hasQualifier(name string) bool {
	for _, q := range m.Qualifiers {
		if strings.Contains(name, q) {
			return true
		}
	}
	return false
}
