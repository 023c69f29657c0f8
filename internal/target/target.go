// Package target describes which run-time features a compilation target
// supports.
package target

import (
	"fmt"
	"math/bits"
	"strings"
)

// Capabilities is a set of target features.
type Capabilities uint16

const (
	Adaptive Capabilities = 1 << iota
	IntegerComputations
	FloatingPointComputations
	BackwardsBranching
	HigherLevelConstructs
	QubitReset

	// None is the base profile: no classical computation on results.
	None Capabilities = 0
	// All enables every capability.
	All = Adaptive | IntegerComputations | FloatingPointComputations |
		BackwardsBranching | HigherLevelConstructs | QubitReset
)

var capabilityNames = []struct {
	flag Capabilities
	name string
}{
	{Adaptive, "Adaptive"},
	{IntegerComputations, "IntegerComputations"},
	{FloatingPointComputations, "FloatingPointComputations"},
	{BackwardsBranching, "BackwardsBranching"},
	{HigherLevelConstructs, "HigherLevelConstructs"},
	{QubitReset, "QubitReset"},
}

// Has reports whether every capability in want is present.
func (c Capabilities) Has(want Capabilities) bool { return c&want == want }

// Missing returns the capabilities in required that c lacks.
func (c Capabilities) Missing(required Capabilities) Capabilities { return required &^ c }

// Count returns the number of capabilities set.
func (c Capabilities) Count() int { return bits.OnesCount16(uint16(c)) }

// Names lists the set capabilities in declaration order.
func (c Capabilities) Names() []string {
	var out []string
	for _, cn := range capabilityNames {
		if c&cn.flag != 0 {
			out = append(out, cn.name)
		}
	}
	return out
}

func (c Capabilities) String() string {
	if c == None {
		return "None"
	}
	return strings.Join(c.Names(), "|")
}

// ParseCapability accepts a capability name, case-insensitively.
func ParseCapability(s string) (Capabilities, error) {
	for _, cn := range capabilityNames {
		if strings.EqualFold(cn.name, s) {
			return cn.flag, nil
		}
	}
	return None, fmt.Errorf("unknown capability %q", s)
}

// ParseCapabilities parses a list of names joined by '|' or ','.
func ParseCapabilities(s string) (Capabilities, error) {
	var out Capabilities
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := ParseCapability(part)
		if err != nil {
			return None, err
		}
		out |= c
	}
	return out, nil
}

// Profile is a named capability set.
type Profile uint8

const (
	Base Profile = iota
	AdaptiveRI
	AdaptiveRIF
	Unrestricted
)

var profileNames = [...]string{
	Base:         "base",
	AdaptiveRI:   "adaptive_ri",
	AdaptiveRIF:  "adaptive_rif",
	Unrestricted: "unrestricted",
}

func (p Profile) String() string {
	if int(p) < len(profileNames) {
		return profileNames[p]
	}
	return fmt.Sprintf("Profile(%d)", p)
}

// Capabilities returns the set a profile grants.
func (p Profile) Capabilities() Capabilities {
	switch p {
	case AdaptiveRI:
		return Adaptive | QubitReset | IntegerComputations
	case AdaptiveRIF:
		return Adaptive | QubitReset | IntegerComputations | FloatingPointComputations
	case Unrestricted:
		return All
	}
	return None
}

// ParseProfile accepts a profile name; '-' and '_' are interchangeable.
func ParseProfile(s string) (Profile, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range profileNames {
		if name == norm {
			return Profile(i), nil
		}
	}
	return Base, fmt.Errorf("unknown target profile %q (want one of %s)", s, strings.Join(profileNames[:], ", "))
}
