// Package samples holds small hand-built programs used by `quill sample`
// and by end-to-end tests of the compiler.
package samples

import (
	"fmt"
	"sort"
	"strings"

	"quill/internal/diag"
	"quill/internal/fir"
	"quill/internal/target"
)

// Gate names used by the samples.
const (
	HName  = "__quantum__qis__h__body"
	XName  = "__quantum__qis__x__body"
	ZName  = "__quantum__qis__z__body"
	CXName = "__quantum__qis__cx__body"
)

// Sample is a named program together with the weakest profile that
// compiles it.
type Sample struct {
	Name    string
	Summary string
	Profile target.Profile
	// Rejects is the code compilation fails with on Profile, zero when
	// the sample compiles.
	Rejects diag.Code
	build   func(k *kit)
}

// Build constructs a fresh package for s.
func (s Sample) Build() *fir.Package {
	k := newKit(s.Name)
	s.build(k)
	return k.Package()
}

var registry = map[string]Sample{
	"bell": {
		Name:    "bell",
		Summary: "entangle two qubits and measure both",
		Profile: target.Base,
		build:   bell,
	},
	"measure-int": {
		Name:    "measure-int",
		Summary: "turn a measurement into an integer through a branch",
		Profile: target.AdaptiveRI,
		build:   measureInt,
	},
	"classical": {
		Name:    "classical",
		Summary: "pure classical arithmetic folded at compile time",
		Profile: target.Base,
		build:   classical,
	},
	"teleport": {
		Name:    "teleport",
		Summary: "teleport a qubit with measurement-controlled corrections",
		Profile: target.AdaptiveRI,
		build:   teleport,
	},
	"dynamic-loop": {
		Name:    "dynamic-loop",
		Summary: "repeat until a measurement succeeds (not compilable)",
		Profile: target.Unrestricted,
		Rejects: diag.CapDynamicLoop,
		build:   dynamicLoop,
	},
	"repeated-primitive": {
		Name:    "repeated-primitive",
		Summary: "apply the same gate in an unrolled loop",
		Profile: target.Base,
		build:   repeatedPrimitive,
	},
	"recursion": {
		Name:    "recursion",
		Summary: "recursive function and operation with static arguments",
		Profile: target.Base,
		build:   recursion,
	},
}

// Names lists the registered samples in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a sample by name.
func Lookup(name string) (Sample, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Sample{}, fmt.Errorf("unknown sample %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// All returns every sample sorted by name.
func All() []Sample {
	out := make([]Sample, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name])
	}
	return out
}
