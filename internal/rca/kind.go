package rca

import (
	"fmt"
	"math/bits"
)

// ComputeKind classifies one program element. Classical elements can be
// evaluated at compile time without touching the quantum backend; Dynamic
// implies Quantum.
type ComputeKind struct {
	Quantum     bool                `json:"quantum" msgpack:"quantum"`
	Dynamic     bool                `json:"dynamic" msgpack:"dynamic"`
	DynamicSize bool                `json:"dynamic_size,omitempty" msgpack:"dynamic_size,omitempty"`
	Features    RuntimeFeatureFlags `json:"features,omitempty" msgpack:"features,omitempty"`
}

var (
	Classical     = ComputeKind{}
	QuantumStatic = ComputeKind{Quantum: true}
	Dynamic       = ComputeKind{Quantum: true, Dynamic: true}
)

// Union merges two kinds.
func (k ComputeKind) Union(o ComputeKind) ComputeKind {
	return ComputeKind{
		Quantum:     k.Quantum || o.Quantum,
		Dynamic:     k.Dynamic || o.Dynamic,
		DynamicSize: k.DynamicSize || o.DynamicSize,
		Features:    k.Features | o.Features,
	}
}

// Static drops the value kind but keeps the quantum marker and features.
func (k ComputeKind) Static() ComputeKind {
	return ComputeKind{Quantum: k.Quantum, Features: k.Features}
}

func (k ComputeKind) IsClassical() bool { return !k.Quantum }

func (k ComputeKind) String() string {
	switch {
	case !k.Quantum:
		return "Classical"
	case k.Dynamic:
		return fmt.Sprintf("Quantum(Dynamic, %s)", k.Features)
	default:
		return fmt.Sprintf("Quantum(Static, %s)", k.Features)
	}
}

// ParamMask marks which parameters of a callable are bound to dynamic
// values. Bit i is parameter i; parameters past 63 are not tracked.
type ParamMask uint64

const MaxTrackedParams = 64

func (m ParamMask) With(i int) ParamMask {
	if i < 0 || i >= MaxTrackedParams {
		return m
	}
	return m | 1<<uint(i)
}

func (m ParamMask) Has(i int) bool {
	return i >= 0 && i < MaxTrackedParams && m&(1<<uint(i)) != 0
}

func (m ParamMask) Count() int { return bits.OnesCount64(uint64(m)) }

// ExprProps is the classification of an element when no parameter is
// dynamic, plus one alternative per parameter for when only that
// parameter is dynamic.
type ExprProps struct {
	Inherent  ComputeKind   `json:"inherent" msgpack:"inherent"`
	ParamDeps []ComputeKind `json:"param_deps,omitempty" msgpack:"param_deps,omitempty"`
}

// Resolve combines the inherent kind with every dynamic parameter in mask.
func (p ExprProps) Resolve(mask ParamMask) ComputeKind {
	k := p.Inherent
	for i, dep := range p.ParamDeps {
		if mask.Has(i) {
			k = k.Union(dep)
		}
	}
	return k
}

// CallableProps summarizes a callable for its call sites.
type CallableProps struct {
	// Output classifies the returned value.
	Output ExprProps `json:"output" msgpack:"output"`
	// Body aggregates every element of the body.
	Body ExprProps `json:"body" msgpack:"body"`
	// Measures reports whether calling the callable may measure a qubit.
	Measures bool `json:"measures,omitempty" msgpack:"measures,omitempty"`
}
