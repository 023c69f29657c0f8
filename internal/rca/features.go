package rca

import (
	"strings"

	"quill/internal/fir"
	"quill/internal/target"
)

// RuntimeFeatureFlags records the run-time features a program element
// relies on.
type RuntimeFeatureFlags uint32

const (
	UseOfDynamicBool RuntimeFeatureFlags = 1 << iota
	UseOfDynamicInt
	UseOfDynamicDouble
	UseOfDynamicRange
	UseOfDynamicQubit
	UseOfDynamicString
	UseOfDynamicallySizedArray
	UseOfDynamicIndex
	UseOfDynamicTuple
	UseOfDynamicResult
	UseOfDynamicExponent
	CallToCyclicFunctionWithDynamicArg
	CallToCyclicOperation
	CallToDynamicCallee
	MeasurementWithinDynamicScope
	ReturnWithinDynamicScope
	LoopWithDynamicCondition
	UseOfBoolOutput
	UseOfIntOutput
	UseOfDoubleOutput
	UseOfAdvancedOutput

	NoFeatures RuntimeFeatureFlags = 0
)

var featureTable = []struct {
	flag     RuntimeFeatureFlags
	name     string
	requires target.Capabilities
}{
	{UseOfDynamicBool, "UseOfDynamicBool", target.Adaptive},
	{UseOfDynamicInt, "UseOfDynamicInt", target.IntegerComputations},
	{UseOfDynamicDouble, "UseOfDynamicDouble", target.FloatingPointComputations},
	{UseOfDynamicRange, "UseOfDynamicRange", target.HigherLevelConstructs},
	{UseOfDynamicQubit, "UseOfDynamicQubit", target.HigherLevelConstructs},
	{UseOfDynamicString, "UseOfDynamicString", target.HigherLevelConstructs},
	{UseOfDynamicallySizedArray, "UseOfDynamicallySizedArray", target.HigherLevelConstructs},
	{UseOfDynamicIndex, "UseOfDynamicIndex", target.HigherLevelConstructs},
	{UseOfDynamicTuple, "UseOfDynamicTuple", target.HigherLevelConstructs},
	{UseOfDynamicResult, "UseOfDynamicResult", target.HigherLevelConstructs},
	{UseOfDynamicExponent, "UseOfDynamicExponent", target.BackwardsBranching},
	{CallToCyclicFunctionWithDynamicArg, "CallToCyclicFunctionWithDynamicArg", target.HigherLevelConstructs},
	{CallToCyclicOperation, "CallToCyclicOperation", target.HigherLevelConstructs},
	{CallToDynamicCallee, "CallToDynamicCallee", target.HigherLevelConstructs},
	{MeasurementWithinDynamicScope, "MeasurementWithinDynamicScope", target.Adaptive},
	{ReturnWithinDynamicScope, "ReturnWithinDynamicScope", target.Adaptive},
	{LoopWithDynamicCondition, "LoopWithDynamicCondition", target.BackwardsBranching},
	{UseOfBoolOutput, "UseOfBoolOutput", target.Adaptive},
	{UseOfIntOutput, "UseOfIntOutput", target.IntegerComputations},
	{UseOfDoubleOutput, "UseOfDoubleOutput", target.FloatingPointComputations},
	{UseOfAdvancedOutput, "UseOfAdvancedOutput", target.HigherLevelConstructs},
}

// Has reports whether every flag in want is set.
func (f RuntimeFeatureFlags) Has(want RuntimeFeatureFlags) bool { return f&want == want }

// Names lists the set flags in declaration order.
func (f RuntimeFeatureFlags) Names() []string {
	var out []string
	for _, e := range featureTable {
		if f&e.flag != 0 {
			out = append(out, e.name)
		}
	}
	return out
}

func (f RuntimeFeatureFlags) String() string {
	if f == NoFeatures {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// RequiredCapabilities maps features to the target capabilities they need.
func (f RuntimeFeatureFlags) RequiredCapabilities() target.Capabilities {
	var caps target.Capabilities
	for _, e := range featureTable {
		if f&e.flag != 0 {
			caps |= e.requires
		}
	}
	return caps
}

// Unsupported returns the subset of f that caps cannot serve.
func (f RuntimeFeatureFlags) Unsupported(caps target.Capabilities) RuntimeFeatureFlags {
	var out RuntimeFeatureFlags
	for _, e := range featureTable {
		if f&e.flag != 0 && !caps.Has(e.requires) {
			out |= e.flag
		}
	}
	return out
}

// ForDynamicType returns the features a dynamic value of type ty uses.
// Results are inherently dynamic and need nothing extra.
func ForDynamicType(ty fir.Ty) RuntimeFeatureFlags {
	switch ty.Kind {
	case fir.TyBool:
		return UseOfDynamicBool
	case fir.TyInt:
		return UseOfDynamicInt
	case fir.TyDouble:
		return UseOfDynamicDouble
	case fir.TyRange:
		return UseOfDynamicRange
	case fir.TyQubit:
		return UseOfDynamicQubit
	case fir.TyString:
		return UseOfDynamicString
	case fir.TyTuple:
		var flags RuntimeFeatureFlags
		for _, el := range ty.Elems {
			flags |= ForDynamicType(el)
		}
		return flags
	case fir.TyArray:
		return ForDynamicType(ty.Elem())
	}
	return NoFeatures
}

// forDynamicUpdate returns the extra features needed when a local of type ty
// is reassigned under a measurement-dependent condition.
func forDynamicUpdate(ty fir.Ty) RuntimeFeatureFlags {
	switch ty.Kind {
	case fir.TyArray:
		return UseOfDynamicallySizedArray
	case fir.TyTuple:
		return UseOfDynamicTuple
	case fir.TyResult:
		return UseOfDynamicResult
	}
	return NoFeatures
}

// ForOutput returns the features needed to record a dynamic value of type
// ty as program output.
func ForOutput(ty fir.Ty) RuntimeFeatureFlags {
	switch ty.Kind {
	case fir.TyBool:
		return UseOfBoolOutput
	case fir.TyInt:
		return UseOfIntOutput
	case fir.TyDouble:
		return UseOfDoubleOutput
	case fir.TyTuple:
		var flags RuntimeFeatureFlags
		for _, el := range ty.Elems {
			flags |= ForOutput(el)
		}
		return flags
	case fir.TyArray:
		return ForOutput(ty.Elem())
	case fir.TyUnit, fir.TyResult:
		return NoFeatures
	}
	return UseOfAdvancedOutput
}
