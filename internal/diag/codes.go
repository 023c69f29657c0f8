package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Target capability violations
	CapInfo                Code = 1000
	CapMissingCapability   Code = 1001
	CapDynamicLoop         Code = 1002
	CapDynamicReturn       Code = 1003
	CapDynamicIndex        Code = 1004
	CapDynamicArraySize    Code = 1005
	CapCyclicDynamicCall   Code = 1006
	CapOutputNotSupported  Code = 1007
	CapLabelSwapInBranch   Code = 1008
	CapDynamicMeasureScope Code = 1009

	// Constructs without a partial-evaluation rule
	UnsInfo                Code = 2000
	UnsConstruct           Code = 2001
	UnsDynamicValue        Code = 2002
	UnsSimulationIntrinsic Code = 2003
	UnsDynamicCallee       Code = 2004
	UnsDynamicOperand      Code = 2005

	// Classical evaluation failures
	EvalInfo               Code = 3000
	EvalFailed             Code = 3001
	EvalIntegerOverflow    Code = 3002
	EvalDivisionByZero     Code = 3003
	EvalIndexOutOfRange    Code = 3004
	EvalNegativeShift      Code = 3005
	EvalUnknownIntrinsic   Code = 3006
	EvalCallDepthExceeded  Code = 3007
	EvalLoopLimitExceeded  Code = 3008
	EvalTypeMismatch       Code = 3009
	EvalUnboundLocal       Code = 3010
	EvalInvalidRange       Code = 3011
	EvalQubitDoubleRelease Code = 3012

	// Entry value recording
	OutInfo          Code = 4000
	OutResultLiteral Code = 4001
	OutUnsupported   Code = 4002

	// Driver, configuration and IO
	DrvInfo           Code = 5000
	DrvLoadFailed     Code = 5001
	DrvInvalidPackage Code = 5002
	DrvInvalidProgram Code = 5003
	DrvConfig         Code = 5004
	DrvWriteFailed    Code = 5005
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		CapInfo:                "Capability information",
		CapMissingCapability:   "Target does not support a required capability",
		CapDynamicLoop:         "Loop condition depends on a measurement",
		CapDynamicReturn:       "Return inside a measurement-dependent branch",
		CapDynamicIndex:        "Array index depends on a measurement",
		CapDynamicArraySize:    "Array size depends on a measurement",
		CapCyclicDynamicCall:   "Recursive call with a measurement-dependent argument",
		CapOutputNotSupported:  "Target cannot record this output type",
		CapLabelSwapInBranch:   "Qubit relabeling inside a measurement-dependent branch",
		CapDynamicMeasureScope: "Measurement inside a measurement-dependent branch",
		UnsInfo:                "Unsupported construct information",
		UnsConstruct:           "Construct has no partial-evaluation rule",
		UnsDynamicValue:        "Unexpected measurement-dependent value",
		UnsSimulationIntrinsic: "Intrinsic requires a simulator",
		UnsDynamicCallee:       "Callee depends on a measurement",
		UnsDynamicOperand:      "Operator does not accept a measurement-dependent operand",
		EvalInfo:               "Evaluation information",
		EvalFailed:             "Program failed during evaluation",
		EvalIntegerOverflow:    "Integer overflow",
		EvalDivisionByZero:     "Division by zero",
		EvalIndexOutOfRange:    "Index out of range",
		EvalNegativeShift:      "Negative shift amount",
		EvalUnknownIntrinsic:   "Unknown intrinsic",
		EvalCallDepthExceeded:  "Call depth limit exceeded",
		EvalLoopLimitExceeded:  "Loop iteration limit exceeded",
		EvalTypeMismatch:       "Value has an unexpected type",
		EvalUnboundLocal:       "Local variable is not bound",
		EvalInvalidRange:       "Invalid range",
		EvalQubitDoubleRelease: "Qubit released twice",
		OutInfo:                "Output information",
		OutResultLiteral:       "Result literal cannot be recorded as output",
		OutUnsupported:         "Value cannot be recorded as output",
		DrvInfo:                "Driver information",
		DrvLoadFailed:          "Failed to load input",
		DrvInvalidPackage:      "Input package is malformed",
		DrvInvalidProgram:      "Produced program failed validation",
		DrvConfig:              "Invalid configuration",
		DrvWriteFailed:         "Failed to write output",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CAP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("UNS%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EVL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("OUT%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DRV%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
