package partialeval

import (
	"errors"
	"fmt"

	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/rca"
	"quill/internal/source"
)

// ErrorKind tags a partial-evaluation failure.
type ErrorKind uint8

const (
	// KindCapability: the program needs a run-time feature the target lacks.
	KindCapability ErrorKind = iota + 1
	// KindUnimplemented: a construct has no partial-evaluation rule.
	KindUnimplemented
	// KindUnexpectedDynamicValue: a dynamic value reached a position that
	// needs a compile-time value.
	KindUnexpectedDynamicValue
	// KindEvaluationFailed: classical evaluation failed.
	KindEvaluationFailed
	// KindOutputResultLiteral: the entry returns a Result literal.
	KindOutputResultLiteral
	// KindUnsupportedSimulationIntrinsic: an intrinsic only a simulator
	// can run was called.
	KindUnsupportedSimulationIntrinsic
	// KindResourceExhausted: a depth or iteration limit was hit.
	KindResourceExhausted
	// KindUnexpected: the input violates an assumption of the evaluator.
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindCapability:
		return "capability"
	case KindUnimplemented:
		return "unimplemented"
	case KindUnexpectedDynamicValue:
		return "unexpected dynamic value"
	case KindEvaluationFailed:
		return "evaluation failed"
	case KindOutputResultLiteral:
		return "output result literal"
	case KindUnsupportedSimulationIntrinsic:
		return "unsupported simulation intrinsic"
	case KindResourceExhausted:
		return "resource exhausted"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Error is the single terminal error of a failed partial evaluation.
type Error struct {
	Kind    ErrorKind
	Code    diag.Code
	Span    source.Span
	Message string
	// Features lists the unsupported run-time features of a capability
	// error.
	Features rca.RuntimeFeatureFlags
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
}

// Diagnostic converts the error for reporting.
func (e *Error) Diagnostic() diag.Diagnostic {
	d := diag.New(diag.SevError, e.Code, e.Span, e.Message)
	if e.Features != 0 {
		caps := e.Features.RequiredCapabilities()
		d = d.WithNote(e.Span, "requires target capabilities "+caps.String())
	}
	return d
}

func newError(kind ErrorKind, code diag.Code, span source.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

func unimplemented(span source.Span, format string, args ...any) *Error {
	return newError(KindUnimplemented, diag.UnsConstruct, span, format, args...)
}

func unexpected(span source.Span, format string, args ...any) *Error {
	return newError(KindUnexpected, diag.UnsInfo, span, format, args...)
}

// fromEval maps an interpreter error onto the partial-evaluation taxonomy.
// span is used when the interpreter did not report one.
func fromEval(err error, span source.Span) error {
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Span == (source.Span{}) {
			pe.Span = span
		}
		return pe
	}
	var ee *eval.Error
	if !errors.As(err, &ee) {
		return newError(KindUnexpected, diag.UnsInfo, span, "%v", err)
	}
	sp := ee.Span
	if sp == (source.Span{}) {
		sp = span
	}
	kind := KindEvaluationFailed
	switch ee.Code {
	case diag.UnsDynamicValue, diag.UnsDynamicOperand, diag.UnsDynamicCallee:
		kind = KindUnexpectedDynamicValue
	case diag.EvalCallDepthExceeded, diag.EvalLoopLimitExceeded:
		kind = KindResourceExhausted
	case diag.UnsSimulationIntrinsic:
		kind = KindUnsupportedSimulationIntrinsic
	}
	return &Error{Kind: kind, Code: ee.Code, Span: sp, Message: ee.Message}
}
