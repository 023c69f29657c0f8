package partialeval

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/source"
)

// boundaryBackend is the quantum backend the embedded interpreter sees
// during partial evaluation. Quantum work never reaches it: the evaluator
// intercepts every quantum expression first. Only allocation and a fixed
// set of bookkeeping intrinsics pass through.
type boundaryBackend struct {
	res *ResourceManager
}

var _ eval.Backend = (*boundaryBackend)(nil)

// passThrough lists intrinsics that behave classically at compile time,
// with the value they produce.
var passThrough = map[string]eval.Value{
	fir.BeginEstimateCachingName:         eval.Bool(true),
	fir.EndEstimateCachingName:           eval.Unit(),
	fir.GlobalPhaseName:                  eval.Unit(),
	fir.AccountForEstimatesInternalName:  eval.Unit(),
	fir.BeginRepeatEstimatesInternalName: eval.Unit(),
	fir.EndRepeatEstimatesInternalName:   eval.Unit(),
	fir.DumpMachineName:                  eval.Unit(),
}

// IsPassThrough reports whether name is evaluated classically with a fixed
// result.
func IsPassThrough(name string) bool {
	_, ok := passThrough[name]
	return ok
}

func (b *boundaryBackend) AllocateQubit() (eval.QubitID, error) {
	return b.res.AllocateQubit(), nil
}

func (b *boundaryBackend) ReleaseQubit(q eval.QubitID) error {
	return releaseQubit(b.res, q, source.Span{})
}

// releaseQubit frees q, failing when the program already released it.
func releaseQubit(res *ResourceManager, q eval.QubitID, span source.Span) error {
	if _, ok := res.QubitSlot(q); !ok {
		return newError(KindEvaluationFailed, diag.EvalQubitDoubleRelease, span,
			"qubit %d is released twice", q)
	}
	res.ReleaseQubit(q)
	return nil
}

func (b *boundaryBackend) Apply(name string, _ []eval.Value) (eval.Value, error) {
	panic(fmt.Sprintf("partialeval: quantum intrinsic %s reached the classical interpreter", name))
}

func (b *boundaryBackend) CustomIntrinsic(name string, _ []eval.Value) (eval.Value, bool, error) {
	if v, ok := passThrough[name]; ok {
		return v, true, nil
	}
	if name == fir.CheckZeroName {
		return eval.Value{}, true, newError(KindUnsupportedSimulationIntrinsic, diag.UnsSimulationIntrinsic,
			source.Span{}, "%s needs a simulator and cannot be compiled for hardware", name)
	}
	return eval.Value{}, false, nil
}
