package partialeval

import (
	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/rir"
	"quill/internal/source"
)

// recordOutput appends the calls that report the entry value. Aggregates
// record their arity followed by each element.
func (ev *evaluator) recordOutput(v eval.Value, span source.Span) error {
	switch v.Kind {
	case eval.VKUnit:
		ev.recordArity(rir.TupleRecordOutput(), 0)
		return nil
	case eval.VKTuple, eval.VKArray:
		decl := rir.TupleRecordOutput()
		if v.Kind == eval.VKArray {
			decl = rir.ArrayRecordOutput()
		}
		ev.recordArity(decl, len(v.Elems))
		for _, el := range v.Elems {
			if err := ev.recordOutput(el, span); err != nil {
				return err
			}
		}
		return nil
	case eval.VKResult:
		if !v.Result.Register {
			return newError(KindOutputResultLiteral, diag.OutResultLiteral, span,
				"result literal %s cannot be recorded as output", v)
		}
	case eval.VKBool, eval.VKInt, eval.VKDouble, eval.VKVar:
	default:
		return newError(KindUnexpected, diag.OutUnsupported, span, "%s value cannot be recorded as output", v.Kind)
	}

	op, err := ev.operand(v)
	if err != nil {
		return withSpan(err, span)
	}
	decl, ok := rir.RecordOutput(op.Ty())
	if !ok {
		return newError(KindUnexpected, diag.OutUnsupported, span, "%s value cannot be recorded as output", op.Ty())
	}
	id, _ := ev.callable(decl)
	ev.emit(rir.NewCall(id, []rir.Operand{op, rir.LitOperand(rir.PointerLit())}, nil))
	return nil
}

func (ev *evaluator) recordArity(decl rir.Callable, n int) {
	id, _ := ev.callable(decl)
	ev.emit(rir.NewCall(id, []rir.Operand{
		rir.LitOperand(rir.IntLit(int64(n))),
		rir.LitOperand(rir.PointerLit()),
	}, nil))
}
