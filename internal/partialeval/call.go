package partialeval

import (
	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/trace"
)

func (ev *evaluator) evalCall(e *fir.Expr) (eval.Value, eval.Flow, error) {
	callee, flow, err := ev.evalExpr(e.Call.Callee)
	if err != nil || flow == eval.FlowReturn {
		return callee, flow, err
	}
	if callee.Kind == eval.VKVar {
		return eval.Value{}, eval.FlowNext, newError(KindUnimplemented, diag.UnsDynamicCallee, e.Span,
			"callee depends on a measurement")
	}
	if callee.Kind != eval.VKCallable {
		return eval.Value{}, eval.FlowNext, unexpected(e.Span, "cannot call %s", callee.Kind)
	}
	args, flow, err := ev.evalList(e.Call.Args)
	if err != nil || flow == eval.FlowReturn {
		return lastValue(args), flow, err
	}
	if callee.Callable.Package != ev.pkg.ID {
		return eval.Value{}, eval.FlowNext, unexpected(e.Span, "callable %d of package %d is not loaded",
			callee.Callable.Item, callee.Callable.Package)
	}
	c := ev.pkg.Callable(callee.Callable.Item)
	if c == nil {
		return eval.Value{}, eval.FlowNext, unexpected(e.Span, "unknown callable %d", callee.Callable.Item)
	}
	if len(args) != len(c.Params) {
		return eval.Value{}, eval.FlowNext, unexpected(e.Span, "%s expects %d arguments, got %d",
			c.Name, len(c.Params), len(args))
	}
	if c.IsIntrinsic() {
		v, err := ev.callIntrinsic(c, args, e.Span)
		return v, eval.FlowNext, err
	}
	v, err := ev.inline(c, args, e.Span)
	return v, eval.FlowNext, err
}

func (ev *evaluator) callIntrinsic(c *fir.Callable, args []eval.Value, span source.Span) (eval.Value, error) {
	switch {
	case c.Name == fir.LengthName && args[0].Kind == eval.VKArray:
		return eval.Int(int64(len(args[0].Elems))), nil

	case eval.IsBuiltin(c.Name):
		for _, a := range args {
			if isRuntime(a) {
				return eval.Value{}, newError(KindUnimplemented, diag.UnsDynamicOperand, span,
					"%s does not accept a measurement-dependent argument", c.Name)
			}
		}
		return ev.interp.CallBuiltin(c.Name, args)

	case c.Name == fir.QubitAllocateName:
		return eval.Qubit(ev.res.AllocateQubit()), nil

	case c.Name == fir.QubitReleaseName:
		if args[0].Kind != eval.VKQubit {
			return eval.Value{}, unexpected(span, "%s expects a qubit, got %s", c.Name, args[0].Kind)
		}
		if err := releaseQubit(ev.res, args[0].Qubit, span); err != nil {
			return eval.Value{}, err
		}
		return eval.Unit(), nil

	case c.Name == fir.QubitSwapLabelsName:
		if ev.ctx.InAnyBranch() {
			return eval.Value{}, newError(KindUnimplemented, diag.CapLabelSwapInBranch, span,
				"qubit labels cannot be swapped inside a measurement-dependent branch")
		}
		if args[0].Kind != eval.VKQubit || args[1].Kind != eval.VKQubit {
			return eval.Value{}, unexpected(span, "%s expects two qubits", c.Name)
		}
		ev.res.SwapQubitSlots(args[0].Qubit, args[1].Qubit)
		return eval.Unit(), nil

	case IsPassThrough(c.Name) || c.Name == fir.CheckZeroName:
		b := boundaryBackend{res: ev.res}
		v, _, err := b.CustomIntrinsic(c.Name, args)
		return v, err
	}
	return ev.emitIntrinsicCall(c, args)
}

// emitIntrinsicCall emits a Call to the primitive backing c. Measurements
// write to a fresh result register.
func (ev *evaluator) emitIntrinsicCall(c *fir.Callable, args []eval.Value) (eval.Value, error) {
	ops := make([]rir.Operand, 0, len(args)+1)
	tys := make([]rir.Ty, 0, len(args)+1)
	for _, a := range args {
		switch a.Kind {
		case eval.VKTuple, eval.VKArray:
			return eval.Value{}, unimplemented(source.Span{}, "%s argument to %s cannot be lowered", a.Kind, c.Name)
		}
		op, err := ev.operand(a)
		if err != nil {
			return eval.Value{}, err
		}
		ops = append(ops, op)
		tys = append(tys, op.Ty())
	}

	switch {
	case c.Attrs.Has(fir.AttrMeasurement):
		id, _ := ev.callable(rir.Primitive(c.Name, rir.CallMeasurement, rir.TyVoid, append(tys, rir.TyResult)...))
		r := ev.res.NextResult()
		ev.emit(rir.NewCall(id, append(ops, rir.LitOperand(rir.ResultLit(r))), nil))
		return eval.ResultRegister(r), nil
	case c.Attrs.Has(fir.AttrReset):
		id, _ := ev.callable(rir.Primitive(c.Name, rir.CallReset, rir.TyVoid, tys...))
		ev.emit(rir.NewCall(id, ops, nil))
		return eval.Unit(), nil
	case c.Output.IsUnit():
		id, _ := ev.callable(rir.Primitive(c.Name, rir.CallRegular, rir.TyVoid, tys...))
		ev.emit(rir.NewCall(id, ops, nil))
		return eval.Unit(), nil
	}
	ty, ok := rirType(c.Output)
	if !ok {
		return eval.Value{}, unimplemented(source.Span{}, "intrinsic %s returns %s", c.Name, c.Output)
	}
	id, _ := ev.callable(rir.Primitive(c.Name, rir.CallRegular, ty, tys...))
	dst := ev.newVar(ty)
	ev.emit(rir.NewCall(id, ops, &dst))
	return eval.Var(dst), nil
}

// inline evaluates the body of c in a new frame. The frame's parameter mask
// selects the classification that matches which arguments are dynamic.
func (ev *evaluator) inline(c *fir.Callable, args []eval.Value, span source.Span) (eval.Value, error) {
	var mask rca.ParamMask
	bound := make([]eval.Value, len(args))
	for i, a := range args {
		if isRuntime(a) {
			mask = mask.With(i)
		}
		v, err := ev.snapshot(a)
		if err != nil {
			return eval.Value{}, err
		}
		bound[i] = v
	}

	if err := ev.ctx.PushScope(NewScope(c.ID, c.Name, mask), span); err != nil {
		return eval.Value{}, err
	}
	defer ev.begin(trace.ScopeCallable, "inline:"+c.Name)()
	defer ev.ctx.PopScope()

	for i, p := range c.Params {
		if err := ev.bindPat(p, bound[i], false); err != nil {
			return eval.Value{}, err
		}
	}
	v, _, err := ev.evalBlock(c.Body)
	return v, err
}

// isRuntime reports whether v holds anything only known at run time.
func isRuntime(v eval.Value) bool {
	switch v.Kind {
	case eval.VKVar:
		return true
	case eval.VKResult:
		return v.Result.Register
	case eval.VKTuple, eval.VKArray:
		for _, el := range v.Elems {
			if isRuntime(el) {
				return true
			}
		}
	}
	return false
}
