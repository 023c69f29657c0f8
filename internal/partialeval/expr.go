package partialeval

import (
	"errors"
	"fmt"

	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/trace"
)

// evalExpr evaluates id, handing classical subtrees to the interpreter.
func (ev *evaluator) evalExpr(id fir.ExprID) (eval.Value, eval.Flow, error) {
	e := ev.pkg.Expr(id)
	if e == nil {
		return eval.Value{}, eval.FlowNext, unexpected(source.Span{}, "missing expression %d", id)
	}
	if ev.kind(id).IsClassical() {
		v, flow, err := ev.interp.EvalExpr(ev.scope().Env, id)
		if err != nil {
			return eval.Value{}, eval.FlowNext, fromEval(err, e.Span)
		}
		return v, flow, nil
	}
	v, flow, err := ev.evalHybrid(e)
	if err != nil {
		return eval.Value{}, eval.FlowNext, withSpan(err, e.Span)
	}
	return v, flow, nil
}

func withSpan(err error, span source.Span) error {
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Span == (source.Span{}) {
			pe.Span = span
		}
		return pe
	}
	return fromEval(err, span)
}

func (ev *evaluator) evalHybrid(e *fir.Expr) (eval.Value, eval.Flow, error) {
	switch e.Kind {
	case fir.ExprLit:
		return eval.LitValue(e.Lit), eval.FlowNext, nil

	case fir.ExprItem:
		return eval.CallableValue(e.Item.ID), eval.FlowNext, nil

	case fir.ExprVar:
		v, err := ev.readLocal(e.Var.Local)
		return v, eval.FlowNext, err

	case fir.ExprTuple, fir.ExprArray:
		elems, flow, err := ev.evalList(e.List.Elems)
		if err != nil || flow == eval.FlowReturn {
			return lastValue(elems), flow, err
		}
		if e.Kind == fir.ExprTuple {
			return eval.Tuple(elems...), eval.FlowNext, nil
		}
		return eval.Array(elems), eval.FlowNext, nil

	case fir.ExprArrayRepeat:
		vals, flow, err := ev.evalList([]fir.ExprID{e.Repeat.Value, e.Repeat.Size})
		if err != nil || flow == eval.FlowReturn {
			return lastValue(vals), flow, err
		}
		if vals[1].IsDynamic() {
			return eval.Value{}, eval.FlowNext, newError(KindUnimplemented, diag.CapDynamicArraySize, e.Span,
				"array size depends on a measurement")
		}
		v, err := eval.RepeatArray(vals[0], vals[1])
		return v, eval.FlowNext, err

	case fir.ExprIndex:
		vals, flow, err := ev.evalList([]fir.ExprID{e.Index.Array, e.Index.Index})
		if err != nil || flow == eval.FlowReturn {
			return lastValue(vals), flow, err
		}
		if vals[1].IsDynamic() {
			return eval.Value{}, eval.FlowNext, newError(KindUnimplemented, diag.CapDynamicIndex, e.Span,
				"array index depends on a measurement")
		}
		v, err := eval.Index(vals[0], vals[1])
		return v, eval.FlowNext, err

	case fir.ExprField:
		t, flow, err := ev.evalExpr(e.Field.Tuple)
		if err != nil || flow == eval.FlowReturn {
			return t, flow, err
		}
		v, err := eval.Field(t, e.Field.Index)
		return v, eval.FlowNext, err

	case fir.ExprRange:
		ids := []fir.ExprID{e.Range.Start, e.Range.End}
		if e.Range.Step.IsValid() {
			ids = []fir.ExprID{e.Range.Start, e.Range.Step, e.Range.End}
		}
		vals, flow, err := ev.evalList(ids)
		if err != nil || flow == eval.FlowReturn {
			return lastValue(vals), flow, err
		}
		step := eval.Int(1)
		if len(vals) == 3 {
			step = vals[1]
		}
		v, err := eval.MakeRange(vals[0], step, vals[len(vals)-1])
		return v, eval.FlowNext, err

	case fir.ExprUnOp:
		v, flow, err := ev.evalExpr(e.UnOp.Operand)
		if err != nil || flow == eval.FlowReturn {
			return v, flow, err
		}
		v, err = ev.unOp(e.UnOp.Op, v)
		return v, eval.FlowNext, err

	case fir.ExprBinOp:
		return ev.evalBinOp(e)

	case fir.ExprCall:
		return ev.evalCall(e)

	case fir.ExprIf:
		return ev.evalIf(e)

	case fir.ExprWhile:
		return ev.evalWhile(e)

	case fir.ExprFor:
		return ev.evalFor(e)

	case fir.ExprBlock:
		return ev.evalBlock(e.Block.Block)

	case fir.ExprAssign:
		v, flow, err := ev.evalExpr(e.Assign.Value)
		if err != nil || flow == eval.FlowReturn {
			return v, flow, err
		}
		return eval.Unit(), eval.FlowNext, ev.assign(e.Assign.Local, v, e.Span)

	case fir.ExprAssignOp:
		rhs, flow, err := ev.evalExpr(e.AssignOp.Value)
		if err != nil || flow == eval.FlowReturn {
			return rhs, flow, err
		}
		cur, err := ev.readLocal(e.AssignOp.Local)
		if err != nil {
			return eval.Value{}, eval.FlowNext, err
		}
		v, err := ev.binOp(e.AssignOp.Op, cur, rhs)
		if err != nil {
			return eval.Value{}, eval.FlowNext, err
		}
		return eval.Unit(), eval.FlowNext, ev.assign(e.AssignOp.Local, v, e.Span)

	case fir.ExprReturn:
		if ev.scope().InBranch() {
			return eval.Value{}, eval.FlowNext, newError(KindUnimplemented, diag.CapDynamicReturn, e.Span,
				"early return inside a measurement-dependent branch")
		}
		if !e.Return.Value.IsValid() {
			return eval.Unit(), eval.FlowReturn, nil
		}
		v, _, err := ev.evalExpr(e.Return.Value)
		if err != nil {
			return eval.Value{}, eval.FlowNext, err
		}
		return v, eval.FlowReturn, nil

	case fir.ExprFail:
		if ev.ctx.InAnyBranch() {
			return eval.Value{}, eval.FlowNext, unimplemented(e.Span, "failure inside a measurement-dependent branch")
		}
		msg, flow, err := ev.evalExpr(e.Fail.Message)
		if err != nil || flow == eval.FlowReturn {
			return msg, flow, err
		}
		return eval.Value{}, eval.FlowNext, newError(KindEvaluationFailed, diag.EvalFailed, e.Span,
			"program failed: %s", msg.Str)
	}
	return eval.Value{}, eval.FlowNext, unexpected(e.Span, "no rule for %s expression", e.Kind)
}

func lastValue(vals []eval.Value) eval.Value {
	if n := len(vals); n > 0 {
		return vals[n-1]
	}
	return eval.Value{}
}

func (ev *evaluator) evalList(ids []fir.ExprID) ([]eval.Value, eval.Flow, error) {
	out := make([]eval.Value, 0, len(ids))
	for _, id := range ids {
		v, flow, err := ev.evalExpr(id)
		if err != nil {
			return nil, eval.FlowNext, err
		}
		out = append(out, v)
		if flow == eval.FlowReturn {
			return out, eval.FlowReturn, nil
		}
	}
	return out, eval.FlowNext, nil
}

// evalBlock runs the statements of blk in the current frame.
func (ev *evaluator) evalBlock(id fir.BlockID) (eval.Value, eval.Flow, error) {
	blk := ev.pkg.Block(id)
	if blk == nil {
		return eval.Value{}, eval.FlowNext, unexpected(source.Span{}, "missing block %d", id)
	}
	result := eval.Unit()
	for _, sid := range blk.Stmts {
		st := ev.pkg.Stmt(sid)
		result = eval.Unit()
		switch st.Kind {
		case fir.StmtLocal:
			v, flow, err := ev.evalExpr(st.Local.Init)
			if err != nil || flow == eval.FlowReturn {
				return v, flow, err
			}
			if err := ev.bindPat(st.Local.Pat, v, st.Local.Mutable); err != nil {
				return eval.Value{}, eval.FlowNext, withSpan(err, st.Span)
			}
		case fir.StmtSemi, fir.StmtExpr:
			v, flow, err := ev.evalExpr(st.Expr)
			if err != nil || flow == eval.FlowReturn {
				return v, flow, err
			}
			if st.Kind == fir.StmtExpr {
				result = v
			}
		}
	}
	return result, eval.FlowNext, nil
}

func (ev *evaluator) evalWhile(e *fir.Expr) (eval.Value, eval.Flow, error) {
	for iter := 0; ; iter++ {
		if iter >= ev.opts.MaxLoopIterations {
			return eval.Value{}, eval.FlowNext, newError(KindResourceExhausted, diag.EvalLoopLimitExceeded, e.Span,
				"loop exceeded %d iterations", ev.opts.MaxLoopIterations)
		}
		cond, flow, err := ev.evalExpr(e.While.Cond)
		if err != nil || flow == eval.FlowReturn {
			return cond, flow, err
		}
		if cond.IsDynamic() {
			return eval.Value{}, eval.FlowNext, newError(KindUnimplemented, diag.CapDynamicLoop, e.Span,
				"loop condition depends on a measurement")
		}
		if cond.Kind != eval.VKBool {
			return eval.Value{}, eval.FlowNext, unexpected(e.Span, "loop condition is %s", cond.Kind)
		}
		if !cond.Bool {
			return eval.Unit(), eval.FlowNext, nil
		}
		v, flow, err := ev.evalBlock(e.While.Body)
		if err != nil || flow == eval.FlowReturn {
			return v, flow, err
		}
	}
}

func (ev *evaluator) evalFor(e *fir.Expr) (eval.Value, eval.Flow, error) {
	iter, flow, err := ev.evalExpr(e.For.Iter)
	if err != nil || flow == eval.FlowReturn {
		return iter, flow, err
	}
	if iter.Kind == eval.VKVar {
		return eval.Value{}, eval.FlowNext, newError(KindUnimplemented, diag.CapDynamicLoop, e.Span,
			"loop range depends on a measurement")
	}
	items, err := eval.Iterate(iter, ev.opts.MaxLoopIterations)
	if err != nil {
		return eval.Value{}, eval.FlowNext, err
	}
	defer ev.begin(trace.ScopeNode, fmt.Sprintf("unroll:%d", len(items)))()
	for _, item := range items {
		if err := ev.bindPat(e.For.Pat, item, false); err != nil {
			return eval.Value{}, eval.FlowNext, err
		}
		v, flow, err := ev.evalBlock(e.For.Body)
		if err != nil || flow == eval.FlowReturn {
			return v, flow, err
		}
	}
	return eval.Unit(), eval.FlowNext, nil
}

// readLocal returns the value of a local, folding variables known to hold
// a literal.
func (ev *evaluator) readLocal(id fir.LocalVarID) (eval.Value, error) {
	b, ok := ev.scope().Env.Lookup(id)
	if !ok {
		return eval.Value{}, unexpected(source.Span{}, "local %d is not bound", id)
	}
	if b.Value.Kind == eval.VKVar {
		if lit, ok := ev.scope().Static(b.Value.Var.ID); ok {
			return literalValue(lit), nil
		}
	}
	return b.Value, nil
}

func (ev *evaluator) bindPat(pid fir.PatID, v eval.Value, mutable bool) error {
	p := ev.pkg.Pat(pid)
	if p == nil {
		return unexpected(source.Span{}, "missing pattern %d", pid)
	}
	switch p.Kind {
	case fir.PatBind:
		return ev.bindLocal(p.Local, v, mutable)
	case fir.PatTuple:
		if v.Kind != eval.VKTuple || len(v.Elems) != len(p.Elems) {
			return unexpected(p.Span, "cannot destructure %s into %d elements", v.Kind, len(p.Elems))
		}
		for i, el := range p.Elems {
			if err := ev.bindPat(el, v.Elems[i], mutable); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindLocal binds a local in the current frame. A mutable local that RCA
// classifies as dynamic gets a variable updated by Store; every other
// binding keeps a point-in-time copy of v.
func (ev *evaluator) bindLocal(id fir.LocalVarID, v eval.Value, mutable bool) error {
	s := ev.scope()
	l := ev.pkg.Local(id)
	if l == nil {
		return unexpected(source.Span{}, "missing local %d", id)
	}
	if mutable && ev.props.LocalKind(id, s.Mask).Dynamic {
		if ty, ok := rirType(l.Ty); ok {
			op, err := ev.operand(v)
			if err != nil {
				return err
			}
			variable := ev.newVar(ty)
			ev.store(op, variable)
			ev.backing[variable.ID] = true
			s.Env.Bind(id, eval.Var(variable), true)
			return nil
		}
	}
	snap, err := ev.snapshot(v)
	if err != nil {
		return err
	}
	s.Env.Bind(id, snap, mutable)
	return nil
}

// snapshot copies every mutable-local variable inside v so later stores to
// that local leave the copy unchanged.
func (ev *evaluator) snapshot(v eval.Value) (eval.Value, error) {
	switch v.Kind {
	case eval.VKVar:
		if !ev.backing[v.Var.ID] {
			return v, nil
		}
		if lit, ok := ev.scope().Static(v.Var.ID); ok {
			return literalValue(lit), nil
		}
		cp := ev.newVar(v.Var.Ty)
		ev.store(rir.VarOperand(v.Var), cp)
		return eval.Var(cp), nil
	case eval.VKTuple, eval.VKArray:
		if !v.IsDynamic() {
			return v, nil
		}
		elems := make([]eval.Value, len(v.Elems))
		for i, el := range v.Elems {
			c, err := ev.snapshot(el)
			if err != nil {
				return eval.Value{}, err
			}
			elems[i] = c
		}
		out := v
		out.Elems = elems
		return out, nil
	}
	return v, nil
}

func (ev *evaluator) assign(id fir.LocalVarID, v eval.Value, span source.Span) error {
	s := ev.scope()
	b, ok := s.Env.Lookup(id)
	if !ok {
		return unexpected(span, "local %d is not bound", id)
	}
	if !b.Mutable {
		return unexpected(span, "assignment to immutable local %d", id)
	}
	if b.Value.Kind == eval.VKVar && ev.backing[b.Value.Var.ID] {
		op, err := ev.operand(v)
		if err != nil {
			return err
		}
		ev.store(op, b.Value.Var)
		return nil
	}
	if s.InBranch() {
		l := ev.pkg.Local(id)
		return unimplemented(span, "cannot update %s of type %s inside a measurement-dependent branch", l.Name, l.Ty)
	}
	snap, err := ev.snapshot(v)
	if err != nil {
		return err
	}
	b.Value = snap
	return nil
}
