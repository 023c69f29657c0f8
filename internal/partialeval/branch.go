package partialeval

import (
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/rir"
	"quill/internal/trace"
)

// evalIf takes one arm of a classical condition. A measurement-dependent
// condition forks the block graph: both arms get their own block, jump to
// a shared continuation and store their value into a join variable.
func (ev *evaluator) evalIf(e *fir.Expr) (eval.Value, eval.Flow, error) {
	cond, flow, err := ev.evalExpr(e.If.Cond)
	if err != nil || flow == eval.FlowReturn {
		return cond, flow, err
	}
	switch cond.Kind {
	case eval.VKBool:
		if cond.Bool {
			return ev.evalExpr(e.If.Then)
		}
		if e.If.Else.IsValid() {
			return ev.evalExpr(e.If.Else)
		}
		return eval.Unit(), eval.FlowNext, nil
	case eval.VKVar:
	default:
		return eval.Value{}, eval.FlowNext, unexpected(e.Span, "condition is %s, not bool", cond.Kind)
	}

	var join *rir.Variable
	if !e.Ty.IsUnit() {
		ty, ok := rirType(e.Ty)
		if !ok {
			return eval.Value{}, eval.FlowNext, unimplemented(e.Span,
				"measurement-dependent if producing %s", e.Ty)
		}
		v := ev.newVar(ty)
		join = &v
	}
	defer ev.begin(trace.ScopeNode, "branch")()

	s := ev.scope()
	prev := ev.ctx.CurrentNode()
	cont := ev.newBlock()
	saved := s.cloneStatics()

	thenBlk, err := ev.evalArm(e.If.Then, join, cont)
	if err != nil {
		return eval.Value{}, eval.FlowNext, err
	}
	elseBlk := cont
	if e.If.Else.IsValid() {
		thenStatics := s.cloneStatics()
		s.restoreStatics(saved)
		if elseBlk, err = ev.evalArm(e.If.Else, join, cont); err != nil {
			return eval.Value{}, eval.FlowNext, err
		}
		s.keepMatching(thenStatics)
	} else {
		s.keepMatching(saved)
	}

	ev.program.Block(prev.ID).SetTerm(rir.Branch(cond.Var, thenBlk, elseBlk))
	ev.ctx.SetCurrentBlock(cont)
	if join == nil {
		return eval.Unit(), eval.FlowNext, nil
	}
	return eval.Var(*join), eval.FlowNext, nil
}

// evalArm evaluates id in a fresh block that jumps to cont when done.
func (ev *evaluator) evalArm(id fir.ExprID, join *rir.Variable, cont rir.BlockID) (rir.BlockID, error) {
	blk := ev.newBlock()
	ev.ctx.PushBlockNode(BlockNode{ID: blk, Successor: cont})
	v, flow, err := ev.evalExpr(id)
	if err != nil {
		return blk, err
	}
	if flow == eval.FlowReturn {
		return blk, unexpected(ev.pkg.SpanOf(id), "return escaped a measurement-dependent branch")
	}
	if join != nil {
		op, err := ev.operand(v)
		if err != nil {
			return blk, withSpan(err, ev.pkg.SpanOf(id))
		}
		ev.store(op, *join)
	}
	n := ev.ctx.PopBlockNode()
	ev.program.Block(n.ID).SetTerm(rir.Jump(n.Successor))
	return blk, nil
}

// evalLogical short-circuits and/or. A measurement-dependent left operand
// guarding a quantum right operand forks like an if without else.
func (ev *evaluator) evalLogical(e *fir.Expr) (eval.Value, eval.Flow, error) {
	isOr := e.BinOp.Op == fir.BinOrL
	lhs, flow, err := ev.evalExpr(e.BinOp.LHS)
	if err != nil || flow == eval.FlowReturn {
		return lhs, flow, err
	}
	switch lhs.Kind {
	case eval.VKBool:
		if lhs.Bool == isOr {
			return eval.Bool(isOr), eval.FlowNext, nil
		}
		return ev.evalExpr(e.BinOp.RHS)
	case eval.VKVar:
	default:
		return eval.Value{}, eval.FlowNext, unexpected(e.Span, "operand of %s is %s", e.BinOp.Op, lhs.Kind)
	}

	if ev.kind(e.BinOp.RHS).IsClassical() {
		rhs, flow, err := ev.evalExpr(e.BinOp.RHS)
		if err != nil || flow == eval.FlowReturn {
			return rhs, flow, err
		}
		if rhs.Kind == eval.VKBool {
			if rhs.Bool == isOr {
				return eval.Bool(isOr), eval.FlowNext, nil
			}
			return lhs, eval.FlowNext, nil
		}
		v, err := ev.binOp(e.BinOp.Op, lhs, rhs)
		return v, eval.FlowNext, err
	}

	defer ev.begin(trace.ScopeNode, "branch:"+e.BinOp.Op.String())()
	s := ev.scope()
	result := ev.newVar(rir.TyBoolean)
	ev.store(rir.LitOperand(rir.BoolLit(isOr)), result)
	saved := s.cloneStatics()

	prev := ev.ctx.CurrentNode()
	cont := ev.newBlock()
	rhsBlk, err := ev.evalArm(e.BinOp.RHS, &result, cont)
	if err != nil {
		return eval.Value{}, eval.FlowNext, err
	}
	s.keepMatching(saved)

	term := rir.Branch(lhs.Var, rhsBlk, cont)
	if isOr {
		term = rir.Branch(lhs.Var, cont, rhsBlk)
	}
	ev.program.Block(prev.ID).SetTerm(term)
	ev.ctx.SetCurrentBlock(cont)
	return eval.Var(result), eval.FlowNext, nil
}
