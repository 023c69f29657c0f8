package partialeval

import (
	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/rir"
	"quill/internal/source"
)

// rirType maps a classical scalar type to its instruction-graph type.
func rirType(ty fir.Ty) (rir.Ty, bool) {
	switch ty.Kind {
	case fir.TyBool:
		return rir.TyBoolean, true
	case fir.TyInt:
		return rir.TyInteger, true
	case fir.TyDouble:
		return rir.TyDouble, true
	}
	return rir.TyVoid, false
}

func literalValue(l rir.Literal) eval.Value {
	switch l.Kind {
	case rir.LitBool:
		return eval.Bool(l.Bool)
	case rir.LitInteger:
		return eval.Int(l.Int)
	case rir.LitDouble:
		return eval.Double(l.Double)
	case rir.LitResult:
		return eval.ResultRegister(l.Index)
	}
	return eval.Value{}
}

// operand converts a scalar value to an instruction operand. Qubits resolve
// to their current slot.
func (ev *evaluator) operand(v eval.Value) (rir.Operand, error) {
	switch v.Kind {
	case eval.VKBool:
		return rir.LitOperand(rir.BoolLit(v.Bool)), nil
	case eval.VKInt:
		return rir.LitOperand(rir.IntLit(v.Int)), nil
	case eval.VKDouble:
		return rir.LitOperand(rir.DoubleLit(v.Double)), nil
	case eval.VKVar:
		return rir.VarOperand(v.Var), nil
	case eval.VKQubit:
		slot, ok := ev.res.QubitSlot(v.Qubit)
		if !ok {
			return rir.Operand{}, newError(KindUnexpected, diag.EvalFailed, source.Span{},
				"qubit %d is used after release", v.Qubit)
		}
		return rir.LitOperand(rir.QubitLit(slot)), nil
	case eval.VKResult:
		if v.Result.Register {
			return rir.LitOperand(rir.ResultLit(v.Result.Index)), nil
		}
	}
	return rir.Operand{}, unimplemented(source.Span{}, "%s value cannot be passed as an instruction operand", v.Kind)
}

// readResult emits a read of result register idx into a fresh Boolean.
func (ev *evaluator) readResult(idx uint32) rir.Variable {
	id, _ := ev.callable(rir.ReadResult())
	dst := ev.newVar(rir.TyBoolean)
	ev.emit(rir.NewCall(id, []rir.Operand{rir.LitOperand(rir.ResultLit(idx))}, &dst))
	return dst
}

func (ev *evaluator) unOp(op fir.UnOp, v eval.Value) (eval.Value, error) {
	if v.Kind != eval.VKVar {
		return eval.UnOp(op, v)
	}
	x := rir.VarOperand(v.Var)
	switch {
	case op == fir.UnNotL && v.Var.Ty == rir.TyBoolean:
		dst := ev.newVar(rir.TyBoolean)
		ev.emit(rir.NewUnary(rir.InstrLogicalNot, x, dst))
		return eval.Var(dst), nil
	case op == fir.UnNotB && v.Var.Ty == rir.TyInteger:
		dst := ev.newVar(rir.TyInteger)
		ev.emit(rir.NewUnary(rir.InstrBitwiseNot, x, dst))
		return eval.Var(dst), nil
	case op == fir.UnNeg && v.Var.Ty == rir.TyInteger:
		dst := ev.newVar(rir.TyInteger)
		ev.emit(rir.NewBinary(rir.InstrSub, rir.LitOperand(rir.IntLit(0)), x, dst))
		return eval.Var(dst), nil
	case op == fir.UnNeg && v.Var.Ty == rir.TyDouble:
		dst := ev.newVar(rir.TyDouble)
		ev.emit(rir.NewBinary(rir.InstrFsub, rir.LitOperand(rir.DoubleLit(0)), x, dst))
		return eval.Var(dst), nil
	}
	return eval.Value{}, newError(KindUnimplemented, diag.UnsDynamicOperand, source.Span{},
		"operator %s does not apply to a measurement-dependent %s", op, v.Var.Ty)
}

func (ev *evaluator) evalBinOp(e *fir.Expr) (eval.Value, eval.Flow, error) {
	if e.BinOp.Op.IsLogical() {
		return ev.evalLogical(e)
	}
	vals, flow, err := ev.evalList([]fir.ExprID{e.BinOp.LHS, e.BinOp.RHS})
	if err != nil || flow == eval.FlowReturn {
		return lastValue(vals), flow, err
	}
	v, err := ev.binOp(e.BinOp.Op, vals[0], vals[1])
	return v, eval.FlowNext, err
}

var intInstrs = map[fir.BinOp]rir.InstrKind{
	fir.BinAdd:  rir.InstrAdd,
	fir.BinSub:  rir.InstrSub,
	fir.BinMul:  rir.InstrMul,
	fir.BinDiv:  rir.InstrSdiv,
	fir.BinMod:  rir.InstrSrem,
	fir.BinShl:  rir.InstrShl,
	fir.BinShr:  rir.InstrAshr,
	fir.BinAndB: rir.InstrBitwiseAnd,
	fir.BinOrB:  rir.InstrBitwiseOr,
	fir.BinXorB: rir.InstrBitwiseXor,
}

var doubleInstrs = map[fir.BinOp]rir.InstrKind{
	fir.BinAdd: rir.InstrFadd,
	fir.BinSub: rir.InstrFsub,
	fir.BinMul: rir.InstrFmul,
	fir.BinDiv: rir.InstrFdiv,
}

var boolInstrs = map[fir.BinOp]rir.InstrKind{
	fir.BinAndL: rir.InstrLogicalAnd,
	fir.BinOrL:  rir.InstrLogicalOr,
}

var icmpConds = map[fir.BinOp]rir.ConditionCode{
	fir.BinEq: rir.CondEq,
	fir.BinNe: rir.CondNe,
	fir.BinLt: rir.CondSlt,
	fir.BinLe: rir.CondSle,
	fir.BinGt: rir.CondSgt,
	fir.BinGe: rir.CondSge,
}

var fcmpConds = map[fir.BinOp]rir.FcmpCondition{
	fir.BinEq: rir.FcmpOeq,
	fir.BinNe: rir.FcmpOne,
	fir.BinLt: rir.FcmpOlt,
	fir.BinLe: rir.FcmpOle,
	fir.BinGt: rir.FcmpOgt,
	fir.BinGe: rir.FcmpOge,
}

// binOp applies a non-short-circuiting operator, emitting an instruction
// when either operand is only known at run time.
func (ev *evaluator) binOp(op fir.BinOp, lhs, rhs eval.Value) (eval.Value, error) {
	if lhs.Kind == eval.VKResult || rhs.Kind == eval.VKResult {
		return ev.compareResults(op, lhs, rhs)
	}
	if lhs.Kind != eval.VKVar && rhs.Kind != eval.VKVar {
		return eval.BinOp(op, lhs, rhs)
	}
	if lhs.IsDynamic() && lhs.Kind != eval.VKVar || rhs.IsDynamic() && rhs.Kind != eval.VKVar {
		return eval.Value{}, newError(KindUnimplemented, diag.UnsDynamicOperand, source.Span{},
			"operator %s does not apply to measurement-dependent aggregates", op)
	}
	lo, err := ev.operand(lhs)
	if err != nil {
		return eval.Value{}, err
	}
	ro, err := ev.operand(rhs)
	if err != nil {
		return eval.Value{}, err
	}
	ty := lo.Ty()
	if ro.Ty() != ty {
		return eval.Value{}, unexpected(source.Span{}, "operator %s on mismatched operands %s and %s", op, lo.Ty(), ro.Ty())
	}
	if !ro.IsVariable() && (op == fir.BinDiv || op == fir.BinMod) && ty == rir.TyInteger && ro.Lit.Int == 0 {
		return eval.Value{}, newError(KindEvaluationFailed, diag.EvalDivisionByZero, source.Span{}, "division by zero")
	}
	if !ro.IsVariable() && (op == fir.BinShl || op == fir.BinShr) && ro.Lit.Int < 0 {
		return eval.Value{}, newError(KindEvaluationFailed, diag.EvalNegativeShift, source.Span{},
			"negative shift amount %d", ro.Lit.Int)
	}

	if op.IsComparison() {
		dst := ev.newVar(rir.TyBoolean)
		switch ty {
		case rir.TyBoolean:
			if op == fir.BinEq || op == fir.BinNe {
				ev.emit(rir.NewIcmp(icmpConds[op], lo, ro, dst))
				return eval.Var(dst), nil
			}
		case rir.TyInteger:
			ev.emit(rir.NewIcmp(icmpConds[op], lo, ro, dst))
			return eval.Var(dst), nil
		case rir.TyDouble:
			ev.emit(rir.NewFcmp(fcmpConds[op], lo, ro, dst))
			return eval.Var(dst), nil
		}
		return eval.Value{}, dynamicOperator(op, ty)
	}

	var table map[fir.BinOp]rir.InstrKind
	switch ty {
	case rir.TyInteger:
		table = intInstrs
	case rir.TyDouble:
		table = doubleInstrs
	case rir.TyBoolean:
		table = boolInstrs
	}
	kind, ok := table[op]
	if !ok {
		return eval.Value{}, dynamicOperator(op, ty)
	}
	dst := ev.newVar(ty)
	ev.emit(rir.NewBinary(kind, lo, ro, dst))
	return eval.Var(dst), nil
}

func dynamicOperator(op fir.BinOp, ty rir.Ty) error {
	return newError(KindUnimplemented, diag.UnsDynamicOperand, source.Span{},
		"operator %s on a measurement-dependent %s is not supported", op, ty)
}

// compareResults lowers == and != on result values. Literal operands fold;
// a register is read into a Boolean first.
func (ev *evaluator) compareResults(op fir.BinOp, lhs, rhs eval.Value) (eval.Value, error) {
	if op != fir.BinEq && op != fir.BinNe {
		return eval.Value{}, unexpected(source.Span{}, "operator %s does not apply to results", op)
	}
	if lhs.Kind != eval.VKResult || rhs.Kind != eval.VKResult {
		return eval.Value{}, unexpected(source.Span{}, "cannot compare %s with %s", lhs.Kind, rhs.Kind)
	}
	if !lhs.Result.Register && !rhs.Result.Register {
		eq := lhs.Result.One == rhs.Result.One
		return eval.Bool(eq == (op == fir.BinEq)), nil
	}
	if lhs.Result.Register && rhs.Result.Register {
		if lhs.Result.Index == rhs.Result.Index {
			return eval.Bool(op == fir.BinEq), nil
		}
		a := ev.readResult(lhs.Result.Index)
		b := ev.readResult(rhs.Result.Index)
		dst := ev.newVar(rir.TyBoolean)
		ev.emit(rir.NewIcmp(icmpConds[op], rir.VarOperand(a), rir.VarOperand(b), dst))
		return eval.Var(dst), nil
	}
	reg, lit := lhs, rhs
	if !reg.Result.Register {
		reg, lit = rhs, lhs
	}
	read := ev.readResult(reg.Result.Index)
	if lit.Result.One == (op == fir.BinEq) {
		return eval.Var(read), nil
	}
	dst := ev.newVar(rir.TyBoolean)
	ev.emit(rir.NewUnary(rir.InstrLogicalNot, rir.VarOperand(read), dst))
	return eval.Var(dst), nil
}
