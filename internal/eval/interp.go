package eval

import (
	"quill/internal/diag"
	"quill/internal/fir"
	"quill/internal/source"
)

// Flow tells the caller whether evaluation continues normally or a return
// is unwinding to the enclosing callable.
type Flow uint8

const (
	FlowNext Flow = iota
	FlowReturn
)

const (
	DefaultMaxCallDepth      = 256
	DefaultMaxLoopIterations = 1 << 20
)

// Options bounds interpretation.
type Options struct {
	MaxCallDepth      int
	MaxLoopIterations int
	// OnMessage receives the text of Message calls.
	OnMessage func(string)
}

func (o Options) withDefaults() Options {
	if o.MaxCallDepth <= 0 {
		o.MaxCallDepth = DefaultMaxCallDepth
	}
	if o.MaxLoopIterations <= 0 {
		o.MaxLoopIterations = DefaultMaxLoopIterations
	}
	return o
}

// Interpreter evaluates fir expressions over classical values.
type Interpreter struct {
	pkg     *fir.Package
	backend Backend
	opts    Options
	depth   int
}

func New(pkg *fir.Package, backend Backend, opts Options) *Interpreter {
	return &Interpreter{pkg: pkg, backend: backend, opts: opts.withDefaults()}
}

func (in *Interpreter) Package() *fir.Package { return in.pkg }
func (in *Interpreter) Options() Options      { return in.opts }

// Run evaluates the package entry expression in a fresh environment.
func (in *Interpreter) Run() (Value, error) {
	v, _, err := in.EvalExpr(NewEnv(), in.pkg.Entry)
	return v, err
}

// EvalExpr evaluates expression id. Errors carry the span of the innermost
// failing expression.
func (in *Interpreter) EvalExpr(env *Env, id fir.ExprID) (Value, Flow, error) {
	e := in.pkg.Expr(id)
	if e == nil {
		return Value{}, FlowNext, errorf(diag.EvalFailed, source.Span{}, "missing expression %d", id)
	}
	v, flow, err := in.evalExpr(env, e)
	if err != nil {
		return Value{}, FlowNext, withSpan(err, e.Span)
	}
	return v, flow, nil
}

func (in *Interpreter) evalExpr(env *Env, e *fir.Expr) (Value, Flow, error) {
	switch e.Kind {
	case fir.ExprLit:
		return LitValue(e.Lit), FlowNext, nil

	case fir.ExprVar:
		b, ok := env.Lookup(e.Var.Local)
		if !ok {
			return Value{}, FlowNext, errorf(diag.EvalUnboundLocal, e.Span, "local %d is not bound", e.Var.Local)
		}
		return b.Value, FlowNext, nil

	case fir.ExprItem:
		return CallableValue(e.Item.ID), FlowNext, nil

	case fir.ExprTuple, fir.ExprArray:
		elems, flow, err := in.evalList(env, e.List.Elems)
		if err != nil || flow == FlowReturn {
			return lastValue(elems), flow, err
		}
		if e.Kind == fir.ExprTuple {
			return Tuple(elems...), FlowNext, nil
		}
		return Array(elems), FlowNext, nil

	case fir.ExprArrayRepeat:
		vals, flow, err := in.evalList(env, []fir.ExprID{e.Repeat.Value, e.Repeat.Size})
		if err != nil || flow == FlowReturn {
			return lastValue(vals), flow, err
		}
		arr, err := RepeatArray(vals[0], vals[1])
		return arr, FlowNext, err

	case fir.ExprIndex:
		vals, flow, err := in.evalList(env, []fir.ExprID{e.Index.Array, e.Index.Index})
		if err != nil || flow == FlowReturn {
			return lastValue(vals), flow, err
		}
		v, err := Index(vals[0], vals[1])
		return v, FlowNext, err

	case fir.ExprField:
		t, flow, err := in.EvalExpr(env, e.Field.Tuple)
		if err != nil || flow == FlowReturn {
			return t, flow, err
		}
		v, err := Field(t, e.Field.Index)
		return v, FlowNext, err

	case fir.ExprRange:
		return in.evalRange(env, e.Range)

	case fir.ExprUnOp:
		v, flow, err := in.EvalExpr(env, e.UnOp.Operand)
		if err != nil || flow == FlowReturn {
			return v, flow, err
		}
		v, err = UnOp(e.UnOp.Op, v)
		return v, FlowNext, err

	case fir.ExprBinOp:
		return in.evalBinOp(env, e.BinOp)

	case fir.ExprCall:
		callee, flow, err := in.EvalExpr(env, e.Call.Callee)
		if err != nil || flow == FlowReturn {
			return callee, flow, err
		}
		args, flow, err := in.evalList(env, e.Call.Args)
		if err != nil || flow == FlowReturn {
			return lastValue(args), flow, err
		}
		v, err := in.Call(callee, args)
		return v, FlowNext, err

	case fir.ExprIf:
		cond, flow, err := in.EvalExpr(env, e.If.Cond)
		if err != nil || flow == FlowReturn {
			return cond, flow, err
		}
		if err := expectBool(cond); err != nil {
			return Value{}, FlowNext, err
		}
		if cond.Bool {
			return in.EvalExpr(env, e.If.Then)
		}
		if e.If.Else.IsValid() {
			return in.EvalExpr(env, e.If.Else)
		}
		return Unit(), FlowNext, nil

	case fir.ExprWhile:
		return in.evalWhile(env, e)

	case fir.ExprFor:
		return in.evalFor(env, e)

	case fir.ExprBlock:
		return in.EvalBlock(env, e.Block.Block)

	case fir.ExprAssign:
		v, flow, err := in.EvalExpr(env, e.Assign.Value)
		if err != nil || flow == FlowReturn {
			return v, flow, err
		}
		return Unit(), FlowNext, in.assign(env, e.Assign.Local, v)

	case fir.ExprAssignOp:
		rhs, flow, err := in.EvalExpr(env, e.AssignOp.Value)
		if err != nil || flow == FlowReturn {
			return rhs, flow, err
		}
		b, ok := env.Lookup(e.AssignOp.Local)
		if !ok {
			return Value{}, FlowNext, errorf(diag.EvalUnboundLocal, e.Span, "local %d is not bound", e.AssignOp.Local)
		}
		v, err := BinOp(e.AssignOp.Op, b.Value, rhs)
		if err != nil {
			return Value{}, FlowNext, err
		}
		return Unit(), FlowNext, in.assign(env, e.AssignOp.Local, v)

	case fir.ExprReturn:
		if !e.Return.Value.IsValid() {
			return Unit(), FlowReturn, nil
		}
		v, _, err := in.EvalExpr(env, e.Return.Value)
		if err != nil {
			return Value{}, FlowNext, err
		}
		return v, FlowReturn, nil

	case fir.ExprFail:
		msg, flow, err := in.EvalExpr(env, e.Fail.Message)
		if err != nil || flow == FlowReturn {
			return msg, flow, err
		}
		return Value{}, FlowNext, errorf(diag.EvalFailed, e.Span, "program failed: %s", msg.Str)
	}
	return Value{}, FlowNext, errorf(diag.EvalFailed, e.Span, "cannot evaluate %s expression", e.Kind)
}

func lastValue(vals []Value) Value {
	if n := len(vals); n > 0 {
		return vals[n-1]
	}
	return Value{}
}

// evalList evaluates ids left to right. On an early return the returned
// value is the last element of the slice.
func (in *Interpreter) evalList(env *Env, ids []fir.ExprID) ([]Value, Flow, error) {
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		v, flow, err := in.EvalExpr(env, id)
		if err != nil {
			return nil, FlowNext, err
		}
		out = append(out, v)
		if flow == FlowReturn {
			return out, FlowReturn, nil
		}
	}
	return out, FlowNext, nil
}

func (in *Interpreter) evalRange(env *Env, r *fir.RangeData) (Value, Flow, error) {
	ids := []fir.ExprID{r.Start, r.End}
	if r.Step.IsValid() {
		ids = []fir.ExprID{r.Start, r.Step, r.End}
	}
	vals, flow, err := in.evalList(env, ids)
	if err != nil || flow == FlowReturn {
		return lastValue(vals), flow, err
	}
	step := Int(1)
	if len(vals) == 3 {
		step = vals[1]
	}
	v, err := MakeRange(vals[0], step, vals[len(vals)-1])
	return v, FlowNext, err
}

// MakeRange builds a range from three classical integers.
func MakeRange(start, step, end Value) (Value, error) {
	if err := dynamicOperand(start, step, end); err != nil {
		return Value{}, err
	}
	if start.Kind != VKInt || step.Kind != VKInt || end.Kind != VKInt {
		return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "range bounds must be integers")
	}
	return Range(start.Int, step.Int, end.Int), nil
}

func (in *Interpreter) evalBinOp(env *Env, b *fir.BinOpData) (Value, Flow, error) {
	lhs, flow, err := in.EvalExpr(env, b.LHS)
	if err != nil || flow == FlowReturn {
		return lhs, flow, err
	}
	if b.Op.IsLogical() {
		if err := expectBool(lhs); err != nil {
			return Value{}, FlowNext, err
		}
		if (b.Op == fir.BinAndL && !lhs.Bool) || (b.Op == fir.BinOrL && lhs.Bool) {
			return lhs, FlowNext, nil
		}
		rhs, flow, err := in.EvalExpr(env, b.RHS)
		if err != nil || flow == FlowReturn {
			return rhs, flow, err
		}
		return rhs, FlowNext, expectBool(rhs)
	}
	rhs, flow, err := in.EvalExpr(env, b.RHS)
	if err != nil || flow == FlowReturn {
		return rhs, flow, err
	}
	v, err := BinOp(b.Op, lhs, rhs)
	return v, FlowNext, err
}

func (in *Interpreter) evalWhile(env *Env, e *fir.Expr) (Value, Flow, error) {
	for iter := 0; ; iter++ {
		if iter >= in.opts.MaxLoopIterations {
			return Value{}, FlowNext, errorf(diag.EvalLoopLimitExceeded, e.Span, "loop exceeded %d iterations", in.opts.MaxLoopIterations)
		}
		cond, flow, err := in.EvalExpr(env, e.While.Cond)
		if err != nil || flow == FlowReturn {
			return cond, flow, err
		}
		if err := expectBool(cond); err != nil {
			return Value{}, FlowNext, err
		}
		if !cond.Bool {
			return Unit(), FlowNext, nil
		}
		v, flow, err := in.EvalBlock(env, e.While.Body)
		if err != nil || flow == FlowReturn {
			return v, flow, err
		}
	}
}

func (in *Interpreter) evalFor(env *Env, e *fir.Expr) (Value, Flow, error) {
	iter, flow, err := in.EvalExpr(env, e.For.Iter)
	if err != nil || flow == FlowReturn {
		return iter, flow, err
	}
	items, err := Iterate(iter, in.opts.MaxLoopIterations)
	if err != nil {
		return Value{}, FlowNext, err
	}
	for _, item := range items {
		if err := BindPat(in.pkg, env, e.For.Pat, item, false); err != nil {
			return Value{}, FlowNext, err
		}
		v, flow, err := in.EvalBlock(env, e.For.Body)
		if err != nil || flow == FlowReturn {
			return v, flow, err
		}
	}
	return Unit(), FlowNext, nil
}

// Iterate expands a range or array into the values a for loop visits.
func Iterate(iter Value, limit int) ([]Value, error) {
	switch iter.Kind {
	case VKArray:
		if len(iter.Elems) > limit {
			return nil, errorf(diag.EvalLoopLimitExceeded, source.Span{}, "loop exceeded %d iterations", limit)
		}
		return iter.Elems, nil
	case VKRange:
		if iter.Range.Step == 0 {
			return nil, errorf(diag.EvalInvalidRange, source.Span{}, "range step must not be zero")
		}
		ints, ok := iter.Range.Values(limit)
		if !ok {
			return nil, errorf(diag.EvalLoopLimitExceeded, source.Span{}, "loop exceeded %d iterations", limit)
		}
		out := make([]Value, len(ints))
		for i, n := range ints {
			out[i] = Int(n)
		}
		return out, nil
	}
	if err := dynamicOperand(iter); err != nil {
		return nil, err
	}
	return nil, errorf(diag.EvalTypeMismatch, source.Span{}, "cannot iterate over %s", iter.Kind)
}

// EvalBlock evaluates the statements of a block; the value is that of a
// trailing expression statement, Unit otherwise.
func (in *Interpreter) EvalBlock(env *Env, id fir.BlockID) (Value, Flow, error) {
	blk := in.pkg.Block(id)
	if blk == nil {
		return Value{}, FlowNext, errorf(diag.EvalFailed, source.Span{}, "missing block %d", id)
	}
	result := Unit()
	for _, sid := range blk.Stmts {
		st := in.pkg.Stmt(sid)
		result = Unit()
		switch st.Kind {
		case fir.StmtLocal:
			v, flow, err := in.EvalExpr(env, st.Local.Init)
			if err != nil || flow == FlowReturn {
				return v, flow, err
			}
			if err := BindPat(in.pkg, env, st.Local.Pat, v, st.Local.Mutable); err != nil {
				return Value{}, FlowNext, withSpan(err, st.Span)
			}
		case fir.StmtSemi, fir.StmtExpr:
			v, flow, err := in.EvalExpr(env, st.Expr)
			if err != nil || flow == FlowReturn {
				return v, flow, err
			}
			if st.Kind == fir.StmtExpr {
				result = v
			}
		}
	}
	return result, FlowNext, nil
}

func (in *Interpreter) assign(env *Env, local fir.LocalVarID, v Value) error {
	b, ok := env.Lookup(local)
	if !ok {
		return errorf(diag.EvalUnboundLocal, source.Span{}, "local %d is not bound", local)
	}
	if !b.Mutable {
		return errorf(diag.EvalTypeMismatch, source.Span{}, "cannot assign to immutable local %d", local)
	}
	b.Value = v
	return nil
}

// Call invokes a callable value with evaluated arguments.
func (in *Interpreter) Call(callee Value, args []Value) (Value, error) {
	if callee.Kind != VKCallable {
		if err := dynamicOperand(callee); err != nil {
			return Value{}, err
		}
		return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "cannot call %s", callee.Kind)
	}
	if callee.Callable.Package != in.pkg.ID {
		return Value{}, errorf(diag.EvalUnknownIntrinsic, source.Span{}, "callable %d of package %d is not loaded", callee.Callable.Item, callee.Callable.Package)
	}
	c := in.pkg.Callable(callee.Callable.Item)
	if c == nil {
		return Value{}, errorf(diag.EvalUnknownIntrinsic, source.Span{}, "unknown callable %d", callee.Callable.Item)
	}
	if len(args) != len(c.Params) {
		return Value{}, errorf(diag.EvalTypeMismatch, c.Span, "%s expects %d arguments, got %d", c.Name, len(c.Params), len(args))
	}
	if c.IsIntrinsic() {
		return in.callIntrinsic(c, args)
	}

	if in.depth >= in.opts.MaxCallDepth {
		return Value{}, errorf(diag.EvalCallDepthExceeded, c.Span, "call depth exceeded %d in %s", in.opts.MaxCallDepth, c.Name)
	}
	in.depth++
	defer func() { in.depth-- }()

	env := NewEnv()
	for i, p := range c.Params {
		if err := BindPat(in.pkg, env, p, args[i], false); err != nil {
			return Value{}, err
		}
	}
	v, _, err := in.EvalBlock(env, c.Body)
	return v, err
}

func (in *Interpreter) callIntrinsic(c *fir.Callable, args []Value) (Value, error) {
	if IsBuiltin(c.Name) {
		return in.CallBuiltin(c.Name, args)
	}
	switch c.Name {
	case fir.QubitAllocateName:
		q, err := in.backend.AllocateQubit()
		if err != nil {
			return Value{}, err
		}
		return Qubit(q), nil
	case fir.QubitReleaseName:
		if args[0].Kind != VKQubit {
			return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "%s expects a qubit", c.Name)
		}
		return Unit(), in.backend.ReleaseQubit(args[0].Qubit)
	}
	if v, ok, err := in.backend.CustomIntrinsic(c.Name, args); ok || err != nil {
		return v, err
	}
	if c.Kind == fir.Operation {
		return in.backend.Apply(c.Name, args)
	}
	return Value{}, errorf(diag.EvalUnknownIntrinsic, c.Span, "unknown intrinsic function %s", c.Name)
}

func expectBool(v Value) error {
	if v.Kind == VKBool {
		return nil
	}
	if err := dynamicOperand(v); err != nil {
		return err
	}
	return errorf(diag.EvalTypeMismatch, source.Span{}, "expected bool, got %s", v.Kind)
}

// LitValue converts a literal node.
func LitValue(l *fir.Lit) Value {
	switch l.Kind {
	case fir.LitBool:
		return Bool(l.Bool)
	case fir.LitInt:
		return Int(l.Int)
	case fir.LitDouble:
		return Double(l.Double)
	case fir.LitResult:
		return ResultLiteral(l.One)
	case fir.LitString:
		return String(l.Str)
	}
	return Value{}
}

// Field reads element index of a tuple value.
func Field(t Value, index int) (Value, error) {
	if t.Kind != VKTuple || index < 0 || index >= len(t.Elems) {
		return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "no field %d in %s", index, t.Kind)
	}
	return t.Elems[index], nil
}

// RepeatArray builds an array of size copies of v.
func RepeatArray(v, size Value) (Value, error) {
	if err := dynamicOperand(size); err != nil {
		return Value{}, err
	}
	if size.Kind != VKInt {
		return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "array size must be an integer")
	}
	if size.Int < 0 {
		return Value{}, errorf(diag.EvalInvalidRange, source.Span{}, "negative array size %d", size.Int)
	}
	elems := make([]Value, size.Int)
	for i := range elems {
		elems[i] = v
	}
	return Array(elems), nil
}

// BindPat destructures v into the locals of pattern pid.
func BindPat(pkg *fir.Package, env *Env, pid fir.PatID, v Value, mutable bool) error {
	p := pkg.Pat(pid)
	if p == nil {
		return errorf(diag.EvalFailed, source.Span{}, "missing pattern %d", pid)
	}
	switch p.Kind {
	case fir.PatBind:
		env.Bind(p.Local, v, mutable)
	case fir.PatDiscard:
	case fir.PatTuple:
		if v.Kind != VKTuple || len(v.Elems) != len(p.Elems) {
			return errorf(diag.EvalTypeMismatch, p.Span, "cannot destructure %s into %d elements", v.Kind, len(p.Elems))
		}
		for i, el := range p.Elems {
			if err := BindPat(pkg, env, el, v.Elems[i], mutable); err != nil {
				return err
			}
		}
	}
	return nil
}
