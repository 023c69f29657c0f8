package rca

import "quill/internal/fir"

// walker computes kinds for one body under one parameter configuration.
// Local kinds only grow, so repeating the walk until no local changes
// reaches a fixed point.
type walker struct {
	a          *analyzer
	pkg        *fir.Package
	paramCount int
	exprs      map[fir.ExprID]ComputeKind
	locals     map[fir.LocalVarID]ComputeKind
	dynScope   int
	ret        ComputeKind
	all        ComputeKind
	measures   bool
	changed    bool
}

func (a *analyzer) newWalker(c *fir.Callable, param int) *walker {
	w := &walker{
		a:      a,
		pkg:    a.pkg,
		exprs:  make(map[fir.ExprID]ComputeKind),
		locals: make(map[fir.LocalVarID]ComputeKind),
	}
	if c == nil {
		return w
	}
	w.paramCount = min(len(c.Params), MaxTrackedParams)
	for i, pid := range c.Params {
		if i == param {
			w.bindPat(pid, fir.NoExprID, Dynamic)
		}
	}
	return w
}

func (w *walker) run(walk func() ComputeKind) ComputeKind {
	for {
		w.changed = false
		w.dynScope = 0
		w.ret, w.all, w.measures = Classical, Classical, false
		k := walk()
		if !w.changed {
			return k
		}
	}
}

// valueOf keeps only the parts of k that make a stored value dynamic.
func valueOf(k ComputeKind) ComputeKind {
	if !k.Dynamic && !k.DynamicSize {
		return Classical
	}
	return k
}

func (w *walker) setLocal(id fir.LocalVarID, k ComputeKind) {
	old := w.locals[id]
	next := old.Union(valueOf(k))
	if next != old {
		w.locals[id] = next
		w.changed = true
	}
}

func (w *walker) bindPat(pid fir.PatID, init fir.ExprID, k ComputeKind) {
	p := w.pkg.Pat(pid)
	if p == nil {
		return
	}
	switch p.Kind {
	case fir.PatBind:
		w.setLocal(p.Local, k)
	case fir.PatTuple:
		ie := w.pkg.Expr(init)
		for i, el := range p.Elems {
			if ie != nil && ie.Kind == fir.ExprTuple && i < len(ie.List.Elems) {
				sub := ie.List.Elems[i]
				w.bindPat(el, sub, w.exprs[sub])
				continue
			}
			w.bindPat(el, fir.NoExprID, k)
		}
	}
}

func (w *walker) block(id fir.BlockID) ComputeKind {
	blk := w.pkg.Block(id)
	if blk == nil {
		return Classical
	}
	var k, value ComputeKind
	for _, sid := range blk.Stmts {
		st := w.pkg.Stmt(sid)
		value = Classical
		switch st.Kind {
		case fir.StmtLocal:
			ik := w.expr(st.Local.Init)
			w.bindPat(st.Local.Pat, st.Local.Init, ik)
			k = k.Union(ik.Static())
		case fir.StmtSemi:
			k = k.Union(w.expr(st.Expr).Static())
		case fir.StmtExpr:
			value = w.expr(st.Expr)
			k = k.Union(value.Static())
		}
	}
	if !blk.Ty.IsUnit() {
		k.Dynamic = value.Dynamic
		k.DynamicSize = value.DynamicSize
	}
	return k
}

func (w *walker) optExpr(id fir.ExprID) ComputeKind {
	if !id.IsValid() {
		return Classical
	}
	return w.expr(id)
}

func (w *walker) expr(id fir.ExprID) ComputeKind {
	e := w.pkg.Expr(id)
	if e == nil {
		return Classical
	}
	var k ComputeKind
	switch e.Kind {
	case fir.ExprLit, fir.ExprItem:
	case fir.ExprVar:
		k = w.locals[e.Var.Local]
	case fir.ExprTuple, fir.ExprArray:
		for _, el := range e.List.Elems {
			k = k.Union(w.expr(el))
		}
	case fir.ExprArrayRepeat:
		k = w.expr(e.Repeat.Value)
		if size := w.expr(e.Repeat.Size); size.Dynamic {
			k = k.Union(size.Static())
			k.DynamicSize = true
			k.Features |= UseOfDynamicallySizedArray
		} else {
			k = k.Union(size)
		}
	case fir.ExprIndex:
		k = w.expr(e.Index.Array)
		idx := w.expr(e.Index.Index)
		k = k.Union(idx.Static())
		if idx.Dynamic {
			k.Dynamic = true
			k.Features |= UseOfDynamicIndex
		}
	case fir.ExprField:
		k = w.expr(e.Field.Tuple)
	case fir.ExprRange:
		k = w.expr(e.Range.Start).Union(w.optExpr(e.Range.Step)).Union(w.expr(e.Range.End))
	case fir.ExprUnOp:
		k = w.expr(e.UnOp.Operand)
	case fir.ExprBinOp:
		k = w.binOp(e.BinOp)
	case fir.ExprCall:
		k = w.call(e.Call)
	case fir.ExprIf:
		k = w.ifExpr(e)
	case fir.ExprWhile:
		cond := w.expr(e.While.Cond)
		k = w.loopBody(cond, e.While.Body)
	case fir.ExprFor:
		iter := w.expr(e.For.Iter)
		w.bindPat(e.For.Pat, fir.NoExprID, iter)
		k = w.loopBody(iter, e.For.Body)
	case fir.ExprBlock:
		k = w.block(e.Block.Block)
	case fir.ExprAssign:
		k = w.assign(e.Assign.Local, w.expr(e.Assign.Value))
	case fir.ExprAssignOp:
		v := w.expr(e.AssignOp.Value)
		if e.AssignOp.Op == fir.BinExp && v.Dynamic {
			v.Features |= UseOfDynamicExponent
		}
		k = w.assign(e.AssignOp.Local, v.Union(w.locals[e.AssignOp.Local]))
	case fir.ExprReturn:
		v := w.optExpr(e.Return.Value)
		w.ret = w.ret.Union(v)
		k = v.Static()
		if w.dynScope > 0 {
			k.Quantum = true
			k.Features |= ReturnWithinDynamicScope
		}
	case fir.ExprFail:
		k = w.expr(e.Fail.Message).Static()
		if w.dynScope > 0 {
			k.Quantum = true
		}
	}

	if e.Ty.IsUnit() {
		k.Dynamic = false
	}
	if e.Ty.Kind != fir.TyArray {
		k.DynamicSize = false
	}
	if k.Dynamic || k.DynamicSize {
		k.Quantum = true
	}
	if k.Dynamic && !isAggregate(e.Kind) {
		k.Features |= ForDynamicType(e.Ty)
	}
	w.exprs[id] = k
	w.all = w.all.Union(k.Static())
	return k
}

// isAggregate reports whether kind only gathers the kinds of its parts, so
// its own type adds no features.
func isAggregate(kind fir.ExprKind) bool {
	switch kind {
	case fir.ExprVar, fir.ExprTuple, fir.ExprArray, fir.ExprBlock:
		return true
	}
	return false
}

func (w *walker) binOp(b *fir.BinOpData) ComputeKind {
	lhs := w.expr(b.LHS)
	if b.Op.IsLogical() && lhs.Dynamic {
		w.dynScope++
		defer func() { w.dynScope-- }()
	}
	rhs := w.expr(b.RHS)
	k := lhs.Union(rhs)
	if b.Op == fir.BinExp && rhs.Dynamic {
		k.Features |= UseOfDynamicExponent
	}
	return k
}

func (w *walker) ifExpr(e *fir.Expr) ComputeKind {
	cond := w.expr(e.If.Cond)
	if cond.Dynamic {
		w.dynScope++
	}
	k := cond.Static().Union(w.expr(e.If.Then)).Union(w.optExpr(e.If.Else))
	if cond.Dynamic {
		w.dynScope--
		k.Quantum = true
		k.Dynamic = true
		if containsResult(e.Ty) {
			k.Features |= UseOfDynamicResult
		}
		if e.Ty.Kind == fir.TyTuple && len(e.Ty.Elems) > 0 {
			k.Features |= UseOfDynamicTuple
		}
	}
	return k
}

func containsResult(ty fir.Ty) bool {
	if ty.Kind == fir.TyResult {
		return true
	}
	for _, el := range ty.Elems {
		if containsResult(el) {
			return true
		}
	}
	return false
}

func (w *walker) loopBody(cond ComputeKind, body fir.BlockID) ComputeKind {
	dynamic := cond.Dynamic || cond.DynamicSize
	if dynamic {
		w.dynScope++
	}
	k := cond.Static().Union(w.block(body).Static())
	if dynamic {
		w.dynScope--
		k.Quantum = true
		k.Features |= LoopWithDynamicCondition
	}
	return k
}

func (w *walker) assign(local fir.LocalVarID, v ComputeKind) ComputeKind {
	stored := v
	if w.dynScope > 0 {
		if l := w.pkg.Local(local); l != nil && !l.Ty.IsUnit() {
			stored = stored.Union(Dynamic)
			stored.Features |= ForDynamicType(l.Ty) | forDynamicUpdate(l.Ty)
			if l.Ty.Kind == fir.TyArray {
				stored.DynamicSize = true
			}
		}
	}
	w.setLocal(local, stored)
	k := v.Static()
	if w.dynScope > 0 || w.locals[local].Dynamic {
		k.Quantum = true
	}
	return k
}

func (w *walker) call(c *fir.CallData) ComputeKind {
	callee := w.expr(c.Callee)
	var args ComputeKind
	var mask ParamMask
	anyDynamic := false
	for i, arg := range c.Args {
		ak := w.expr(arg)
		args = args.Union(ak.Static())
		if ak.Dynamic || ak.DynamicSize {
			mask = mask.With(i)
			anyDynamic = true
		}
	}

	k := args
	ce := w.pkg.Expr(c.Callee)
	var target *fir.Callable
	if ce != nil && ce.Kind == fir.ExprItem && ce.Item.ID.Package == w.pkg.ID {
		target = w.pkg.Callable(ce.Item.ID.Item)
	}
	if target == nil {
		k.Quantum = true
		k.Dynamic = anyDynamic || callee.Dynamic
		if callee.Dynamic {
			k.Features |= CallToDynamicCallee
		}
		return k
	}

	s := w.a.summary(target.ID)
	if s == nil {
		// Recursive call into a callable still being analyzed.
		if target.Kind == fir.Operation {
			k.Quantum = true
			w.measures = true
		}
		if anyDynamic {
			k.Quantum = true
			k.Dynamic = true
			if target.Kind == fir.Operation {
				k.Features |= CallToCyclicOperation
			} else {
				k.Features |= CallToCyclicFunctionWithDynamicArg
			}
		}
		return k
	}

	k = k.Union(s.Output.Resolve(mask)).Union(s.Body.Resolve(mask).Static())
	if target.Kind == fir.Operation {
		k.Quantum = true
	}
	if s.Measures {
		w.measures = true
		if w.dynScope > 0 {
			k.Features |= MeasurementWithinDynamicScope
		}
	}
	return k
}
