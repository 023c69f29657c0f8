package fir

import (
	"fmt"

	"quill/internal/source"
)

// Param declares one callable parameter for Builder.Callable.
type Param struct {
	Name string
	Ty   Ty
}

// P is shorthand for Param{name, ty}.
func P(name string, ty Ty) Param { return Param{Name: name, Ty: ty} }

// Builder constructs a Package node by node, inferring expression types.
// Nodes get the builder's current span.
type Builder struct {
	pkg  *Package
	span source.Span
}

func NewBuilder(name string) *Builder {
	return &Builder{pkg: NewPackage(name)}
}

// Package returns the package built so far.
func (b *Builder) Package() *Package { return b.pkg }

// File registers path and makes subsequent nodes belong to it.
func (b *Builder) File(path string) source.FileID {
	id := b.pkg.Files.Add(path)
	b.span = source.Span{File: id}
	return id
}

// At sets the span used for subsequent nodes.
func (b *Builder) At(start, end uint32) *Builder {
	b.span = source.Span{File: b.span.File, Start: start, End: end}
	return b
}

func (b *Builder) expr(kind ExprKind, ty Ty, fill func(*Expr)) ExprID {
	e := Expr{Kind: kind, Ty: ty, Span: b.span}
	fill(&e)
	id := ExprID(b.pkg.Exprs.Allocate(e))
	b.pkg.Expr(id).ID = id
	return id
}

func (b *Builder) ty(id ExprID) Ty {
	if e := b.pkg.Expr(id); e != nil {
		return e.Ty
	}
	return Unit
}

func (b *Builder) lit(ty Ty, l Lit) ExprID {
	return b.expr(ExprLit, ty, func(e *Expr) { e.Lit = &l })
}

func (b *Builder) Bool(v bool) ExprID      { return b.lit(Bool, Lit{Kind: LitBool, Bool: v}) }
func (b *Builder) Int(v int64) ExprID      { return b.lit(Int, Lit{Kind: LitInt, Int: v}) }
func (b *Builder) Double(v float64) ExprID { return b.lit(Double, Lit{Kind: LitDouble, Double: v}) }
func (b *Builder) Str(v string) ExprID     { return b.lit(String, Lit{Kind: LitString, Str: v}) }
func (b *Builder) Zero() ExprID            { return b.lit(Result, Lit{Kind: LitResult}) }
func (b *Builder) One() ExprID             { return b.lit(Result, Lit{Kind: LitResult, One: true}) }

// Var reads local.
func (b *Builder) Var(local LocalVarID) ExprID {
	ty := Unit
	if l := b.pkg.Local(local); l != nil {
		ty = l.Ty
	}
	return b.expr(ExprVar, ty, func(e *Expr) { e.Var = &VarRef{Local: local} })
}

// ItemRef references a callable of this package.
func (b *Builder) ItemRef(item ItemID) ExprID {
	return b.expr(ExprItem, Unit, func(e *Expr) { e.Item = &ItemRef{ID: b.pkg.Global(item)} })
}

func (b *Builder) Tuple(elems ...ExprID) ExprID {
	tys := make([]Ty, len(elems))
	for i, el := range elems {
		tys[i] = b.ty(el)
	}
	return b.expr(ExprTuple, TupleOf(tys...), func(e *Expr) { e.List = &ListData{Elems: elems} })
}

// Array builds an array literal. An empty array has element type elem.
func (b *Builder) Array(elem Ty, elems ...ExprID) ExprID {
	if len(elems) > 0 {
		elem = b.ty(elems[0])
	}
	return b.expr(ExprArray, ArrayOf(elem), func(e *Expr) { e.List = &ListData{Elems: elems} })
}

func (b *Builder) Repeat(value, size ExprID) ExprID {
	return b.expr(ExprArrayRepeat, ArrayOf(b.ty(value)), func(e *Expr) {
		e.Repeat = &RepeatData{Value: value, Size: size}
	})
}

// Index reads array[index]. A Range index yields a slice.
func (b *Builder) Index(array, index ExprID) ExprID {
	ty := b.ty(array).Elem()
	if b.ty(index).Kind == TyRange {
		ty = b.ty(array)
	}
	return b.expr(ExprIndex, ty, func(e *Expr) { e.Index = &IndexData{Array: array, Index: index} })
}

func (b *Builder) Field(tuple ExprID, index int) ExprID {
	ty := Unit
	if t := b.ty(tuple); index >= 0 && index < len(t.Elems) {
		ty = t.Elems[index]
	}
	return b.expr(ExprField, ty, func(e *Expr) { e.Field = &FieldData{Tuple: tuple, Index: index} })
}

// Range builds start..end with step 1.
func (b *Builder) Range(start, end ExprID) ExprID {
	return b.StepRange(start, NoExprID, end)
}

func (b *Builder) StepRange(start, step, end ExprID) ExprID {
	return b.expr(ExprRange, Range, func(e *Expr) { e.Range = &RangeData{Start: start, Step: step, End: end} })
}

func (b *Builder) Un(op UnOp, operand ExprID) ExprID {
	ty := b.ty(operand)
	if op == UnNotL {
		ty = Bool
	}
	return b.expr(ExprUnOp, ty, func(e *Expr) { e.UnOp = &UnOpData{Op: op, Operand: operand} })
}

func (b *Builder) Bin(op BinOp, lhs, rhs ExprID) ExprID {
	ty := b.ty(lhs)
	if op.IsComparison() || op.IsLogical() {
		ty = Bool
	}
	return b.expr(ExprBinOp, ty, func(e *Expr) { e.BinOp = &BinOpData{Op: op, LHS: lhs, RHS: rhs} })
}

// Call calls a callable of this package.
func (b *Builder) Call(item ItemID, args ...ExprID) ExprID {
	return b.CallExpr(b.ItemRef(item), args...)
}

// CallExpr calls whatever callee evaluates to; the result type follows the
// callee when it is an item reference.
func (b *Builder) CallExpr(callee ExprID, args ...ExprID) ExprID {
	ty := Unit
	if ce := b.pkg.Expr(callee); ce != nil && ce.Kind == ExprItem {
		if c := b.pkg.Callable(ce.Item.ID.Item); c != nil {
			ty = c.Output
		}
	}
	return b.expr(ExprCall, ty, func(e *Expr) { e.Call = &CallData{Callee: callee, Args: args} })
}

// If builds a conditional; pass NoExprID for a missing else.
func (b *Builder) If(cond, then, els ExprID) ExprID {
	ty := Unit
	if els.IsValid() {
		ty = b.ty(then)
	}
	return b.expr(ExprIf, ty, func(e *Expr) { e.If = &IfData{Cond: cond, Then: then, Else: els} })
}

func (b *Builder) While(cond ExprID, body BlockID) ExprID {
	return b.expr(ExprWhile, Unit, func(e *Expr) { e.While = &WhileData{Cond: cond, Body: body} })
}

func (b *Builder) For(pat PatID, iter ExprID, body BlockID) ExprID {
	return b.expr(ExprFor, Unit, func(e *Expr) { e.For = &ForData{Pat: pat, Iter: iter, Body: body} })
}

// BlockExpr wraps a block as an expression.
func (b *Builder) BlockExpr(blk BlockID) ExprID {
	ty := Unit
	if bl := b.pkg.Block(blk); bl != nil {
		ty = bl.Ty
	}
	return b.expr(ExprBlock, ty, func(e *Expr) { e.Block = &BlockRef{Block: blk} })
}

// Do builds a block from stmts and wraps it as an expression.
func (b *Builder) Do(stmts ...StmtID) ExprID {
	return b.BlockExpr(b.Block(stmts...))
}

func (b *Builder) Assign(local LocalVarID, value ExprID) ExprID {
	return b.expr(ExprAssign, Unit, func(e *Expr) { e.Assign = &AssignData{Local: local, Value: value} })
}

func (b *Builder) AssignOp(op BinOp, local LocalVarID, value ExprID) ExprID {
	return b.expr(ExprAssignOp, Unit, func(e *Expr) {
		e.AssignOp = &AssignOpData{Op: op, Local: local, Value: value}
	})
}

// Return builds a return; pass NoExprID for a bare return.
func (b *Builder) Return(value ExprID) ExprID {
	return b.expr(ExprReturn, Unit, func(e *Expr) { e.Return = &ReturnData{Value: value} })
}

func (b *Builder) Fail(message ExprID) ExprID {
	return b.expr(ExprFail, Unit, func(e *Expr) { e.Fail = &FailData{Message: message} })
}

func (b *Builder) stmt(s Stmt) StmtID {
	s.Span = b.span
	id := StmtID(b.pkg.Stmts.Allocate(s))
	b.pkg.Stmt(id).ID = id
	return id
}

// Expr is a trailing value statement.
func (b *Builder) Expr(e ExprID) StmtID { return b.stmt(Stmt{Kind: StmtExpr, Expr: e}) }

// Semi is an expression statement whose value is discarded.
func (b *Builder) Semi(e ExprID) StmtID { return b.stmt(Stmt{Kind: StmtSemi, Expr: e}) }

// Let binds name immutably to init.
func (b *Builder) Let(name string, init ExprID) (StmtID, LocalVarID) {
	return b.local(name, false, init)
}

// Mutable binds name mutably to init.
func (b *Builder) Mutable(name string, init ExprID) (StmtID, LocalVarID) {
	return b.local(name, true, init)
}

func (b *Builder) local(name string, mutable bool, init ExprID) (StmtID, LocalVarID) {
	pat, local := b.bind(name, b.ty(init), mutable)
	return b.LetPat(pat, mutable, init), local
}

// LetPat binds an arbitrary pattern.
func (b *Builder) LetPat(pat PatID, mutable bool, init ExprID) StmtID {
	return b.stmt(Stmt{Kind: StmtLocal, Local: &LocalData{Mutable: mutable, Pat: pat, Init: init}})
}

// Block builds a block; its type is that of a trailing StmtExpr.
func (b *Builder) Block(stmts ...StmtID) BlockID {
	ty := Unit
	if n := len(stmts); n > 0 {
		if last := b.pkg.Stmt(stmts[n-1]); last != nil && last.Kind == StmtExpr {
			ty = b.ty(last.Expr)
		}
	}
	id := BlockID(b.pkg.Blocks.Allocate(Block{Ty: ty, Span: b.span, Stmts: stmts}))
	b.pkg.Block(id).ID = id
	return id
}

func (b *Builder) pat(p Pat) PatID {
	p.Span = b.span
	id := PatID(b.pkg.Pats.Allocate(p))
	b.pkg.Pat(id).ID = id
	return id
}

func (b *Builder) bind(name string, ty Ty, mutable bool) (PatID, LocalVarID) {
	local := LocalVarID(b.pkg.Locals.Allocate(Local{Name: name, Ty: ty, Mutable: mutable}))
	b.pkg.Local(local).ID = local
	return b.pat(Pat{Kind: PatBind, Ty: ty, Local: local, Name: name}), local
}

// BindPat declares an immutable local bound by a pattern.
func (b *Builder) BindPat(name string, ty Ty) (PatID, LocalVarID) {
	return b.bind(name, ty, false)
}

// MutableBindPat declares a mutable local bound by a pattern.
func (b *Builder) MutableBindPat(name string, ty Ty) (PatID, LocalVarID) {
	return b.bind(name, ty, true)
}

func (b *Builder) DiscardPat(ty Ty) PatID {
	return b.pat(Pat{Kind: PatDiscard, Ty: ty})
}

func (b *Builder) TuplePat(elems ...PatID) PatID {
	tys := make([]Ty, len(elems))
	for i, el := range elems {
		tys[i] = b.pkg.Pat(el).Ty
	}
	return b.pat(Pat{Kind: PatTuple, Ty: TupleOf(tys...), Elems: elems})
}

// Callable declares a callable with the given parameters. The body is set
// later with SetBody so that recursive callables can refer to themselves.
func (b *Builder) Callable(name string, kind CallableKind, output Ty, params ...Param) (ItemID, []LocalVarID) {
	pats := make([]PatID, len(params))
	locals := make([]LocalVarID, len(params))
	for i, p := range params {
		pats[i], locals[i] = b.bind(p.Name, p.Ty, false)
	}
	c := Callable{Name: name, Kind: kind, Params: pats, Output: output, Span: b.span}
	id := ItemID(b.pkg.Callables.Allocate(c))
	b.pkg.Callable(id).ID = id
	return id, locals
}

// Intrinsic declares a body-less callable.
func (b *Builder) Intrinsic(name string, kind CallableKind, output Ty, inputs ...Ty) ItemID {
	params := make([]Param, len(inputs))
	for i, ty := range inputs {
		params[i] = P(fmt.Sprintf("arg%d", i), ty)
	}
	id, _ := b.Callable(name, kind, output, params...)
	return id
}

// Measurement declares a measuring intrinsic from Qubit to Result.
func (b *Builder) Measurement(name string) ItemID {
	id := b.Intrinsic(name, Operation, Result, Qubit)
	b.pkg.Callable(id).Attrs |= AttrMeasurement
	return id
}

// Reset declares a resetting intrinsic on one qubit.
func (b *Builder) Reset(name string) ItemID {
	id := b.Intrinsic(name, Operation, Unit, Qubit)
	b.pkg.Callable(id).Attrs |= AttrReset
	return id
}

// Gate declares a unitary intrinsic taking params then qubits, e.g. a
// rotation angle followed by its target.
func (b *Builder) Gate(name string, inputs ...Ty) ItemID {
	return b.Intrinsic(name, Operation, Unit, inputs...)
}

func (b *Builder) SetBody(item ItemID, body BlockID) {
	b.pkg.Callable(item).Body = body
}

// SetEntry marks e as the package entry expression.
func (b *Builder) SetEntry(e ExprID) {
	b.pkg.Entry = e
}
