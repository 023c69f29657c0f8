// Package partialeval turns a classified fir package into an instruction
// graph. Classical subtrees run in the embedded interpreter; everything that
// touches qubits or depends on a measurement is emitted as instructions,
// forking blocks on measurement-dependent conditions.
package partialeval

import (
	"context"
	"errors"
	"fmt"

	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/target"
	"quill/internal/trace"
)

// EntryName is the name of the callable wrapping the entry expression.
const EntryName = "main"

// Options configures one partial evaluation.
type Options struct {
	Target            target.Capabilities
	MaxDepth          int // nested inlined calls; DefaultMaxDepth when 0
	MaxLoopIterations int // per loop; eval.DefaultMaxLoopIterations when 0
	// OnMessage receives the text of Message calls.
	OnMessage func(string)
	// Tracer overrides the tracer carried by the context.
	Tracer trace.Tracer
}

type evaluator struct {
	pkg     *fir.Package
	props   *rca.PackageProps
	opts    Options
	res     *ResourceManager
	ctx     *EvaluationContext
	interp  *eval.Interpreter
	program *rir.Program

	// backing marks variables that hold a mutable local; reads of them can
	// change after later stores.
	backing map[rir.VariableID]bool

	tracer trace.Tracer
	parent uint64
}

// PartiallyEvaluate compiles the entry expression of pkg. props must be the
// classification of pkg. On failure no program is returned.
func PartiallyEvaluate(ctx context.Context, pkg *fir.Package, props *rca.PackageProps, opts Options) (*rir.Program, error) {
	if pkg == nil || props == nil {
		return nil, errors.New("partialeval: nil package or classification")
	}
	if !pkg.Entry.IsValid() {
		return nil, unexpected(source.Span{}, "package %s has no entry expression", pkg.Name)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxLoopIterations <= 0 {
		opts.MaxLoopIterations = eval.DefaultMaxLoopIterations
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}

	ev := &evaluator{
		pkg:     pkg,
		props:   props,
		opts:    opts,
		res:     NewResourceManager(),
		program: rir.NewProgram(),
		backing: make(map[rir.VariableID]bool),
		tracer:  tracer,
		parent:  trace.CurrentSpan(ctx),
	}
	if err := ev.checkCapabilities(); err != nil {
		return nil, err
	}

	ev.interp = eval.New(pkg, &boundaryBackend{res: ev.res}, eval.Options{
		MaxCallDepth:      opts.MaxDepth,
		MaxLoopIterations: opts.MaxLoopIterations,
		OnMessage:         opts.OnMessage,
	})
	entryBlock := ev.newBlock()
	entry, _ := ev.callable(rir.Callable{
		Name:     EntryName,
		Output:   rir.TyVoid,
		Body:     entryBlock,
		CallType: rir.CallRegular,
	})
	ev.program.Entry = entry
	ev.ctx = NewEvaluationContext(NewScope(fir.NoItemID, EntryName, 0), entryBlock, opts.MaxDepth)

	sp := trace.Begin(tracer, trace.ScopeCallable, "evaluate:"+pkg.Name, ev.parent)
	if id := sp.ID(); id != 0 {
		ev.parent = id
	}
	v, _, err := ev.evalExpr(pkg.Entry)
	if err == nil {
		err = ev.recordOutput(v, pkg.SpanOf(pkg.Entry))
	}
	if err != nil {
		sp.End("error")
		return nil, err
	}
	ev.currentBlock().SetTerm(rir.Return())
	ev.program.NumQubits = ev.res.QubitHighWater()
	ev.program.NumResults = ev.res.ResultCount()
	sp.WithExtra("blocks", fmt.Sprint(len(ev.program.Blocks))).End("")
	return ev.program, nil
}

// kind resolves the classification of id in the current frame.
func (ev *evaluator) kind(id fir.ExprID) rca.ComputeKind {
	return ev.props.ExprKind(id, ev.ctx.CurrentScope().Mask)
}

func (ev *evaluator) scope() *Scope { return ev.ctx.CurrentScope() }

// begin opens a span nested under the current one; the returned func
// closes it.
func (ev *evaluator) begin(scope trace.Scope, name string) func() {
	sp := trace.Begin(ev.tracer, scope, name, ev.parent)
	prev := ev.parent
	if id := sp.ID(); id != 0 {
		ev.parent = id
	}
	return func() {
		ev.parent = prev
		sp.End("")
	}
}

func (ev *evaluator) newBlock() rir.BlockID {
	id := ev.res.NextBlock()
	ev.program.AddBlock(id)
	return id
}

func (ev *evaluator) newVar(ty rir.Ty) rir.Variable {
	return rir.Variable{ID: ev.res.NextVariable(), Ty: ty}
}

func (ev *evaluator) currentBlock() *rir.Block {
	return ev.program.Block(ev.ctx.CurrentBlock())
}

func (ev *evaluator) emit(in rir.Instr) {
	ev.currentBlock().Append(in)
}

// callable registers c on first use and returns its id.
func (ev *evaluator) callable(c rir.Callable) (rir.CallableID, bool) {
	id, fresh := ev.res.RegisterOrReuseCallable(c)
	if fresh {
		ev.program.SetCallable(id, c)
	}
	return id, fresh
}

// store assigns src to dst and tracks whether dst now holds a literal.
func (ev *evaluator) store(src rir.Operand, dst rir.Variable) {
	ev.emit(rir.NewStore(src, dst))
	if src.IsVariable() {
		ev.scope().forgetStatic(dst.ID)
		return
	}
	ev.scope().setStatic(dst.ID, src.Lit)
}

// checkCapabilities rejects programs whose classification needs features
// the target lacks, reporting the innermost expression that needs them.
func (ev *evaluator) checkCapabilities() error {
	missing := ev.props.Entry.Features.Unsupported(ev.opts.Target)
	if missing == 0 {
		return nil
	}
	at := ev.locate(ev.pkg.Entry, missing)
	flags := ev.props.ExprKind(at, 0).Features & missing
	if flags == 0 {
		flags = missing
	}
	caps := ev.opts.Target.Missing(flags.RequiredCapabilities())
	return &Error{
		Kind:     KindCapability,
		Code:     capabilityCode(flags),
		Span:     ev.pkg.SpanOf(at),
		Message:  fmt.Sprintf("%s not supported by the target (missing %s)", flags, caps),
		Features: flags,
	}
}

func (ev *evaluator) locate(id fir.ExprID, want rca.RuntimeFeatureFlags) fir.ExprID {
	for _, child := range ev.subExprs(id) {
		if ev.props.ExprKind(child, 0).Features&want != 0 {
			return ev.locate(child, want)
		}
	}
	return id
}

// subExprs lists the expressions nested directly in id, including the
// statements of nested blocks.
func (ev *evaluator) subExprs(id fir.ExprID) []fir.ExprID {
	e := ev.pkg.Expr(id)
	if e == nil {
		return nil
	}
	out := e.Children()
	var blk fir.BlockID
	switch e.Kind {
	case fir.ExprWhile:
		blk = e.While.Body
	case fir.ExprFor:
		blk = e.For.Body
	case fir.ExprBlock:
		blk = e.Block.Block
	}
	if b := ev.pkg.Block(blk); b != nil {
		for _, sid := range b.Stmts {
			st := ev.pkg.Stmt(sid)
			if st.Kind == fir.StmtLocal {
				out = append(out, st.Local.Init)
			} else {
				out = append(out, st.Expr)
			}
		}
	}
	return out
}

func capabilityCode(flags rca.RuntimeFeatureFlags) diag.Code {
	switch {
	case flags&rca.LoopWithDynamicCondition != 0:
		return diag.CapDynamicLoop
	case flags&rca.ReturnWithinDynamicScope != 0:
		return diag.CapDynamicReturn
	case flags&rca.UseOfDynamicIndex != 0:
		return diag.CapDynamicIndex
	case flags&rca.UseOfDynamicallySizedArray != 0:
		return diag.CapDynamicArraySize
	case flags&(rca.CallToCyclicFunctionWithDynamicArg|rca.CallToCyclicOperation) != 0:
		return diag.CapCyclicDynamicCall
	case flags&rca.MeasurementWithinDynamicScope != 0:
		return diag.CapDynamicMeasureScope
	case flags&(rca.UseOfBoolOutput|rca.UseOfIntOutput|rca.UseOfDoubleOutput|rca.UseOfAdvancedOutput) != 0:
		return diag.CapOutputNotSupported
	}
	return diag.CapMissingCapability
}
