package partialeval_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/fir"
	"quill/internal/partialeval"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/target"
)

type qprog struct {
	b       *fir.Builder
	alloc   fir.ItemID
	release fir.ItemID
	m       fir.ItemID
	h       fir.ItemID
	cx      fir.ItemID
}

func newProg(name string) *qprog {
	b := fir.NewBuilder(name)
	b.File(name + ".qs")
	return &qprog{
		b:       b,
		alloc:   b.Intrinsic(fir.QubitAllocateName, fir.Operation, fir.Qubit),
		release: b.Intrinsic(fir.QubitReleaseName, fir.Operation, fir.Unit, fir.Qubit),
		m:       b.Measurement(fir.MeasureResetZName),
		h:       b.Gate("__quantum__qis__h__body", fir.Qubit),
		cx:      b.Gate("__quantum__qis__cx__body", fir.Qubit, fir.Qubit),
	}
}

func (p *qprog) qubit(name string) (fir.StmtID, fir.LocalVarID) {
	return p.b.Let(name, p.b.Call(p.alloc))
}

func (p *qprog) measure(name string, q fir.LocalVarID) (fir.StmtID, fir.LocalVarID) {
	return p.b.Let(name, p.b.Call(p.m, p.b.Var(q)))
}

func (p *qprog) isOne(r fir.LocalVarID) fir.ExprID {
	return p.b.Bin(fir.BinEq, p.b.Var(r), p.b.One())
}

func (p *qprog) entry(stmts ...fir.StmtID) *fir.Package {
	p.b.SetEntry(p.b.Do(stmts...))
	return p.b.Package()
}

func compile(t *testing.T, pkg *fir.Package, profile target.Profile) (*rir.Program, error) {
	t.Helper()
	return partialeval.PartiallyEvaluate(context.Background(), pkg, rca.Analyze(pkg), partialeval.Options{
		Target: profile.Capabilities(),
	})
}

func mustCompile(t *testing.T, pkg *fir.Package, profile target.Profile) *rir.Program {
	t.Helper()
	prog, err := compile(t, pkg, profile)
	if err != nil {
		t.Fatalf("PartiallyEvaluate: %v", err)
	}
	if err := rir.Validate(prog); err != nil {
		t.Fatalf("Validate: %v\n%s", err, rir.BlocksString(prog))
	}
	return prog
}

func expectError(t *testing.T, err error, kind partialeval.ErrorKind, code diag.Code) *partialeval.Error {
	t.Helper()
	var pe *partialeval.Error
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *partialeval.Error", err)
	}
	if pe.Kind != kind || pe.Code != code {
		t.Fatalf("err = %s (%s, %s), want %s %s", pe, pe.Kind, pe.Code.ID(), kind, code.ID())
	}
	return pe
}

func listing(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestClassicalProgramFoldsToOneBlock(t *testing.T) {
	b := fir.NewBuilder("classical")
	b.SetEntry(b.Bin(fir.BinMul, b.Bin(fir.BinAdd, b.Int(1), b.Int(2)), b.Int(3)))
	prog := mustCompile(t, b.Package(), target.Base)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Integer(9), Pointer, )",
		"    Return",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
	if prog.NumQubits != 0 || prog.NumResults != 0 {
		t.Fatalf("counts = %d/%d", prog.NumQubits, prog.NumResults)
	}
	if prog.Callables[prog.Entry].Name != partialeval.EntryName {
		t.Fatalf("entry = %q", prog.Callables[prog.Entry].Name)
	}
}

func TestBookkeepingIntrinsicsEmitNothing(t *testing.T) {
	b := fir.NewBuilder("bookkeeping")
	phase := b.Intrinsic(fir.GlobalPhaseName, fir.Operation, fir.Unit)
	caching := b.Intrinsic(fir.BeginEstimateCachingName, fir.Function, fir.Bool)
	b.SetEntry(b.Do(
		b.Semi(b.Call(phase)),
		b.Expr(b.If(b.Call(caching), b.Do(b.Expr(b.Int(3))), b.Do(b.Expr(b.Int(4))))),
	))
	prog := mustCompile(t, b.Package(), target.Base)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Integer(3), Pointer, )",
		"    Return",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
	if _, ok := prog.FindCallable(fir.GlobalPhaseName); ok {
		t.Fatal("bookkeeping intrinsic reached the program")
	}
}

func TestUnitProgramRecordsEmptyTuple(t *testing.T) {
	b := fir.NewBuilder("empty")
	b.SetEntry(b.Do())
	prog := mustCompile(t, b.Package(), target.Base)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Integer(0), Pointer, )",
		"    Return",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
	if name := prog.Callables[1].Name; name != rir.TupleRecordOutputName {
		t.Fatalf("record callable = %s", name)
	}
}

func bell(p *qprog) *fir.Package {
	s1, q1 := p.qubit("q1")
	s2, q2 := p.qubit("q2")
	out := p.b.Tuple(p.b.Call(p.m, p.b.Var(q1)), p.b.Call(p.m, p.b.Var(q2)))
	return p.entry(s1, s2,
		p.b.Semi(p.b.Call(p.h, p.b.Var(q1))),
		p.b.Semi(p.b.Call(p.cx, p.b.Var(q1), p.b.Var(q2))),
		p.b.Expr(out),
	)
}

func TestBellRecordsResultTuple(t *testing.T) {
	prog := mustCompile(t, bell(newProg("bell")), target.Base)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Qubit(0), )",
		"    Call id(2), args( Qubit(0), Qubit(1), )",
		"    Call id(3), args( Qubit(0), Result(0), )",
		"    Call id(3), args( Qubit(1), Result(1), )",
		"    Call id(4), args( Integer(2), Pointer, )",
		"    Call id(5), args( Result(0), Pointer, )",
		"    Call id(5), args( Result(1), Pointer, )",
		"    Return",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
	if prog.NumQubits != 2 || prog.NumResults != 2 {
		t.Fatalf("counts = %d/%d, want 2/2", prog.NumQubits, prog.NumResults)
	}
	if m := prog.Callables[3]; m.CallType != rir.CallMeasurement || len(m.Input) != 2 {
		t.Fatalf("measurement callable = %s", m)
	}
}

// measureToInt builds `let q = alloc(); let r = M(q); let x = if r == One { 1 } else { 0 }; x`.
func measureToInt(p *qprog) *fir.Package {
	sq, q := p.qubit("q")
	sr, r := p.measure("r", q)
	sx, x := p.b.Let("x", p.b.If(p.isOne(r), p.b.Int(1), p.b.Int(0)))
	return p.entry(sq, sr, sx, p.b.Expr(p.b.Var(x)))
}

func TestMeasureToInt(t *testing.T) {
	prog := mustCompile(t, measureToInt(newProg("measure_int")), target.AdaptiveRI)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Qubit(0), Result(0), )",
		"    Variable(0, Boolean) = Call id(2), args( Result(0), )",
		"    Branch Variable(0, Boolean), 2, 3",
		"Block 1:Block:",
		"    Call id(3), args( Variable(1, Integer), Pointer, )",
		"    Return",
		"Block 2:Block:",
		"    Variable(1, Integer) = Store Integer(1)",
		"    Jump(1)",
		"Block 3:Block:",
		"    Variable(1, Integer) = Store Integer(0)",
		"    Jump(1)",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
	if c := prog.Callables[2]; c.Name != rir.ReadResultName || c.CallType != rir.CallReadout {
		t.Fatalf("read callable = %s", c)
	}
}

func TestBranchTargetsReachCommonJoin(t *testing.T) {
	prog := mustCompile(t, measureToInt(newProg("join")), target.AdaptiveRI)
	for _, b := range prog.Blocks {
		if b.Term.Kind != rir.TermBranch {
			continue
		}
		br := b.Term.Branch
		if br.Then == b.ID || br.Else == b.ID || br.Then == br.Else {
			t.Fatalf("block %d branches to %d/%d", b.ID, br.Then, br.Else)
		}
		thenTerm, elseTerm := prog.Block(br.Then).Term, prog.Block(br.Else).Term
		if thenTerm.Kind != rir.TermJump || elseTerm.Kind != rir.TermJump || thenTerm.Jump.Target != elseTerm.Jump.Target {
			t.Fatalf("arms end in %s and %s", thenTerm, elseTerm)
		}
	}
}

func TestBaseProfileRejectsDynamicCondition(t *testing.T) {
	p := newProg("measure_int")
	sq, q := p.qubit("q")
	sr, r := p.measure("r", q)
	p.b.At(40, 48)
	cond := p.isOne(r)
	p.b.At(0, 0)
	sx, x := p.b.Let("x", p.b.If(cond, p.b.Int(1), p.b.Int(0)))
	pkg := p.entry(sq, sr, sx, p.b.Expr(p.b.Var(x)))

	_, err := compile(t, pkg, target.Base)
	pe := expectError(t, err, partialeval.KindCapability, diag.CapMissingCapability)
	if pe.Features != rca.UseOfDynamicBool {
		t.Fatalf("features = %s", pe.Features)
	}
	if pe.Span.Start != 40 || pe.Span.End != 48 {
		t.Fatalf("error located at %d..%d, want the condition", pe.Span.Start, pe.Span.End)
	}
}

func TestMutableUpdatedInBranch(t *testing.T) {
	p := newProg("mutable")
	sq, q := p.qubit("q")
	sr, r := p.measure("r", q)
	sx, x := p.b.Mutable("x", p.b.Int(0))
	update := p.b.If(p.isOne(r),
		p.b.Do(p.b.Semi(p.b.Assign(x, p.b.Int(1)))),
		p.b.Do(p.b.Semi(p.b.Assign(x, p.b.Int(2)))))
	pkg := p.entry(sq, sr, sx, p.b.Semi(update), p.b.Expr(p.b.Var(x)))
	prog := mustCompile(t, pkg, target.AdaptiveRI)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Qubit(0), Result(0), )",
		"    Variable(0, Integer) = Store Integer(0)",
		"    Variable(1, Boolean) = Call id(2), args( Result(0), )",
		"    Branch Variable(1, Boolean), 2, 3",
		"Block 1:Block:",
		"    Call id(3), args( Variable(0, Integer), Pointer, )",
		"    Return",
		"Block 2:Block:",
		"    Variable(0, Integer) = Store Integer(1)",
		"    Jump(1)",
		"Block 3:Block:",
		"    Variable(0, Integer) = Store Integer(2)",
		"    Jump(1)",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
}

func TestNestedDynamicIf(t *testing.T) {
	// let x = if r1 == One { if r2 == One { 1 } else { 2 } } else { 3 }; x
	p := newProg("nested")
	s1, q1 := p.qubit("q1")
	s2, q2 := p.qubit("q2")
	sr1, r1 := p.measure("r1", q1)
	sr2, r2 := p.measure("r2", q2)
	inner := p.b.If(p.isOne(r2), p.b.Int(1), p.b.Int(2))
	sx, x := p.b.Let("x", p.b.If(p.isOne(r1), inner, p.b.Int(3)))
	prog := mustCompile(t, p.entry(s1, s2, sr1, sr2, sx, p.b.Expr(p.b.Var(x))), target.AdaptiveRI)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Qubit(0), Result(0), )",
		"    Call id(1), args( Qubit(1), Result(1), )",
		"    Variable(0, Boolean) = Call id(2), args( Result(0), )",
		"    Branch Variable(0, Boolean), 2, 6",
		"Block 1:Block:",
		"    Call id(3), args( Variable(1, Integer), Pointer, )",
		"    Return",
		"Block 2:Block:",
		"    Variable(2, Boolean) = Call id(2), args( Result(1), )",
		"    Branch Variable(2, Boolean), 4, 5",
		"Block 3:Block:",
		"    Variable(1, Integer) = Store Variable(3, Integer)",
		"    Jump(1)",
		"Block 4:Block:",
		"    Variable(3, Integer) = Store Integer(1)",
		"    Jump(3)",
		"Block 5:Block:",
		"    Variable(3, Integer) = Store Integer(2)",
		"    Jump(3)",
		"Block 6:Block:",
		"    Variable(1, Integer) = Store Integer(3)",
		"    Jump(1)",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
}

func TestStaticLoopCarriesDynamicMutable(t *testing.T) {
	// mutable x = 0; for _ in 0..1 { let r = M(q); if r == One { x += 1; } } x
	p := newProg("carried")
	sq, q := p.qubit("q")
	sx, x := p.b.Mutable("x", p.b.Int(0))
	sr, r := p.measure("r", q)
	body := p.b.Block(sr,
		p.b.Semi(p.b.If(p.isOne(r),
			p.b.Do(p.b.Semi(p.b.AssignOp(fir.BinAdd, x, p.b.Int(1)))),
			fir.NoExprID)))
	loop := p.b.For(p.b.DiscardPat(fir.Int), p.b.Range(p.b.Int(0), p.b.Int(1)), body)
	prog := mustCompile(t, p.entry(sq, sx, p.b.Semi(loop), p.b.Expr(p.b.Var(x))), target.AdaptiveRI)

	// The first iteration folds x from its known literal; the second only
	// sees the variable because the first arm may not have run.
	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Variable(0, Integer) = Store Integer(0)",
		"    Call id(1), args( Qubit(0), Result(0), )",
		"    Variable(1, Boolean) = Call id(2), args( Result(0), )",
		"    Branch Variable(1, Boolean), 2, 1",
		"Block 1:Block:",
		"    Call id(1), args( Qubit(0), Result(1), )",
		"    Variable(2, Boolean) = Call id(2), args( Result(1), )",
		"    Branch Variable(2, Boolean), 4, 3",
		"Block 2:Block:",
		"    Variable(0, Integer) = Store Integer(1)",
		"    Jump(1)",
		"Block 3:Block:",
		"    Call id(3), args( Variable(0, Integer), Pointer, )",
		"    Return",
		"Block 4:Block:",
		"    Variable(3, Integer) = Add Variable(0, Integer), Integer(1)",
		"    Variable(0, Integer) = Store Variable(3, Integer)",
		"    Jump(3)",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
}

func TestLogicalAndForksOnQuantumOperand(t *testing.T) {
	p := newProg("and")
	s1, q1 := p.qubit("q1")
	s2, q2 := p.qubit("q2")
	sr, r := p.measure("r", q1)
	rhs := p.b.Bin(fir.BinEq, p.b.Call(p.m, p.b.Var(q2)), p.b.One())
	pkg := p.entry(s1, s2, sr, p.b.Expr(p.b.Bin(fir.BinAndL, p.isOne(r), rhs)))
	prog := mustCompile(t, pkg, target.AdaptiveRI)

	want := listing(
		"Blocks:",
		"Block 0:Block:",
		"    Call id(1), args( Qubit(0), Result(0), )",
		"    Variable(0, Boolean) = Call id(2), args( Result(0), )",
		"    Variable(1, Boolean) = Store Bool(false)",
		"    Branch Variable(0, Boolean), 2, 1",
		"Block 1:Block:",
		"    Call id(3), args( Variable(1, Boolean), Pointer, )",
		"    Return",
		"Block 2:Block:",
		"    Call id(1), args( Qubit(1), Result(1), )",
		"    Variable(2, Boolean) = Call id(2), args( Result(1), )",
		"    Variable(1, Boolean) = Store Variable(2, Boolean)",
		"    Jump(1)",
	)
	if got := rir.BlocksString(prog); got != want {
		t.Fatalf("listing:\n%s\nwant:\n%s", got, want)
	}
}

func TestResultComparisons(t *testing.T) {
	tests := []struct {
		name string
		op   fir.BinOp
		one  bool
		want string
	}{
		{"eq one reads", fir.BinEq, true, "Variable(0, Boolean) = Call id(2), args( Result(0), )"},
		{"ne zero reads", fir.BinNe, false, "Variable(0, Boolean) = Call id(2), args( Result(0), )"},
		{"eq zero negates", fir.BinEq, false, "Variable(1, Boolean) = LogicalNot Variable(0, Boolean)"},
		{"ne one negates", fir.BinNe, true, "Variable(1, Boolean) = LogicalNot Variable(0, Boolean)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProg("cmp")
			sq, q := p.qubit("q")
			sr, r := p.measure("r", q)
			lit := p.b.Zero()
			if tt.one {
				lit = p.b.One()
			}
			pkg := p.entry(sq, sr, p.b.Expr(p.b.Bin(tt.op, p.b.Var(r), lit)))
			prog := mustCompile(t, pkg, target.AdaptiveRI)
			if got := rir.BlocksString(prog); !strings.Contains(got, tt.want) {
				t.Fatalf("listing lacks %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestQubitSlotReuse(t *testing.T) {
	p := newProg("reuse")
	sa, a := p.qubit("a")
	sb, b := p.qubit("b")
	pkg := p.entry(sa,
		p.b.Semi(p.b.Call(p.release, p.b.Var(a))),
		sb,
		p.b.Semi(p.b.Call(p.h, p.b.Var(b))),
	)
	prog := mustCompile(t, pkg, target.Base)
	if prog.NumQubits != 1 {
		t.Fatalf("num_qubits = %d, want 1", prog.NumQubits)
	}
	if got := rir.BlocksString(prog); !strings.Contains(got, "Call id(1), args( Qubit(0), )") {
		t.Fatalf("H not applied to reused slot:\n%s", got)
	}
}

func TestLabelSwap(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		p := newProg("swap")
		swap := p.b.Gate(fir.QubitSwapLabelsName, fir.Qubit, fir.Qubit)
		sa, a := p.qubit("a")
		sb, b := p.qubit("b")
		pkg := p.entry(sa, sb,
			p.b.Semi(p.b.Call(swap, p.b.Var(a), p.b.Var(b))),
			p.b.Semi(p.b.Call(p.h, p.b.Var(a))),
		)
		prog := mustCompile(t, pkg, target.Base)
		if got := rir.BlocksString(prog); !strings.Contains(got, "args( Qubit(1), )") {
			t.Fatalf("swapped label not applied:\n%s", got)
		}
	})
	t.Run("in branch", func(t *testing.T) {
		p := newProg("swap_branch")
		swap := p.b.Gate(fir.QubitSwapLabelsName, fir.Qubit, fir.Qubit)
		sa, a := p.qubit("a")
		sb, b := p.qubit("b")
		sr, r := p.measure("r", a)
		body := p.b.Do(p.b.Semi(p.b.Call(swap, p.b.Var(a), p.b.Var(b))))
		pkg := p.entry(sa, sb, sr, p.b.Semi(p.b.If(p.isOne(r), body, fir.NoExprID)))
		_, err := compile(t, pkg, target.AdaptiveRI)
		expectError(t, err, partialeval.KindUnimplemented, diag.CapLabelSwapInBranch)
	})
}

func TestRepeatedPrimitiveDeduplicated(t *testing.T) {
	const n = 5
	p := newProg("repeat")
	sq, q := p.qubit("q")
	pat, _ := p.b.BindPat("i", fir.Int)
	loop := p.b.For(pat, p.b.Range(p.b.Int(1), p.b.Int(n)), p.b.Block(p.b.Semi(p.b.Call(p.h, p.b.Var(q)))))
	prog := mustCompile(t, p.entry(sq, p.b.Semi(loop)), target.Base)

	id, ok := prog.FindCallable("__quantum__qis__h__body")
	if !ok {
		t.Fatal("H not registered")
	}
	if got := prog.CountCalls(id); got != n {
		t.Fatalf("H calls = %d, want %d", got, n)
	}
	names := map[string]int{}
	for _, c := range prog.Callables {
		names[c.Name]++
	}
	for name, count := range names {
		if count != 1 {
			t.Errorf("callable %s registered %d times", name, count)
		}
	}
}

func TestDeterministicOutput(t *testing.T) {
	var dumps []string
	var encoded [][]byte
	for i := 0; i < 3; i++ {
		prog := mustCompile(t, measureToInt(newProg("det")), target.AdaptiveRI)
		dumps = append(dumps, rir.BlocksString(prog))
		data, err := rir.Encode(prog)
		if err != nil {
			t.Fatal(err)
		}
		encoded = append(encoded, data)
	}
	for i := 1; i < len(dumps); i++ {
		if dumps[i] != dumps[0] || !bytes.Equal(encoded[i], encoded[0]) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, dumps[i], dumps[0])
		}
	}
}

func TestInlinedCallWithDynamicArgument(t *testing.T) {
	p := newProg("inline")
	flip, params := p.b.Callable("Flip", fir.Function, fir.Bool, fir.P("b", fir.Bool))
	p.b.SetBody(flip, p.b.Block(p.b.Expr(p.b.Un(fir.UnNotL, p.b.Var(params[0])))))
	sq, q := p.qubit("q")
	sr, r := p.measure("r", q)
	pkg := p.entry(sq, sr, p.b.Expr(p.b.Call(flip, p.isOne(r))))
	prog := mustCompile(t, pkg, target.AdaptiveRI)

	if got := rir.BlocksString(prog); !strings.Contains(got, "Variable(1, Boolean) = LogicalNot Variable(0, Boolean)") {
		t.Fatalf("inlined body missing:\n%s", got)
	}
	if len(prog.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(prog.Blocks))
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(p *qprog) *fir.Package
		profile target.Profile
		kind    partialeval.ErrorKind
		code    diag.Code
	}{
		{
			name: "check zero",
			build: func(p *qprog) *fir.Package {
				checkZero := p.b.Intrinsic(fir.CheckZeroName, fir.Operation, fir.Bool, fir.Qubit)
				sq, q := p.qubit("q")
				return p.entry(sq, p.b.Expr(p.b.Call(checkZero, p.b.Var(q))))
			},
			profile: target.Unrestricted,
			kind:    partialeval.KindUnsupportedSimulationIntrinsic,
			code:    diag.UnsSimulationIntrinsic,
		},
		{
			name: "result literal output",
			build: func(p *qprog) *fir.Package {
				return p.entry(p.b.Expr(p.b.Zero()))
			},
			profile: target.Base,
			kind:    partialeval.KindOutputResultLiteral,
			code:    diag.OutResultLiteral,
		},
		{
			name: "fail",
			build: func(p *qprog) *fir.Package {
				sq, q := p.qubit("q")
				return p.entry(sq,
					p.b.Semi(p.b.Call(p.h, p.b.Var(q))),
					p.b.Semi(p.b.Fail(p.b.Str("boom"))))
			},
			profile: target.Base,
			kind:    partialeval.KindEvaluationFailed,
			code:    diag.EvalFailed,
		},
		{
			name: "unbounded recursion",
			build: func(p *qprog) *fir.Package {
				rec, params := p.b.Callable("Rec", fir.Operation, fir.Unit, fir.P("q", fir.Qubit))
				p.b.SetBody(rec, p.b.Block(
					p.b.Semi(p.b.Call(p.h, p.b.Var(params[0]))),
					p.b.Semi(p.b.Call(rec, p.b.Var(params[0])))))
				sq, q := p.qubit("q")
				return p.entry(sq, p.b.Semi(p.b.Call(rec, p.b.Var(q))))
			},
			profile: target.Base,
			kind:    partialeval.KindResourceExhausted,
			code:    diag.EvalCallDepthExceeded,
		},
		{
			name: "dynamic loop",
			build: func(p *qprog) *fir.Package {
				sq, q := p.qubit("q")
				sg, again := p.b.Mutable("again", p.b.Bool(true))
				body := p.b.Block(p.b.Semi(p.b.Assign(again,
					p.b.Bin(fir.BinEq, p.b.Call(p.m, p.b.Var(q)), p.b.One()))))
				return p.entry(sq, sg, p.b.Semi(p.b.While(p.b.Var(again), body)))
			},
			profile: target.Unrestricted,
			kind:    partialeval.KindUnimplemented,
			code:    diag.CapDynamicLoop,
		},
		{
			name: "dynamic loop on adaptive target",
			build: func(p *qprog) *fir.Package {
				sq, q := p.qubit("q")
				sg, again := p.b.Mutable("again", p.b.Bool(true))
				body := p.b.Block(p.b.Semi(p.b.Assign(again,
					p.b.Bin(fir.BinEq, p.b.Call(p.m, p.b.Var(q)), p.b.One()))))
				return p.entry(sq, sg, p.b.Semi(p.b.While(p.b.Var(again), body)))
			},
			profile: target.AdaptiveRI,
			kind:    partialeval.KindCapability,
			code:    diag.CapDynamicLoop,
		},
		{
			name: "double release",
			build: func(p *qprog) *fir.Package {
				sq, q := p.qubit("a")
				return p.entry(sq,
					p.b.Semi(p.b.Call(p.release, p.b.Var(q))),
					p.b.Semi(p.b.Call(p.release, p.b.Var(q))))
			},
			profile: target.Base,
			kind:    partialeval.KindEvaluationFailed,
			code:    diag.EvalQubitDoubleRelease,
		},
		{
			name: "double release in callee",
			build: func(p *qprog) *fir.Package {
				drop, params := p.b.Callable("Drop", fir.Operation, fir.Unit, fir.P("q", fir.Qubit))
				p.b.SetBody(drop, p.b.Block(
					p.b.Semi(p.b.Call(p.release, p.b.Var(params[0])))))
				sq, q := p.qubit("a")
				return p.entry(sq,
					p.b.Semi(p.b.Call(drop, p.b.Var(q))),
					p.b.Semi(p.b.Call(drop, p.b.Var(q))))
			},
			profile: target.Unrestricted,
			kind:    partialeval.KindEvaluationFailed,
			code:    diag.EvalQubitDoubleRelease,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := tt.build(newProg(strings.ReplaceAll(tt.name, " ", "_")))
			prog, err := partialeval.PartiallyEvaluate(context.Background(), pkg, rca.Analyze(pkg), partialeval.Options{
				Target:   tt.profile.Capabilities(),
				MaxDepth: 16,
			})
			if prog != nil {
				t.Fatalf("program returned alongside error")
			}
			pe := expectError(t, err, tt.kind, tt.code)
			if d := pe.Diagnostic(); d.Code != tt.code {
				t.Fatalf("diagnostic code = %s", d.Code.ID())
			}
		})
	}
}
