package rir_test

import (
	"strings"
	"testing"

	"quill/internal/rir"
)

// buildMeasureToInt builds the graph of
//
//	let r = M(q); let x = if r == One { 1 } else { 0 }; x
//
// with the join block allocated before the arms.
func buildMeasureToInt(omitElseStore bool) *rir.Program {
	p := rir.NewProgram()
	p.SetCallable(0, rir.Callable{Name: "main", Body: 0, CallType: rir.CallRegular})
	p.SetCallable(1, rir.Primitive("__quantum__qis__mresetz__body", rir.CallMeasurement, rir.TyVoid, rir.TyQubit, rir.TyResult))
	p.SetCallable(2, rir.ReadResult())
	rec, _ := rir.RecordOutput(rir.TyInteger)
	p.SetCallable(3, rec)
	p.Entry = 0
	p.NumQubits, p.NumResults = 1, 1

	cond := rir.Variable{ID: 0, Ty: rir.TyBoolean}
	join := rir.Variable{ID: 1, Ty: rir.TyInteger}

	entry := p.AddBlock(0)
	entry.Append(rir.NewCall(1, []rir.Operand{rir.LitOperand(rir.QubitLit(0)), rir.LitOperand(rir.ResultLit(0))}, nil))
	entry.Append(rir.NewCall(2, []rir.Operand{rir.LitOperand(rir.ResultLit(0))}, &cond))
	entry.SetTerm(rir.Branch(cond, 2, 3))

	cont := p.AddBlock(1)
	cont.Append(rir.NewCall(3, []rir.Operand{rir.VarOperand(join), rir.LitOperand(rir.PointerLit())}, nil))
	cont.SetTerm(rir.Return())

	then := p.AddBlock(2)
	then.Append(rir.NewStore(rir.LitOperand(rir.IntLit(1)), join))
	then.SetTerm(rir.Jump(1))

	els := p.AddBlock(3)
	if !omitElseStore {
		els.Append(rir.NewStore(rir.LitOperand(rir.IntLit(0)), join))
	}
	els.SetTerm(rir.Jump(1))
	return p
}

func TestDumpBlocks(t *testing.T) {
	p := buildMeasureToInt(false)
	want := strings.Join([]string{
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
		"",
	}, "\n")
	if got := rir.BlocksString(p); got != want {
		t.Fatalf("unexpected listing:\n%s\nwant:\n%s", got, want)
	}
}

func TestCallableString(t *testing.T) {
	c := rir.ReadResult()
	want := "Callable:\n" +
		"    name: __quantum__rt__read_result\n" +
		"    call_type: Readout\n" +
		"    input_type:\n" +
		"        [0]: Result\n" +
		"    output_type: Boolean\n" +
		"    body: <NONE>"
	if got := c.String(); got != want {
		t.Fatalf("unexpected callable:\n%s\nwant:\n%s", got, want)
	}
}

func TestInstrString(t *testing.T) {
	x := rir.Variable{ID: 4, Ty: rir.TyInteger}
	b := rir.Variable{ID: 5, Ty: rir.TyBoolean}
	d := rir.Variable{ID: 6, Ty: rir.TyDouble}
	tests := []struct {
		in   rir.Instr
		want string
	}{
		{rir.NewBinary(rir.InstrAdd, rir.VarOperand(x), rir.LitOperand(rir.IntLit(1)), x), "Variable(4, Integer) = Add Variable(4, Integer), Integer(1)"},
		{rir.NewIcmp(rir.CondSlt, rir.VarOperand(x), rir.LitOperand(rir.IntLit(3)), b), "Variable(5, Boolean) = Icmp Slt, Variable(4, Integer), Integer(3)"},
		{rir.NewFcmp(rir.FcmpOge, rir.VarOperand(d), rir.LitOperand(rir.DoubleLit(0.5)), b), "Variable(5, Boolean) = Fcmp OrderedAndGreaterThanOrEqual, Variable(6, Double), Double(0.5)"},
		{rir.NewUnary(rir.InstrLogicalNot, rir.VarOperand(b), b), "Variable(5, Boolean) = LogicalNot Variable(5, Boolean)"},
		{rir.NewStore(rir.LitOperand(rir.BoolLit(true)), b), "Variable(5, Boolean) = Store Bool(true)"},
	}
	for _, tt := range tests {
		t.Run(tt.in.Kind.String(), func(t *testing.T) {
			if got := tt.in.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := rir.Validate(buildMeasureToInt(false)); err != nil {
		t.Fatalf("valid program rejected: %v", err)
	}

	err := rir.Validate(buildMeasureToInt(true))
	if err == nil || !strings.Contains(err.Error(), "before it is assigned on every path") {
		t.Fatalf("expected must-defined error, got %v", err)
	}
}

func TestValidateStructure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *rir.Program)
		want   string
	}{
		{
			name:   "self branch",
			mutate: func(p *rir.Program) { p.Blocks[0].Term.Branch.Then = 0 },
			want:   "branch targets its own block",
		},
		{
			name:   "missing target",
			mutate: func(p *rir.Program) { p.Blocks[2].Term.Jump.Target = 9 },
			want:   "jump to missing block 9",
		},
		{
			name:   "qubit out of range",
			mutate: func(p *rir.Program) { p.NumQubits = 0 },
			want:   "qubit 0 out of range",
		},
		{
			name: "arity mismatch",
			mutate: func(p *rir.Program) {
				p.Blocks[0].Instrs[1].Call.Args = nil
			},
			want: "expects 1 args, got 0",
		},
		{
			name:   "unterminated",
			mutate: func(p *rir.Program) { p.Blocks[3].Term = rir.Terminator{} },
			want:   "block 3: unterminated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildMeasureToInt(false)
			tt.mutate(p)
			err := rir.Validate(p)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAppendAfterTerminatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	p := rir.NewProgram()
	b := p.AddBlock(0)
	b.SetTerm(rir.Return())
	b.Append(rir.NewStore(rir.LitOperand(rir.IntLit(1)), rir.Variable{ID: 0, Ty: rir.TyInteger}))
}

func TestRenumber(t *testing.T) {
	p := buildMeasureToInt(false)
	// An unreachable block must be dropped.
	orphan := p.AddBlock(4)
	orphan.SetTerm(rir.Return())

	out := rir.Renumber(p)
	if len(out.Blocks) != 4 {
		t.Fatalf("expected 4 reachable blocks, got %d", len(out.Blocks))
	}
	if rir.HasBackEdge(out) {
		t.Fatalf("renumbered acyclic graph has a back edge")
	}
	for _, b := range out.Blocks {
		for _, s := range b.Term.Successors() {
			if s <= b.ID {
				t.Fatalf("block %d jumps backwards to %d", b.ID, s)
			}
		}
	}
	if out.Blocks[0].Term.Kind != rir.TermBranch {
		t.Fatalf("entry block not first: %s", out.Blocks[0].String())
	}
	if out.Blocks[3].Term.Kind != rir.TermReturn {
		t.Fatalf("join block not last: %s", out.Blocks[3].String())
	}
	if err := rir.Validate(out); err != nil {
		t.Fatalf("renumbered program invalid: %v", err)
	}
	// The source program is untouched.
	if p.Blocks[0].Term.Branch.Then != 2 {
		t.Fatalf("Renumber mutated its input")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	p := buildMeasureToInt(false)
	data, err := rir.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := rir.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rir.BlocksString(got) != rir.BlocksString(p) {
		t.Fatalf("round trip changed blocks:\n%s", rir.BlocksString(got))
	}
	if got.NumQubits != 1 || got.NumResults != 1 || len(got.Callables) != 4 {
		t.Fatalf("round trip lost header: %+v", got)
	}
	if _, err := rir.Decode([]byte("nope")); err == nil {
		t.Fatalf("expected header error")
	}
}
