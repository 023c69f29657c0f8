package fir_test

import (
	"strings"
	"testing"

	"quill/internal/fir"
)

func TestBuilderInfersTypes(t *testing.T) {
	b := fir.NewBuilder("types")
	m := b.Measurement(fir.MeasureResetZName)
	alloc := b.Intrinsic(fir.QubitAllocateName, fir.Operation, fir.Qubit)
	pkg := b.Package()

	q := b.Call(alloc)
	r := b.Call(m, q)
	tests := []struct {
		name string
		expr fir.ExprID
		want fir.Ty
	}{
		{"int literal", b.Int(1), fir.Int},
		{"measurement call", r, fir.Result},
		{"comparison", b.Bin(fir.BinEq, r, b.One()), fir.Bool},
		{"arith", b.Bin(fir.BinAdd, b.Int(1), b.Int(2)), fir.Int},
		{"tuple", b.Tuple(b.Int(1), b.Bool(true)), fir.TupleOf(fir.Int, fir.Bool)},
		{"empty tuple", b.Tuple(), fir.Unit},
		{"array", b.Array(fir.Int, b.Int(1)), fir.ArrayOf(fir.Int)},
		{"index", b.Index(b.Array(fir.Double, b.Double(1)), b.Int(0)), fir.Double},
		{"slice", b.Index(b.Array(fir.Int), b.Range(b.Int(0), b.Int(1))), fir.ArrayOf(fir.Int)},
		{"field", b.Field(b.Tuple(b.Int(1), b.Str("s")), 1), fir.String},
		{"if without else", b.If(b.Bool(true), b.Int(1), fir.NoExprID), fir.Unit},
		{"if with else", b.If(b.Bool(true), b.Int(1), b.Int(2)), fir.Int},
		{"not", b.Un(fir.UnNotL, b.Bool(false)), fir.Bool},
		{"block", b.Do(b.Semi(b.Int(1)), b.Expr(b.Double(2))), fir.Double},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pkg.TyOf(tt.expr); !got.Equal(tt.want) {
				t.Fatalf("type = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTyString(t *testing.T) {
	ty := fir.TupleOf(fir.ArrayOf(fir.Result), fir.Int)
	if got := ty.String(); got != "(Result[], Int)" {
		t.Fatalf("String() = %q", got)
	}
	if fir.TupleOf().Kind != fir.TyUnit {
		t.Fatalf("empty tuple must be Unit")
	}
}

func TestCallableDeclaration(t *testing.T) {
	b := fir.NewBuilder("decl")
	f, params := b.Callable("Add", fir.Function, fir.Int, fir.P("a", fir.Int), fir.P("b", fir.Int))
	b.SetBody(f, b.Block(b.Expr(b.Bin(fir.BinAdd, b.Var(params[0]), b.Var(params[1])))))
	b.SetEntry(b.Call(f, b.Int(1), b.Int(2)))
	pkg := b.Package()

	c, ok := pkg.FindCallable("Add")
	if !ok {
		t.Fatalf("callable not found")
	}
	if c.IsIntrinsic() || len(c.Params) != 2 {
		t.Fatalf("unexpected callable %+v", c)
	}
	if got := pkg.TyOf(pkg.Entry); !got.Equal(fir.Int) {
		t.Fatalf("entry type = %s", got)
	}
	if err := fir.Check(pkg); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCheckReportsDanglingIDs(t *testing.T) {
	b := fir.NewBuilder("broken")
	b.SetEntry(b.Bin(fir.BinAdd, b.Int(1), b.Int(2)))
	pkg := b.Package()
	pkg.Expr(pkg.Entry).BinOp.RHS = 99

	err := fir.Check(pkg)
	if err == nil || !strings.Contains(err.Error(), "missing expr 99") {
		t.Fatalf("expected dangling reference error, got %v", err)
	}

	empty := fir.NewPackage("empty")
	if err := fir.Check(empty); err == nil || !strings.Contains(err.Error(), "missing entry") {
		t.Fatalf("expected missing entry error, got %v", err)
	}
}

func TestArenaIsOneBased(t *testing.T) {
	var a fir.Arena[string]
	if a.Get(0) != nil || a.Get(1) != nil {
		t.Fatalf("empty arena returned a value")
	}
	if id := a.Allocate("x"); id != 1 {
		t.Fatalf("first id = %d", id)
	}
	if got := *a.Get(1); got != "x" {
		t.Fatalf("Get(1) = %q", got)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	b := fir.NewBuilder("codec")
	b.File("codec.qs")
	b.At(4, 9)
	m := b.Measurement(fir.MeasureResetZName)
	alloc := b.Intrinsic(fir.QubitAllocateName, fir.Operation, fir.Qubit)
	b.SetEntry(b.Call(m, b.Call(alloc)))
	pkg := b.Package()

	data, err := fir.Encode(pkg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := fir.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "codec" || got.Entry != pkg.Entry || got.Exprs.Len() != pkg.Exprs.Len() {
		t.Fatalf("decoded package differs: %+v", got)
	}
	c, ok := got.FindCallable(fir.MeasureResetZName)
	if !ok || !c.Attrs.Has(fir.AttrMeasurement) {
		t.Fatalf("measurement attribute lost")
	}
	if span := got.SpanOf(got.Entry); got.FormatSpan(span) != "codec.qs:4-9" {
		t.Fatalf("span = %s", got.FormatSpan(span))
	}
	if _, err := fir.Decode([]byte("nope")); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestStoreResolvesItems(t *testing.T) {
	s := fir.NewStore()
	b := fir.NewBuilder("lib")
	f, _ := b.Callable("F", fir.Function, fir.Unit)
	id := s.Add(b.Package())
	pkg, c := s.Callable(fir.GlobalItemID{Package: id, Item: f})
	if pkg == nil || c == nil || c.Name != "F" {
		t.Fatalf("lookup failed")
	}
	if _, c := s.Callable(fir.GlobalItemID{Package: 7, Item: f}); c != nil {
		t.Fatalf("unknown package resolved")
	}
}
