package eval_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
)

type fakeBackend struct {
	next     eval.QubitID
	released []eval.QubitID
	applied  []string
}

func (f *fakeBackend) AllocateQubit() (eval.QubitID, error) {
	q := f.next
	f.next++
	return q, nil
}

func (f *fakeBackend) ReleaseQubit(q eval.QubitID) error {
	f.released = append(f.released, q)
	return nil
}

func (f *fakeBackend) Apply(name string, _ []eval.Value) (eval.Value, error) {
	f.applied = append(f.applied, name)
	return eval.Unit(), nil
}

func (f *fakeBackend) CustomIntrinsic(name string, _ []eval.Value) (eval.Value, bool, error) {
	if name == fir.BeginEstimateCachingName {
		return eval.Bool(true), true, nil
	}
	return eval.Value{}, false, nil
}

func run(t *testing.T, b *fir.Builder, opts eval.Options) (eval.Value, error) {
	t.Helper()
	return eval.New(b.Package(), &fakeBackend{}, opts).Run()
}

func codeOf(t *testing.T, err error) diag.Code {
	t.Helper()
	var ee *eval.Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *eval.Error, got %v", err)
	}
	return ee.Code
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *fir.Builder) fir.ExprID
		want  eval.Value
	}{
		{"add mul", func(b *fir.Builder) fir.ExprID {
			return b.Bin(fir.BinMul, b.Bin(fir.BinAdd, b.Int(1), b.Int(2)), b.Int(4))
		}, eval.Int(12)},
		{"pow", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinExp, b.Int(3), b.Int(4)) }, eval.Int(81)},
		{"shift", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinShl, b.Int(1), b.Int(10)) }, eval.Int(1024)},
		{"double div", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinDiv, b.Double(1), b.Double(4)) }, eval.Double(0.25)},
		{"compare", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinLe, b.Int(2), b.Int(2)) }, eval.Bool(true)},
		{"result literal eq", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinEq, b.One(), b.Zero()) }, eval.Bool(false)},
		{"neg", func(b *fir.Builder) fir.ExprID { return b.Un(fir.UnNeg, b.Int(5)) }, eval.Int(-5)},
		{"bitwise not", func(b *fir.Builder) fir.ExprID { return b.Un(fir.UnNotB, b.Int(0)) }, eval.Int(-1)},
		{"string concat", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinAdd, b.Str("a"), b.Str("b")) }, eval.String("ab")},
		{"short circuit", func(b *fir.Builder) fir.ExprID {
			// The rhs would divide by zero if evaluated.
			rhs := b.Bin(fir.BinEq, b.Bin(fir.BinDiv, b.Int(1), b.Int(0)), b.Int(0))
			return b.Bin(fir.BinAndL, b.Bool(false), rhs)
		}, eval.Bool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fir.NewBuilder(tt.name)
			b.SetEntry(tt.build(b))
			got, err := run(t, b, eval.Options{})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *fir.Builder) fir.ExprID
		code  diag.Code
	}{
		{"overflow", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinAdd, b.Int(math.MaxInt64), b.Int(1)) }, diag.EvalIntegerOverflow},
		{"div zero", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinDiv, b.Int(1), b.Int(0)) }, diag.EvalDivisionByZero},
		{"negative shift", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinShr, b.Int(1), b.Int(-1)) }, diag.EvalNegativeShift},
		{"index", func(b *fir.Builder) fir.ExprID { return b.Index(b.Array(fir.Int, b.Int(1)), b.Int(3)) }, diag.EvalIndexOutOfRange},
		{"pow overflow", func(b *fir.Builder) fir.ExprID { return b.Bin(fir.BinExp, b.Int(10), b.Int(19)) }, diag.EvalIntegerOverflow},
		{"fail", func(b *fir.Builder) fir.ExprID { return b.Fail(b.Str("boom")) }, diag.EvalFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fir.NewBuilder(tt.name)
			b.At(3, 7)
			b.SetEntry(tt.build(b))
			_, err := run(t, b, eval.Options{})
			if got := codeOf(t, err); got != tt.code {
				t.Fatalf("code = %s, want %s", got.ID(), tt.code.ID())
			}
			var ee *eval.Error
			errors.As(err, &ee)
			if ee.Span.Start != 3 || ee.Span.End != 7 {
				t.Fatalf("span = %s", ee.Span)
			}
		})
	}
}

func TestLoopsAndMutation(t *testing.T) {
	// mutable sum = 0; for i in 1..4 { sum += i; } mutable n = 0;
	// while n < 3 { n += 1; } sum * 10 + n
	b := fir.NewBuilder("loops")
	ssum, sum := b.Mutable("sum", b.Int(0))
	pat, i := b.BindPat("i", fir.Int)
	forLoop := b.For(pat, b.Range(b.Int(1), b.Int(4)), b.Block(b.Semi(b.AssignOp(fir.BinAdd, sum, b.Var(i)))))
	sn, n := b.Mutable("n", b.Int(0))
	while := b.While(b.Bin(fir.BinLt, b.Var(n), b.Int(3)), b.Block(b.Semi(b.AssignOp(fir.BinAdd, n, b.Int(1)))))
	result := b.Bin(fir.BinAdd, b.Bin(fir.BinMul, b.Var(sum), b.Int(10)), b.Var(n))
	b.SetEntry(b.Do(ssum, b.Semi(forLoop), sn, b.Semi(while), b.Expr(result)))

	got, err := run(t, b, eval.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.Equal(eval.Int(103)) {
		t.Fatalf("got %s, want 103", got)
	}
}

func TestLoopLimit(t *testing.T) {
	b := fir.NewBuilder("forever")
	b.SetEntry(b.While(b.Bool(true), b.Block()))
	_, err := run(t, b, eval.Options{MaxLoopIterations: 10})
	if got := codeOf(t, err); got != diag.EvalLoopLimitExceeded {
		t.Fatalf("code = %s", got.ID())
	}
}

func TestRecursionAndDepthLimit(t *testing.T) {
	build := func(n int64) *fir.Builder {
		b := fir.NewBuilder("fact")
		f, params := b.Callable("Fact", fir.Function, fir.Int, fir.P("n", fir.Int))
		x := params[0]
		rec := b.Bin(fir.BinMul, b.Var(x), b.Call(f, b.Bin(fir.BinSub, b.Var(x), b.Int(1))))
		b.SetBody(f, b.Block(b.Expr(b.If(b.Bin(fir.BinLe, b.Var(x), b.Int(1)), b.Int(1), rec))))
		b.SetEntry(b.Call(f, b.Int(n)))
		return b
	}
	got, err := run(t, build(10), eval.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.Equal(eval.Int(3628800)) {
		t.Fatalf("got %s", got)
	}
	_, err = run(t, build(50), eval.Options{MaxCallDepth: 20})
	if code := codeOf(t, err); code != diag.EvalCallDepthExceeded {
		t.Fatalf("code = %s", code.ID())
	}
}

func TestEarlyReturn(t *testing.T) {
	// function F() : Int { for i in 0..10 { if i == 3 { return i; } } -1 }
	b := fir.NewBuilder("return")
	f, _ := b.Callable("F", fir.Function, fir.Int)
	pat, i := b.BindPat("i", fir.Int)
	ret := b.If(b.Bin(fir.BinEq, b.Var(i), b.Int(3)), b.Do(b.Semi(b.Return(b.Var(i)))), fir.NoExprID)
	loop := b.For(pat, b.Range(b.Int(0), b.Int(10)), b.Block(b.Semi(ret)))
	b.SetBody(f, b.Block(b.Semi(loop), b.Expr(b.Int(-1))))
	b.SetEntry(b.Call(f))

	got, err := run(t, b, eval.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.Equal(eval.Int(3)) {
		t.Fatalf("got %s, want 3", got)
	}
}

func TestBuiltinsAndBackend(t *testing.T) {
	b := fir.NewBuilder("builtins")
	length := b.Intrinsic(fir.LengthName, fir.Function, fir.Int, fir.ArrayOf(fir.Int))
	sqrt := b.Intrinsic(fir.SqrtName, fir.Function, fir.Double, fir.Double)
	cache := b.Intrinsic(fir.BeginEstimateCachingName, fir.Function, fir.Bool, fir.String)
	alloc := b.Intrinsic(fir.QubitAllocateName, fir.Operation, fir.Qubit)
	release := b.Intrinsic(fir.QubitReleaseName, fir.Operation, fir.Unit, fir.Qubit)
	h := b.Gate("__quantum__qis__h__body", fir.Qubit)

	sq, q := b.Let("q", b.Call(alloc))
	tuple := b.Tuple(
		b.Call(length, b.Repeat(b.Int(0), b.Int(5))),
		b.Call(sqrt, b.Double(16)),
		b.Call(cache, b.Str("key")),
	)
	b.SetEntry(b.Do(sq, b.Semi(b.Call(h, b.Var(q))), b.Semi(b.Call(release, b.Var(q))), b.Expr(tuple)))

	backend := &fakeBackend{}
	got, err := eval.New(b.Package(), backend, eval.Options{}).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := eval.Tuple(eval.Int(5), eval.Double(4), eval.Bool(true))
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
	if len(backend.applied) != 1 || backend.applied[0] != "__quantum__qis__h__body" {
		t.Fatalf("applied = %v", backend.applied)
	}
	if len(backend.released) != 1 || backend.released[0] != 0 {
		t.Fatalf("released = %v", backend.released)
	}
}

func TestDynamicOperandRejected(t *testing.T) {
	_, err := eval.BinOp(fir.BinAdd, eval.Int(1), eval.ResultRegister(0))
	if err == nil || !strings.Contains(err.Error(), "only known at run time") {
		t.Fatalf("expected dynamic operand error, got %v", err)
	}
	if code := codeOf(t, err); code != diag.UnsDynamicValue {
		t.Fatalf("code = %s", code.ID())
	}
}

func TestRangeValues(t *testing.T) {
	tests := []struct {
		r    eval.RangeValue
		want []int64
	}{
		{eval.RangeValue{Start: 0, Step: 1, End: 3}, []int64{0, 1, 2, 3}},
		{eval.RangeValue{Start: 5, Step: -2, End: 0}, []int64{5, 3, 1}},
		{eval.RangeValue{Start: 3, Step: 1, End: 2}, nil},
	}
	for _, tt := range tests {
		got, ok := tt.r.Values(100)
		if !ok || len(got) != len(tt.want) {
			t.Fatalf("%+v: got %v", tt.r, got)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("%+v: got %v", tt.r, got)
			}
		}
	}
}
