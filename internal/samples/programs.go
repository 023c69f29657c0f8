package samples

import "quill/internal/fir"

// kit wraps a builder with the intrinsics every sample declares.
type kit struct {
	*fir.Builder
	alloc   fir.ItemID
	release fir.ItemID
	m       fir.ItemID
	h       fir.ItemID
	x       fir.ItemID
	z       fir.ItemID
	cx      fir.ItemID
}

func newKit(name string) *kit {
	b := fir.NewBuilder(name)
	b.File(name + ".qs")
	return &kit{
		Builder: b,
		alloc:   b.Intrinsic(fir.QubitAllocateName, fir.Operation, fir.Qubit),
		release: b.Intrinsic(fir.QubitReleaseName, fir.Operation, fir.Unit, fir.Qubit),
		m:       b.Measurement(fir.MeasureResetZName),
		h:       b.Gate(HName, fir.Qubit),
		x:       b.Gate(XName, fir.Qubit),
		z:       b.Gate(ZName, fir.Qubit),
		cx:      b.Gate(CXName, fir.Qubit, fir.Qubit),
	}
}

func (k *kit) qubit(name string) (fir.StmtID, fir.LocalVarID) {
	return k.Let(name, k.Call(k.alloc))
}

func (k *kit) apply(gate fir.ItemID, qs ...fir.LocalVarID) fir.StmtID {
	args := make([]fir.ExprID, len(qs))
	for i, q := range qs {
		args[i] = k.Var(q)
	}
	return k.Semi(k.Call(gate, args...))
}

func (k *kit) measure(q fir.LocalVarID) fir.ExprID {
	return k.Call(k.m, k.Var(q))
}

func (k *kit) isOne(r fir.LocalVarID) fir.ExprID {
	return k.Bin(fir.BinEq, k.Var(r), k.One())
}

func (k *kit) entry(stmts ...fir.StmtID) {
	k.SetEntry(k.Do(stmts...))
}

func bell(k *kit) {
	s1, q1 := k.qubit("q1")
	s2, q2 := k.qubit("q2")
	k.entry(s1, s2,
		k.apply(k.h, q1),
		k.apply(k.cx, q1, q2),
		k.Expr(k.Tuple(k.measure(q1), k.measure(q2))),
	)
}

func measureInt(k *kit) {
	sq, q := k.qubit("q")
	sr, r := k.Let("r", k.measure(q))
	sx, x := k.Let("x", k.If(k.isOne(r), k.Int(1), k.Int(0)))
	k.entry(sq, k.apply(k.h, q), sr, sx, k.Expr(k.Var(x)))
}

func classical(k *kit) {
	absI := k.Intrinsic(fir.AbsIName, fir.Function, fir.Int, fir.Int)
	length := k.Intrinsic(fir.LengthName, fir.Function, fir.Int, fir.ArrayOf(fir.Int))
	sa, a := k.Let("a", k.Array(fir.Int, k.Int(1), k.Int(2), k.Int(3)))
	sx, x := k.Let("x", k.Bin(fir.BinAdd, k.Call(absI, k.Int(-7)), k.Call(length, k.Var(a))))
	k.entry(sa, sx, k.Expr(k.Bin(fir.BinMul, k.Var(x), k.Int(2))))
}

func teleport(k *kit) {
	sm, msg := k.qubit("msg")
	sa, alice := k.qubit("alice")
	sb, bob := k.qubit("bob")
	s0, m0 := k.Let("m0", k.measure(msg))
	s1, m1 := k.Let("m1", k.measure(alice))
	fixX := k.If(k.isOne(m1), k.Do(k.apply(k.x, bob)), fir.NoExprID)
	fixZ := k.If(k.isOne(m0), k.Do(k.apply(k.z, bob)), fir.NoExprID)
	k.entry(sm, sa, sb,
		k.apply(k.h, msg),
		k.apply(k.h, alice),
		k.apply(k.cx, alice, bob),
		k.apply(k.cx, msg, alice),
		k.apply(k.h, msg),
		s0, s1,
		k.Semi(fixX),
		k.Semi(fixZ),
		k.Expr(k.measure(bob)),
	)
}

func dynamicLoop(k *kit) {
	sq, q := k.qubit("q")
	sg, again := k.Mutable("again", k.Bool(true))
	body := k.Block(
		k.apply(k.h, q),
		k.Semi(k.Assign(again, k.Bin(fir.BinEq, k.measure(q), k.Zero()))),
	)
	k.entry(sq, sg, k.Semi(k.While(k.Var(again), body)))
}

func repeatedPrimitive(k *kit) {
	sq, q := k.qubit("q")
	pat, _ := k.BindPat("i", fir.Int)
	loop := k.For(pat, k.Range(k.Int(1), k.Int(8)), k.Block(k.apply(k.h, q)))
	k.entry(sq, k.Semi(loop), k.Expr(k.measure(q)))
}

func recursion(k *kit) {
	fib, fp := k.Callable("Fib", fir.Function, fir.Int, fir.P("n", fir.Int))
	n := fp[0]
	k.SetBody(fib, k.Block(k.Expr(k.If(
		k.Bin(fir.BinLt, k.Var(n), k.Int(2)),
		k.Var(n),
		k.Bin(fir.BinAdd,
			k.Call(fib, k.Bin(fir.BinSub, k.Var(n), k.Int(1))),
			k.Call(fib, k.Bin(fir.BinSub, k.Var(n), k.Int(2)))),
	))))

	applyN, ap := k.Callable("ApplyN", fir.Operation, fir.Unit, fir.P("q", fir.Qubit), fir.P("n", fir.Int))
	q, count := ap[0], ap[1]
	k.SetBody(applyN, k.Block(k.Semi(k.If(
		k.Bin(fir.BinGt, k.Var(count), k.Int(0)),
		k.Do(
			k.apply(k.x, q),
			k.Semi(k.Call(applyN, k.Var(q), k.Bin(fir.BinSub, k.Var(count), k.Int(1)))),
		),
		fir.NoExprID,
	))))

	sq, target := k.qubit("target")
	sn, times := k.Let("times", k.Call(fib, k.Int(5)))
	k.entry(sq, sn,
		k.Semi(k.Call(applyN, k.Var(target), k.Var(times))),
		k.Semi(k.Call(k.release, k.Var(target))),
		k.Expr(k.Var(times)),
	)
}
