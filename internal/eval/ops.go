package eval

import (
	"math"

	"quill/internal/diag"
	"quill/internal/fir"
	"quill/internal/source"
)

// dynamicOperand reports the first run-time-only operand.
func dynamicOperand(vals ...Value) *Error {
	for _, v := range vals {
		if v.IsDynamic() || (v.Kind == VKResult && v.Result.Register) {
			return errorf(diag.UnsDynamicValue, source.Span{}, "operand %s is only known at run time", v)
		}
	}
	return nil
}

// UnOp applies a unary operator to a classical value.
func UnOp(op fir.UnOp, v Value) (Value, error) {
	if err := dynamicOperand(v); err != nil {
		return Value{}, err
	}
	switch {
	case op == fir.UnNeg && v.Kind == VKInt:
		if v.Int == math.MinInt64 {
			return Value{}, errorf(diag.EvalIntegerOverflow, source.Span{}, "integer overflow negating %d", v.Int)
		}
		return Int(-v.Int), nil
	case op == fir.UnNeg && v.Kind == VKDouble:
		return Double(-v.Double), nil
	case op == fir.UnNotL && v.Kind == VKBool:
		return Bool(!v.Bool), nil
	case op == fir.UnNotB && v.Kind == VKInt:
		return Int(^v.Int), nil
	}
	return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "operator %s does not apply to %s", op, v.Kind)
}

// BinOp applies a non-short-circuiting binary operator to classical values.
func BinOp(op fir.BinOp, lhs, rhs Value) (Value, error) {
	if op == fir.BinEq || op == fir.BinNe {
		if err := dynamicOperand(lhs, rhs); err != nil {
			return Value{}, err
		}
		eq := lhs.Equal(rhs)
		if op == fir.BinNe {
			eq = !eq
		}
		return Bool(eq), nil
	}
	if err := dynamicOperand(lhs, rhs); err != nil {
		return Value{}, err
	}
	if lhs.Kind != rhs.Kind {
		return Value{}, mismatch(op, lhs, rhs)
	}
	switch lhs.Kind {
	case VKInt:
		return intBinOp(op, lhs.Int, rhs.Int)
	case VKDouble:
		return doubleBinOp(op, lhs.Double, rhs.Double)
	case VKBool:
		switch op {
		case fir.BinAndL:
			return Bool(lhs.Bool && rhs.Bool), nil
		case fir.BinOrL:
			return Bool(lhs.Bool || rhs.Bool), nil
		}
	case VKString:
		switch op {
		case fir.BinAdd:
			return String(lhs.Str + rhs.Str), nil
		case fir.BinLt:
			return Bool(lhs.Str < rhs.Str), nil
		}
	case VKArray:
		if op == fir.BinAdd {
			elems := make([]Value, 0, len(lhs.Elems)+len(rhs.Elems))
			elems = append(elems, lhs.Elems...)
			return Array(append(elems, rhs.Elems...)), nil
		}
	}
	return Value{}, mismatch(op, lhs, rhs)
}

func mismatch(op fir.BinOp, lhs, rhs Value) *Error {
	return errorf(diag.EvalTypeMismatch, source.Span{}, "operator %s does not apply to %s and %s", op, lhs.Kind, rhs.Kind)
}

func overflow(op fir.BinOp, a, b int64) *Error {
	return errorf(diag.EvalIntegerOverflow, source.Span{}, "integer overflow in %d %s %d", a, op, b)
}

func intBinOp(op fir.BinOp, a, b int64) (Value, error) {
	var (
		r  int64
		ok = true
	)
	switch op {
	case fir.BinAdd:
		r, ok = AddInt64Checked(a, b)
	case fir.BinSub:
		r, ok = SubInt64Checked(a, b)
	case fir.BinMul:
		r, ok = MulInt64Checked(a, b)
	case fir.BinDiv, fir.BinMod:
		if b == 0 {
			return Value{}, errorf(diag.EvalDivisionByZero, source.Span{}, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			if op == fir.BinMod {
				return Int(0), nil
			}
			return Value{}, overflow(op, a, b)
		}
		if op == fir.BinDiv {
			r = a / b
		} else {
			r = a % b
		}
	case fir.BinExp:
		if b < 0 {
			return Value{}, errorf(diag.EvalInvalidRange, source.Span{}, "negative exponent %d", b)
		}
		r, ok = PowInt64Checked(a, b)
	case fir.BinShl, fir.BinShr:
		if b < 0 {
			return Value{}, errorf(diag.EvalNegativeShift, source.Span{}, "negative shift amount %d", b)
		}
		if op == fir.BinShl {
			r = a << uint64(b)
		} else {
			r = a >> uint64(b)
		}
	case fir.BinAndB:
		r = a & b
	case fir.BinOrB:
		r = a | b
	case fir.BinXorB:
		r = a ^ b
	case fir.BinLt:
		return Bool(a < b), nil
	case fir.BinLe:
		return Bool(a <= b), nil
	case fir.BinGt:
		return Bool(a > b), nil
	case fir.BinGe:
		return Bool(a >= b), nil
	default:
		return Value{}, mismatch(op, Int(a), Int(b))
	}
	if !ok {
		return Value{}, overflow(op, a, b)
	}
	return Int(r), nil
}

func doubleBinOp(op fir.BinOp, a, b float64) (Value, error) {
	switch op {
	case fir.BinAdd:
		return Double(a + b), nil
	case fir.BinSub:
		return Double(a - b), nil
	case fir.BinMul:
		return Double(a * b), nil
	case fir.BinDiv:
		return Double(a / b), nil
	case fir.BinMod:
		return Double(math.Mod(a, b)), nil
	case fir.BinExp:
		return Double(math.Pow(a, b)), nil
	case fir.BinLt:
		return Bool(a < b), nil
	case fir.BinLe:
		return Bool(a <= b), nil
	case fir.BinGt:
		return Bool(a > b), nil
	case fir.BinGe:
		return Bool(a >= b), nil
	}
	return Value{}, mismatch(op, Double(a), Double(b))
}

// Index reads array[index] where index is an Int or a Range.
func Index(array, index Value) (Value, error) {
	if err := dynamicOperand(index); err != nil {
		return Value{}, err
	}
	if array.Kind != VKArray {
		return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "cannot index %s", array.Kind)
	}
	switch index.Kind {
	case VKInt:
		if index.Int < 0 || index.Int >= int64(len(array.Elems)) {
			return Value{}, errorf(diag.EvalIndexOutOfRange, source.Span{}, "index %d out of range for length %d", index.Int, len(array.Elems))
		}
		return array.Elems[index.Int], nil
	case VKRange:
		idxs, ok := index.Range.Values(len(array.Elems) + 1)
		if !ok {
			return Value{}, errorf(diag.EvalInvalidRange, source.Span{}, "invalid slice range %s", index)
		}
		out := make([]Value, 0, len(idxs))
		for _, i := range idxs {
			if i < 0 || i >= int64(len(array.Elems)) {
				return Value{}, errorf(diag.EvalIndexOutOfRange, source.Span{}, "index %d out of range for length %d", i, len(array.Elems))
			}
			out = append(out, array.Elems[i])
		}
		return Array(out), nil
	}
	return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "cannot index with %s", index.Kind)
}
