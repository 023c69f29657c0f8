package eval

import (
	"math"

	"quill/internal/diag"
	"quill/internal/fir"
	"quill/internal/source"
)

type builtinFunc func(in *Interpreter, args []Value) (Value, error)

var builtins = map[string]builtinFunc{
	fir.IntAsDoubleName: func(_ *Interpreter, args []Value) (Value, error) {
		return Double(float64(args[0].Int)), nil
	},
	fir.TruncateName: func(_ *Interpreter, args []Value) (Value, error) {
		d := math.Trunc(args[0].Double)
		if math.IsNaN(d) || d < math.MinInt64 || d >= math.MaxInt64 {
			return Value{}, errorf(diag.EvalIntegerOverflow, source.Span{}, "cannot truncate %g to an integer", args[0].Double)
		}
		return Int(int64(d)), nil
	},
	fir.SqrtName: func(_ *Interpreter, args []Value) (Value, error) {
		return Double(math.Sqrt(args[0].Double)), nil
	},
	fir.AbsIName: func(_ *Interpreter, args []Value) (Value, error) {
		v := args[0].Int
		if v == math.MinInt64 {
			return Value{}, errorf(diag.EvalIntegerOverflow, source.Span{}, "integer overflow in AbsI(%d)", v)
		}
		if v < 0 {
			v = -v
		}
		return Int(v), nil
	},
	fir.AbsDName: func(_ *Interpreter, args []Value) (Value, error) {
		return Double(math.Abs(args[0].Double)), nil
	},
	fir.LengthName: func(_ *Interpreter, args []Value) (Value, error) {
		if args[0].Kind != VKArray {
			return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "Length expects an array, got %s", args[0].Kind)
		}
		return Int(int64(len(args[0].Elems))), nil
	},
	fir.MessageName: func(in *Interpreter, args []Value) (Value, error) {
		if in.opts.OnMessage != nil {
			in.opts.OnMessage(args[0].Str)
		}
		return Unit(), nil
	},
}

// IsBuiltin reports whether name is evaluated by the interpreter itself.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// CallBuiltin evaluates a classical builtin on classical arguments.
func (in *Interpreter) CallBuiltin(name string, args []Value) (Value, error) {
	fn, ok := builtins[name]
	if !ok {
		return Value{}, errorf(diag.EvalUnknownIntrinsic, source.Span{}, "unknown builtin %s", name)
	}
	if len(args) != 1 {
		return Value{}, errorf(diag.EvalTypeMismatch, source.Span{}, "%s expects 1 argument, got %d", name, len(args))
	}
	if err := dynamicOperand(args...); err != nil {
		return Value{}, err
	}
	return fn(in, args)
}
