// Package eval implements the classical interpreter used for the parts of a
// program whose values are known at compile time.
package eval

import (
	"fmt"
	"strconv"
	"strings"

	"quill/internal/fir"
	"quill/internal/rir"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	VKInvalid ValueKind = iota
	VKUnit
	VKBool
	VKInt
	VKDouble
	VKString
	// VKResult is a measurement result: either a literal Zero/One or a
	// result register whose value is only known at run time.
	VKResult
	// VKQubit is a logical qubit identity.
	VKQubit
	VKRange
	VKTuple
	VKArray
	VKCallable
	// VKVar is an instruction-graph variable holding a run-time value.
	VKVar
)

func (k ValueKind) String() string {
	switch k {
	case VKUnit:
		return "unit"
	case VKBool:
		return "bool"
	case VKInt:
		return "int"
	case VKDouble:
		return "double"
	case VKString:
		return "string"
	case VKResult:
		return "result"
	case VKQubit:
		return "qubit"
	case VKRange:
		return "range"
	case VKTuple:
		return "tuple"
	case VKArray:
		return "array"
	case VKCallable:
		return "callable"
	case VKVar:
		return "var"
	}
	return "invalid"
}

// QubitID is a logical qubit identity handed out by the backend.
type QubitID uint32

// Result is a literal outcome or a register reference.
type Result struct {
	Register bool
	Index    uint32 // register index when Register
	One      bool   // literal value when !Register
}

// RangeValue is an inclusive integer range.
type RangeValue struct {
	Start, Step, End int64
}

// Value is a tagged runtime value; only the field for Kind is meaningful.
type Value struct {
	Kind     ValueKind
	Bool     bool
	Int      int64
	Double   float64
	Str      string
	Result   Result
	Qubit    QubitID
	Range    RangeValue
	Elems    []Value
	Callable fir.GlobalItemID
	Var      rir.Variable
}

func Unit() Value                               { return Value{Kind: VKUnit} }
func Bool(v bool) Value                         { return Value{Kind: VKBool, Bool: v} }
func Int(v int64) Value                         { return Value{Kind: VKInt, Int: v} }
func Double(v float64) Value                    { return Value{Kind: VKDouble, Double: v} }
func String(v string) Value                     { return Value{Kind: VKString, Str: v} }
func ResultLiteral(one bool) Value              { return Value{Kind: VKResult, Result: Result{One: one}} }
func ResultRegister(idx uint32) Value           { return Value{Kind: VKResult, Result: Result{Register: true, Index: idx}} }
func Qubit(id QubitID) Value                    { return Value{Kind: VKQubit, Qubit: id} }
func Range(start, step, end int64) Value        { return Value{Kind: VKRange, Range: RangeValue{start, step, end}} }
func Array(elems []Value) Value                 { return Value{Kind: VKArray, Elems: elems} }
func CallableValue(id fir.GlobalItemID) Value   { return Value{Kind: VKCallable, Callable: id} }
func Var(v rir.Variable) Value                  { return Value{Kind: VKVar, Var: v} }

// Tuple builds a tuple value; no elements yields Unit.
func Tuple(elems ...Value) Value {
	if len(elems) == 0 {
		return Unit()
	}
	return Value{Kind: VKTuple, Elems: elems}
}

// IsDynamic reports whether v or any value nested in it is only known at
// run time.
func (v Value) IsDynamic() bool {
	switch v.Kind {
	case VKVar:
		return true
	case VKTuple, VKArray:
		for _, el := range v.Elems {
			if el.IsDynamic() {
				return true
			}
		}
	}
	return false
}

// Equal compares two classical values structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case VKUnit:
		return true
	case VKBool:
		return v.Bool == o.Bool
	case VKInt:
		return v.Int == o.Int
	case VKDouble:
		return v.Double == o.Double
	case VKString:
		return v.Str == o.Str
	case VKResult:
		return v.Result == o.Result
	case VKQubit:
		return v.Qubit == o.Qubit
	case VKRange:
		return v.Range == o.Range
	case VKCallable:
		return v.Callable == o.Callable
	case VKVar:
		return v.Var == o.Var
	case VKTuple, VKArray:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case VKUnit:
		return "()"
	case VKBool:
		return strconv.FormatBool(v.Bool)
	case VKInt:
		return strconv.FormatInt(v.Int, 10)
	case VKDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case VKString:
		return strconv.Quote(v.Str)
	case VKResult:
		if v.Result.Register {
			return fmt.Sprintf("Result(%d)", v.Result.Index)
		}
		if v.Result.One {
			return "One"
		}
		return "Zero"
	case VKQubit:
		return fmt.Sprintf("Qubit(%d)", v.Qubit)
	case VKRange:
		return fmt.Sprintf("%d..%d..%d", v.Range.Start, v.Range.Step, v.Range.End)
	case VKTuple, VKArray:
		parts := make([]string, len(v.Elems))
		for i, el := range v.Elems {
			parts[i] = el.String()
		}
		if v.Kind == VKTuple {
			return "(" + strings.Join(parts, ", ") + ")"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case VKCallable:
		return fmt.Sprintf("Callable(%d:%d)", v.Callable.Package, v.Callable.Item)
	case VKVar:
		return v.Var.String()
	}
	return "<invalid>"
}

// Values expands the range into its elements, at most limit of them.
func (r RangeValue) Values(limit int) ([]int64, bool) {
	if r.Step == 0 {
		return nil, false
	}
	var out []int64
	for i := r.Start; (r.Step > 0 && i <= r.End) || (r.Step < 0 && i >= r.End); i += r.Step {
		if len(out) >= limit {
			return out, false
		}
		out = append(out, i)
		if (r.Step > 0 && i > r.End-r.Step) || (r.Step < 0 && i < r.End-r.Step) {
			break
		}
	}
	return out, true
}
