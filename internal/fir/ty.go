package fir

import "strings"

type TyKind uint8

const (
	TyUnit TyKind = iota
	TyBool
	TyInt
	TyDouble
	TyQubit
	TyResult
	TyString
	TyRange
	TyTuple
	TyArray
)

// Ty is a resolved type. Tuple elements and the array element live in
// Elems; a tuple with no elements is Unit.
type Ty struct {
	Kind  TyKind `msgpack:"k"`
	Elems []Ty   `msgpack:"e,omitempty"`
}

var (
	Unit   = Ty{Kind: TyUnit}
	Bool   = Ty{Kind: TyBool}
	Int    = Ty{Kind: TyInt}
	Double = Ty{Kind: TyDouble}
	Qubit  = Ty{Kind: TyQubit}
	Result = Ty{Kind: TyResult}
	String = Ty{Kind: TyString}
	Range  = Ty{Kind: TyRange}
)

// TupleOf builds a tuple type. No elements yields Unit.
func TupleOf(elems ...Ty) Ty {
	if len(elems) == 0 {
		return Unit
	}
	return Ty{Kind: TyTuple, Elems: elems}
}

func ArrayOf(elem Ty) Ty {
	return Ty{Kind: TyArray, Elems: []Ty{elem}}
}

// Elem returns the element type of an array.
func (t Ty) Elem() Ty {
	if t.Kind != TyArray || len(t.Elems) == 0 {
		return Unit
	}
	return t.Elems[0]
}

func (t Ty) IsUnit() bool { return t.Kind == TyUnit }

func (t Ty) Equal(o Ty) bool {
	if t.Kind != o.Kind || len(t.Elems) != len(o.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

func (t Ty) String() string {
	switch t.Kind {
	case TyUnit:
		return "Unit"
	case TyBool:
		return "Bool"
	case TyInt:
		return "Int"
	case TyDouble:
		return "Double"
	case TyQubit:
		return "Qubit"
	case TyResult:
		return "Result"
	case TyString:
		return "String"
	case TyRange:
		return "Range"
	case TyTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TyArray:
		return t.Elem().String() + "[]"
	}
	return "?"
}
