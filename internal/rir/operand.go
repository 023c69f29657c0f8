package rir

import (
	"fmt"
	"strconv"
)

// LiteralKind selects the payload of a Literal.
type LiteralKind uint8

const (
	LitQubit LiteralKind = iota + 1
	LitResult
	LitBool
	LitInteger
	LitDouble
	LitPointer
)

// Literal is an immediate operand.
type Literal struct {
	Kind   LiteralKind `msgpack:"k"`
	Index  uint32      `msgpack:"i,omitempty"` // qubit or result slot
	Bool   bool        `msgpack:"b,omitempty"`
	Int    int64       `msgpack:"n,omitempty"`
	Double float64     `msgpack:"d,omitempty"`
}

func QubitLit(slot uint32) Literal { return Literal{Kind: LitQubit, Index: slot} }
func ResultLit(reg uint32) Literal { return Literal{Kind: LitResult, Index: reg} }
func BoolLit(v bool) Literal { return Literal{Kind: LitBool, Bool: v} }
func IntLit(v int64) Literal { return Literal{Kind: LitInteger, Int: v} }
func DoubleLit(v float64) Literal { return Literal{Kind: LitDouble, Double: v} }
func PointerLit() Literal { return Literal{Kind: LitPointer} }

func (l Literal) Ty() Ty {
	switch l.Kind {
	case LitQubit:
		return TyQubit
	case LitResult:
		return TyResult
	case LitBool:
		return TyBoolean
	case LitInteger:
		return TyInteger
	case LitDouble:
		return TyDouble
	case LitPointer:
		return TyPointer
	default:
		return TyVoid
	}
}

func (l Literal) String() string {
	switch l.Kind {
	case LitQubit:
		return fmt.Sprintf("Qubit(%d)", l.Index)
	case LitResult:
		return fmt.Sprintf("Result(%d)", l.Index)
	case LitBool:
		return fmt.Sprintf("Bool(%t)", l.Bool)
	case LitInteger:
		return fmt.Sprintf("Integer(%d)", l.Int)
	case LitDouble:
		return "Double(" + strconv.FormatFloat(l.Double, 'g', -1, 64) + ")"
	case LitPointer:
		return "Pointer"
	default:
		return "<invalid literal>"
	}
}

// Variable is a typed classical variable.
type Variable struct {
	ID VariableID `msgpack:"id"`
	Ty Ty         `msgpack:"ty"`
}

func (v Variable) String() string {
	return fmt.Sprintf("Variable(%d, %s)", v.ID, v.Ty)
}

// OperandKind distinguishes literals from variables.
type OperandKind uint8

const (
	OperandLiteral OperandKind = iota + 1
	OperandVariable
)

// Operand is an instruction input.
type Operand struct {
	Kind OperandKind `msgpack:"k"`
	Lit  Literal     `msgpack:"l,omitempty"`
	Var  Variable    `msgpack:"v,omitempty"`
}

func LitOperand(l Literal) Operand { return Operand{Kind: OperandLiteral, Lit: l} }
func VarOperand(v Variable) Operand { return Operand{Kind: OperandVariable, Var: v} }

func (o Operand) Ty() Ty {
	if o.Kind == OperandVariable {
		return o.Var.Ty
	}
	return o.Lit.Ty()
}

// IsVariable reports whether o reads a variable.
func (o Operand) IsVariable() bool { return o.Kind == OperandVariable }

func (o Operand) String() string {
	if o.Kind == OperandVariable {
		return o.Var.String()
	}
	return o.Lit.String()
}
