// Package rir models the instruction graph produced by partial evaluation:
// a program made of callables and basic blocks over typed, single-assignment
// classical variables. Qubits and results appear only as literal slot
// indices.
package rir

type (
	// BlockID identifies a block inside a Program.
	BlockID int32
	// CallableID identifies a callable inside a Program.
	CallableID int32
	// VariableID identifies a classical variable inside a Program.
	VariableID int32
)

const (
	NoBlockID    BlockID    = -1
	NoCallableID CallableID = -1
)

// Ty is the type of an operand. The zero value TyVoid marks a callable
// without output.
type Ty uint8

const (
	TyVoid Ty = iota
	TyQubit
	TyResult
	TyBoolean
	TyInteger
	TyDouble
	TyPointer
)

func (t Ty) String() string {
	switch t {
	case TyVoid:
		return "<VOID>"
	case TyQubit:
		return "Qubit"
	case TyResult:
		return "Result"
	case TyBoolean:
		return "Boolean"
	case TyInteger:
		return "Integer"
	case TyDouble:
		return "Double"
	case TyPointer:
		return "Pointer"
	default:
		return "?"
	}
}

// IsClassical reports whether values of t can live in a Variable.
func (t Ty) IsClassical() bool {
	return t == TyBoolean || t == TyInteger || t == TyDouble
}
