package fir

import "quill/internal/source"

type CallableKind uint8

const (
	// Function callables are classical and may not touch qubits.
	Function CallableKind = iota + 1
	// Operation callables may apply quantum operations.
	Operation
)

func (k CallableKind) String() string {
	switch k {
	case Function:
		return "function"
	case Operation:
		return "operation"
	}
	return "?"
}

// CallableAttr marks intrinsics with a special backend role.
type CallableAttr uint8

const (
	AttrMeasurement CallableAttr = 1 << iota
	AttrReset
)

func (a CallableAttr) Has(flag CallableAttr) bool { return a&flag != 0 }

// Callable is a resolved callable item. Intrinsics have no Body.
type Callable struct {
	ID     ItemID       `msgpack:"id"`
	Name   string       `msgpack:"name"`
	Kind   CallableKind `msgpack:"kind"`
	Params []PatID      `msgpack:"params"`
	Output Ty           `msgpack:"output"`
	Body   BlockID      `msgpack:"body,omitempty"`
	Attrs  CallableAttr `msgpack:"attrs,omitempty"`
	Span   source.Span  `msgpack:"span"`
}

// IsIntrinsic reports whether the callable is realized outside the program.
func (c *Callable) IsIntrinsic() bool { return !c.Body.IsValid() }

// Local describes one local variable of a package.
type Local struct {
	ID      LocalVarID `msgpack:"id"`
	Name    string     `msgpack:"name"`
	Ty      Ty         `msgpack:"ty"`
	Mutable bool       `msgpack:"mutable,omitempty"`
}
