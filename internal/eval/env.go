package eval

import "quill/internal/fir"

// Binding is one local variable slot.
type Binding struct {
	Value   Value
	Mutable bool
}

// Env holds the locals of one callable activation. Local ids are unique
// within a package, so nested blocks share the activation's map.
type Env struct {
	locals map[fir.LocalVarID]*Binding
}

func NewEnv() *Env {
	return &Env{locals: make(map[fir.LocalVarID]*Binding)}
}

// Bind creates or replaces the binding of id.
func (e *Env) Bind(id fir.LocalVarID, v Value, mutable bool) {
	e.locals[id] = &Binding{Value: v, Mutable: mutable}
}

func (e *Env) Lookup(id fir.LocalVarID) (*Binding, bool) {
	b, ok := e.locals[id]
	return b, ok
}

// Len returns the number of bound locals.
func (e *Env) Len() int { return len(e.locals) }
