package eval

// Backend executes the intrinsics the interpreter cannot evaluate itself.
// Classical builtins never reach it.
type Backend interface {
	AllocateQubit() (QubitID, error)
	ReleaseQubit(q QubitID) error
	// Apply runs a quantum intrinsic such as a gate or a measurement.
	Apply(name string, args []Value) (Value, error)
	// CustomIntrinsic handles an intrinsic by name. ok is false when the
	// backend does not know name.
	CustomIntrinsic(name string, args []Value) (v Value, ok bool, err error)
}
