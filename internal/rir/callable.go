package rir

import "slices"

// CallableType classifies a callable for the backend.
type CallableType uint8

const (
	CallRegular CallableType = iota
	CallMeasurement
	CallReset
	CallReadout
	CallOutputRecording
)

func (c CallableType) String() string {
	switch c {
	case CallRegular:
		return "Regular"
	case CallMeasurement:
		return "Measurement"
	case CallReset:
		return "Reset"
	case CallReadout:
		return "Readout"
	case CallOutputRecording:
		return "OutputRecording"
	}
	return "?"
}

// Callable describes a call target. Primitives have Body == NoBlockID.
type Callable struct {
	Name     string       `msgpack:"name"`
	Input    []Ty         `msgpack:"input"`
	Output   Ty           `msgpack:"output"`
	Body     BlockID      `msgpack:"body"`
	CallType CallableType `msgpack:"call_type"`
}

// HasBody reports whether the callable is realized by a block.
func (c *Callable) HasBody() bool {
	return c.Body != NoBlockID
}

// SameSignature reports whether c and other agree on everything except the
// body.
func (c *Callable) SameSignature(other *Callable) bool {
	return c.Name == other.Name &&
		c.Output == other.Output &&
		c.CallType == other.CallType &&
		slices.Equal(c.Input, other.Input)
}

// Primitive returns a body-less callable declaration.
func Primitive(name string, callType CallableType, output Ty, input ...Ty) Callable {
	return Callable{Name: name, Input: input, Output: output, Body: NoBlockID, CallType: callType}
}

const (
	ReadResultName         = "__quantum__rt__read_result"
	ResultRecordOutputName = "__quantum__rt__result_record_output"
	BoolRecordOutputName   = "__quantum__rt__bool_record_output"
	IntRecordOutputName    = "__quantum__rt__int_record_output"
	DoubleRecordOutputName = "__quantum__rt__double_record_output"
	TupleRecordOutputName  = "__quantum__rt__tuple_record_output"
	ArrayRecordOutputName  = "__quantum__rt__array_record_output"
)

// ReadResult converts a result register to a Boolean.
func ReadResult() Callable {
	return Primitive(ReadResultName, CallReadout, TyBoolean, TyResult)
}

// RecordOutput returns the recording helper for a value of type ty.
// Tuples and arrays use TupleRecordOutput and ArrayRecordOutput instead.
func RecordOutput(ty Ty) (Callable, bool) {
	switch ty {
	case TyResult:
		return Primitive(ResultRecordOutputName, CallOutputRecording, TyVoid, TyResult, TyPointer), true
	case TyBoolean:
		return Primitive(BoolRecordOutputName, CallOutputRecording, TyVoid, TyBoolean, TyPointer), true
	case TyInteger:
		return Primitive(IntRecordOutputName, CallOutputRecording, TyVoid, TyInteger, TyPointer), true
	case TyDouble:
		return Primitive(DoubleRecordOutputName, CallOutputRecording, TyVoid, TyDouble, TyPointer), true
	}
	return Callable{}, false
}

func TupleRecordOutput() Callable {
	return Primitive(TupleRecordOutputName, CallOutputRecording, TyVoid, TyInteger, TyPointer)
}

func ArrayRecordOutput() Callable {
	return Primitive(ArrayRecordOutputName, CallOutputRecording, TyVoid, TyInteger, TyPointer)
}
