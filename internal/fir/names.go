package fir

// Qubit management intrinsics.
const (
	QubitAllocateName   = "__quantum__rt__qubit_allocate"
	QubitReleaseName    = "__quantum__rt__qubit_release"
	QubitSwapLabelsName = "__quantum__rt__qubit_swap_labels"
)

// Measurement and reset intrinsics.
const (
	MeasureName       = "__quantum__qis__m__body"
	MeasureResetZName = "__quantum__qis__mresetz__body"
	ResetName         = "__quantum__qis__reset__body"
)

// Classical builtins evaluated by the interpreter.
const (
	IntAsDoubleName = "IntAsDouble"
	TruncateName    = "Truncate"
	SqrtName        = "Sqrt"
	AbsIName        = "AbsI"
	AbsDName        = "AbsD"
	LengthName      = "Length"
	MessageName     = "Message"
)

// Bookkeeping intrinsics with fixed classical results.
const (
	BeginEstimateCachingName         = "BeginEstimateCaching"
	EndEstimateCachingName           = "EndEstimateCaching"
	GlobalPhaseName                  = "GlobalPhase"
	AccountForEstimatesInternalName  = "AccountForEstimatesInternal"
	BeginRepeatEstimatesInternalName = "BeginRepeatEstimatesInternal"
	EndRepeatEstimatesInternalName   = "EndRepeatEstimatesInternal"
	DumpMachineName                  = "DumpMachine"
	CheckZeroName                    = "CheckZero"
)
