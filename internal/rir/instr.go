package rir

// InstrKind enumerates the non-terminator instructions.
type InstrKind uint8

const (
	// InstrStore copies an operand into a variable.
	InstrStore InstrKind = iota + 1
	// InstrCall invokes a callable, optionally binding its output.
	InstrCall

	// Integer arithmetic.
	InstrAdd
	InstrSub
	InstrMul
	InstrSdiv
	InstrSrem
	InstrShl
	InstrAshr

	// Floating-point arithmetic.
	InstrFadd
	InstrFsub
	InstrFmul
	InstrFdiv

	// Comparisons producing a Boolean.
	InstrIcmp
	InstrFcmp

	// Boolean logic.
	InstrLogicalNot
	InstrLogicalAnd
	InstrLogicalOr

	// Integer bitwise logic.
	InstrBitwiseNot
	InstrBitwiseAnd
	InstrBitwiseOr
	InstrBitwiseXor
)

var instrNames = [...]string{
	InstrStore:      "Store",
	InstrCall:       "Call",
	InstrAdd:        "Add",
	InstrSub:        "Sub",
	InstrMul:        "Mul",
	InstrSdiv:       "Sdiv",
	InstrSrem:       "Srem",
	InstrShl:        "Shl",
	InstrAshr:       "Ashr",
	InstrFadd:       "Fadd",
	InstrFsub:       "Fsub",
	InstrFmul:       "Fmul",
	InstrFdiv:       "Fdiv",
	InstrIcmp:       "Icmp",
	InstrFcmp:       "Fcmp",
	InstrLogicalNot: "LogicalNot",
	InstrLogicalAnd: "LogicalAnd",
	InstrLogicalOr:  "LogicalOr",
	InstrBitwiseNot: "BitwiseNot",
	InstrBitwiseAnd: "BitwiseAnd",
	InstrBitwiseOr:  "BitwiseOr",
	InstrBitwiseXor: "BitwiseXor",
}

func (k InstrKind) String() string {
	if int(k) < len(instrNames) && instrNames[k] != "" {
		return instrNames[k]
	}
	return "Unknown"
}

// IsBinary reports whether k takes two operands and defines one variable.
func (k InstrKind) IsBinary() bool {
	switch k {
	case InstrAdd, InstrSub, InstrMul, InstrSdiv, InstrSrem, InstrShl, InstrAshr,
		InstrFadd, InstrFsub, InstrFmul, InstrFdiv,
		InstrLogicalAnd, InstrLogicalOr,
		InstrBitwiseAnd, InstrBitwiseOr, InstrBitwiseXor:
		return true
	}
	return false
}

// IsUnary reports whether k takes one operand and defines one variable.
func (k InstrKind) IsUnary() bool {
	return k == InstrLogicalNot || k == InstrBitwiseNot
}

// ConditionCode is the predicate of an integer comparison.
type ConditionCode uint8

const (
	CondEq ConditionCode = iota + 1
	CondNe
	CondSlt
	CondSle
	CondSgt
	CondSge
)

func (c ConditionCode) String() string {
	switch c {
	case CondEq:
		return "Eq"
	case CondNe:
		return "Ne"
	case CondSlt:
		return "Slt"
	case CondSle:
		return "Sle"
	case CondSgt:
		return "Sgt"
	case CondSge:
		return "Sge"
	}
	return "?"
}

// FcmpCondition is the predicate of an ordered floating-point comparison.
type FcmpCondition uint8

const (
	FcmpOeq FcmpCondition = iota + 1
	FcmpOne
	FcmpOlt
	FcmpOle
	FcmpOgt
	FcmpOge
)

func (c FcmpCondition) String() string {
	switch c {
	case FcmpOeq:
		return "OrderedAndEqual"
	case FcmpOne:
		return "OrderedAndNotEqual"
	case FcmpOlt:
		return "OrderedAndLessThan"
	case FcmpOle:
		return "OrderedAndLessThanOrEqual"
	case FcmpOgt:
		return "OrderedAndGreaterThan"
	case FcmpOge:
		return "OrderedAndGreaterThanOrEqual"
	}
	return "?"
}

// StoreInstr assigns Src to Dst.
type StoreInstr struct {
	Src Operand  `msgpack:"src"`
	Dst Variable `msgpack:"dst"`
}

// CallInstr calls Callee with Args. Dst is nil for a void callee.
type CallInstr struct {
	Callee CallableID `msgpack:"callee"`
	Args   []Operand  `msgpack:"args"`
	Dst    *Variable  `msgpack:"dst,omitempty"`
}

// BinaryInstr computes Dst = LHS op RHS.
type BinaryInstr struct {
	LHS Operand  `msgpack:"lhs"`
	RHS Operand  `msgpack:"rhs"`
	Dst Variable `msgpack:"dst"`
}

// UnaryInstr computes Dst = op Arg.
type UnaryInstr struct {
	Arg Operand  `msgpack:"arg"`
	Dst Variable `msgpack:"dst"`
}

// CmpInstr computes Dst = LHS cond RHS. Icmp uses Cond, Fcmp uses FCond.
type CmpInstr struct {
	Cond  ConditionCode `msgpack:"cond,omitempty"`
	FCond FcmpCondition `msgpack:"fcond,omitempty"`
	LHS   Operand       `msgpack:"lhs"`
	RHS   Operand       `msgpack:"rhs"`
	Dst   Variable      `msgpack:"dst"`
}

// Instr is a tagged instruction; only the payload matching Kind is set.
type Instr struct {
	Kind   InstrKind    `msgpack:"kind"`
	Store  *StoreInstr  `msgpack:"store,omitempty"`
	Call   *CallInstr   `msgpack:"call,omitempty"`
	Binary *BinaryInstr `msgpack:"bin,omitempty"`
	Unary  *UnaryInstr  `msgpack:"un,omitempty"`
	Cmp    *CmpInstr    `msgpack:"cmp,omitempty"`
}

func NewStore(src Operand, dst Variable) Instr {
	return Instr{Kind: InstrStore, Store: &StoreInstr{Src: src, Dst: dst}}
}

func NewCall(callee CallableID, args []Operand, dst *Variable) Instr {
	return Instr{Kind: InstrCall, Call: &CallInstr{Callee: callee, Args: args, Dst: dst}}
}

// NewBinary panics if kind is not a binary instruction.
func NewBinary(kind InstrKind, lhs, rhs Operand, dst Variable) Instr {
	if !kind.IsBinary() {
		panic("rir: " + kind.String() + " is not a binary instruction")
	}
	return Instr{Kind: kind, Binary: &BinaryInstr{LHS: lhs, RHS: rhs, Dst: dst}}
}

// NewUnary panics if kind is not a unary instruction.
func NewUnary(kind InstrKind, arg Operand, dst Variable) Instr {
	if !kind.IsUnary() {
		panic("rir: " + kind.String() + " is not a unary instruction")
	}
	return Instr{Kind: kind, Unary: &UnaryInstr{Arg: arg, Dst: dst}}
}

func NewIcmp(cond ConditionCode, lhs, rhs Operand, dst Variable) Instr {
	return Instr{Kind: InstrIcmp, Cmp: &CmpInstr{Cond: cond, LHS: lhs, RHS: rhs, Dst: dst}}
}

func NewFcmp(cond FcmpCondition, lhs, rhs Operand, dst Variable) Instr {
	return Instr{Kind: InstrFcmp, Cmp: &CmpInstr{FCond: cond, LHS: lhs, RHS: rhs, Dst: dst}}
}

// Def returns the variable assigned by the instruction, if any.
func (in *Instr) Def() (Variable, bool) {
	switch {
	case in.Store != nil:
		return in.Store.Dst, true
	case in.Call != nil:
		if in.Call.Dst != nil {
			return *in.Call.Dst, true
		}
		return Variable{}, false
	case in.Binary != nil:
		return in.Binary.Dst, true
	case in.Unary != nil:
		return in.Unary.Dst, true
	case in.Cmp != nil:
		return in.Cmp.Dst, true
	}
	return Variable{}, false
}

// Uses returns the operands read by the instruction in order.
func (in *Instr) Uses() []Operand {
	switch {
	case in.Store != nil:
		return []Operand{in.Store.Src}
	case in.Call != nil:
		return in.Call.Args
	case in.Binary != nil:
		return []Operand{in.Binary.LHS, in.Binary.RHS}
	case in.Unary != nil:
		return []Operand{in.Unary.Arg}
	case in.Cmp != nil:
		return []Operand{in.Cmp.LHS, in.Cmp.RHS}
	}
	return nil
}
