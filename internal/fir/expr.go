package fir

import (
	"quill/internal/source"
)

type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	// ExprLit is a literal value.
	ExprLit
	// ExprVar reads a local variable.
	ExprVar
	// ExprItem references a callable item.
	ExprItem
	// ExprTuple builds a tuple.
	ExprTuple
	// ExprArray builds an array from its elements.
	ExprArray
	// ExprArrayRepeat builds an array of Size copies of Value.
	ExprArrayRepeat
	// ExprIndex reads one array element.
	ExprIndex
	// ExprField reads one tuple element by position.
	ExprField
	// ExprRange builds start..step..end.
	ExprRange
	ExprUnOp
	ExprBinOp
	// ExprCall calls a callable with positional arguments.
	ExprCall
	// ExprIf selects between Then and the optional Else.
	ExprIf
	ExprWhile
	// ExprFor iterates an array or range binding Pat.
	ExprFor
	// ExprBlock evaluates a block; its value is the trailing expression.
	ExprBlock
	// ExprAssign updates a mutable local.
	ExprAssign
	// ExprAssignOp updates a mutable local with an operator.
	ExprAssignOp
	ExprReturn
	// ExprFail aborts the program with a message.
	ExprFail
)

var exprKindNames = [...]string{
	ExprInvalid:     "Invalid",
	ExprLit:         "Lit",
	ExprVar:         "Var",
	ExprItem:        "Item",
	ExprTuple:       "Tuple",
	ExprArray:       "Array",
	ExprArrayRepeat: "ArrayRepeat",
	ExprIndex:       "Index",
	ExprField:       "Field",
	ExprRange:       "Range",
	ExprUnOp:        "UnOp",
	ExprBinOp:       "BinOp",
	ExprCall:        "Call",
	ExprIf:          "If",
	ExprWhile:       "While",
	ExprFor:         "For",
	ExprBlock:       "Block",
	ExprAssign:      "Assign",
	ExprAssignOp:    "AssignOp",
	ExprReturn:      "Return",
	ExprFail:        "Fail",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Unknown"
}

type LitKind uint8

const (
	LitBool LitKind = iota + 1
	LitInt
	LitDouble
	LitResult
	LitString
)

// Lit is a literal. Result literals use One for One and !One for Zero.
type Lit struct {
	Kind   LitKind `msgpack:"k"`
	Bool   bool    `msgpack:"b,omitempty"`
	Int    int64   `msgpack:"i,omitempty"`
	Double float64 `msgpack:"d,omitempty"`
	One    bool    `msgpack:"one,omitempty"`
	Str    string  `msgpack:"s,omitempty"`
}

type UnOp uint8

const (
	UnNeg UnOp = iota + 1
	UnNotL
	UnNotB
)

func (op UnOp) String() string {
	switch op {
	case UnNeg:
		return "-"
	case UnNotL:
		return "not"
	case UnNotB:
		return "~~~"
	}
	return "?"
}

type BinOp uint8

const (
	BinAdd BinOp = iota + 1
	BinSub
	BinMul
	BinDiv
	BinMod
	BinExp
	BinShl
	BinShr
	BinAndL
	BinOrL
	BinAndB
	BinOrB
	BinXorB
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

var binOpNames = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%", BinExp: "^",
	BinShl: "<<<", BinShr: ">>>", BinAndL: "and", BinOrL: "or",
	BinAndB: "&&&", BinOrB: "|||", BinXorB: "^^^",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) && binOpNames[op] != "" {
		return binOpNames[op]
	}
	return "?"
}

// IsComparison reports whether op yields Bool from two operands.
func (op BinOp) IsComparison() bool {
	return op >= BinEq && op <= BinGe
}

// IsLogical reports whether op short-circuits on Bool operands.
func (op BinOp) IsLogical() bool {
	return op == BinAndL || op == BinOrL
}

type (
	VarRef struct {
		Local LocalVarID `msgpack:"local"`
	}
	ItemRef struct {
		ID GlobalItemID `msgpack:"id"`
	}
	ListData struct {
		Elems []ExprID `msgpack:"elems"`
	}
	RepeatData struct {
		Value ExprID `msgpack:"value"`
		Size  ExprID `msgpack:"size"`
	}
	IndexData struct {
		Array ExprID `msgpack:"array"`
		Index ExprID `msgpack:"index"`
	}
	FieldData struct {
		Tuple ExprID `msgpack:"tuple"`
		Index int    `msgpack:"index"`
	}
	// RangeData: Step is optional and defaults to 1.
	RangeData struct {
		Start ExprID `msgpack:"start"`
		Step  ExprID `msgpack:"step,omitempty"`
		End   ExprID `msgpack:"end"`
	}
	UnOpData struct {
		Op      UnOp   `msgpack:"op"`
		Operand ExprID `msgpack:"operand"`
	}
	BinOpData struct {
		Op  BinOp  `msgpack:"op"`
		LHS ExprID `msgpack:"lhs"`
		RHS ExprID `msgpack:"rhs"`
	}
	CallData struct {
		Callee ExprID   `msgpack:"callee"`
		Args   []ExprID `msgpack:"args"`
	}
	// IfData: Else is NoExprID for an if without else.
	IfData struct {
		Cond ExprID `msgpack:"cond"`
		Then ExprID `msgpack:"then"`
		Else ExprID `msgpack:"else,omitempty"`
	}
	WhileData struct {
		Cond ExprID  `msgpack:"cond"`
		Body BlockID `msgpack:"body"`
	}
	ForData struct {
		Pat  PatID   `msgpack:"pat"`
		Iter ExprID  `msgpack:"iter"`
		Body BlockID `msgpack:"body"`
	}
	BlockRef struct {
		Block BlockID `msgpack:"block"`
	}
	AssignData struct {
		Local LocalVarID `msgpack:"local"`
		Value ExprID     `msgpack:"value"`
	}
	AssignOpData struct {
		Op    BinOp      `msgpack:"op"`
		Local LocalVarID `msgpack:"local"`
		Value ExprID     `msgpack:"value"`
	}
	// ReturnData: Value is NoExprID for a bare return.
	ReturnData struct {
		Value ExprID `msgpack:"value,omitempty"`
	}
	FailData struct {
		Message ExprID `msgpack:"message"`
	}
)

// Expr is a tagged expression node; only the payload for Kind is set.
type Expr struct {
	ID   ExprID      `msgpack:"id"`
	Kind ExprKind    `msgpack:"kind"`
	Ty   Ty          `msgpack:"ty"`
	Span source.Span `msgpack:"span"`

	Lit      *Lit          `msgpack:"lit,omitempty"`
	Var      *VarRef       `msgpack:"var,omitempty"`
	Item     *ItemRef      `msgpack:"item,omitempty"`
	List     *ListData     `msgpack:"list,omitempty"`
	Repeat   *RepeatData   `msgpack:"repeat,omitempty"`
	Index    *IndexData    `msgpack:"index,omitempty"`
	Field    *FieldData    `msgpack:"field,omitempty"`
	Range    *RangeData    `msgpack:"range,omitempty"`
	UnOp     *UnOpData     `msgpack:"unop,omitempty"`
	BinOp    *BinOpData    `msgpack:"binop,omitempty"`
	Call     *CallData     `msgpack:"call,omitempty"`
	If       *IfData       `msgpack:"if,omitempty"`
	While    *WhileData    `msgpack:"while,omitempty"`
	For      *ForData      `msgpack:"for,omitempty"`
	Block    *BlockRef     `msgpack:"block,omitempty"`
	Assign   *AssignData   `msgpack:"assign,omitempty"`
	AssignOp *AssignOpData `msgpack:"assignop,omitempty"`
	Return   *ReturnData   `msgpack:"return,omitempty"`
	Fail     *FailData     `msgpack:"fail,omitempty"`
}

// Children returns the direct sub-expressions of e in evaluation order.
// Blocks and loop bodies are not included.
func (e *Expr) Children() []ExprID {
	var out []ExprID
	add := func(ids ...ExprID) {
		for _, id := range ids {
			if id.IsValid() {
				out = append(out, id)
			}
		}
	}
	switch e.Kind {
	case ExprTuple, ExprArray:
		add(e.List.Elems...)
	case ExprArrayRepeat:
		add(e.Repeat.Value, e.Repeat.Size)
	case ExprIndex:
		add(e.Index.Array, e.Index.Index)
	case ExprField:
		add(e.Field.Tuple)
	case ExprRange:
		add(e.Range.Start, e.Range.Step, e.Range.End)
	case ExprUnOp:
		add(e.UnOp.Operand)
	case ExprBinOp:
		add(e.BinOp.LHS, e.BinOp.RHS)
	case ExprCall:
		add(e.Call.Callee)
		add(e.Call.Args...)
	case ExprIf:
		add(e.If.Cond, e.If.Then, e.If.Else)
	case ExprWhile:
		add(e.While.Cond)
	case ExprFor:
		add(e.For.Iter)
	case ExprAssign:
		add(e.Assign.Value)
	case ExprAssignOp:
		add(e.AssignOp.Value)
	case ExprReturn:
		add(e.Return.Value)
	case ExprFail:
		add(e.Fail.Message)
	}
	return out
}
