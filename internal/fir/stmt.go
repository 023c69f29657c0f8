package fir

import "quill/internal/source"

type StmtKind uint8

const (
	// StmtExpr is a trailing expression whose value is the block value.
	StmtExpr StmtKind = iota + 1
	// StmtSemi is an expression evaluated for its effects.
	StmtSemi
	// StmtLocal binds a pattern.
	StmtLocal
)

func (k StmtKind) String() string {
	switch k {
	case StmtExpr:
		return "Expr"
	case StmtSemi:
		return "Semi"
	case StmtLocal:
		return "Local"
	}
	return "?"
}

type LocalData struct {
	Mutable bool   `msgpack:"mutable,omitempty"`
	Pat     PatID  `msgpack:"pat"`
	Init    ExprID `msgpack:"init"`
}

type Stmt struct {
	ID    StmtID      `msgpack:"id"`
	Kind  StmtKind    `msgpack:"kind"`
	Span  source.Span `msgpack:"span"`
	Expr  ExprID      `msgpack:"expr,omitempty"`
	Local *LocalData  `msgpack:"local,omitempty"`
}

type Block struct {
	ID    BlockID     `msgpack:"id"`
	Ty    Ty          `msgpack:"ty"`
	Span  source.Span `msgpack:"span"`
	Stmts []StmtID    `msgpack:"stmts"`
}

type PatKind uint8

const (
	PatBind PatKind = iota + 1
	PatDiscard
	PatTuple
)

type Pat struct {
	ID    PatID       `msgpack:"id"`
	Kind  PatKind     `msgpack:"kind"`
	Ty    Ty          `msgpack:"ty"`
	Span  source.Span `msgpack:"span"`
	Local LocalVarID  `msgpack:"local,omitempty"` // PatBind
	Name  string      `msgpack:"name,omitempty"`  // PatBind
	Elems []PatID     `msgpack:"elems,omitempty"` // PatTuple
}
