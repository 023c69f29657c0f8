// Package fir is the flattened, resolved and type-checked program form the
// partial evaluator consumes. Every node lives in a per-package arena and is
// addressed by a 1-based id; the zero id is the "none" sentinel.
package fir

type (
	PackageID  uint32
	ItemID     uint32
	ExprID     uint32
	StmtID     uint32
	BlockID    uint32
	PatID      uint32
	LocalVarID uint32
)

const (
	NoPackageID  PackageID  = 0
	NoItemID     ItemID     = 0
	NoExprID     ExprID     = 0
	NoStmtID     StmtID     = 0
	NoBlockID    BlockID    = 0
	NoPatID      PatID      = 0
	NoLocalVarID LocalVarID = 0
)

func (id PackageID) IsValid() bool  { return id != NoPackageID }
func (id ItemID) IsValid() bool     { return id != NoItemID }
func (id ExprID) IsValid() bool     { return id != NoExprID }
func (id StmtID) IsValid() bool     { return id != NoStmtID }
func (id BlockID) IsValid() bool    { return id != NoBlockID }
func (id PatID) IsValid() bool      { return id != NoPatID }
func (id LocalVarID) IsValid() bool { return id != NoLocalVarID }

// GlobalItemID names an item across packages.
type GlobalItemID struct {
	Package PackageID `msgpack:"pkg"`
	Item    ItemID    `msgpack:"item"`
}

func (id GlobalItemID) IsValid() bool { return id.Package.IsValid() && id.Item.IsValid() }
