package fir

import (
	"fmt"

	"quill/internal/source"
)

// Package holds every node of one compilation unit.
type Package struct {
	ID        PackageID        `msgpack:"id"`
	Name      string           `msgpack:"name"`
	Files     source.FileTable `msgpack:"files"`
	Callables Arena[Callable]  `msgpack:"callables"`
	Exprs     Arena[Expr]      `msgpack:"exprs"`
	Stmts     Arena[Stmt]      `msgpack:"stmts"`
	Blocks    Arena[Block]     `msgpack:"blocks"`
	Pats      Arena[Pat]       `msgpack:"pats"`
	Locals    Arena[Local]     `msgpack:"locals"`
	Entry     ExprID           `msgpack:"entry"`
}

// NewPackage returns an empty package.
func NewPackage(name string) *Package {
	return &Package{ID: 1, Name: name}
}

func (p *Package) Expr(id ExprID) *Expr             { return p.Exprs.Get(uint32(id)) }
func (p *Package) Stmt(id StmtID) *Stmt             { return p.Stmts.Get(uint32(id)) }
func (p *Package) Block(id BlockID) *Block          { return p.Blocks.Get(uint32(id)) }
func (p *Package) Pat(id PatID) *Pat                { return p.Pats.Get(uint32(id)) }
func (p *Package) Local(id LocalVarID) *Local       { return p.Locals.Get(uint32(id)) }
func (p *Package) Callable(id ItemID) *Callable     { return p.Callables.Get(uint32(id)) }
func (p *Package) Global(id ItemID) GlobalItemID    { return GlobalItemID{Package: p.ID, Item: id} }
func (p *Package) SpanOf(id ExprID) source.Span     { return p.mustExpr(id).Span }
func (p *Package) TyOf(id ExprID) Ty                { return p.mustExpr(id).Ty }
func (p *Package) FormatSpan(sp source.Span) string { return p.Files.Format(sp) }

func (p *Package) mustExpr(id ExprID) *Expr {
	e := p.Expr(id)
	if e == nil {
		panic(fmt.Sprintf("fir: package %s has no expr %d", p.Name, id))
	}
	return e
}

// FindCallable returns the callable named name.
func (p *Package) FindCallable(name string) (*Callable, bool) {
	for i := range p.Callables.Items {
		if p.Callables.Items[i].Name == name {
			return &p.Callables.Items[i], true
		}
	}
	return nil, false
}

// Store resolves items across packages.
type Store struct {
	pkgs []*Package
}

func NewStore() *Store {
	return &Store{}
}

// Add assigns pkg the next package id and stores it.
func (s *Store) Add(pkg *Package) PackageID {
	s.pkgs = append(s.pkgs, pkg)
	pkg.ID = PackageID(len(s.pkgs))
	return pkg.ID
}

func (s *Store) Package(id PackageID) *Package {
	if !id.IsValid() || int(id) > len(s.pkgs) {
		return nil
	}
	return s.pkgs[id-1]
}

// Callable resolves a global item id.
func (s *Store) Callable(id GlobalItemID) (*Package, *Callable) {
	pkg := s.Package(id.Package)
	if pkg == nil {
		return nil, nil
	}
	return pkg, pkg.Callable(id.Item)
}

// Packages returns the stored packages in id order.
func (s *Store) Packages() []*Package {
	return s.pkgs
}
