// Package rca computes, for every expression and local of a package,
// whether its value is known at compile time or depends on a measurement
// outcome, and which run-time features it relies on.
package rca

import (
	"quill/internal/fir"
)

// PackageProps holds the classification of one package. Slices are indexed
// by node id; index 0 is unused.
type PackageProps struct {
	Exprs     []ExprProps
	Locals    []ExprProps
	Callables []*CallableProps
	// Entry classifies the entry expression including output recording.
	Entry ComputeKind
}

// Expr returns the props of id, Classical for unknown ids.
func (p *PackageProps) Expr(id fir.ExprID) ExprProps {
	if int(id) < len(p.Exprs) {
		return p.Exprs[id]
	}
	return ExprProps{}
}

// ExprKind resolves the kind of id under mask.
func (p *PackageProps) ExprKind(id fir.ExprID, mask ParamMask) ComputeKind {
	return p.Expr(id).Resolve(mask)
}

// LocalKind resolves the kind of local under mask.
func (p *PackageProps) LocalKind(id fir.LocalVarID, mask ParamMask) ComputeKind {
	if int(id) < len(p.Locals) {
		return p.Locals[id].Resolve(mask)
	}
	return Classical
}

// Callable returns the summary of item or nil.
func (p *PackageProps) Callable(item fir.ItemID) *CallableProps {
	if int(item) < len(p.Callables) {
		return p.Callables[item]
	}
	return nil
}

// Analyze classifies every callable and the entry expression of pkg.
func Analyze(pkg *fir.Package) *PackageProps {
	a := &analyzer{
		pkg: pkg,
		props: &PackageProps{
			Exprs:     make([]ExprProps, pkg.Exprs.Len()+1),
			Locals:    make([]ExprProps, pkg.Locals.Len()+1),
			Callables: make([]*CallableProps, pkg.Callables.Len()+1),
		},
		active: make(map[fir.ItemID]bool),
	}
	for i := range pkg.Callables.Items {
		a.summary(pkg.Callables.Items[i].ID)
	}
	if pkg.Entry.IsValid() {
		w := a.newWalker(nil, NoParam)
		w.run(func() ComputeKind { return w.expr(pkg.Entry) })
		a.record(w, NoParam)
		entry := w.exprs[pkg.Entry]
		if entry.Dynamic {
			entry.Features |= ForOutput(pkg.TyOf(pkg.Entry))
		}
		a.props.Entry = entry
	}
	return a.props
}

// NoParam selects the configuration where every parameter is static.
const NoParam = -1

type analyzer struct {
	pkg    *fir.Package
	props  *PackageProps
	active map[fir.ItemID]bool
}

// summary returns the memoized summary of item, computing it on first use.
// It returns nil while item is still being analyzed.
func (a *analyzer) summary(item fir.ItemID) *CallableProps {
	if s := a.props.Callable(item); s != nil {
		return s
	}
	if a.active[item] {
		return nil
	}
	c := a.pkg.Callable(item)
	if c == nil {
		return nil
	}
	if c.IsIntrinsic() {
		s := intrinsicSummary(c)
		a.props.Callables[item] = s
		return s
	}

	a.active[item] = true
	defer delete(a.active, item)

	s := &CallableProps{}
	configs := len(c.Params)
	if configs > MaxTrackedParams {
		configs = MaxTrackedParams
	}
	s.Output.ParamDeps = make([]ComputeKind, configs)
	s.Body.ParamDeps = make([]ComputeKind, configs)
	for param := NoParam; param < configs; param++ {
		w := a.newWalker(c, param)
		body := w.run(func() ComputeKind { return w.block(c.Body) })
		out := body.Union(w.ret)
		if param == NoParam {
			s.Output.Inherent = out
			s.Body.Inherent = w.all
		} else {
			s.Output.ParamDeps[param] = out
			s.Body.ParamDeps[param] = w.all
		}
		s.Measures = s.Measures || w.measures
		a.record(w, param)
	}
	a.props.Callables[item] = s
	return s
}

// record stores the kinds one walker computed under configuration param.
func (a *analyzer) record(w *walker, param int) {
	for id, k := range w.exprs {
		store(&a.props.Exprs[id], k, param, w.paramCount)
	}
	for id, k := range w.locals {
		store(&a.props.Locals[id], k, param, w.paramCount)
	}
}

func store(p *ExprProps, k ComputeKind, param, n int) {
	if param == NoParam {
		p.Inherent = k
		return
	}
	if p.ParamDeps == nil {
		p.ParamDeps = make([]ComputeKind, n)
	}
	p.ParamDeps[param] = k
}

func intrinsicSummary(c *fir.Callable) *CallableProps {
	n := len(c.Params)
	if n > MaxTrackedParams {
		n = MaxTrackedParams
	}
	s := &CallableProps{Measures: c.Attrs.Has(fir.AttrMeasurement)}
	s.Output.ParamDeps = make([]ComputeKind, n)
	s.Body.ParamDeps = make([]ComputeKind, n)
	dynamicOut := !c.Output.IsUnit()
	if c.Kind == fir.Operation {
		// Allocation hands out a static qubit; every other non-unit output of
		// an intrinsic operation is a measurement-like value.
		s.Output.Inherent = ComputeKind{Quantum: true, Dynamic: dynamicOut && c.Output.Kind != fir.TyQubit}
		s.Body.Inherent = QuantumStatic
	}
	for i := 0; i < n; i++ {
		s.Output.ParamDeps[i] = ComputeKind{Quantum: true, Dynamic: dynamicOut}
		s.Body.ParamDeps[i] = QuantumStatic
	}
	return s
}
