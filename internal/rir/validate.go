package rir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a finished program: every
// block is terminated and targets existing blocks, branches never target
// their own block, calls match their callee signature, literal slots stay
// below the declared counts, each variable keeps one type, and every
// variable read is assigned on every path that reaches it.
func Validate(p *Program) error {
	if p == nil {
		return errors.New("nil program")
	}
	var errs []error
	entry := p.Callable(p.Entry)
	switch {
	case entry == nil:
		errs = append(errs, fmt.Errorf("entry callable %d not found", p.Entry))
	case !entry.HasBody():
		errs = append(errs, fmt.Errorf("entry callable %q has no body", entry.Name))
	case p.Block(entry.Body) == nil:
		errs = append(errs, fmt.Errorf("entry body block %d not found", entry.Body))
	}
	errs = append(errs, validateBlocks(p)...)
	errs = append(errs, validateCalls(p)...)
	errs = append(errs, validateVariableTypes(p)...)
	if len(errs) == 0 {
		errs = append(errs, validateDefinitions(p)...)
	}
	return errors.Join(errs...)
}

func validateBlocks(p *Program) []error {
	var errs []error
	for i := range p.Blocks {
		b := &p.Blocks[i]
		if int(b.ID) != i {
			errs = append(errs, fmt.Errorf("block at index %d has id %d", i, b.ID))
		}
		switch b.Term.Kind {
		case TermNone:
			errs = append(errs, fmt.Errorf("block %d: unterminated", b.ID))
		case TermJump:
			if p.Block(b.Term.Jump.Target) == nil {
				errs = append(errs, fmt.Errorf("block %d: jump to missing block %d", b.ID, b.Term.Jump.Target))
			}
		case TermBranch:
			br := b.Term.Branch
			for _, t := range []BlockID{br.Then, br.Else} {
				if p.Block(t) == nil {
					errs = append(errs, fmt.Errorf("block %d: branch to missing block %d", b.ID, t))
				}
				if t == b.ID {
					errs = append(errs, fmt.Errorf("block %d: branch targets its own block", b.ID))
				}
			}
			if br.Cond.Ty != TyBoolean {
				errs = append(errs, fmt.Errorf("block %d: branch condition %s is not Boolean", b.ID, br.Cond))
			}
		}
		for _, in := range b.Instrs {
			for _, op := range in.Uses() {
				if err := validateLiteral(p, op); err != nil {
					errs = append(errs, fmt.Errorf("block %d: %s: %w", b.ID, in, err))
				}
			}
		}
	}
	return errs
}

func validateLiteral(p *Program, op Operand) error {
	if op.Kind != OperandLiteral {
		return nil
	}
	switch op.Lit.Kind {
	case LitQubit:
		if op.Lit.Index >= p.NumQubits {
			return fmt.Errorf("qubit %d out of range (num_qubits %d)", op.Lit.Index, p.NumQubits)
		}
	case LitResult:
		if op.Lit.Index >= p.NumResults {
			return fmt.Errorf("result %d out of range (num_results %d)", op.Lit.Index, p.NumResults)
		}
	}
	return nil
}

func validateCalls(p *Program) []error {
	var errs []error
	for bi := range p.Blocks {
		b := &p.Blocks[bi]
		for _, in := range b.Instrs {
			if in.Call == nil {
				continue
			}
			callee := p.Callable(in.Call.Callee)
			if callee == nil {
				errs = append(errs, fmt.Errorf("block %d: call to missing callable %d", b.ID, in.Call.Callee))
				continue
			}
			if len(in.Call.Args) != len(callee.Input) {
				errs = append(errs, fmt.Errorf("block %d: %s expects %d args, got %d", b.ID, callee.Name, len(callee.Input), len(in.Call.Args)))
				continue
			}
			for i, a := range in.Call.Args {
				if a.Ty() != callee.Input[i] {
					errs = append(errs, fmt.Errorf("block %d: %s arg %d is %s, want %s", b.ID, callee.Name, i, a.Ty(), callee.Input[i]))
				}
			}
			switch {
			case callee.Output == TyVoid && in.Call.Dst != nil:
				errs = append(errs, fmt.Errorf("block %d: void callable %s binds %s", b.ID, callee.Name, *in.Call.Dst))
			case callee.Output != TyVoid && in.Call.Dst == nil:
				errs = append(errs, fmt.Errorf("block %d: output of %s is dropped", b.ID, callee.Name))
			case in.Call.Dst != nil && in.Call.Dst.Ty != callee.Output:
				errs = append(errs, fmt.Errorf("block %d: %s returns %s, bound to %s", b.ID, callee.Name, callee.Output, *in.Call.Dst))
			}
		}
	}
	return errs
}

func validateVariableTypes(p *Program) []error {
	var errs []error
	seen := make(map[VariableID]Ty)
	check := func(b BlockID, v Variable) {
		if ty, ok := seen[v.ID]; ok && ty != v.Ty {
			errs = append(errs, fmt.Errorf("block %d: variable %d used as %s and %s", b, v.ID, ty, v.Ty))
			return
		}
		seen[v.ID] = v.Ty
	}
	for bi := range p.Blocks {
		b := &p.Blocks[bi]
		for _, in := range b.Instrs {
			if d, ok := in.Def(); ok {
				check(b.ID, d)
			}
			for _, op := range in.Uses() {
				if op.IsVariable() {
					check(b.ID, op.Var)
				}
			}
		}
		if b.Term.Kind == TermBranch {
			check(b.ID, b.Term.Branch.Cond)
		}
	}
	return errs
}

type varSet map[VariableID]struct{}

func (s varSet) clone() varSet {
	out := make(varSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// validateDefinitions runs a forward must-defined analysis over the
// reachable blocks. A variable is defined on entry to a block when it is
// defined on exit of every predecessor, which accepts both dominating
// definitions and join variables stored in each arm.
func validateDefinitions(p *Program) []error {
	order := ReversePostorder(p)
	if len(order) == 0 {
		return nil
	}
	reach := make(map[BlockID]bool, len(order))
	for _, id := range order {
		reach[id] = true
	}
	preds := Predecessors(p)
	out := make(map[BlockID]varSet, len(order))

	// nil out-sets stand for "all variables" until the block is visited.
	in := func(id BlockID) varSet {
		if id == order[0] {
			return varSet{}
		}
		var acc varSet
		for _, pr := range preds[id] {
			if !reach[pr] {
				continue
			}
			o, ok := out[pr]
			if !ok {
				continue
			}
			if acc == nil {
				acc = o.clone()
				continue
			}
			for v := range acc {
				if _, ok := o[v]; !ok {
					delete(acc, v)
				}
			}
		}
		if acc == nil {
			acc = varSet{}
		}
		return acc
	}

	for changed := true; changed; {
		changed = false
		for _, id := range order {
			defs := in(id)
			for _, instr := range p.Block(id).Instrs {
				if d, ok := instr.Def(); ok {
					defs[d.ID] = struct{}{}
				}
			}
			if prev, ok := out[id]; !ok || len(prev) != len(defs) {
				out[id] = defs
				changed = true
			}
		}
	}

	var errs []error
	for _, id := range order {
		defs := in(id)
		b := p.Block(id)
		for _, instr := range b.Instrs {
			for _, op := range instr.Uses() {
				if !op.IsVariable() {
					continue
				}
				if _, ok := defs[op.Var.ID]; !ok {
					errs = append(errs, fmt.Errorf("block %d: %s reads %s before it is assigned on every path", id, instr, op.Var))
				}
			}
			if d, ok := instr.Def(); ok {
				defs[d.ID] = struct{}{}
			}
		}
		if b.Term.Kind == TermBranch {
			if _, ok := defs[b.Term.Branch.Cond.ID]; !ok {
				errs = append(errs, fmt.Errorf("block %d: branch reads %s before it is assigned on every path", id, b.Term.Branch.Cond))
			}
		}
	}
	return errs
}
