package rir

import "slices"

// Predecessors maps each block to the blocks that transfer control to it,
// in block id order.
func Predecessors(p *Program) map[BlockID][]BlockID {
	preds := make(map[BlockID][]BlockID, len(p.Blocks))
	for i := range p.Blocks {
		b := &p.Blocks[i]
		for _, s := range b.Term.Successors() {
			if !slices.Contains(preds[s], b.ID) {
				preds[s] = append(preds[s], b.ID)
			}
		}
	}
	return preds
}

// ReversePostorder returns the blocks reachable from the entry block in
// reverse postorder, visiting the then-target before the else-target. For an
// acyclic graph this is a topological order with the entry first.
func ReversePostorder(p *Program) []BlockID {
	entry := p.EntryBlock()
	if p.Block(entry) == nil {
		return nil
	}
	visited := make(map[BlockID]bool, len(p.Blocks))
	post := make([]BlockID, 0, len(p.Blocks))

	type frame struct {
		id   BlockID
		next int
	}
	stack := []frame{{id: entry}}
	visited[entry] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := p.Block(top.id).Term.Successors()
		if top.next < len(succs) {
			s := succs[top.next]
			top.next++
			if !visited[s] && p.Block(s) != nil {
				visited[s] = true
				stack = append(stack, frame{id: s})
			}
			continue
		}
		post = append(post, top.id)
		stack = stack[:len(stack)-1]
	}
	slices.Reverse(post)
	return post
}

// Reachable reports which blocks can be reached from the entry block.
func Reachable(p *Program) map[BlockID]bool {
	order := ReversePostorder(p)
	seen := make(map[BlockID]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	return seen
}

// HasBackEdge reports whether any reachable jump or branch targets a block
// that precedes it in reverse postorder.
func HasBackEdge(p *Program) bool {
	order := ReversePostorder(p)
	pos := make(map[BlockID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range order {
		for _, s := range p.Block(id).Term.Successors() {
			if pos[s] <= pos[id] {
				return true
			}
		}
	}
	return false
}

// Renumber returns a copy of p without unreachable blocks whose block ids
// follow reverse postorder, so the entry block is 0 and, in an acyclic
// graph, every jump goes to a higher id. Bodies of callables that point at
// unreachable blocks are cleared.
func Renumber(p *Program) *Program {
	order := ReversePostorder(p)
	remap := make(map[BlockID]BlockID, len(order))
	for i, old := range order {
		remap[old] = BlockID(i)
	}
	out := &Program{
		Callables:  make([]Callable, len(p.Callables)),
		Blocks:     make([]Block, 0, len(order)),
		Entry:      p.Entry,
		NumQubits:  p.NumQubits,
		NumResults: p.NumResults,
	}
	for i, c := range p.Callables {
		c.Input = slices.Clone(c.Input)
		if c.HasBody() {
			if nb, ok := remap[c.Body]; ok {
				c.Body = nb
			} else {
				c.Body = NoBlockID
			}
		}
		out.Callables[i] = c
	}
	for _, old := range order {
		src := p.Block(old)
		nb := Block{ID: remap[old], Instrs: slices.Clone(src.Instrs), Term: src.Term}
		switch nb.Term.Kind {
		case TermJump:
			nb.Term.Jump.Target = remap[nb.Term.Jump.Target]
		case TermBranch:
			nb.Term.Branch.Then = remap[nb.Term.Branch.Then]
			nb.Term.Branch.Else = remap[nb.Term.Branch.Else]
		}
		out.Blocks = append(out.Blocks, nb)
	}
	return out
}
