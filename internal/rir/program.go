package rir

import (
	"fmt"

	"fortio.org/safecast"
)

// Program is the result of compiling one entry point. Callables and blocks
// are stored at the index equal to their id.
type Program struct {
	Callables  []Callable `msgpack:"callables"`
	Blocks     []Block    `msgpack:"blocks"`
	Entry      CallableID `msgpack:"entry"`
	NumQubits  uint32     `msgpack:"num_qubits"`
	NumResults uint32     `msgpack:"num_results"`
}

// NewProgram returns an empty program with no entry.
func NewProgram() *Program {
	return &Program{Entry: NoCallableID}
}

// AddBlock creates the empty block id. Ids must be added in increasing order
// without gaps.
func (p *Program) AddBlock(id BlockID) *Block {
	if int(id) != len(p.Blocks) {
		panic(fmt.Sprintf("rir: block %d added out of order (next is %d)", id, len(p.Blocks)))
	}
	p.Blocks = append(p.Blocks, Block{ID: id})
	return &p.Blocks[id]
}

// Block returns the block with the given id or nil.
func (p *Program) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(p.Blocks) {
		return nil
	}
	return &p.Blocks[id]
}

// SetCallable stores c under id. Ids must be added in increasing order.
func (p *Program) SetCallable(id CallableID, c Callable) {
	switch {
	case int(id) == len(p.Callables):
		p.Callables = append(p.Callables, c)
	case id >= 0 && int(id) < len(p.Callables):
		p.Callables[id] = c
	default:
		panic(fmt.Sprintf("rir: callable %d added out of order (next is %d)", id, len(p.Callables)))
	}
}

// Callable returns the callable with the given id or nil.
func (p *Program) Callable(id CallableID) *Callable {
	if id < 0 || int(id) >= len(p.Callables) {
		return nil
	}
	return &p.Callables[id]
}

// EntryBlock returns the body block of the entry callable.
func (p *Program) EntryBlock() BlockID {
	if c := p.Callable(p.Entry); c != nil {
		return c.Body
	}
	return NoBlockID
}

// FindCallable returns the id of the callable named name.
func (p *Program) FindCallable(name string) (CallableID, bool) {
	for i := range p.Callables {
		if p.Callables[i].Name == name {
			id, err := safecast.Conv[int32](i)
			if err != nil {
				return NoCallableID, false
			}
			return CallableID(id), true
		}
	}
	return NoCallableID, false
}

// CountCalls returns how many Call instructions target id.
func (p *Program) CountCalls(id CallableID) int {
	n := 0
	for bi := range p.Blocks {
		for ii := range p.Blocks[bi].Instrs {
			if c := p.Blocks[bi].Instrs[ii].Call; c != nil && c.Callee == id {
				n++
			}
		}
	}
	return n
}
