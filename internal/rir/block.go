package rir

import "fmt"

// Block is a straight-line instruction sequence closed by one terminator.
type Block struct {
	ID     BlockID    `msgpack:"id"`
	Instrs []Instr    `msgpack:"instrs"`
	Term   Terminator `msgpack:"term"`
}

// Terminated reports whether the block already has a terminator.
func (b *Block) Terminated() bool {
	return b.Term.Kind != TermNone
}

// Append adds an instruction. Appending to a terminated block is a bug in
// the producer and panics.
func (b *Block) Append(in Instr) {
	if b.Terminated() {
		panic(fmt.Sprintf("rir: instruction %s appended to terminated block %d", in.Kind, b.ID))
	}
	b.Instrs = append(b.Instrs, in)
}

// SetTerm closes the block. A second terminator panics.
func (b *Block) SetTerm(t Terminator) {
	if b.Terminated() {
		panic(fmt.Sprintf("rir: block %d already terminated", b.ID))
	}
	if t.Kind == TermNone {
		panic(fmt.Sprintf("rir: empty terminator for block %d", b.ID))
	}
	b.Term = t
}
