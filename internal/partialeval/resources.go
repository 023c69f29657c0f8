package partialeval

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"quill/internal/eval"
	"quill/internal/rir"
)

// ResourceManager hands out the identifiers of one compilation: qubit slots
// behind stable logical qubit ids, result registers, variables, blocks and
// callables.
type ResourceManager struct {
	slots     map[eval.QubitID]uint32
	free      []uint32 // sorted ascending
	nextQubit eval.QubitID
	highWater uint32

	nextResult   uint32
	nextVariable rir.VariableID
	nextBlock    rir.BlockID
	nextCallable rir.CallableID

	callables map[string]rir.CallableID
	sigs      []rir.Callable
}

func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		slots:     make(map[eval.QubitID]uint32),
		callables: make(map[string]rir.CallableID),
	}
}

// AllocateQubit returns a fresh logical qubit placed on the lowest free
// slot, growing the slot space when none is free.
func (m *ResourceManager) AllocateQubit() eval.QubitID {
	var slot uint32
	if len(m.free) > 0 {
		slot = m.free[0]
		m.free = m.free[1:]
	} else {
		slot = m.highWater
		m.highWater++
	}
	q := m.nextQubit
	m.nextQubit++
	m.slots[q] = slot
	return q
}

// ReleaseQubit returns the slot of q to the free list. Releasing a qubit
// that is not live panics.
func (m *ResourceManager) ReleaseQubit(q eval.QubitID) {
	slot, ok := m.slots[q]
	if !ok {
		panic(fmt.Sprintf("partialeval: release of qubit %d which is not allocated", q))
	}
	delete(m.slots, q)
	i, found := slices.BinarySearch(m.free, slot)
	if found {
		panic(fmt.Sprintf("partialeval: slot %d released twice", slot))
	}
	m.free = slices.Insert(m.free, i, slot)
}

// SwapQubitSlots exchanges the slots of two live qubits.
func (m *ResourceManager) SwapQubitSlots(a, b eval.QubitID) {
	sa, ok := m.slots[a]
	if !ok {
		panic(fmt.Sprintf("partialeval: swap of qubit %d which is not allocated", a))
	}
	sb, ok := m.slots[b]
	if !ok {
		panic(fmt.Sprintf("partialeval: swap of qubit %d which is not allocated", b))
	}
	m.slots[a], m.slots[b] = sb, sa
}

// QubitSlot returns the slot currently holding q.
func (m *ResourceManager) QubitSlot(q eval.QubitID) (uint32, bool) {
	slot, ok := m.slots[q]
	return slot, ok
}

// QubitHighWater is the number of slots ever used.
func (m *ResourceManager) QubitHighWater() uint32 { return m.highWater }

// ResultCount is the number of result registers handed out.
func (m *ResourceManager) ResultCount() uint32 { return m.nextResult }

// LiveQubits is the number of allocated, unreleased qubits.
func (m *ResourceManager) LiveQubits() int { return len(m.slots) }

func (m *ResourceManager) NextResult() uint32 {
	r := m.nextResult
	m.nextResult++
	return r
}

func (m *ResourceManager) NextVariable() rir.VariableID {
	v := m.nextVariable
	m.nextVariable++
	return v
}

func (m *ResourceManager) NextBlock() rir.BlockID {
	b := m.nextBlock
	m.nextBlock++
	return b
}

func (m *ResourceManager) NextCallable() rir.CallableID {
	c := m.nextCallable
	m.nextCallable++
	return c
}

// RegisterOrReuseCallable returns the id of the callable with the same
// name, allocating one on first use. fresh reports whether c was newly
// registered. Names are compared after NFC normalization; a name reused
// with a different signature panics.
func (m *ResourceManager) RegisterOrReuseCallable(c rir.Callable) (id rir.CallableID, fresh bool) {
	c.Name = norm.NFC.String(c.Name)
	if id, ok := m.callables[c.Name]; ok {
		prev := &m.sigs[id]
		if !prev.SameSignature(&c) {
			panic(fmt.Sprintf("partialeval: callable %q registered with conflicting signatures", c.Name))
		}
		return id, false
	}
	id = m.NextCallable()
	if n, err := safecast.Conv[int](id); err != nil || n != len(m.sigs) {
		panic(fmt.Sprintf("partialeval: callable id %d out of sequence", id))
	}
	m.callables[c.Name] = id
	m.sigs = append(m.sigs, c)
	return id, true
}

// Callables returns the registered callables indexed by id.
func (m *ResourceManager) Callables() []rir.Callable {
	return slices.Clone(m.sigs)
}
