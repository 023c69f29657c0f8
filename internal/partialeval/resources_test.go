package partialeval

import (
	"testing"

	"quill/internal/eval"
	"quill/internal/rir"
)

func slotOf(t *testing.T, m *ResourceManager, q eval.QubitID) uint32 {
	t.Helper()
	slot, ok := m.QubitSlot(q)
	if !ok {
		t.Fatalf("qubit %d has no slot", q)
	}
	return slot
}

func TestAllocateReusesLowestSlot(t *testing.T) {
	m := NewResourceManager()
	a, b, c := m.AllocateQubit(), m.AllocateQubit(), m.AllocateQubit()
	m.ReleaseQubit(b)
	m.ReleaseQubit(a)

	d, e, f := m.AllocateQubit(), m.AllocateQubit(), m.AllocateQubit()
	for _, tt := range []struct {
		q    eval.QubitID
		slot uint32
	}{{c, 2}, {d, 0}, {e, 1}, {f, 3}} {
		if got := slotOf(t, m, tt.q); got != tt.slot {
			t.Errorf("qubit %d on slot %d, want %d", tt.q, got, tt.slot)
		}
	}
	if d == a || e == b {
		t.Errorf("reallocated qubits reuse logical ids: a=%d b=%d d=%d e=%d", a, b, d, e)
	}
	if m.QubitHighWater() != 4 {
		t.Errorf("high water = %d, want 4", m.QubitHighWater())
	}
	if m.LiveQubits() != 4 {
		t.Errorf("live = %d, want 4", m.LiveQubits())
	}
}

func TestReleaseMisusePanics(t *testing.T) {
	tests := []struct {
		name string
		run  func(m *ResourceManager)
	}{
		{"never allocated", func(m *ResourceManager) { m.ReleaseQubit(7) }},
		{"double release", func(m *ResourceManager) {
			q := m.AllocateQubit()
			m.ReleaseQubit(q)
			m.ReleaseQubit(q)
		}},
		{"swap released", func(m *ResourceManager) {
			a, b := m.AllocateQubit(), m.AllocateQubit()
			m.ReleaseQubit(b)
			m.SwapQubitSlots(a, b)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.run(NewResourceManager())
		})
	}
}

func TestSwapQubitSlots(t *testing.T) {
	m := NewResourceManager()
	a, b := m.AllocateQubit(), m.AllocateQubit()
	m.SwapQubitSlots(a, b)
	if slotOf(t, m, a) != 1 || slotOf(t, m, b) != 0 {
		t.Fatalf("after swap a=%d b=%d", slotOf(t, m, a), slotOf(t, m, b))
	}
	m.ReleaseQubit(a)
	if c := m.AllocateQubit(); slotOf(t, m, c) != 1 {
		t.Fatalf("freed slot not reused: %d", slotOf(t, m, c))
	}
}

func TestCountersAreIndependent(t *testing.T) {
	m := NewResourceManager()
	if m.NextResult() != 0 || m.NextResult() != 1 {
		t.Fatal("results not sequential")
	}
	if m.NextVariable() != 0 || m.NextBlock() != 0 || m.NextCallable() != 0 {
		t.Fatal("counters share state")
	}
	if m.NextVariable() != 1 || m.ResultCount() != 2 {
		t.Fatalf("variable counter or result count wrong: results=%d", m.ResultCount())
	}
}

func TestRegisterOrReuseCallable(t *testing.T) {
	m := NewResourceManager()
	h := rir.Primitive("H", rir.CallRegular, rir.TyVoid, rir.TyQubit)
	id, fresh := m.RegisterOrReuseCallable(h)
	if id != 0 || !fresh {
		t.Fatalf("first registration = %d, %v", id, fresh)
	}
	if again, fresh := m.RegisterOrReuseCallable(h); again != id || fresh {
		t.Fatalf("reuse = %d, %v", again, fresh)
	}
	x, _ := m.RegisterOrReuseCallable(rir.Primitive("X", rir.CallRegular, rir.TyVoid, rir.TyQubit))
	if x != 1 {
		t.Fatalf("second callable id = %d", x)
	}

	composed := rir.Primitive("R\u00e9", rir.CallRegular, rir.TyVoid, rir.TyQubit)
	decomposed := rir.Primitive("Re\u0301", rir.CallRegular, rir.TyVoid, rir.TyQubit)
	a, _ := m.RegisterOrReuseCallable(composed)
	b, fresh := m.RegisterOrReuseCallable(decomposed)
	if a != b || fresh {
		t.Fatalf("normalized names registered twice: %d %d", a, b)
	}
	if n := len(m.Callables()); n != 3 {
		t.Fatalf("callables = %d, want 3", n)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("conflicting signature did not panic")
		}
	}()
	m.RegisterOrReuseCallable(rir.Primitive("H", rir.CallRegular, rir.TyVoid, rir.TyQubit, rir.TyQubit))
}
