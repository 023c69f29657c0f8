package driver

import (
	"sync"

	"quill/internal/rir"
)

// ProgramCache is the per-process cache of compiled programs, consulted
// before the disk cache.
type ProgramCache struct {
	mu    sync.RWMutex
	byKey map[Key]*rir.Program
}

// NewProgramCache creates a ProgramCache with the given capacity hint.
func NewProgramCache(capHint int) *ProgramCache {
	return &ProgramCache{byKey: make(map[Key]*rir.Program, capHint)}
}

// Get returns the program compiled for key.
func (c *ProgramCache) Get(key Key) (*rir.Program, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	prog, ok := c.byKey[key]
	c.mu.RUnlock()
	return prog, ok
}

// Put records prog under key.
func (c *ProgramCache) Put(key Key, prog *rir.Program) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byKey[key] = prog
	c.mu.Unlock()
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}
