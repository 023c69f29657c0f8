package partialeval

import (
	"maps"

	"quill/internal/diag"
	"quill/internal/eval"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
)

// DefaultMaxDepth bounds the number of nested inlined calls.
const DefaultMaxDepth = 128

// Scope is one inlined invocation frame.
type Scope struct {
	// Callable is fir.NoItemID for the entry expression.
	Callable fir.ItemID
	Name     string
	// Mask marks the parameters bound to dynamic values; it selects the
	// classification RCA computed for this invocation.
	Mask rca.ParamMask
	Env  *eval.Env

	// statics remembers variables whose current value is a known literal.
	statics map[rir.VariableID]rir.Literal
	// branches counts the dynamic branch arms opened by this frame.
	branches int
}

func NewScope(callable fir.ItemID, name string, mask rca.ParamMask) *Scope {
	return &Scope{
		Callable: callable,
		Name:     name,
		Mask:     mask,
		Env:      eval.NewEnv(),
		statics:  make(map[rir.VariableID]rir.Literal),
	}
}

// InBranch reports whether the frame is inside a dynamic branch arm.
func (s *Scope) InBranch() bool { return s.branches > 0 }

// Static returns the literal held by v, if known.
func (s *Scope) Static(v rir.VariableID) (rir.Literal, bool) {
	l, ok := s.statics[v]
	return l, ok
}

func (s *Scope) setStatic(v rir.VariableID, l rir.Literal) { s.statics[v] = l }
func (s *Scope) forgetStatic(v rir.VariableID)             { delete(s.statics, v) }

func (s *Scope) cloneStatics() map[rir.VariableID]rir.Literal {
	return maps.Clone(s.statics)
}

func (s *Scope) restoreStatics(saved map[rir.VariableID]rir.Literal) {
	s.statics = maps.Clone(saved)
}

// keepMatching drops every known literal that other disagrees with.
func (s *Scope) keepMatching(other map[rir.VariableID]rir.Literal) {
	maps.DeleteFunc(s.statics, func(v rir.VariableID, l rir.Literal) bool {
		o, ok := other[v]
		return !ok || o != l
	})
}

// BlockNode is an open block and the block control continues to once the
// node is closed.
type BlockNode struct {
	ID        rir.BlockID
	Successor rir.BlockID // rir.NoBlockID when the node ends in Return
}

// EvaluationContext mirrors the call stack of the program being compiled
// and the stack of open blocks.
type EvaluationContext struct {
	scopes   []*Scope
	blocks   []BlockNode
	maxDepth int
}

func NewEvaluationContext(entry *Scope, initial rir.BlockID, maxDepth int) *EvaluationContext {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &EvaluationContext{
		scopes:   []*Scope{entry},
		blocks:   []BlockNode{{ID: initial, Successor: rir.NoBlockID}},
		maxDepth: maxDepth,
	}
}

// PushScope enters an inlined call. The entry scope does not count towards
// the depth limit.
func (c *EvaluationContext) PushScope(s *Scope, span source.Span) error {
	if len(c.scopes) > c.maxDepth {
		return newError(KindResourceExhausted, diag.EvalCallDepthExceeded, span,
			"inlining %s exceeds the maximum call depth of %d", s.Name, c.maxDepth)
	}
	c.scopes = append(c.scopes, s)
	return nil
}

// PopScope leaves the current call; its literal memo goes with it.
func (c *EvaluationContext) PopScope() *Scope {
	if len(c.scopes) <= 1 {
		panic("partialeval: pop of the entry scope")
	}
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	clear(s.statics)
	return s
}

func (c *EvaluationContext) CurrentScope() *Scope { return c.scopes[len(c.scopes)-1] }

// Depth is the number of frames including the entry.
func (c *EvaluationContext) Depth() int { return len(c.scopes) }

// InAnyBranch reports whether any frame is inside a dynamic branch arm.
func (c *EvaluationContext) InAnyBranch() bool {
	for _, s := range c.scopes {
		if s.InBranch() {
			return true
		}
	}
	return false
}

// CurrentBlock is the block receiving new instructions.
func (c *EvaluationContext) CurrentBlock() rir.BlockID {
	return c.blocks[len(c.blocks)-1].ID
}

// SetCurrentBlock redirects the open node to id, keeping its successor.
func (c *EvaluationContext) SetCurrentBlock(id rir.BlockID) {
	c.blocks[len(c.blocks)-1].ID = id
}

func (c *EvaluationContext) CurrentNode() BlockNode { return c.blocks[len(c.blocks)-1] }

// PushBlockNode opens a branch arm in the current frame.
func (c *EvaluationContext) PushBlockNode(n BlockNode) {
	c.blocks = append(c.blocks, n)
	c.CurrentScope().branches++
}

// PopBlockNode closes the innermost node.
func (c *EvaluationContext) PopBlockNode() BlockNode {
	if len(c.blocks) == 0 {
		panic("partialeval: no open block")
	}
	n := c.blocks[len(c.blocks)-1]
	c.blocks = c.blocks[:len(c.blocks)-1]
	c.CurrentScope().branches--
	return n
}
