package rir

// TermKind enumerates block terminators.
type TermKind uint8

const (
	// TermNone marks a block that is still open.
	TermNone TermKind = iota
	// TermJump transfers control unconditionally.
	TermJump
	// TermBranch transfers control on a Boolean variable.
	TermBranch
	// TermReturn ends the callable.
	TermReturn
)

type JumpTerm struct {
	Target BlockID `msgpack:"target"`
}

type BranchTerm struct {
	Cond Variable `msgpack:"cond"`
	Then BlockID  `msgpack:"then"`
	Else BlockID  `msgpack:"else"`
}

// Terminator ends a block. Only the payload matching Kind is meaningful.
type Terminator struct {
	Kind   TermKind   `msgpack:"kind"`
	Jump   JumpTerm   `msgpack:"jump,omitempty"`
	Branch BranchTerm `msgpack:"branch,omitempty"`
}

func Jump(target BlockID) Terminator {
	return Terminator{Kind: TermJump, Jump: JumpTerm{Target: target}}
}

func Branch(cond Variable, then, els BlockID) Terminator {
	return Terminator{Kind: TermBranch, Branch: BranchTerm{Cond: cond, Then: then, Else: els}}
}

func Return() Terminator {
	return Terminator{Kind: TermReturn}
}

// Successors returns the target blocks of the terminator in order.
func (t Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermJump:
		return []BlockID{t.Jump.Target}
	case TermBranch:
		return []BlockID{t.Branch.Then, t.Branch.Else}
	}
	return nil
}
