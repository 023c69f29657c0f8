package rir

import (
	"fmt"
	"io"
	"strings"
)

func (in Instr) String() string {
	var sb strings.Builder
	switch {
	case in.Store != nil:
		fmt.Fprintf(&sb, "%s = Store %s", in.Store.Dst, in.Store.Src)
	case in.Call != nil:
		if in.Call.Dst != nil {
			fmt.Fprintf(&sb, "%s = ", *in.Call.Dst)
		}
		fmt.Fprintf(&sb, "Call id(%d), args( ", in.Call.Callee)
		for _, a := range in.Call.Args {
			sb.WriteString(a.String())
			sb.WriteString(", ")
		}
		sb.WriteString(")")
	case in.Binary != nil:
		fmt.Fprintf(&sb, "%s = %s %s, %s", in.Binary.Dst, in.Kind, in.Binary.LHS, in.Binary.RHS)
	case in.Unary != nil:
		fmt.Fprintf(&sb, "%s = %s %s", in.Unary.Dst, in.Kind, in.Unary.Arg)
	case in.Cmp != nil:
		cond := in.Cmp.Cond.String()
		if in.Kind == InstrFcmp {
			cond = in.Cmp.FCond.String()
		}
		fmt.Fprintf(&sb, "%s = %s %s, %s, %s", in.Cmp.Dst, in.Kind, cond, in.Cmp.LHS, in.Cmp.RHS)
	default:
		sb.WriteString("<invalid instruction>")
	}
	return sb.String()
}

func (t Terminator) String() string {
	switch t.Kind {
	case TermJump:
		return fmt.Sprintf("Jump(%d)", t.Jump.Target)
	case TermBranch:
		return fmt.Sprintf("Branch %s, %d, %d", t.Branch.Cond, t.Branch.Then, t.Branch.Else)
	case TermReturn:
		return "Return"
	}
	return "<open>"
}

// String renders the callable as an indented property list.
func (c Callable) String() string {
	var sb strings.Builder
	sb.WriteString("Callable:")
	fmt.Fprintf(&sb, "\n    name: %s", c.Name)
	fmt.Fprintf(&sb, "\n    call_type: %s", c.CallType)
	sb.WriteString("\n    input_type:")
	if len(c.Input) == 0 {
		sb.WriteString(" <VOID>")
	}
	for i, ty := range c.Input {
		fmt.Fprintf(&sb, "\n        [%d]: %s", i, ty)
	}
	fmt.Fprintf(&sb, "\n    output_type: %s", c.Output)
	if c.HasBody() {
		fmt.Fprintf(&sb, "\n    body: %d", c.Body)
	} else {
		sb.WriteString("\n    body: <NONE>")
	}
	return sb.String()
}

// String renders the block as "Block:" followed by one indented line per
// instruction and the terminator.
func (b Block) String() string {
	var sb strings.Builder
	sb.WriteString("Block:")
	if len(b.Instrs) == 0 && !b.Terminated() {
		sb.WriteString(" <EMPTY>")
	}
	for _, in := range b.Instrs {
		sb.WriteString("\n    ")
		sb.WriteString(in.String())
	}
	if b.Terminated() {
		sb.WriteString("\n    ")
		sb.WriteString(b.Term.String())
	}
	return sb.String()
}

// DumpBlocks renders every block in id order.
func DumpBlocks(w io.Writer, p *Program) {
	fmt.Fprint(w, "Blocks:")
	for i := range p.Blocks {
		fmt.Fprintf(w, "\nBlock %d:%s", p.Blocks[i].ID, p.Blocks[i].String())
	}
	fmt.Fprintln(w)
}

// DumpProgram writes a stable textual form of the whole program.
func DumpProgram(w io.Writer, p *Program) {
	fmt.Fprintf(w, "Program:\n  entry: %d\n  num_qubits: %d\n  num_results: %d\n", p.Entry, p.NumQubits, p.NumResults)
	fmt.Fprintln(w, "Callables:")
	for i := range p.Callables {
		fmt.Fprintf(w, "Callable %d: %s\n", i, p.Callables[i].String())
	}
	DumpBlocks(w, p)
}

// BlocksString is DumpBlocks into a string, for tests and tracing.
func BlocksString(p *Program) string {
	var sb strings.Builder
	DumpBlocks(&sb, p)
	return sb.String()
}
