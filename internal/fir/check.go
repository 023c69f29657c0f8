package fir

import (
	"errors"
	"fmt"
)

// Check verifies that every id stored in pkg refers to an existing node and
// that the entry expression is set. It does not re-run type checking.
func Check(pkg *Package) error {
	var errs []error
	addErr := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !pkg.Entry.IsValid() || pkg.Expr(pkg.Entry) == nil {
		addErr("package %s: missing entry expression", pkg.Name)
	}
	for i := range pkg.Exprs.Items {
		e := &pkg.Exprs.Items[i]
		if err := checkPayload(pkg, e); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, child := range e.Children() {
			if pkg.Expr(child) == nil {
				addErr("expr %d (%s): references missing expr %d", e.ID, e.Kind, child)
			}
		}
	}
	for i := range pkg.Blocks.Items {
		blk := &pkg.Blocks.Items[i]
		for _, sid := range blk.Stmts {
			st := pkg.Stmt(sid)
			if st == nil {
				addErr("block %d: references missing stmt %d", blk.ID, sid)
				continue
			}
			if st.Kind == StmtLocal {
				if st.Local == nil || pkg.Pat(st.Local.Pat) == nil || pkg.Expr(st.Local.Init) == nil {
					addErr("stmt %d: malformed local binding", st.ID)
				}
			} else if pkg.Expr(st.Expr) == nil {
				addErr("stmt %d: references missing expr %d", st.ID, st.Expr)
			}
		}
	}
	for i := range pkg.Callables.Items {
		c := &pkg.Callables.Items[i]
		if c.Body.IsValid() && pkg.Block(c.Body) == nil {
			addErr("callable %s: missing body block %d", c.Name, c.Body)
		}
		for _, p := range c.Params {
			if pkg.Pat(p) == nil {
				addErr("callable %s: missing parameter pattern %d", c.Name, p)
			}
		}
	}
	return errors.Join(errs...)
}

func checkPayload(pkg *Package, e *Expr) error {
	var missing bool
	switch e.Kind {
	case ExprLit:
		missing = e.Lit == nil
	case ExprVar:
		missing = e.Var == nil || pkg.Local(e.Var.Local) == nil
	case ExprItem:
		missing = e.Item == nil
	case ExprTuple, ExprArray:
		missing = e.List == nil
	case ExprArrayRepeat:
		missing = e.Repeat == nil
	case ExprIndex:
		missing = e.Index == nil
	case ExprField:
		missing = e.Field == nil
	case ExprRange:
		missing = e.Range == nil
	case ExprUnOp:
		missing = e.UnOp == nil
	case ExprBinOp:
		missing = e.BinOp == nil
	case ExprCall:
		missing = e.Call == nil
	case ExprIf:
		missing = e.If == nil
	case ExprWhile:
		missing = e.While == nil || pkg.Block(e.While.Body) == nil
	case ExprFor:
		missing = e.For == nil || pkg.Block(e.For.Body) == nil || pkg.Pat(e.For.Pat) == nil
	case ExprBlock:
		missing = e.Block == nil || pkg.Block(e.Block.Block) == nil
	case ExprAssign:
		missing = e.Assign == nil || pkg.Local(e.Assign.Local) == nil
	case ExprAssignOp:
		missing = e.AssignOp == nil || pkg.Local(e.AssignOp.Local) == nil
	case ExprReturn:
		missing = e.Return == nil
	case ExprFail:
		missing = e.Fail == nil
	default:
		return fmt.Errorf("expr %d: invalid kind %d", e.ID, e.Kind)
	}
	if missing {
		return fmt.Errorf("expr %d (%s): missing or dangling payload", e.ID, e.Kind)
	}
	return nil
}
