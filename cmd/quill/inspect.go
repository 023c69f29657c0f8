package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"quill/internal/driver"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/rir"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Describe a .qfir package or a .qrir program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		switch filepath.Ext(path) {
		case driver.PackageExt:
			pkg, err := driver.LoadPackage(path)
			if err != nil {
				return err
			}
			describePackage(cmd.OutOrStdout(), pkg, rca.Analyze(pkg))
			return nil
		case driver.ProgramExt:
			prog, err := driver.LoadProgram(path)
			if err != nil {
				return err
			}
			if err := rir.Validate(prog); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			describeProgram(cmd.OutOrStdout(), prog)
			return nil
		default:
			return fmt.Errorf("%s: expected %s or %s", path, driver.PackageExt, driver.ProgramExt)
		}
	},
}

func describePackage(out io.Writer, pkg *fir.Package, props *rca.PackageProps) {
	fmt.Fprintf(out, "package %s\n", pkg.Name)
	fmt.Fprintf(out, "entry: %s\n", props.Entry)
	fmt.Fprintf(out, "requires: %s\n", props.Entry.Features.RequiredCapabilities())
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(pkg.Callables.Items))
	for i := range pkg.Callables.Items {
		c := &pkg.Callables.Items[i]
		role := c.Kind.String()
		if c.IsIntrinsic() {
			role += " (intrinsic)"
		}
		kind := ""
		if cp := props.Callable(c.ID); cp != nil {
			kind = cp.Body.Inherent.String()
		}
		rows = append(rows, []string{c.Name, role, c.Output.String(), kind})
	}
	writeTable(out, []string{"callable", "kind", "output", "body"}, rows)
}

func describeProgram(out io.Writer, prog *rir.Program) {
	fmt.Fprintf(out, "qubits: %d  results: %d  blocks: %d\n\n", prog.NumQubits, prog.NumResults, len(prog.Blocks))
	rows := make([][]string, 0, len(prog.Callables))
	for i := range prog.Callables {
		c := &prog.Callables[i]
		inputs := make([]string, len(c.Input))
		for j, ty := range c.Input {
			inputs[j] = ty.String()
		}
		rows = append(rows, []string{
			fmt.Sprint(i), c.Name, c.CallType.String(),
			"(" + strings.Join(inputs, ", ") + ") -> " + c.Output.String(),
			fmt.Sprint(prog.CountCalls(rir.CallableID(i))),
		})
	}
	writeTable(out, []string{"id", "callable", "type", "signature", "calls"}, rows)
	fmt.Fprintln(out)
	rir.DumpProgram(out, prog)
}

// writeTable pads columns by display width so wide names stay aligned.
func writeTable(out io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	line := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		fmt.Fprintln(out, b.String())
	}
	line(header)
	for _, row := range rows {
		line(row)
	}
}
