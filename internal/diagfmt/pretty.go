package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"quill/internal/diag"
	"quill/internal/source"
)

// Pretty writes one line per diagnostic in bag order:
//
//	<path>:<start>-<end>: <severity> <CODE>: <message>
//
// followed by indented notes when enabled.
func Pretty(w io.Writer, bag *diag.Bag, files *source.FileTable, opts PrettyOpts) {
	if bag == nil {
		return
	}
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	codeColor := color.New(color.Faint)
	for _, c := range sevColor {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	if opts.Color {
		codeColor.EnableColor()
	} else {
		codeColor.DisableColor()
	}

	for i, d := range bag.Items() {
		if opts.Max > 0 && i >= opts.Max {
			fmt.Fprintf(w, "... %d more\n", bag.Len()-opts.Max)
			return
		}
		sev := d.Severity.Label()
		if c, ok := sevColor[d.Severity]; ok {
			sev = c.Sprint(sev)
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n", files.Format(d.Primary), sev, codeColor.Sprint(d.Code.ID()), d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s: %s\n", files.Format(n.Span), n.Msg)
		}
	}
}
