package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/source"
)

func sampleBag(files *source.FileTable) *diag.Bag {
	file := files.Add("teleport.qs")
	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.CapDynamicLoop, source.Span{File: file, Start: 4, End: 12}, "loop condition depends on a measurement").
		WithNote(source.Span{File: file, Start: 0, End: 3}, "measured here")
	bag.Add(d)
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var files source.FileTable
	bag := sampleBag(&files)
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, &files, diagfmt.PrettyOpts{ShowNotes: true})
	want := "teleport.qs:4-12: error CAP1002: loop condition depends on a measurement\n" +
		"  note: teleport.qs:0-3: measured here\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSON(t *testing.T) {
	var files source.FileTable
	bag := sampleBag(&files)
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, bag, &files); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || out.Diagnostics[0].Code != "CAP1002" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if !strings.Contains(buf.String(), `"file": "teleport.qs"`) {
		t.Fatalf("missing file path: %s", buf.String())
	}
}
