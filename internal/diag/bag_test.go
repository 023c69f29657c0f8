package diag_test

import (
	"testing"

	"quill/internal/diag"
	"quill/internal/source"
)

func TestBagSortAndLimit(t *testing.T) {
	bag := diag.NewBag(3)
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.EvalFailed, source.Span{File: 1, Start: 20, End: 25}, "late").Emit()
	diag.ReportWarning(r, diag.CapInfo, source.Span{File: 1, Start: 5, End: 9}, "early warning").Emit()
	diag.ReportError(r, diag.CapMissingCapability, source.Span{File: 1, Start: 5, End: 9}, "early error").
		WithNote(source.Span{File: 1, Start: 1, End: 2}, "declared here").
		Emit()
	if bag.Add(diag.New(diag.SevError, diag.UnknownCode, source.Span{}, "overflow")) {
		t.Fatalf("bag accepted item past its limit")
	}

	bag.Sort()
	items := bag.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Message != "early error" || items[1].Message != "early warning" || items[2].Message != "late" {
		t.Fatalf("unexpected order: %q, %q, %q", items[0].Message, items[1].Message, items[2].Message)
	}
	if len(items[0].Notes) != 1 {
		t.Fatalf("note lost: %+v", items[0])
	}
	if !bag.HasErrors() {
		t.Fatalf("HasErrors() = false")
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	bag := diag.NewBag(10)
	b := diag.ReportError(diag.BagReporter{Bag: bag}, diag.EvalFailed, source.Span{}, "boom")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected a single diagnostic, got %d", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code diag.Code
		want string
	}{
		{diag.CapDynamicLoop, "CAP1002"},
		{diag.UnsConstruct, "UNS2001"},
		{diag.EvalDivisionByZero, "EVL3003"},
		{diag.OutResultLiteral, "OUT4001"},
		{diag.DrvConfig, "DRV5004"},
		{diag.UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}
