package main

import (
	"bytes"
	"strings"
	"testing"

	"quill/internal/config"
	"quill/internal/pipeline"
	"quill/internal/target"
)

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{" ON ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestLoadCompileConfigFlagsOverride(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadCompileConfig(compileFlags{
		targetName:   "base",
		capabilities: "Adaptive|IntegerComputations",
		emit:         "bin",
		outDir:       dir,
		maxDepth:     32,
	}, []string{dir + "/prog.qfir"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile != target.Base || cfg.Capabilities != target.Adaptive|target.IntegerComputations {
		t.Fatalf("profile %s caps %s", cfg.Profile, cfg.Capabilities)
	}
	if cfg.Emit != config.EmitBin || cfg.OutputDir != dir || cfg.MaxCallDepth != 32 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := loadCompileConfig(compileFlags{maxLoop: -1}, []string{dir + "/prog.qfir"}); err == nil {
		t.Fatal("negative limit accepted")
	}
}

func TestCollectInputs(t *testing.T) {
	inputs, err := collectInputs([]string{"a.qfir"}, []string{"bell"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) != 2 || inputs[0].Path != "a.qfir" || inputs[1].Name != "sample:bell" || inputs[1].Package == nil {
		t.Fatalf("inputs = %+v", inputs)
	}
	if _, err := collectInputs(nil, []string{"nope"}); err == nil {
		t.Fatal("unknown sample accepted")
	}
}

func TestPrintStageTimings(t *testing.T) {
	var timings pipeline.Timings
	timings.Add(pipeline.StageLoad, 1500000)
	timings.Add(pipeline.StageEvaluate, 2000000)
	var buf bytes.Buffer
	printStageTimings(&buf, timings)
	if got := buf.String(); got != "loaded 1.5 ms\nevaluated 2.0 ms\n" {
		t.Fatalf("timings:\n%s", got)
	}
}

func TestWriteTableAligns(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"id", "name"}, [][]string{{"10", "main"}, {"2", "mz"}})
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 || lines[1] != "10  main" || lines[2] != "2   mz" {
		t.Fatalf("table:\n%s", buf.String())
	}
}
