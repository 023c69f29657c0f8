package trace

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeCallable, false},
		{LevelDetail, ScopeCallable, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String()+"/"+tt.scope.String(), func(t *testing.T) {
			if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
				t.Errorf("ShouldEmit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	span := Begin(tr, ScopePass, "evaluate", 0)
	Point(tr, ScopeNode, "branch", "filtered", span.ID())
	span.WithExtra("blocks", "4").End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ evaluate") || !strings.Contains(out, "← evaluate (ok) {blocks=4}") {
		t.Fatalf("missing span lines:\n%s", out)
	}
	if strings.Contains(out, "branch") {
		t.Fatalf("node-scope point emitted at detail level:\n%s", out)
	}
}

func TestRingTracerWraps(t *testing.T) {
	tr := NewRingTracer(2, LevelDebug, nil, FormatText)
	for _, name := range []string{"a", "b", "c"} {
		Point(tr, ScopeNode, name, "", 0)
	}
	events := tr.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", events)
	}
}

func TestRingTracerWritesTailOnClose(t *testing.T) {
	var buf bytes.Buffer
	tr := NewRingTracer(2, LevelDebug, &buf, FormatText)
	for _, name := range []string{"first", "second", "third"} {
		Point(tr, ScopeNode, name, "", 0)
	}
	if buf.Len() != 0 {
		t.Fatalf("ring wrote before Close:\n%s", buf.String())
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "1 older events dropped") || strings.Contains(out, "first") ||
		!strings.Contains(out, "second") || !strings.Contains(out, "third") {
		t.Fatalf("unexpected tail:\n%s", out)
	}
	n := buf.Len()
	if err := tr.Close(); err != nil || buf.Len() != n {
		t.Fatalf("second Close wrote again: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", ModeStream, true},
		{"ring", ModeRing, true},
		{"BOTH", ModeBoth, true},
		{"file", ModeStream, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err == nil) != tt.ok || got != tt.want {
				t.Fatalf("ParseMode(%q) = %s, %v", tt.in, got, err)
			}
		})
	}
}

func TestHeartbeat(t *testing.T) {
	if h := StartHeartbeat(Nop, time.Millisecond); h != nil {
		t.Fatal("heartbeat started on a disabled tracer")
	}
	tr := NewRingTracer(64, LevelError, nil, FormatText)
	h := StartHeartbeat(tr, time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	for len(tr.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	events := tr.Snapshot()
	if len(events) == 0 || events[0].Kind != KindHeartbeat || !strings.HasPrefix(events[0].Detail, "beat 1 ") {
		t.Fatalf("events = %+v", events)
	}
	var stopped *Heartbeat
	stopped.Stop()
}

func TestMultiTracerFanOut(t *testing.T) {
	a := NewRingTracer(8, LevelDebug, nil, FormatText)
	b := NewRingTracer(8, LevelDebug, nil, FormatText)
	m := NewMultiTracer(LevelDebug, a, b)
	Begin(m, ScopeDriver, "compile", 0).End("")
	if len(a.Snapshot()) != 2 || len(b.Snapshot()) != 2 {
		t.Fatalf("fan-out lost events: %d, %d", len(a.Snapshot()), len(b.Snapshot()))
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatalf("off tracer reports enabled")
	}
	if span := Begin(tr, ScopeDriver, "x", 0); span.ID() != 0 {
		t.Fatalf("disabled span has id %d", span.ID())
	}
}
