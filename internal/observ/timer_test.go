package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	clock := time.Unix(0, 0)
	tm := NewTimer()
	tm.now = func() time.Time { return clock }

	endLoad := tm.Begin("load")
	clock = clock.Add(time.Millisecond)
	endLoad("1 file")
	endLoad("late")
	endEval := tm.Begin("evaluate")
	clock = clock.Add(3 * time.Millisecond)
	endEval("")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "load" || r.Phases[1].Name != "evaluate" {
		t.Fatalf("unexpected phases: %+v", r.Phases)
	}
	if r.Phases[0].Note != "1 file" || r.Phases[0].DurationMS != 1 {
		t.Fatalf("load = %+v", r.Phases[0])
	}
	if r.TotalMS != 4 || r.Phases[0].Percent != 25 || r.Phases[1].Percent != 75 {
		t.Fatalf("report = %+v", r)
	}
	if tm.Total() != 4*time.Millisecond {
		t.Fatalf("total = %s", tm.Total())
	}
	sum := tm.Summary()
	for _, want := range []string{"load", "1 file", "25.0%", "total"} {
		if !strings.Contains(sum, want) {
			t.Fatalf("summary lacks %q:\n%s", want, sum)
		}
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	if r := tm.Report(); len(r.Phases) != 0 || tm.Total() != 0 {
		t.Fatalf("nil timer produced phases")
	}
}
