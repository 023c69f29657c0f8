package observ

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Phase is one timed pipeline stage.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer records the stages of one compilation in the order they ran. Each
// compiled file owns a Timer; it is not safe for concurrent use.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens stage name. The returned func closes it with a note; only its
// first call counts.
func (t *Timer) Begin(name string) (end func(note string)) {
	idx := len(t.phases)
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	closed := false
	return func(note string) {
		if closed {
			return
		}
		closed = true
		p := &t.phases[idx]
		p.Dur = t.now().Sub(p.Start)
		p.Note = note
	}
}

// Phases copies the recorded stages. A nil Timer has none.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	return slices.Clone(t.phases)
}

// Total sums the stage durations.
func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, p := range t.Phases() {
		total += p.Dur
	}
	return total
}

// PhaseReport is a Phase in milliseconds with its share of the total.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Percent    float64 `json:"percent" msgpack:"percent"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

func (t *Timer) Report() Report {
	phases := t.Phases()
	if len(phases) == 0 {
		return Report{}
	}
	total := t.Total()
	r := Report{TotalMS: millis(total), Phases: make([]PhaseReport, len(phases))}
	for i, p := range phases {
		r.Phases[i] = PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note}
		if total > 0 {
			r.Phases[i].Percent = 100 * float64(p.Dur) / float64(total)
		}
	}
	return r
}

// Summary renders the report for --timings.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-10s %8.3f ms %5.1f%%", p.Name, p.DurationMS, p.Percent)
		if p.Note != "" {
			sb.WriteString("  " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-10s %8.3f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
