package trace

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"
)

// DefaultRingSize is the ring capacity used when none is configured.
const DefaultRingSize = 4096

// RingTracer retains the most recent events and writes them to its output
// when closed. A full ring overwrites its oldest event.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	written uint64
	level   Level
	out     io.Writer
	format  Format
}

// NewRingTracer returns a ring holding size events. With a nil out the
// events are only reachable through Snapshot.
func NewRingTracer(size int, level Level, out io.Writer, format Format) *RingTracer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingTracer{buf: make([]Event, size), level: level, out: out, format: format}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.admits(ev) {
		return
	}
	t.mu.Lock()
	kept := *ev
	kept.Seq = NextSeq()
	t.buf[t.written%uint64(len(t.buf))] = kept
	t.written++
	t.mu.Unlock()
}

// Dropped is the number of events overwritten so far.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size := uint64(len(t.buf)); t.written > size {
		return t.written - size
	}
	return 0
}

// Snapshot copies the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	if t.written <= size {
		return slices.Clone(t.buf[:t.written])
	}
	start := t.written % size
	return append(slices.Clone(t.buf[start:]), t.buf[:start]...)
}

// Dump writes the retained events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

// Close writes the retained events to the output, after a note counting
// the ones that were overwritten. Later calls do nothing.
func (t *RingTracer) Close() error {
	t.mu.Lock()
	out := t.out
	t.out = nil
	t.mu.Unlock()
	if out == nil {
		return nil
	}
	var err error
	if n := t.Dropped(); n > 0 {
		note := Event{
			Time:   time.Now(),
			Kind:   KindPoint,
			Scope:  ScopeDriver,
			Name:   "ring",
			Detail: fmt.Sprintf("%d older events dropped", n),
		}
		_, err = out.Write(FormatEvent(&note, t.format))
	}
	if err == nil {
		err = t.Dump(out, t.format)
	}
	if c, ok := out.(io.Closer); ok && !isStdStream(out) {
		err = errors.Join(err, c.Close())
	}
	return err
}

func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
