package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tracer receives trace events. Emit may be called from several goroutines
// at once.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	// Close flushes and releases the output.
	Close() error
	Level() Level
	Enabled() bool
}

// Mode selects where a tracer keeps its events.
type Mode uint8

const (
	// ModeStream writes every event as it happens.
	ModeStream Mode = iota + 1
	// ModeRing keeps the last events and writes them at exit.
	ModeRing
	// ModeBoth streams to the output and prints the ring tail on stderr.
	ModeBoth
)

var modeNames = [...]string{
	ModeStream: "stream",
	ModeRing:   "ring",
	ModeBoth:   "both",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode reads a --trace-mode value. The empty string is ModeStream.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeStream, nil
	}
	for m, name := range modeNames {
		if name != "" && strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return ModeStream, fmt.Errorf("unknown trace mode %q, want stream, ring or both", s)
}

type Config struct {
	Level  Level
	Mode   Mode
	Format Format
	// Output overrides Path.
	Output io.Writer
	// Path names the trace file; "" and "-" mean stderr.
	Path     string
	RingSize int
}

// New builds the tracer cfg describes. A zero Mode streams.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Mode > ModeBoth {
		return nil, fmt.Errorf("unknown trace mode %s", cfg.Mode)
	}
	out, err := cfg.open()
	if err != nil {
		return nil, err
	}
	format := cfg.format()

	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level, out, format), nil
	case ModeBoth:
		stream := NewStreamTracer(out, cfg.Level, format)
		if isStdStream(out) {
			return stream, nil
		}
		tail := NewRingTracer(cfg.RingSize, cfg.Level, os.Stderr, FormatText)
		return NewMultiTracer(cfg.Level, stream, tail), nil
	}
	return NewStreamTracer(out, cfg.Level, format), nil
}

func (c Config) format() Format {
	if c.Format != FormatAuto {
		return c.Format
	}
	switch filepath.Ext(c.Path) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	}
	return FormatText
}

func (c Config) open() (io.Writer, error) {
	switch {
	case c.Output != nil:
		return c.Output, nil
	case c.Path == "" || c.Path == "-":
		return os.Stderr, nil
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return f, nil
}
