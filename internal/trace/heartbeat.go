package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a driver-scope event at a fixed interval while a command
// runs. Beats that keep arriving without span ends point at a stuck
// evaluation.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat beats on tr every interval. It returns nil when tr is
// disabled or interval is not positive.
func StartHeartbeat(tr Tracer, interval time.Duration) *Heartbeat {
	if tr == nil || !tr.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.beat(tr, interval, time.Now())
	return h
}

func (h *Heartbeat) beat(tr Tracer, interval time.Duration, started time.Time) {
	defer close(h.done)
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for n := 1; ; n++ {
		select {
		case <-h.stop:
			return
		case now := <-tick.C:
			tr.Emit(&Event{
				Time:   now,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: fmt.Sprintf("beat %d after %s", n, now.Sub(started).Round(time.Millisecond)),
			})
		}
	}
}

// Stop ends the heartbeat once its last event is out. A nil Heartbeat is
// allowed.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
