package trace

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// gate carries the verbosity shared by every tracer implementation.
type gate struct{ level Level }

func (g gate) Level() Level  { return g.level }
func (g gate) Enabled() bool { return g.level > LevelOff }

type nopTracer struct{ gate }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop discards everything. It is the process-wide tracer until Set.
var Nop Tracer = nopTracer{}

// StreamTracer encodes each accepted event to a buffered writer. Trap
// events flush immediately because the process may not survive them.
type StreamTracer struct {
	gate
	format Format

	mu      sync.Mutex
	scratch []byte
	w       *bufio.Writer
	closer  io.Closer
}

// NewStreamTracer writes to w. FormatAuto means text.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	t := &StreamTracer{gate: gate{level}, format: format, w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.Accepts(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ev.Seq = NextSeq()
	t.scratch = AppendEvent(t.scratch[:0], ev, t.format)
	// Write errors are dropped; tracing never fails the runtime.
	_, _ = t.w.Write(t.scratch)
	if ev.Kind == KindTrap {
		_ = t.w.Flush()
	}
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Close flushes and closes the underlying writer when it is a Closer.
func (t *StreamTracer) Close() error {
	err := t.Flush()
	if t.closer != nil {
		err = errors.Join(err, t.closer.Close())
	}
	return err
}

// RingTracer keeps the most recent events in memory so they can be
// dumped after a trap.
type RingTracer struct {
	gate

	mu      sync.Mutex
	slots   []Event
	written uint64
}

// NewRingTracer keeps the last capacity events (4096 when capacity <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{gate: gate{level}, slots: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.Accepts(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stored.Seq = NextSeq()
	t.slots[t.written%uint64(len(t.slots))] = stored
	t.written++
}

// Snapshot returns the retained events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.slots))
	n := min(t.written, size)
	out := make([]Event, n)
	start := t.written - n
	for i := range out {
		out[i] = t.slots[(start+uint64(i))%size]
	}
	return out
}

// Dropped reports how many events were overwritten.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size := uint64(len(t.slots)); t.written > size {
		return t.written - size
	}
	return 0
}

// Dump writes the retained events to w in one call.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	var buf []byte
	events := t.Snapshot()
	for i := range events {
		buf = AppendEvent(buf, &events[i], format)
	}
	_, err := w.Write(buf)
	return err
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }

// MultiTracer hands each event to several tracers.
type MultiTracer struct {
	gate
	tracers []Tracer
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{gate: gate{level}, tracers: tracers}
}

// Emit gives each target its own copy so sequence numbers do not clash.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

// Rings returns the ring tracers among the targets.
func (t *MultiTracer) Rings() []*RingTracer {
	var out []*RingTracer
	for _, tr := range t.tracers {
		if r, ok := tr.(*RingTracer); ok {
			out = append(out, r)
		}
	}
	return out
}

func (t *MultiTracer) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *MultiTracer) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}
