package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeHost, false},
		{LevelError, ScopeHost, false},
		{LevelContext, ScopeContext, true},
		{LevelContext, ScopeObject, false},
		{LevelObject, ScopeObject, true},
		{LevelObject, ScopeHeap, false},
		{LevelHeap, ScopeHeap, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	trap := &Event{Kind: KindTrap, Scope: ScopeHeap}
	if !LevelError.Accepts(trap) || LevelOff.Accepts(trap) {
		t.Fatal("traps pass every level except off")
	}
}

func TestParsers(t *testing.T) {
	if l, err := ParseLevel(" Object "); err != nil || l != LevelObject {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("unknown levels must fail")
	}
	if m, err := ParseMode("BOTH"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if m, _ := ParseMode(""); m != ModeStream {
		t.Fatal("empty mode means stream")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelContext, FormatText)
	span := Begin(tr, ScopeContext, "bind", 0)
	Point(tr, ScopeHeap, "alloc", "filtered", nil)
	span.WithExtra("ctx", "7").End("ok")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected begin and end lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "[context]") || !strings.Contains(lines[0], "> bind") {
		t.Fatalf("unexpected begin line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "< bind (ok) {ctx=7}") {
		t.Fatalf("unexpected end line %q", lines[1])
	}
}

func TestStreamTracerFlushesTraps(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)
	Trap(tr, "E2004", "pop on empty")
	var ev map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("trap was not flushed as json: %q (%v)", buf.String(), err)
	}
	if ev["kind"] != "trap" || ev["name"] != "E2004" || ev["detail"] != "pop on empty" {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestRingTracerKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelHeap)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeHeap, name, "", nil)
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "c" || snap[2].Name != "e" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if r.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", r.Dropped())
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump should hold 3 lines:\n%s", buf.String())
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

func TestNewBuildsEachMode(t *testing.T) {
	if tr, err := New(Config{Level: LevelOff}); err != nil || tr != Nop {
		t.Fatal("LevelOff yields Nop")
	}
	out := &closeRecorder{err: errors.New("disk full")}
	tr, err := New(Config{Level: LevelHeap, Mode: ModeBoth, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	multi, ok := tr.(*MultiTracer)
	if !ok || len(multi.Rings()) != 1 {
		t.Fatalf("both mode should fan out to a ring, got %T", tr)
	}
	Point(tr, ScopeHeap, "free", "", map[string]string{"id": "1"})
	if got := multi.Rings()[0].Snapshot(); len(got) != 1 {
		t.Fatalf("ring holds %d events", len(got))
	}
	if err := tr.Close(); err == nil || !out.closed {
		t.Fatalf("close must reach the output and report its error, got %v", err)
	}
	if !strings.Contains(out.String(), "free") {
		t.Fatalf("stream missed the event: %q", out.String())
	}
	if _, err := New(Config{Level: LevelHeap, Mode: 9}); err == nil {
		t.Fatal("unknown modes must fail")
	}
}

func TestGlobalAndContext(t *testing.T) {
	r := NewRingTracer(8, LevelContext)
	prev := Set(r)
	defer Set(prev)
	if Get() != r || !On(ScopeContext) || On(ScopeHeap) {
		t.Fatal("process-wide tracer not installed")
	}
	if FromContext(nil) != r {
		t.Fatal("nil context falls back to the global tracer")
	}
	ctx := WithTracer(t.Context(), nil)
	if FromContext(ctx) != Nop {
		t.Fatal("WithTracer(nil) attaches Nop")
	}
	if Set(nil); Get() != Nop {
		t.Fatal("Set(nil) restores Nop")
	}
}

func TestInertSpan(t *testing.T) {
	s := Begin(Nop, ScopeHost, "x", 0)
	if s.ID() != 0 || s.WithExtra("k", "v").End("done") != 0 {
		t.Fatal("spans on a disabled tracer are inert")
	}
}
