package ui

import (
	"errors"
	"strings"
	"testing"

	"viper/internal/stress"
)

func TestApplyEventTracksRows(t *testing.T) {
	ws := []stress.Workload{stress.WorkloadRefcount, stress.WorkloadStrings}
	m := NewStressModel("stress", ws, nil).(*progressModel)

	m.applyEvent(stress.Event{Workload: stress.WorkloadRefcount, Status: stress.StatusWorking, Done: 2, Total: 4})
	if got := m.percent(); got != 0.25 {
		t.Fatalf("percent = %v, want 0.25", got)
	}
	m.applyEvent(stress.Event{Workload: stress.WorkloadStrings, Status: stress.StatusError, Err: errors.New("leaked 3 blocks")})
	if got := m.percent(); got != 0.75 {
		t.Fatalf("percent = %v, want 0.75", got)
	}
	m.applyEvent(stress.Event{Workload: "unknown", Status: stress.StatusDone})

	view := m.View()
	if !strings.Contains(view, "refcount") || !strings.Contains(view, "2/4 workers") {
		t.Fatalf("view missing working row:\n%s", view)
	}
	if !strings.Contains(view, "leaked 3 blocks") {
		t.Fatalf("view missing error detail:\n%s", view)
	}
}

func TestUpdateQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan stress.Event)
	close(ch)
	m := NewStressModel("stress", stress.All, ch).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("expected doneMsg, got %T", msg)
	}
	if _, cmd := m.Update(msg); cmd == nil || !m.done {
		t.Fatal("closing the stream must finish the model")
	}
	if !strings.HasPrefix(stripANSI(m.View()), "done: stress") {
		t.Fatalf("unexpected header:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short values pass through, got %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("tiny widths drop the ellipsis, got %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	esc := false
	for _, r := range s {
		switch {
		case r == 0x1b:
			esc = true
		case esc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			esc = false
		case !esc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
