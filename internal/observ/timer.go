// Package observ times the steps of host commands (selftest scenarios,
// stress workloads) for the CLI's --timings output.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Step records the duration and outcome of one timed step.
type Step struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks a sequence of steps.
type Timer struct {
	steps []Step
	now   func() time.Time
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{steps: make([]Step, 0, 8), now: time.Now} }

// Begin starts a step and returns its index.
func (t *Timer) Begin(name string) int {
	t.steps = append(t.steps, Step{Name: name, Start: t.now()})
	return len(t.steps) - 1
}

// End closes the step at idx. Unknown indices are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.steps) {
		return
	}
	s := &t.steps[idx]
	s.Dur = t.now().Sub(s.Start)
	s.Note = note
}

// Record adds an already measured step.
func (t *Timer) Record(name string, d time.Duration, note string) {
	t.steps = append(t.steps, Step{Name: name, Start: t.now().Add(-d), Dur: d, Note: note})
}

// Time runs fn as a step named name and notes its error, if any.
func (t *Timer) Time(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := "ok"
	if err != nil {
		note = err.Error()
	}
	t.End(idx, note)
	return err
}

// Summary renders the steps as an aligned text block.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, s := range report.Steps {
		fmt.Fprintf(&b, "  %-24s %9.3f ms", s.Name, s.DurationMS)
		if s.Note != "" {
			b.WriteString("  // " + s.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-24s %9.3f ms\n", "total", report.TotalMS)
	return b.String()
}

// StepReport is the serializable form of a step.
type StepReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report aggregates every step.
type Report struct {
	TotalMS float64      `json:"total_ms" msgpack:"total_ms"`
	Steps   []StepReport `json:"steps" msgpack:"steps"`
}

// Report returns the steps and their total in milliseconds.
func (t *Timer) Report() Report {
	if len(t.steps) == 0 {
		return Report{}
	}
	report := Report{Steps: make([]StepReport, len(t.steps))}
	var total time.Duration
	for i, s := range t.steps {
		total += s.Dur
		report.Steps[i] = StepReport{Name: s.Name, DurationMS: millis(s.Dur), Note: s.Note}
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
