// Package selftest runs the runtime's end-to-end ownership scenarios and
// reports each as a pass or failure. Traps raised by a scenario are
// caught and reported as failures.
package selftest

import (
	"fmt"
	"time"

	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trace"
	"viper/internal/trap"
)

// Scenario is one named end-to-end check.
type Scenario struct {
	Name string
	Run  func() error
}

// Result is the outcome of one scenario.
type Result struct {
	Name    string
	Err     error
	Elapsed time.Duration
	// Leaked counts blocks the scenario allocated but never freed.
	Leaked uint64
}

// Passed reports whether the scenario succeeded without leaking.
func (r Result) Passed() bool { return r.Err == nil && r.Leaked == 0 }

// Scenarios lists every built-in scenario in run order.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "refcount", Run: refcountEndToEnd},
		{Name: "concat", Run: concatConsumesOperands},
		{Name: "map-replace", Run: mapReplaceReleases},
		{Name: "lru-eviction", Run: lruEvictionOrder},
		{Name: "sortedmap-queries", Run: sortedMapQueries},
		{Name: "context-isolation", Run: contextIsolation},
	}
}

// Run executes scenarios in order. A nil list runs Scenarios().
func Run(scenarios []Scenario) []Result {
	if scenarios == nil {
		scenarios = Scenarios()
	}
	// The empty string singleton is built lazily; build it before any
	// scenario's leak accounting starts.
	rtstr.Empty()
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		results = append(results, runOne(sc))
	}
	return results
}

// Failed counts the results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}

func runOne(sc Scenario) Result {
	span := trace.Begin(trace.Get(), trace.ScopeHost, "selftest."+sc.Name, 0)
	before := heap.Stats()
	start := time.Now()

	var err error
	if terr := trap.Catch(func() { err = sc.Run() }); terr != nil {
		err = terr
	}
	res := Result{Name: sc.Name, Err: err, Elapsed: time.Since(start)}
	if d := heap.Stats().Sub(before); d.Allocs > d.Frees {
		res.Leaked = d.Allocs - d.Frees
	}

	detail := "pass"
	if !res.Passed() {
		detail = "fail"
	}
	span.End(detail)
	return res
}

func expect(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return fmt.Errorf(format, args...)
}
