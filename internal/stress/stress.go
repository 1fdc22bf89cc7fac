// Package stress hammers the runtime's cross-goroutine contracts:
// concurrent retain/release of shared objects and strings, concurrently
// bound contexts, and container churn that must end leak-free.
package stress

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trace"
	"viper/internal/trap"
)

// Workload names one stress scenario.
type Workload string

const (
	WorkloadRefcount    Workload = "refcount"
	WorkloadStrings     Workload = "strings"
	WorkloadContexts    Workload = "contexts"
	WorkloadCollections Workload = "collections"
)

// All lists every workload in run order.
var All = []Workload{WorkloadRefcount, WorkloadStrings, WorkloadContexts, WorkloadCollections}

// Status captures the progress of a workload.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports workload progress. Done and Total count finished workers.
type Event struct {
	Workload Workload
	Status   Status
	Done     int
	Total    int
	Err      error
	Elapsed  time.Duration
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// Options configures a run.
type Options struct {
	Workers    int
	Iterations int
	Contexts   int
	Workloads  []Workload
	Sink       Sink
}

// Result is the outcome of one workload.
type Result struct {
	Workload Workload
	Ops      int64
	Elapsed  time.Duration
	Err      error
}

type runner struct {
	opts Options
	ops  atomic.Int64
	done atomic.Int32
}

func (o Options) emit(ev Event) {
	if o.Sink != nil {
		o.Sink.OnEvent(ev)
	}
}

func (r *runner) emit(ev Event) { r.opts.emit(ev) }

// fanWidth is the number of goroutines workload w runs on.
func (o Options) fanWidth(w Workload) int {
	if w == WorkloadContexts {
		return o.Contexts
	}
	return o.Workers
}

// Run executes the selected workloads one after another and returns one
// result per workload. The returned error is the first workload failure;
// later workloads still run.
func Run(ctx context.Context, opts Options) ([]Result, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Iterations <= 0 {
		return nil, fmt.Errorf("stress: iterations must be > 0 (got %d)", opts.Iterations)
	}
	if opts.Contexts <= 0 {
		opts.Contexts = 1
	}
	if len(opts.Workloads) == 0 {
		opts.Workloads = All
	}
	// The empty string is a lazily built singleton; build it outside the
	// measured windows.
	rtstr.Empty()

	for _, w := range opts.Workloads {
		if _, ok := workloads[w]; !ok {
			return nil, fmt.Errorf("stress: unknown workload %q", w)
		}
	}
	for _, w := range opts.Workloads {
		opts.emit(Event{Workload: w, Status: StatusQueued, Total: opts.fanWidth(w)})
	}

	results := make([]Result, 0, len(opts.Workloads))
	var firstErr error
	for _, w := range opts.Workloads {
		res := runOne(ctx, w, opts)
		if res.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stress %s: %w", w, res.Err)
		}
		results = append(results, res)
	}
	return results, firstErr
}

func runOne(ctx context.Context, w Workload, opts Options) Result {
	r := &runner{opts: opts}
	total := opts.fanWidth(w)
	r.emit(Event{Workload: w, Status: StatusWorking, Total: total})
	span := trace.Begin(trace.Get(), trace.ScopeHost, "stress."+string(w), 0)

	start := time.Now()
	err := guard(func() error { return workloads[w](ctx, r) })
	elapsed := time.Since(start)
	span.WithExtra("ops", fmt.Sprint(r.ops.Load())).End(string(statusOf(err)))

	r.emit(Event{Workload: w, Status: statusOf(err), Done: total, Total: total, Err: err, Elapsed: elapsed})
	return Result{Workload: w, Ops: r.ops.Load(), Elapsed: elapsed, Err: err}
}

func statusOf(err error) Status {
	if err != nil {
		return StatusError
	}
	return StatusDone
}

// guard turns a trap raised on the calling goroutine into an error.
func guard(fn func() error) (err error) {
	if terr := trap.Catch(func() { err = fn() }); terr != nil {
		return terr
	}
	return err
}

// fanOut runs fn on n goroutines with errgroup, converting traps on each
// goroutine into errors and reporting progress as workers finish.
func (r *runner) fanOut(ctx context.Context, w Workload, n int, fn func(ctx context.Context, worker int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			err := guard(func() error { return fn(gctx, i) })
			done := r.done.Add(1)
			r.emit(Event{Workload: w, Status: StatusWorking, Done: int(done), Total: n})
			return err
		})
	}
	return g.Wait()
}

var workloads = map[Workload]func(context.Context, *runner) error{
	WorkloadRefcount:    runRefcount,
	WorkloadStrings:     runStrings,
	WorkloadContexts:    runContexts,
	WorkloadCollections: runCollections,
}

// leakCheck fails when a workload leaves more blocks alive than it found.
func leakCheck(before heap.StatsSnapshot) error {
	d := heap.Stats().Sub(before)
	if d.Allocs != d.Frees {
		return fmt.Errorf("leaked %d blocks (%d allocs, %d frees)", d.Allocs-d.Frees, d.Allocs, d.Frees)
	}
	return nil
}
