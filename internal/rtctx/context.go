// Package rtctx isolates per-VM runtime state.
//
// A Context owns the RNG, the module-variable slots, the file table, the
// argument vector and the class registry of one VM. Each goroutine has at
// most one current context; runtime calls made while none is bound fall
// back to a lazily created process-wide legacy context.
//
// Binding is reference counted. The first bind of a context adopts any
// files, arguments and types left in the legacy context; the last unbind
// to nil hands them back, so native code running after a VM exits still
// sees the same handles. Transfers only fill empty destinations.
package rtctx

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"viper/internal/rtstr"
	"viper/internal/trace"
	"viper/internal/trap"
)

var nextContextID atomic.Uint64

// Context is the state of one VM instance.
type Context struct {
	id    uint64
	binds atomic.Int64

	rng rngState

	modvars   map[modKey]*modvar
	modvarSeq []modKey

	// Transferable state. Accessed under the handoff lock.
	files *FileTable
	args  []*rtstr.String
	types *Registry
}

// New returns an empty, unbound context with the default RNG seed.
func New() *Context {
	c := &Context{id: nextContextID.Add(1)}
	c.init()
	return c
}

func (c *Context) init() {
	c.rng.seed(DefaultSeed)
	c.modvars = make(map[modKey]*modvar)
	c.modvarSeq = nil
	c.files = nil
	c.args = nil
	c.types = nil
}

// ID returns the context serial number used in traces.
func (c *Context) ID() uint64 { return c.id }

// BindCount reports how many goroutines currently have c bound.
func (c *Context) BindCount() int64 { return c.binds.Load() }

// spinLock guards the short handoff critical sections.
type spinLock struct{ held atomic.Bool }

func (l *spinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *spinLock) Unlock() { l.held.Store(false) }

var handoff spinLock

// Legacy context states.
const (
	legacyUninit int32 = iota
	legacyInitializing
	legacyReady
)

var (
	legacyState atomic.Int32
	legacyCtx   Context
)

// Legacy returns the process-wide fallback context, creating it on first
// use. Concurrent first callers wait until initialization is complete.
func Legacy() *Context {
	if legacyState.Load() == legacyReady {
		return &legacyCtx
	}
	if legacyState.CompareAndSwap(legacyUninit, legacyInitializing) {
		legacyCtx.id = nextContextID.Add(1)
		legacyCtx.init()
		legacyState.Store(legacyReady)
		return &legacyCtx
	}
	for legacyState.Load() != legacyReady {
		runtime.Gosched()
	}
	return &legacyCtx
}

// bound maps goroutine id to its current context.
var bound sync.Map

// Current returns the context bound to the calling goroutine, or nil.
func Current() *Context {
	if v, ok := bound.Load(goid.Get()); ok {
		return v.(*Context)
	}
	return nil
}

// Effective returns the current context, or the legacy context when the
// goroutine has none bound.
func Effective() *Context {
	if c := Current(); c != nil {
		return c
	}
	return Legacy()
}

// SetCurrent binds ctx to the calling goroutine; nil unbinds. Rebinding
// the context that is already current does nothing.
func SetCurrent(ctx *Context) {
	gid := goid.Get()
	var old *Context
	if v, ok := bound.Load(gid); ok {
		old = v.(*Context)
	}
	if old == ctx {
		return
	}
	if ctx == nil {
		bound.Delete(gid)
	} else {
		bound.Store(gid, ctx)
	}

	if old != nil {
		remaining := old.binds.Add(-1)
		if remaining < 0 {
			trap.Raisef(trap.CodeInvalidArgument, "rtctx: context #%d unbound more often than bound", old.id)
		}
		traceBind("unbind", old, remaining)
		if remaining == 0 && ctx == nil {
			leg := Legacy()
			if old != leg {
				handoff.Lock()
				moved := transfer(leg, old)
				handoff.Unlock()
				traceHandoff("release", old, moved)
			}
		}
	}

	if ctx != nil {
		leg := Legacy()
		n := ctx.binds.Add(1)
		traceBind("bind", ctx, n)
		if n == 1 && ctx != leg {
			handoff.Lock()
			moved := transfer(ctx, leg)
			handoff.Unlock()
			traceHandoff("adopt", ctx, moved)
		}
	}
}

// transfer moves files, args and types from src into dst wherever dst is
// empty and src is not. It returns the names of the moved parts.
func transfer(dst, src *Context) []string {
	var moved []string
	if dst.files.Len() == 0 && src.files.Len() > 0 {
		dst.files, src.files = src.files, nil
		moved = append(moved, "files")
	}
	if len(dst.args) == 0 && len(src.args) > 0 {
		dst.args, src.args = src.args, nil
		moved = append(moved, "args")
	}
	if dst.types.Empty() && !src.types.Empty() {
		dst.types, src.types = src.types, nil
		moved = append(moved, "types")
	}
	return moved
}

// Cleanup releases everything ctx owns: open files are closed, argument
// and string slot values released, slot storage freed and the class
// registry dropped. The context must not be bound anywhere. It is left
// empty and reusable. File close errors are returned joined.
func Cleanup(ctx *Context) error {
	if ctx == nil {
		return nil
	}
	if n := ctx.binds.Load(); n != 0 {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx: cleanup of context #%d with %d live bindings", ctx.id, n)
	}
	handoff.Lock()
	files, args := ctx.files, ctx.args
	ctx.files, ctx.args, ctx.types = nil, nil, nil
	handoff.Unlock()

	err := files.CloseAll()
	for _, a := range args {
		rtstr.Release(a)
	}
	ctx.freeModvars()
	ctx.init()
	traceHandoff("cleanup", ctx, nil)
	return err
}

// ShutdownLegacy cleans the legacy context if it was ever created.
func ShutdownLegacy() error {
	if legacyState.Load() != legacyReady {
		return nil
	}
	return Cleanup(&legacyCtx)
}

func traceBind(name string, c *Context, count int64) {
	if !trace.On(trace.ScopeContext) {
		return
	}
	trace.Point(trace.Get(), trace.ScopeContext, name, "", map[string]string{
		"ctx":   strconv.FormatUint(c.id, 10),
		"binds": strconv.FormatInt(count, 10),
	})
}

func traceHandoff(name string, c *Context, moved []string) {
	if !trace.On(trace.ScopeContext) {
		return
	}
	extra := map[string]string{"ctx": strconv.FormatUint(c.id, 10)}
	for _, m := range moved {
		extra[m] = "moved"
	}
	trace.Point(trace.Get(), trace.ScopeContext, name, "", extra)
}
