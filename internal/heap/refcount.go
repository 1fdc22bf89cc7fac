package heap

import (
	"strconv"

	"viper/internal/trace"
	"viper/internal/trap"
)

// Retain increments the refcount of obj. Nil and immortal objects are
// left untouched.
func Retain(obj Object) {
	h := HeaderOf(obj)
	if h == nil {
		return
	}
	for {
		old := h.refcnt.Load()
		if old >= Immortal {
			return
		}
		if old == 0 {
			trap.Raisef(trap.CodeUseAfterFree, "heap: retain of freed block #%d", h.id)
		}
		if h.refcnt.CompareAndSwap(old, old+1) {
			counters.retains.Add(1)
			return
		}
	}
}

// Decrement drops one reference without freeing and returns the new
// count. Immortal objects report Immortal.
func Decrement(obj Object) uint64 {
	h := HeaderOf(obj)
	if h == nil {
		return 0
	}
	for {
		old := h.refcnt.Load()
		if old >= Immortal {
			return old
		}
		if old == 0 {
			trap.Raisef(trap.CodeUseAfterFree, "heap: release of freed block #%d", h.id)
		}
		if h.refcnt.CompareAndSwap(old, old-1) {
			counters.releases.Add(1)
			return old - 1
		}
	}
}

// Release drops one reference and returns the new count. When the count
// reaches zero the finalizer (if any) runs exactly once and the block is
// freed.
func Release(obj Object) uint64 {
	if obj == nil {
		return 0
	}
	n := Decrement(obj)
	if n == 0 {
		Free(obj)
	}
	return n
}

// Free finalizes and frees an object whose refcount is already zero.
// The finalizer slot is cleared before the finalizer is called so it
// cannot run twice.
func Free(obj Object) {
	h := HeaderOf(obj)
	if h == nil {
		return
	}
	rc := h.refcnt.Load()
	if rc >= Immortal {
		return
	}
	if rc != 0 {
		trap.Raisef(trap.CodeInvalidArgument, "heap: free of live block #%d (rc=%d)", h.id, rc)
	}
	if h.freed.Swap(true) {
		trap.Raisef(trap.CodeUseAfterFree, "heap: double free of block #%d", h.id)
	}

	if fn := h.finalizer; fn != nil {
		h.finalizer = nil
		if trace.On(trace.ScopeObject) {
			trace.Point(trace.Get(), trace.ScopeObject, "finalize", h.kind.String(), map[string]string{
				"id":    strconv.FormatUint(h.id, 10),
				"class": strconv.FormatInt(h.classID, 10),
			})
		}
		fn(obj)
	}

	if b, ok := obj.(*Block); ok {
		b.data = nil
	}
	counters.frees.Add(1)
	counters.liveBytes.Add(-int64(h.capacity))
	untrackLive(h)
	if trace.On(trace.ScopeHeap) {
		trace.Point(trace.Get(), trace.ScopeHeap, "free", h.kind.String(), map[string]string{
			"id": strconv.FormatUint(h.id, 10),
		})
	}
}

// RefCount returns the current refcount of obj (0 for nil or freed).
func RefCount(obj Object) uint64 {
	h := HeaderOf(obj)
	if h == nil {
		return 0
	}
	return h.refcnt.Load()
}

// IsImmortal reports whether obj carries the immortal sentinel.
func IsImmortal(obj Object) bool {
	return RefCount(obj) >= Immortal
}

// MakeImmortal pins obj forever. It is meant for process-wide singletons.
func MakeImmortal(obj Object) {
	h := HeaderOf(obj)
	if h == nil {
		return
	}
	h.refcnt.Store(Immortal)
	untrackLive(h)
}

// IsFreed reports whether obj has been returned to the allocator.
func IsFreed(obj Object) bool {
	h := HeaderOf(obj)
	return h != nil && h.freed.Load()
}
