package heap

import (
	"strconv"
	"sync/atomic"

	"fortio.org/safecast"

	"viper/internal/trace"
	"viper/internal/trap"
)

// AllocFunc obtains size bytes of payload storage. A nil result reports
// exhaustion.
type AllocFunc func(size int) []byte

// AllocHook wraps the allocator. It receives the request size and the
// default implementation; tests use it to simulate out-of-memory or to
// trace allocations.
type AllocHook func(size int, next AllocFunc) []byte

var (
	allocHook atomic.Pointer[AllocHook]
	nextID    atomic.Uint64

	// reserved backs typed objects: their fields live in Go memory, so the
	// hook only gets to see (and possibly refuse) the request.
	reserved = make([]byte, 0)
)

func defaultAlloc(size int) []byte {
	return make([]byte, size)
}

func reserveOnly(int) []byte {
	return reserved
}

// SetAllocHook installs h and returns the previous hook. A nil h restores
// the default allocator.
func SetAllocHook(h AllocHook) AllocHook {
	var prev *AllocHook
	if h == nil {
		prev = allocHook.Swap(nil)
	} else {
		prev = allocHook.Swap(&h)
	}
	if prev == nil {
		return nil
	}
	return *prev
}

// LimitHook returns a hook that refuses any request that would push live
// payload bytes past limit.
func LimitHook(limit int64) AllocHook {
	return func(size int, next AllocFunc) []byte {
		want, err := safecast.Conv[int64](size)
		if err != nil || Stats().LiveBytes+want > limit {
			return nil
		}
		return next(size)
	}
}

func obtain(size int, fallback AllocFunc) []byte {
	var buf []byte
	if h := allocHook.Load(); h != nil {
		buf = (*h)(size, fallback)
	} else {
		buf = fallback(size)
	}
	if buf == nil {
		trap.Raisef(trap.CodeOutOfMemory, "heap: out of memory (%d bytes)", size)
	}
	return buf
}

func checkSize(op string, n int) {
	if n < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "%s: negative size %d", op, n)
	}
	if n > MaxAlloc {
		trap.Raisef(trap.CodeOutOfMemory, "%s: request of %d bytes exceeds limit", op, n)
	}
}

// Alloc allocates a raw block with a zero-filled payload and refcount 1.
// count is the element count; it is validated but sizing follows length
// and capacity. A zero capacity is promoted to one byte so a successful
// allocation always has storage.
func Alloc(kind Kind, elem Elem, count, length, capacity int) *Block {
	if count < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "heap.Alloc: negative element count %d", count)
	}
	checkSize("heap.Alloc", length)
	checkSize("heap.Alloc", capacity)
	if capacity < length {
		capacity = length
	}
	if capacity == 0 {
		capacity = 1
	}

	buf := obtain(capacity, defaultAlloc)
	if len(buf) < capacity {
		trap.Raisef(trap.CodeOutOfMemory, "heap.Alloc: allocator returned %d of %d bytes", len(buf), capacity)
	}
	buf = buf[:capacity:capacity]
	clear(buf)

	b := &Block{data: buf}
	initHeader(&b.Header, kind, elem, 0, length, capacity)
	noteAlloc(b, capacity)
	return b
}

// Track registers a typed object whose header is embedded in obj.
// size is the accounting size of the object's payload; the alloc hook
// sees it and may refuse it.
func Track(obj Object, kind Kind, elem Elem, classID int64, size int) {
	checkSize("heap.Track", size)
	if size == 0 {
		size = 1
	}
	obtain(size, reserveOnly)
	h := obj.Hdr()
	if kind != KindObject {
		classID = 0
	}
	initHeader(h, kind, elem, classID, 0, size)
	noteAlloc(obj, size)
}

func initHeader(h *Header, kind Kind, elem Elem, classID int64, length, capacity int) {
	h.refcnt.Store(1)
	h.freed.Store(false)
	h.kind = kind
	h.elem = elem
	h.length = length
	h.capacity = capacity
	h.classID = classID
	h.finalizer = nil
	h.id = nextID.Add(1)
}

func noteAlloc(obj Object, size int) {
	counters.allocs.Add(1)
	counters.liveBytes.Add(int64(size))
	trackLive(obj)
	if trace.On(trace.ScopeHeap) {
		h := obj.Hdr()
		trace.Point(trace.Get(), trace.ScopeHeap, "alloc", h.kind.String(), map[string]string{
			"id":    strconv.FormatUint(h.id, 10),
			"size":  strconv.Itoa(size),
			"class": strconv.FormatInt(h.classID, 10),
		})
	}
}

func raiseRange(op string, idx, limit int) {
	trap.Raisef(trap.CodeOutOfRange, "%s: %d out of range [0, %d]", op, idx, limit)
}
