package heap

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

type heapCounters struct {
	allocs    atomic.Uint64
	frees     atomic.Uint64
	retains   atomic.Uint64
	releases  atomic.Uint64
	liveBytes atomic.Int64
}

var counters heapCounters

// StatsSnapshot is a point-in-time copy of the heap counters.
type StatsSnapshot struct {
	Allocs    uint64 `msgpack:"allocs"`
	Frees     uint64 `msgpack:"frees"`
	Live      uint64 `msgpack:"live"`
	Retains   uint64 `msgpack:"retains"`
	Releases  uint64 `msgpack:"releases"`
	LiveBytes int64  `msgpack:"live_bytes"`
}

// Stats returns the process-wide heap counters.
func Stats() StatsSnapshot {
	s := StatsSnapshot{
		Allocs:    counters.allocs.Load(),
		Frees:     counters.frees.Load(),
		Retains:   counters.retains.Load(),
		Releases:  counters.releases.Load(),
		LiveBytes: counters.liveBytes.Load(),
	}
	if s.Allocs > s.Frees {
		s.Live = s.Allocs - s.Frees
	}
	return s
}

// Sub returns the counter deltas between s and an earlier snapshot.
func (s StatsSnapshot) Sub(earlier StatsSnapshot) StatsSnapshot {
	d := StatsSnapshot{
		Allocs:    s.Allocs - earlier.Allocs,
		Frees:     s.Frees - earlier.Frees,
		Retains:   s.Retains - earlier.Retains,
		Releases:  s.Releases - earlier.Releases,
		LiveBytes: s.LiveBytes - earlier.LiveBytes,
	}
	if d.Allocs > d.Frees {
		d.Live = d.Allocs - d.Frees
	}
	return d
}

// live is the optional registry of allocated objects used for leak checks.
var live struct {
	mu      sync.Mutex
	enabled bool
	objs    map[uint64]Object
}

// EnableLiveTracking turns the live-object registry on or off. Objects
// allocated while it is off are never reported as leaks.
func EnableLiveTracking(on bool) {
	live.mu.Lock()
	defer live.mu.Unlock()
	live.enabled = on
	if on && live.objs == nil {
		live.objs = make(map[uint64]Object, 128)
	}
	if !on {
		live.objs = nil
	}
}

func trackLive(obj Object) {
	live.mu.Lock()
	if live.enabled {
		live.objs[obj.Hdr().id] = obj
	}
	live.mu.Unlock()
}

func untrackLive(h *Header) {
	live.mu.Lock()
	if live.enabled {
		delete(live.objs, h.id)
	}
	live.mu.Unlock()
}

// LiveBlock describes one tracked, not yet freed allocation.
type LiveBlock struct {
	ID       uint64 `msgpack:"id"`
	Kind     string `msgpack:"kind"`
	Elem     string `msgpack:"elem"`
	ClassID  int64  `msgpack:"class"`
	RefCount uint64 `msgpack:"rc"`
	Len      int    `msgpack:"len"`
	Cap      int    `msgpack:"cap"`
}

// LiveBlocks returns the tracked allocations ordered by id.
func LiveBlocks() []LiveBlock {
	live.mu.Lock()
	out := make([]LiveBlock, 0, len(live.objs))
	for _, obj := range live.objs {
		h := obj.Hdr()
		out = append(out, LiveBlock{
			ID:       h.id,
			Kind:     h.kind.String(),
			Elem:     h.elem.String(),
			ClassID:  h.classID,
			RefCount: h.refcnt.Load(),
			Len:      h.length,
			Cap:      h.capacity,
		})
	}
	live.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LeakReport formats the tracked live set, or returns "" when nothing
// is alive.
func LeakReport() string {
	blocks := LiveBlocks()
	if len(blocks) == 0 {
		return ""
	}
	const maxList = 8
	kindCounts := make(map[string]int, 4)
	list := make([]string, 0, maxList)
	for _, b := range blocks {
		kindCounts[b.Kind]++
		if len(list) < maxList {
			list = append(list, fmt.Sprintf("%s#%d(rc=%d,class=%d)", b.Kind, b.ID, b.RefCount, b.ClassID))
		}
	}
	msg := fmt.Sprintf("heap leak detected: %d objects still alive", len(blocks))
	kindList := make([]string, 0, len(kindCounts))
	for kind, n := range kindCounts {
		kindList = append(kindList, fmt.Sprintf("%s=%d", kind, n))
	}
	sort.Strings(kindList)
	msg += " (" + strings.Join(kindList, ", ") + ")"
	msg += ": " + strings.Join(list, ", ")
	return msg
}
