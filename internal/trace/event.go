package trace

import "time"

// Kind classifies an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint // instant event
	KindTrap  // fatal runtime trap
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindTrap:      "trap",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeHost    Scope = iota + 1 // CLI and embedding host phases
	ScopeContext                  // context bind, unbind, handoff, cleanup
	ScopeObject                   // finalizers, object lifecycle
	ScopeHeap                     // individual allocations and frees
)

var scopeNames = [...]string{
	ScopeHost:    "host",
	ScopeContext: "context",
	ScopeObject:  "object",
	ScopeHeap:    "heap",
}

func (s Scope) String() string {
	if s > 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that stores the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for root spans
	GID      uint64 // emitting goroutine
	Name     string // "alloc", "bind", "finalize", a trap code...
	Detail   string
	Extra    map[string]string
}
