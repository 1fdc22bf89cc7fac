package collections

import (
	"slices"

	"viper/internal/heap"
	"viper/internal/trap"
)

// Order selects which priority a PQueue yields first.
type Order uint8

const (
	MinFirst Order = iota
	MaxFirst
)

type pqItem struct {
	prio int64
	seq  uint64
	val  any
}

// PQueue is a binary heap of prioritized values. Equal priorities come
// out in insertion order.
type PQueue struct {
	heap.Header
	items []pqItem
	order Order
	seq   uint64
}

// NewPQueue returns an empty queue with the given order.
func NewPQueue(order Order) *PQueue {
	q := &PQueue{order: order}
	track(q, ClassPQueue, finalizePQueue)
	return q
}

func finalizePQueue(obj heap.Object) { obj.(*PQueue).Clear() }

func (q *PQueue) check(op string) {
	if q == nil {
		nullReceiver(op)
	}
}

func (q *PQueue) before(a, b pqItem) bool {
	if a.prio != b.prio {
		if q.order == MaxFirst {
			return a.prio > b.prio
		}
		return a.prio < b.prio
	}
	return a.seq < b.seq
}

func (q *PQueue) up(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.before(q.items[i], q.items[p]) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *PQueue) down(i int) {
	n := len(q.items)
	for {
		best := i
		if l := 2*i + 1; l < n && q.before(q.items[l], q.items[best]) {
			best = l
		}
		if r := 2*i + 2; r < n && q.before(q.items[r], q.items[best]) {
			best = r
		}
		if best == i {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}

// Order reports the queue's order.
func (q *PQueue) Order() Order { return q.order }

// Len returns the number of queued values.
func (q *PQueue) Len() int {
	q.check("PQueue.Len")
	return len(q.items)
}

// IsEmpty reports whether q is empty.
func (q *PQueue) IsEmpty() bool { return q.Len() == 0 }

// Push queues v with priority prio.
func (q *PQueue) Push(prio int64, v any) {
	q.check("PQueue.Push")
	retain(v)
	q.items = append(q.items, pqItem{prio: prio, seq: q.seq, val: v})
	q.seq++
	q.up(len(q.items) - 1)
}

// TryPop removes and returns the first value, or nil when empty. The
// caller owns the result.
func (q *PQueue) TryPop() (any, bool) {
	q.check("PQueue.TryPop")
	n := len(q.items)
	if n == 0 {
		return nil, false
	}
	top := q.items[0]
	q.items[0] = q.items[n-1]
	q.items[n-1] = pqItem{}
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.down(0)
	}
	return top.val, true
}

// Pop removes and returns the first value. Traps when empty.
func (q *PQueue) Pop() any {
	v, ok := q.TryPop()
	if !ok {
		trap.Raise(trap.CodeEmpty, "PQueue.Pop: queue is empty")
	}
	return v
}

// TryPeek returns the first value, borrowed, or nil when empty.
func (q *PQueue) TryPeek() (any, bool) {
	q.check("PQueue.TryPeek")
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0].val, true
}

// Peek returns the first value. Traps when empty.
func (q *PQueue) Peek() any {
	v, ok := q.TryPeek()
	if !ok {
		trap.Raise(trap.CodeEmpty, "PQueue.Peek: queue is empty")
	}
	return v
}

// PeekPriority returns the priority of the first value. Traps when empty.
func (q *PQueue) PeekPriority() int64 {
	q.check("PQueue.PeekPriority")
	if len(q.items) == 0 {
		trap.Raise(trap.CodeEmpty, "PQueue.PeekPriority: queue is empty")
	}
	return q.items[0].prio
}

// Clear drops every value.
func (q *PQueue) Clear() {
	q.check("PQueue.Clear")
	old := q.items
	q.items = nil
	for _, it := range old {
		release(it.val)
	}
}

// ToSeq returns the values in pop order, retained. q is unchanged.
func (q *PQueue) ToSeq() *Seq {
	q.check("PQueue.ToSeq")
	sorted := slices.Clone(q.items)
	slices.SortFunc(sorted, func(a, b pqItem) int {
		if q.before(a, b) {
			return -1
		}
		return 1
	})
	vals := make([]any, len(sorted))
	for i, it := range sorted {
		vals[i] = it.val
	}
	return valuesSeq(vals)
}
