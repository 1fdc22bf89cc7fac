package collections

import (
	"viper/internal/heap"
	"viper/internal/rtstr"
)

type lruNode struct {
	key        string
	val        any
	prev, next *lruNode
}

// LRU is a bounded cache that evicts its least recently used entry. The
// list runs from the most recent entry at head to the least recent at
// tail.
type LRU struct {
	heap.Header
	t          table[*lruNode]
	head, tail *lruNode
	capacity   int
}

// NewLRU returns an empty cache holding at most capacity entries.
// Capacities below one are raised to one.
func NewLRU(capacity int) *LRU {
	c := &LRU{capacity: max(capacity, 1)}
	track(c, ClassLRU, finalizeLRU)
	return c
}

func finalizeLRU(obj heap.Object) { obj.(*LRU).Clear() }

func (c *LRU) check(op string) {
	if c == nil {
		nullReceiver(op)
	}
}

func (c *LRU) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU) pushFront(n *lruNode) {
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU) promote(n *lruNode) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

// Capacity returns the maximum number of entries.
func (c *LRU) Capacity() int {
	c.check("LRU.Capacity")
	return c.capacity
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.check("LRU.Len")
	return c.t.count
}

// IsEmpty reports whether c has no entries.
func (c *LRU) IsEmpty() bool { return c.Len() == 0 }

// Put inserts or updates key and makes it the most recent entry. When the
// cache overflows, the least recent entry is evicted and released.
func (c *LRU) Put(key *rtstr.String, v any) {
	c.check("LRU.Put")
	e, created := c.t.upsert(keyView("LRU.Put", key))
	retain(v)
	if !created {
		n := e.val
		release(n.val)
		n.val = v
		c.promote(n)
		return
	}
	e.val = &lruNode{key: e.key, val: v}
	c.pushFront(e.val)
	if c.t.count > c.capacity {
		c.RemoveOldest()
	}
}

// Get returns the value for key and makes it the most recent entry.
func (c *LRU) Get(key *rtstr.String) any {
	c.check("LRU.Get")
	e := c.t.find(keyView("LRU.Get", key))
	if e == nil {
		return nil
	}
	c.promote(e.val)
	return e.val.val
}

// Peek returns the value for key without touching recency.
func (c *LRU) Peek(key *rtstr.String) any {
	c.check("LRU.Peek")
	if e := c.t.find(keyView("LRU.Peek", key)); e != nil {
		return e.val.val
	}
	return nil
}

// Has reports whether key is cached, without touching recency.
func (c *LRU) Has(key *rtstr.String) bool {
	c.check("LRU.Has")
	return c.t.find(keyView("LRU.Has", key)) != nil
}

// Remove drops key and releases its value.
func (c *LRU) Remove(key *rtstr.String) bool {
	c.check("LRU.Remove")
	e, ok := c.t.remove(keyView("LRU.Remove", key))
	if !ok {
		return false
	}
	c.unlink(e.val)
	release(e.val.val)
	return true
}

// RemoveOldest evicts the least recent entry and reports whether there
// was one.
func (c *LRU) RemoveOldest() bool {
	c.check("LRU.RemoveOldest")
	n := c.tail
	if n == nil {
		return false
	}
	c.unlink(n)
	c.t.remove(n.key)
	release(n.val)
	return true
}

// Clear drops every entry.
func (c *LRU) Clear() {
	c.check("LRU.Clear")
	n := c.head
	c.head, c.tail = nil, nil
	c.t.reset(nil)
	for n != nil {
		next := n.next
		n.prev, n.next = nil, nil
		release(n.val)
		n = next
	}
}

// Keys returns the keys as fresh strings, most recent first.
func (c *LRU) Keys() *Seq {
	c.check("LRU.Keys")
	keys := make([]string, 0, c.t.count)
	for n := c.head; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keysSeq(keys)
}

// Values returns the values, retained, most recent first.
func (c *LRU) Values() *Seq {
	c.check("LRU.Values")
	vals := make([]any, 0, c.t.count)
	for n := c.head; n != nil; n = n.next {
		vals = append(vals, n.val)
	}
	return valuesSeq(vals)
}
