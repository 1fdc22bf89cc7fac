package collections

import (
	"viper/internal/box"
	"viper/internal/heap"
	"viper/internal/rtstr"
)

// WeakMap maps strings to values it does not retain. A value may be freed
// while still stored; owners null its slots with ClearValue (typically
// from the value's finalizer) and Compact drops the nulled entries.
type WeakMap struct {
	heap.Header
	t table[any]
}

// NewWeakMap returns an empty weak map.
func NewWeakMap() *WeakMap {
	m := &WeakMap{}
	track(m, ClassWeakMap, finalizeWeakMap)
	return m
}

func finalizeWeakMap(obj heap.Object) { obj.(*WeakMap).t.reset(nil) }

func (m *WeakMap) check(op string) {
	if m == nil {
		nullReceiver(op)
	}
}

// Len returns the number of entries, nulled ones included.
func (m *WeakMap) Len() int {
	m.check("WeakMap.Len")
	return m.t.count
}

// IsEmpty reports whether m has no entries.
func (m *WeakMap) IsEmpty() bool { return m.Len() == 0 }

// Set stores v under key without retaining it.
func (m *WeakMap) Set(key *rtstr.String, v any) {
	m.check("WeakMap.Set")
	e, _ := m.t.upsert(keyView("WeakMap.Set", key))
	e.val = v
}

// Get returns the value for key, or nil. The caller must know the value
// is still live.
func (m *WeakMap) Get(key *rtstr.String) any {
	m.check("WeakMap.Get")
	if e := m.t.find(keyView("WeakMap.Get", key)); e != nil {
		return e.val
	}
	return nil
}

// Has reports whether key has an entry, nulled or not.
func (m *WeakMap) Has(key *rtstr.String) bool {
	m.check("WeakMap.Has")
	return m.t.find(keyView("WeakMap.Has", key)) != nil
}

// Remove drops key.
func (m *WeakMap) Remove(key *rtstr.String) bool {
	m.check("WeakMap.Remove")
	_, ok := m.t.remove(keyView("WeakMap.Remove", key))
	return ok
}

// Clear drops every entry.
func (m *WeakMap) Clear() {
	m.check("WeakMap.Clear")
	m.t.reset(nil)
}

// ClearValue nulls every slot holding v and returns how many it nulled.
func (m *WeakMap) ClearValue(v any) int {
	m.check("WeakMap.ClearValue")
	n := 0
	m.t.each(func(e *entry[any]) {
		if e.val != nil && box.Identical(e.val, v) {
			e.val = nil
			n++
		}
	})
	return n
}

// Compact removes the entries whose value is nil and returns how many
// were removed.
func (m *WeakMap) Compact() int {
	m.check("WeakMap.Compact")
	return m.t.filter(func(e *entry[any]) bool { return e.val != nil }, nil)
}

// Keys returns the keys as fresh strings, in table order.
func (m *WeakMap) Keys() *Seq {
	m.check("WeakMap.Keys")
	keys := make([]string, 0, m.t.count)
	m.t.each(func(e *entry[any]) { keys = append(keys, e.key) })
	return keysSeq(keys)
}

// Values returns the stored values in the order of Keys. They are
// borrowed: the returned sequence does not retain them, and nulled slots
// appear as nil.
func (m *WeakMap) Values() *Seq {
	m.check("WeakMap.Values")
	out := NewSeqWithCapacity(m.t.count)
	out.SetOwnsElements(false)
	m.t.each(func(e *entry[any]) { out.Push(e.val) })
	return out
}
