package collections

import (
	"viper/internal/heap"
	"viper/internal/rtstr"
)

type biPair struct {
	key, value string
}

// BiMap is a one-to-one mapping between strings. The forward table owns
// the pairs; the inverse table indexes the same pairs by value.
type BiMap struct {
	heap.Header
	fwd table[*biPair]
	inv table[*biPair]
}

// NewBiMap returns an empty bidirectional map.
func NewBiMap() *BiMap {
	m := &BiMap{}
	track(m, ClassBiMap, finalizeBiMap)
	return m
}

func finalizeBiMap(obj heap.Object) {
	m := obj.(*BiMap)
	m.fwd.reset(nil)
	m.inv.reset(nil)
}

func (m *BiMap) check(op string) {
	if m == nil {
		nullReceiver(op)
	}
}

// Len returns the number of pairs.
func (m *BiMap) Len() int {
	m.check("BiMap.Len")
	return m.fwd.count
}

// IsEmpty reports whether m has no pairs.
func (m *BiMap) IsEmpty() bool { return m.Len() == 0 }

// Put maps key to value, first dropping any pair that uses either.
func (m *BiMap) Put(key, value *rtstr.String) {
	m.check("BiMap.Put")
	k, v := keyView("BiMap.Put", key), keyView("BiMap.Put", value)
	m.dropKey(k)
	m.dropValue(v)
	fe, _ := m.fwd.upsert(k)
	ie, _ := m.inv.upsert(v)
	p := &biPair{key: fe.key, value: ie.key}
	fe.val, ie.val = p, p
}

func (m *BiMap) dropKey(k string) bool {
	e, ok := m.fwd.remove(k)
	if ok {
		m.inv.remove(e.val.value)
	}
	return ok
}

func (m *BiMap) dropValue(v string) bool {
	e, ok := m.inv.remove(v)
	if ok {
		m.fwd.remove(e.val.key)
	}
	return ok
}

// GetByKey returns the value mapped from key, or "" on a miss.
func (m *BiMap) GetByKey(key *rtstr.String) *rtstr.String {
	m.check("BiMap.GetByKey")
	if e := m.fwd.find(keyView("BiMap.GetByKey", key)); e != nil {
		return rtstr.FromString(e.val.value)
	}
	return rtstr.Empty()
}

// GetByValue returns the key mapped to value, or "" on a miss.
func (m *BiMap) GetByValue(value *rtstr.String) *rtstr.String {
	m.check("BiMap.GetByValue")
	if e := m.inv.find(keyView("BiMap.GetByValue", value)); e != nil {
		return rtstr.FromString(e.val.key)
	}
	return rtstr.Empty()
}

// HasKey reports whether key is mapped.
func (m *BiMap) HasKey(key *rtstr.String) bool {
	m.check("BiMap.HasKey")
	return m.fwd.find(keyView("BiMap.HasKey", key)) != nil
}

// HasValue reports whether value is mapped.
func (m *BiMap) HasValue(value *rtstr.String) bool {
	m.check("BiMap.HasValue")
	return m.inv.find(keyView("BiMap.HasValue", value)) != nil
}

// RemoveByKey drops the pair for key.
func (m *BiMap) RemoveByKey(key *rtstr.String) bool {
	m.check("BiMap.RemoveByKey")
	return m.dropKey(keyView("BiMap.RemoveByKey", key))
}

// RemoveByValue drops the pair for value.
func (m *BiMap) RemoveByValue(value *rtstr.String) bool {
	m.check("BiMap.RemoveByValue")
	return m.dropValue(keyView("BiMap.RemoveByValue", value))
}

// Clear drops every pair.
func (m *BiMap) Clear() {
	m.check("BiMap.Clear")
	m.fwd.reset(nil)
	m.inv.reset(nil)
}

// Keys returns the keys as fresh strings, in table order.
func (m *BiMap) Keys() *Seq {
	m.check("BiMap.Keys")
	keys := make([]string, 0, m.fwd.count)
	m.fwd.each(func(e *entry[*biPair]) { keys = append(keys, e.key) })
	return keysSeq(keys)
}

// Values returns the values as fresh strings, in table order.
func (m *BiMap) Values() *Seq {
	m.check("BiMap.Values")
	vals := make([]string, 0, m.inv.count)
	m.inv.each(func(e *entry[*biPair]) { vals = append(vals, e.key) })
	return keysSeq(vals)
}
