package collections

import (
	"slices"
	"strings"

	"viper/internal/heap"
	"viper/internal/rtstr"
)

type sortedEntry struct {
	key string
	val any
}

// SortedMap keeps its entries in a slice ordered by key bytes. Lookups
// are binary searches; inserts shift.
type SortedMap struct {
	heap.Header
	entries []sortedEntry
}

// NewSortedMap returns an empty sorted map.
func NewSortedMap() *SortedMap {
	m := &SortedMap{}
	track(m, ClassSortedMap, finalizeSortedMap)
	return m
}

func finalizeSortedMap(obj heap.Object) { obj.(*SortedMap).Clear() }

func (m *SortedMap) check(op string) {
	if m == nil {
		nullReceiver(op)
	}
}

func (m *SortedMap) search(key string) (int, bool) {
	return slices.BinarySearchFunc(m.entries, key, func(e sortedEntry, k string) int {
		return strings.Compare(e.key, k)
	})
}

// Len returns the number of entries.
func (m *SortedMap) Len() int {
	m.check("SortedMap.Len")
	return len(m.entries)
}

// IsEmpty reports whether m has no entries.
func (m *SortedMap) IsEmpty() bool { return m.Len() == 0 }

// Get returns the value for key, borrowed, or nil.
func (m *SortedMap) Get(key *rtstr.String) any { return m.GetOr(key, nil) }

// GetOr returns the value for key or def.
func (m *SortedMap) GetOr(key *rtstr.String, def any) any {
	m.check("SortedMap.Get")
	if i, ok := m.search(keyView("SortedMap.Get", key)); ok {
		return m.entries[i].val
	}
	return def
}

// Has reports whether key is present.
func (m *SortedMap) Has(key *rtstr.String) bool {
	m.check("SortedMap.Has")
	_, ok := m.search(keyView("SortedMap.Has", key))
	return ok
}

// Set inserts or replaces the value for key.
func (m *SortedMap) Set(key *rtstr.String, v any) {
	m.check("SortedMap.Set")
	k := keyView("SortedMap.Set", key)
	retain(v)
	i, ok := m.search(k)
	if ok {
		release(m.entries[i].val)
		m.entries[i].val = v
		return
	}
	m.entries = slices.Insert(m.entries, i, sortedEntry{key: ownKey(k), val: v})
}

// SetIfMissing stores v only when key is absent.
func (m *SortedMap) SetIfMissing(key *rtstr.String, v any) bool {
	m.check("SortedMap.SetIfMissing")
	k := keyView("SortedMap.SetIfMissing", key)
	i, ok := m.search(k)
	if ok {
		return false
	}
	retain(v)
	m.entries = slices.Insert(m.entries, i, sortedEntry{key: ownKey(k), val: v})
	return true
}

// Remove deletes key and releases its value.
func (m *SortedMap) Remove(key *rtstr.String) bool {
	m.check("SortedMap.Remove")
	i, ok := m.search(keyView("SortedMap.Remove", key))
	if !ok {
		return false
	}
	v := m.entries[i].val
	m.entries = slices.Delete(m.entries, i, i+1)
	release(v)
	return true
}

// Clear removes every entry.
func (m *SortedMap) Clear() {
	m.check("SortedMap.Clear")
	old := m.entries
	m.entries = nil
	for _, e := range old {
		release(e.val)
	}
}

// Keys returns the keys in ascending order as fresh strings.
func (m *SortedMap) Keys() *Seq {
	m.check("SortedMap.Keys")
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keysSeq(keys)
}

// Values returns the values in key order, retained.
func (m *SortedMap) Values() *Seq {
	m.check("SortedMap.Values")
	vals := make([]any, len(m.entries))
	for i, e := range m.entries {
		vals[i] = e.val
	}
	return valuesSeq(vals)
}

func (m *SortedMap) keyAt(i int) *rtstr.String {
	if i < 0 || i >= len(m.entries) {
		return rtstr.Empty()
	}
	return rtstr.FromString(m.entries[i].key)
}

// First returns the smallest key, or "" when empty.
func (m *SortedMap) First() *rtstr.String {
	m.check("SortedMap.First")
	return m.keyAt(0)
}

// Last returns the largest key, or "" when empty.
func (m *SortedMap) Last() *rtstr.String {
	m.check("SortedMap.Last")
	return m.keyAt(len(m.entries) - 1)
}

// Floor returns the greatest key <= key, or "" when there is none.
func (m *SortedMap) Floor(key *rtstr.String) *rtstr.String {
	m.check("SortedMap.Floor")
	i, ok := m.search(keyView("SortedMap.Floor", key))
	if ok {
		return m.keyAt(i)
	}
	return m.keyAt(i - 1)
}

// Ceil returns the smallest key >= key, or "" when there is none.
func (m *SortedMap) Ceil(key *rtstr.String) *rtstr.String {
	m.check("SortedMap.Ceil")
	i, _ := m.search(keyView("SortedMap.Ceil", key))
	return m.keyAt(i)
}
