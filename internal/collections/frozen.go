package collections

import (
	"math/bits"

	"viper/internal/box"
	"viper/internal/hashutil"
	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// frozenIndex is an open-addressed, linearly probed table sized to a
// power of two at least twice the entry count. order lists the occupied
// slots in first-insertion order.
type frozenIndex struct {
	keys  []string
	used  []bool
	order []int
}

func newFrozenIndex(n int) frozenIndex {
	size := 2
	if n > 0 {
		size = 1 << bits.Len(uint(2*n-1))
	}
	return frozenIndex{
		keys:  make([]string, size),
		used:  make([]bool, size),
		order: make([]int, 0, n),
	}
}

func (x *frozenIndex) probe(key string) (int, bool) {
	mask := len(x.keys) - 1
	i := int(hashutil.FNV1aString(key) & uint64(mask))
	for x.used[i] {
		if x.keys[i] == key {
			return i, true
		}
		i = (i + 1) & mask
	}
	return i, false
}

// insert returns the slot for key, claiming a free one when missing.
func (x *frozenIndex) insert(key string) (int, bool) {
	i, found := x.probe(key)
	if !found {
		x.keys[i] = ownKey(key)
		x.used[i] = true
		x.order = append(x.order, i)
	}
	return i, found
}

func (x *frozenIndex) lookup(key string) (int, bool) {
	if len(x.order) == 0 {
		return 0, false
	}
	return x.probe(key)
}

func (x *frozenIndex) keyList() []string {
	out := make([]string, len(x.order))
	for j, i := range x.order {
		out[j] = x.keys[i]
	}
	return out
}

// FrozenMap is an immutable string-keyed map built in one step.
type FrozenMap struct {
	heap.Header
	idx  frozenIndex
	vals []any
}

func newFrozenMap(keys []string, vals []any) *FrozenMap {
	m := &FrozenMap{idx: newFrozenIndex(len(keys))}
	m.vals = make([]any, len(m.idx.keys))
	// Register before retaining anything so a refused allocation leaks
	// nothing.
	track(m, ClassFrozenMap, finalizeFrozenMap)
	for j, k := range keys {
		i, found := m.idx.insert(k)
		retain(vals[j])
		if found {
			release(m.vals[i])
		}
		m.vals[i] = vals[j]
	}
	return m
}

// NewFrozenMap builds a map from parallel sequences of string keys and
// values. Values are retained; when a key repeats, the last value wins.
func NewFrozenMap(keys, values *Seq) *FrozenMap {
	keys.check("FrozenMap.New")
	values.check("FrozenMap.New")
	if keys.Len() != values.Len() {
		trap.Raisef(trap.CodeInvalidArgument, "FrozenMap.New: %d keys but %d values", keys.Len(), values.Len())
	}
	ks := make([]string, keys.Len())
	for i, v := range keys.items {
		ks[i] = strElem("FrozenMap.New", v)
	}
	return newFrozenMap(ks, values.items)
}

func finalizeFrozenMap(obj heap.Object) {
	m := obj.(*FrozenMap)
	for _, i := range m.idx.order {
		release(m.vals[i])
	}
	m.vals = nil
	m.idx = frozenIndex{}
}

func (m *FrozenMap) check(op string) {
	if m == nil {
		nullReceiver(op)
	}
}

// Len returns the number of entries.
func (m *FrozenMap) Len() int {
	m.check("FrozenMap.Len")
	return len(m.idx.order)
}

// IsEmpty reports whether m has no entries.
func (m *FrozenMap) IsEmpty() bool { return m.Len() == 0 }

// Get returns the value for key, borrowed, or nil.
func (m *FrozenMap) Get(key *rtstr.String) any {
	m.check("FrozenMap.Get")
	if i, ok := m.idx.lookup(keyView("FrozenMap.Get", key)); ok {
		return m.vals[i]
	}
	return nil
}

// Has reports whether key is present.
func (m *FrozenMap) Has(key *rtstr.String) bool {
	m.check("FrozenMap.Has")
	_, ok := m.idx.lookup(keyView("FrozenMap.Has", key))
	return ok
}

// Keys returns the keys as fresh strings in build order.
func (m *FrozenMap) Keys() *Seq {
	m.check("FrozenMap.Keys")
	return keysSeq(m.idx.keyList())
}

// Values returns the values, retained, in build order.
func (m *FrozenMap) Values() *Seq {
	m.check("FrozenMap.Values")
	return valuesSeq(m.values())
}

func (m *FrozenMap) values() []any {
	out := make([]any, len(m.idx.order))
	for j, i := range m.idx.order {
		out[j] = m.vals[i]
	}
	return out
}

func (m *FrozenMap) lookup(key string) (any, bool) {
	i, ok := m.idx.lookup(key)
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

func (m *FrozenMap) filtered(other *FrozenMap, keep bool) *FrozenMap {
	var ks []string
	var vs []any
	for j, k := range m.idx.keyList() {
		if _, ok := other.idx.lookup(k); ok == keep {
			ks = append(ks, k)
			vs = append(vs, m.vals[m.idx.order[j]])
		}
	}
	return newFrozenMap(ks, vs)
}

// Union returns a map with the entries of both; other wins on shared keys.
func (m *FrozenMap) Union(other *FrozenMap) *FrozenMap {
	m.check("FrozenMap.Union")
	other.check("FrozenMap.Union")
	ks := append(m.idx.keyList(), other.idx.keyList()...)
	vs := append(m.values(), other.values()...)
	return newFrozenMap(ks, vs)
}

// Intersect returns the entries of m whose keys are also in other.
func (m *FrozenMap) Intersect(other *FrozenMap) *FrozenMap {
	m.check("FrozenMap.Intersect")
	other.check("FrozenMap.Intersect")
	return m.filtered(other, true)
}

// Diff returns the entries of m whose keys are not in other.
func (m *FrozenMap) Diff(other *FrozenMap) *FrozenMap {
	m.check("FrozenMap.Diff")
	other.check("FrozenMap.Diff")
	return m.filtered(other, false)
}

// IsSubset reports whether every key of m is in other.
func (m *FrozenMap) IsSubset(other *FrozenMap) bool {
	m.check("FrozenMap.IsSubset")
	other.check("FrozenMap.IsSubset")
	for _, k := range m.idx.keyList() {
		if _, ok := other.idx.lookup(k); !ok {
			return false
		}
	}
	return true
}

// Equals reports whether m and other hold the same keys mapped to equal
// values. Boxed values compare by content.
func (m *FrozenMap) Equals(other *FrozenMap) bool {
	m.check("FrozenMap.Equals")
	other.check("FrozenMap.Equals")
	if m.Len() != other.Len() {
		return false
	}
	for j, k := range m.idx.keyList() {
		v, ok := other.lookup(k)
		if !ok || !box.Equal(m.vals[m.idx.order[j]], v) {
			return false
		}
	}
	return true
}

// FrozenSet is an immutable set of strings built in one step.
type FrozenSet struct {
	heap.Header
	idx frozenIndex
}

func newFrozenSet(keys []string) *FrozenSet {
	s := &FrozenSet{idx: newFrozenIndex(len(keys))}
	track(s, ClassFrozenSet, finalizeFrozenSet)
	for _, k := range keys {
		s.idx.insert(k)
	}
	return s
}

// NewFrozenSet builds a set from a sequence of strings.
func NewFrozenSet(items *Seq) *FrozenSet {
	items.check("FrozenSet.New")
	ks := make([]string, items.Len())
	for i, v := range items.items {
		ks[i] = strElem("FrozenSet.New", v)
	}
	return newFrozenSet(ks)
}

func finalizeFrozenSet(obj heap.Object) { obj.(*FrozenSet).idx = frozenIndex{} }

func (s *FrozenSet) check(op string) {
	if s == nil {
		nullReceiver(op)
	}
}

// Len returns the number of members.
func (s *FrozenSet) Len() int {
	s.check("FrozenSet.Len")
	return len(s.idx.order)
}

// IsEmpty reports whether s has no members.
func (s *FrozenSet) IsEmpty() bool { return s.Len() == 0 }

// Has reports whether key is a member.
func (s *FrozenSet) Has(key *rtstr.String) bool {
	s.check("FrozenSet.Has")
	_, ok := s.idx.lookup(keyView("FrozenSet.Has", key))
	return ok
}

// Items returns the members as fresh strings in build order.
func (s *FrozenSet) Items() *Seq {
	s.check("FrozenSet.Items")
	return keysSeq(s.idx.keyList())
}

func (s *FrozenSet) has(k string) bool {
	_, ok := s.idx.lookup(k)
	return ok
}

func (s *FrozenSet) filtered(other *FrozenSet, keep bool) *FrozenSet {
	var ks []string
	for _, k := range s.idx.keyList() {
		if other.has(k) == keep {
			ks = append(ks, k)
		}
	}
	return newFrozenSet(ks)
}

// Union returns the members of either set.
func (s *FrozenSet) Union(other *FrozenSet) *FrozenSet {
	s.check("FrozenSet.Union")
	other.check("FrozenSet.Union")
	return newFrozenSet(append(s.idx.keyList(), other.idx.keyList()...))
}

// Intersect returns the members of both sets.
func (s *FrozenSet) Intersect(other *FrozenSet) *FrozenSet {
	s.check("FrozenSet.Intersect")
	other.check("FrozenSet.Intersect")
	return s.filtered(other, true)
}

// Diff returns the members of s absent from other.
func (s *FrozenSet) Diff(other *FrozenSet) *FrozenSet {
	s.check("FrozenSet.Diff")
	other.check("FrozenSet.Diff")
	return s.filtered(other, false)
}

// IsSubset reports whether every member of s is in other.
func (s *FrozenSet) IsSubset(other *FrozenSet) bool {
	s.check("FrozenSet.IsSubset")
	other.check("FrozenSet.IsSubset")
	for _, k := range s.idx.keyList() {
		if !other.has(k) {
			return false
		}
	}
	return true
}

// Equals reports whether s and other have the same members.
func (s *FrozenSet) Equals(other *FrozenSet) bool {
	return s.Len() == other.Len() && s.IsSubset(other)
}
