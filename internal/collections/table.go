package collections

import "viper/internal/hashutil"

type entry[V any] struct {
	key  string
	hash uint64
	val  V
	next *entry[V]
}

// table is a chained hash table keyed by owned byte strings. Buckets are
// a power of two and double when the load passes 3/4.
type table[V any] struct {
	buckets []*entry[V]
	count   int
}

func (t *table[V]) slot(h uint64) int { return int(h & uint64(len(t.buckets)-1)) }

func (t *table[V]) find(key string) *entry[V] {
	if t.count == 0 {
		return nil
	}
	h := hashutil.FNV1aString(key)
	for e := t.buckets[t.slot(h)]; e != nil; e = e.next {
		if e.hash == h && e.key == key {
			return e
		}
	}
	return nil
}

// upsert returns the entry for key, creating it with a zero value when
// missing. created reports whether the entry is new; the key of a new
// entry is copied.
func (t *table[V]) upsert(key string) (e *entry[V], created bool) {
	if e = t.find(key); e != nil {
		return e, false
	}
	if t.buckets == nil {
		t.buckets = make([]*entry[V], hashutil.InitialBuckets)
	}
	if hashutil.NeedsGrow(t.count+1, len(t.buckets)) {
		t.rehash(len(t.buckets) * 2)
	}
	h := hashutil.FNV1aString(key)
	i := t.slot(h)
	e = &entry[V]{key: ownKey(key), hash: h, next: t.buckets[i]}
	t.buckets[i] = e
	t.count++
	return e, true
}

func (t *table[V]) rehash(n int) {
	old := t.buckets
	t.buckets = make([]*entry[V], n)
	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			i := t.slot(e.hash)
			e.next = t.buckets[i]
			t.buckets[i] = e
			e = next
		}
	}
}

// remove unlinks key and returns the removed entry.
func (t *table[V]) remove(key string) (*entry[V], bool) {
	if t.count == 0 {
		return nil, false
	}
	h := hashutil.FNV1aString(key)
	for p := &t.buckets[t.slot(h)]; *p != nil; p = &(*p).next {
		if e := *p; e.hash == h && e.key == key {
			*p = e.next
			e.next = nil
			t.count--
			return e, true
		}
	}
	return nil, false
}

// each visits every entry in bucket order. fn must not mutate the table.
func (t *table[V]) each(fn func(e *entry[V])) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			fn(e)
		}
	}
}

// filter drops every entry for which keep returns false, calling drop
// on each removed entry.
func (t *table[V]) filter(keep func(e *entry[V]) bool, drop func(e *entry[V])) int {
	removed := 0
	for i := range t.buckets {
		for p := &t.buckets[i]; *p != nil; {
			e := *p
			if keep(e) {
				p = &e.next
				continue
			}
			*p = e.next
			e.next = nil
			t.count--
			removed++
			if drop != nil {
				drop(e)
			}
		}
	}
	return removed
}

// reset drops every entry, calling drop on each first.
func (t *table[V]) reset(drop func(e *entry[V])) {
	if drop != nil {
		t.each(drop)
	}
	t.buckets = nil
	t.count = 0
}
