package collections

import (
	"cmp"
	"math"
	"slices"

	"viper/internal/box"
	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// CountMap maps strings to positive counts and tracks their sum.
type CountMap struct {
	heap.Header
	t     table[int64]
	total int64
}

// NewCountMap returns an empty counting map.
func NewCountMap() *CountMap {
	c := &CountMap{}
	track(c, ClassCountMap, finalizeCountMap)
	return c
}

func finalizeCountMap(obj heap.Object) { obj.(*CountMap).t.reset(nil) }

func (c *CountMap) check(op string) {
	if c == nil {
		nullReceiver(op)
	}
}

// Len returns the number of distinct keys.
func (c *CountMap) Len() int {
	c.check("CountMap.Len")
	return c.t.count
}

// IsEmpty reports whether c has no keys.
func (c *CountMap) IsEmpty() bool { return c.Len() == 0 }

// Inc adds one to key and returns the new count.
func (c *CountMap) Inc(key *rtstr.String) int64 { return c.IncBy(key, 1) }

// IncBy adds n to key and returns the new count. n must not be negative;
// zero leaves the map untouched.
func (c *CountMap) IncBy(key *rtstr.String, n int64) int64 {
	c.check("CountMap.IncBy")
	k := keyView("CountMap.IncBy", key)
	if n < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "CountMap.IncBy: n must be >= 0 (got %d)", n)
	}
	if n == 0 {
		if e := c.t.find(k); e != nil {
			return e.val
		}
		return 0
	}
	cur := int64(0)
	if e := c.t.find(k); e != nil {
		cur = e.val
	}
	c.checkGrowth("CountMap.IncBy", cur, n)
	e, _ := c.t.upsert(k)
	e.val += n
	c.total += n
	return e.val
}

// checkGrowth traps when adding n to a count of cur, or to the total,
// would overflow. n must be positive.
func (c *CountMap) checkGrowth(op string, cur, n int64) {
	if cur > math.MaxInt64-n {
		trap.Raisef(trap.CodeOverflow, "%s: count overflow", op)
	}
	if c.total > math.MaxInt64-n {
		trap.Raisef(trap.CodeOverflow, "%s: total overflow", op)
	}
}

// Dec subtracts one from key and returns the new count. An entry that
// reaches zero is removed; a missing key stays missing.
func (c *CountMap) Dec(key *rtstr.String) int64 {
	c.check("CountMap.Dec")
	k := keyView("CountMap.Dec", key)
	e := c.t.find(k)
	if e == nil {
		return 0
	}
	e.val--
	c.total--
	if e.val == 0 {
		c.t.remove(k)
	}
	return e.val
}

// Set forces the count for key. A count <= 0 removes the key.
func (c *CountMap) Set(key *rtstr.String, count int64) {
	c.check("CountMap.Set")
	k := keyView("CountMap.Set", key)
	if count <= 0 {
		if e, ok := c.t.remove(k); ok {
			c.total -= e.val
		}
		return
	}
	cur := int64(0)
	if e := c.t.find(k); e != nil {
		cur = e.val
	}
	if count > cur {
		c.checkGrowth("CountMap.Set", 0, count-cur)
	}
	e, _ := c.t.upsert(k)
	c.total += count - e.val
	e.val = count
}

// Get returns the count for key, zero when absent.
func (c *CountMap) Get(key *rtstr.String) int64 {
	c.check("CountMap.Get")
	if e := c.t.find(keyView("CountMap.Get", key)); e != nil {
		return e.val
	}
	return 0
}

// Has reports whether key has a positive count.
func (c *CountMap) Has(key *rtstr.String) bool {
	c.check("CountMap.Has")
	return c.t.find(keyView("CountMap.Has", key)) != nil
}

// Remove deletes key and reports whether it was present.
func (c *CountMap) Remove(key *rtstr.String) bool {
	c.check("CountMap.Remove")
	e, ok := c.t.remove(keyView("CountMap.Remove", key))
	if ok {
		c.total -= e.val
	}
	return ok
}

// Total returns the sum of every count.
func (c *CountMap) Total() int64 {
	c.check("CountMap.Total")
	return c.total
}

// Clear removes every key.
func (c *CountMap) Clear() {
	c.check("CountMap.Clear")
	c.t.reset(nil)
	c.total = 0
}

// Keys returns the keys as fresh strings, in table order.
func (c *CountMap) Keys() *Seq {
	c.check("CountMap.Keys")
	keys := make([]string, 0, c.t.count)
	c.t.each(func(e *entry[int64]) { keys = append(keys, e.key) })
	return keysSeq(keys)
}

// Values returns the counts as boxed i64 values, in the order of Keys.
func (c *CountMap) Values() *Seq {
	c.check("CountMap.Values")
	out := NewSeqWithCapacity(c.t.count)
	out.elem = heap.ElemBox
	c.t.each(func(e *entry[int64]) { out.pushOwned(box.I64(e.val)) })
	return out
}

// MostCommon returns up to n keys with the highest counts, highest first.
// Equal counts are ordered by key.
func (c *CountMap) MostCommon(n int) *Seq {
	c.check("CountMap.MostCommon")
	if n < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "CountMap.MostCommon: n must be >= 0 (got %d)", n)
	}
	all := make([]*entry[int64], 0, c.t.count)
	c.t.each(func(e *entry[int64]) { all = append(all, e) })
	slices.SortFunc(all, func(a, b *entry[int64]) int {
		if r := cmp.Compare(b.val, a.val); r != 0 {
			return r
		}
		return cmp.Compare(a.key, b.key)
	})
	keys := make([]string, 0, min(n, len(all)))
	for _, e := range all[:min(n, len(all))] {
		keys = append(keys, e.key)
	}
	return keysSeq(keys)
}
