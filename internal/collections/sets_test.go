package collections

import (
	"math"
	"slices"
	"testing"

	"viper/internal/box"
	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

func bagOf(keys ...string) *Bag {
	b := NewBag()
	for _, k := range keys {
		b.Put(lit(k))
	}
	return b
}

func TestBagOperations(t *testing.T) {
	a := bagOf("x", "y", "z")
	b := bagOf("y", "z", "w")
	defer heap.Release(a)
	defer heap.Release(b)

	if a.Put(lit("x")) || !a.Put(lit("q")) || !a.Drop(lit("q")) || a.Drop(lit("q")) {
		t.Fatal("Put/Drop must report membership changes")
	}
	cases := []struct {
		name string
		bag  *Bag
		want []string
	}{
		{"union", a.Union(b), []string{"w", "x", "y", "z"}},
		{"intersect", a.Intersect(b), []string{"y", "z"}},
		{"difference", a.Difference(b), []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer heap.Release(tc.bag)
			if got := sortedTexts(t, tc.bag.Items()); !slices.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
	a.Clear()
	if !a.IsEmpty() || a.Has(lit("x")) {
		t.Fatal("Clear must empty the bag")
	}
}

func TestCountMap(t *testing.T) {
	c := NewCountMap()
	defer heap.Release(c)
	for _, w := range []string{"a", "b", "a", "c", "a", "b"} {
		c.Inc(lit(w))
	}
	if c.Get(lit("a")) != 3 || c.Total() != 6 || c.Len() != 3 {
		t.Fatalf("counts off: a=%d total=%d", c.Get(lit("a")), c.Total())
	}
	if c.IncBy(lit("c"), 4) != 5 || c.Total() != 10 {
		t.Fatal("IncBy must add n")
	}
	if got := texts(t, c.MostCommon(2)); !slices.Equal(got, []string{"c", "a"}) {
		t.Fatalf("MostCommon got %v", got)
	}
	if c.Dec(lit("b")) != 1 || c.Dec(lit("b")) != 0 || c.Has(lit("b")) {
		t.Fatal("decrement to zero must remove the key")
	}
	if c.Dec(lit("missing")) != 0 || c.Has(lit("missing")) {
		t.Fatal("Dec of a missing key is a no-op")
	}
	c.Set(lit("a"), 10)
	c.Set(lit("c"), 0)
	if c.Total() != 10 || c.Has(lit("c")) {
		t.Fatalf("Set must force counts, total=%d", c.Total())
	}
	expectTrap(t, trap.CodeInvalidArgument, func() { c.IncBy(lit("a"), -1) })
	c.Clear()
	if c.Total() != 0 || !c.IsEmpty() {
		t.Fatal("Clear must reset the total")
	}
}

func TestBiMap(t *testing.T) {
	m := NewBiMap()
	defer heap.Release(m)
	m.Put(lit("one"), lit("1"))
	m.Put(lit("two"), lit("2"))
	if text(m.GetByKey(lit("one"))) != "1" || text(m.GetByValue(lit("2"))) != "two" {
		t.Fatal("lookups in both directions must work")
	}
	m.Put(lit("uno"), lit("1"))
	if m.HasKey(lit("one")) || text(m.GetByValue(lit("1"))) != "uno" || m.Len() != 2 {
		t.Fatal("Put must evict the previous pair using the value")
	}
	m.Put(lit("two"), lit("dos"))
	if m.HasValue(lit("2")) || text(m.GetByKey(lit("two"))) != "dos" {
		t.Fatal("Put must evict the previous pair using the key")
	}
	if text(m.GetByKey(lit("nope"))) != "" {
		t.Fatal("miss returns the empty string")
	}
	if !m.RemoveByValue(lit("dos")) || m.HasKey(lit("two")) || !m.RemoveByKey(lit("uno")) || !m.IsEmpty() {
		t.Fatal("removal must clear both sides")
	}
	m.Put(lit("k"), lit("v"))
	if got := texts(t, m.Values()); !slices.Equal(got, []string{"v"}) {
		t.Fatalf("Values got %v", got)
	}
}

func TestWeakMapDoesNotRetain(t *testing.T) {
	m := NewWeakMap()
	defer heap.Release(m)
	p := newProbe()
	object := p.obj
	heap.SetFinalizer(object, func(heap.Object) {
		p.finalized++
		m.ClearValue(object)
	})
	m.Set(lit("a"), object)
	m.Set(lit("b"), object)
	m.Set(lit("c"), "plain")
	if heap.RefCount(object) != 1 {
		t.Fatal("weak map must not retain")
	}
	heap.Release(object)
	if p.finalized != 1 || m.Get(lit("a")) != nil || !m.Has(lit("a")) {
		t.Fatal("finalizer must null the weak slots")
	}
	if n := m.Compact(); n != 2 || m.Len() != 1 || m.Has(lit("a")) {
		t.Fatalf("Compact removed %d entries", n)
	}
	if got := texts(t, m.Keys()); !slices.Equal(got, []string{"c"}) {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestLRUEvictionOrder(t *testing.T) {
	c := NewLRU(2)
	a, b, cc := newProbe(), newProbe(), newProbe()
	c.Put(lit("a"), a.obj)
	c.Put(lit("b"), b.obj)
	heap.Release(a.obj)
	heap.Release(b.obj)
	c.Get(lit("a"))
	c.Put(lit("c"), cc.obj)
	heap.Release(cc.obj)

	if got := texts(t, c.Keys()); !slices.Equal(got, []string{"c", "a"}) {
		t.Fatalf("keys got %v", got)
	}
	if b.finalized != 1 {
		t.Fatal("B must be evicted and released")
	}
	if a.finalized != 0 || cc.finalized != 0 || heap.RefCount(a.obj) != 1 || heap.RefCount(cc.obj) != 1 {
		t.Fatal("A and C must stay retained")
	}
	if c.Peek(lit("a")) != a.obj {
		t.Fatal("Peek must find a")
	}
	c.Put(lit("d"), "plain")
	if c.Has(lit("a")) || a.finalized != 1 {
		t.Fatal("Peek must not promote")
	}
	heap.Release(c)
	if cc.finalized != 1 {
		t.Fatal("finalizer must release cached values")
	}
}

func TestLRUCapacityAndRemoval(t *testing.T) {
	c := NewLRU(0)
	defer heap.Release(c)
	if c.Capacity() != 1 {
		t.Fatal("capacity is at least one")
	}
	c.Put(lit("x"), 1)
	c.Put(lit("x"), 2)
	if c.Len() != 1 || c.Get(lit("x")) != 2 {
		t.Fatal("Put on an existing key updates it")
	}
	c.Put(lit("y"), 3)
	if c.Len() != 1 || !c.Has(lit("y")) {
		t.Fatal("capacity one keeps only the newest")
	}
	if !c.Remove(lit("y")) || c.RemoveOldest() || !c.IsEmpty() {
		t.Fatal("removal mismatch")
	}

	big := NewLRU(3)
	defer heap.Release(big)
	for _, k := range []string{"a", "b", "c"} {
		big.Put(lit(k), k)
	}
	if !big.RemoveOldest() || big.Has(lit("a")) {
		t.Fatal("RemoveOldest must drop the least recent entry")
	}
	vals := big.Values()
	if !slices.Equal(vals.Values(), []any{"c", "b"}) {
		t.Fatalf("Values got %v", vals.Values())
	}
	heap.Release(vals)
	big.Clear()
	if !big.IsEmpty() {
		t.Fatal("Clear must empty the cache")
	}
}

func TestLRUNeverExceedsCapacity(t *testing.T) {
	c := NewLRU(4)
	defer heap.Release(c)
	for i := 0; i < 100; i++ {
		c.Put(rtstr.FromLiteral(string(rune('a'+i%26))), i)
		if c.Len() > 4 {
			t.Fatalf("len %d exceeds capacity", c.Len())
		}
	}
}

func TestCountMapOverflowTraps(t *testing.T) {
	c := NewCountMap()
	defer heap.Release(c)
	c.IncBy(lit("a"), math.MaxInt64-1)
	expectTrap(t, trap.CodeOverflow, func() { c.IncBy(lit("a"), 2) })
	if c.Get(lit("a")) != math.MaxInt64-1 || c.Total() != math.MaxInt64-1 {
		t.Fatalf("refused increment must not change counts, a=%d total=%d", c.Get(lit("a")), c.Total())
	}
	// The total overflows even though each key fits.
	expectTrap(t, trap.CodeOverflow, func() { c.Inc(lit("b")); c.Inc(lit("b")) })
	expectTrap(t, trap.CodeOverflow, func() { c.Set(lit("c"), 10) })
	if c.Has(lit("c")) || c.Total() < 0 {
		t.Fatalf("Set must not wrap the total, total=%d", c.Total())
	}
	c.Set(lit("a"), 5)
	if c.Total() != 6 || c.Get(lit("b")) != 1 {
		t.Fatalf("lowering a count must still work, total=%d", c.Total())
	}
}

func TestCountMapValuesAreBoxedCounts(t *testing.T) {
	c := NewCountMap()
	defer heap.Release(c)
	c.IncBy(lit("x"), 3)
	c.Inc(lit("y"))
	keys := texts(t, c.Keys())
	vals := c.Values()
	defer heap.Release(vals)
	if vals.Len() != len(keys) || vals.ElemKind() != heap.ElemBox {
		t.Fatalf("values must parallel keys, got %d values", vals.Len())
	}
	want := map[string]int64{"x": 3, "y": 1}
	for i, k := range keys {
		if got := box.UnboxI64(vals.Get(i)); got != want[k] {
			t.Errorf("count for %s = %d, want %d", k, got, want[k])
		}
	}
}

func TestWeakMapValuesAreBorrowed(t *testing.T) {
	m := NewWeakMap()
	defer heap.Release(m)
	p := newProbe()
	m.Set(lit("a"), p.obj)
	vals := m.Values()
	if vals.Len() != 1 || vals.Get(0) != any(p.obj) || heap.RefCount(p.obj) != 1 {
		t.Fatalf("values must be borrowed, rc=%d", heap.RefCount(p.obj))
	}
	heap.Release(vals)
	heap.Release(p.obj)
	if p.finalized != 1 {
		t.Fatal("releasing the values must not touch the entries")
	}
	m.ClearValue(p.obj)
	nulled := m.Values()
	defer heap.Release(nulled)
	if nulled.Get(0) != nil {
		t.Fatal("nulled slots appear as nil")
	}
}
