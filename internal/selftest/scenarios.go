package selftest

import (
	"errors"
	"fmt"
	"slices"

	"viper/internal/collections"
	"viper/internal/heap"
	"viper/internal/object"
	"viper/internal/rtctx"
	"viper/internal/rtstr"
)

type counted struct {
	obj       *heap.Block
	finalized int
}

func newCounted(classID int64, size int64) *counted {
	c := &counted{obj: object.New(classID, size)}
	object.SetFinalizer(c.obj, func(heap.Object) { c.finalized++ })
	return c
}

func refcountEndToEnd() error {
	c := newCounted(42, 16)
	object.RetainMaybe(c.obj)
	object.RetainMaybe(c.obj)
	if rc := heap.RefCount(c.obj); rc != 3 {
		return fmt.Errorf("refcount after two retains = %d, want 3", rc)
	}
	for range 3 {
		object.Release(c.obj)
	}
	return errors.Join(
		expect(c.finalized == 1, "finalizer ran %d times, want 1", c.finalized),
		expect(heap.IsFreed(c.obj), "block not freed after the last release"),
	)
}

func concatConsumesOperands() error {
	a := rtstr.FromBytes([]byte("foo"))
	b := rtstr.FromBytes([]byte("bar"))
	if rtstr.RefCount(a) != 1 || rtstr.RefCount(b) != 1 {
		return fmt.Errorf("fresh strings must start at refcount 1")
	}
	ablk, bblk := a.Block(), b.Block()
	c := rtstr.Concat(a, b)
	defer rtstr.Release(c)
	return errors.Join(
		expect(rtstr.Len(c) == 6, "len(concat) = %d, want 6", rtstr.Len(c)),
		expect(rtstr.Text(c) == "foobar", "concat = %q, want \"foobar\"", rtstr.Text(c)),
		expect(heap.IsFreed(ablk) && heap.IsFreed(bblk), "concat did not consume its operands"),
	)
}

func mapReplaceReleases() error {
	m := collections.NewMap()
	v1 := newCounted(1, 8)
	v2 := newCounted(1, 8)
	key := rtstr.FromLiteral("k")

	m.Set(key, v1.obj)
	object.Release(v1.obj)
	m.Set(key, v2.obj)
	object.Release(v2.obj)
	if err := expect(v1.finalized == 1 && v2.finalized == 0, "replace finalized v1=%d v2=%d", v1.finalized, v2.finalized); err != nil {
		heap.Release(m)
		return err
	}
	heap.Release(m)
	return expect(v1.finalized == 1 && v2.finalized == 1,
		"after releasing the map v1=%d v2=%d finalizations, want 1 and 1", v1.finalized, v2.finalized)
}

func lruEvictionOrder() error {
	c := collections.NewLRU(2)
	a, b, cc := newCounted(1, 8), newCounted(1, 8), newCounted(1, 8)
	defer func() {
		object.Release(a.obj)
		object.Release(cc.obj)
	}()

	c.Put(rtstr.FromLiteral("a"), a.obj)
	c.Put(rtstr.FromLiteral("b"), b.obj)
	object.Release(b.obj)
	c.Get(rtstr.FromLiteral("a"))
	c.Put(rtstr.FromLiteral("c"), cc.obj)

	keys := seqTexts(c.Keys())
	heap.Release(c)
	return errors.Join(
		expect(slices.Equal(keys, []string{"c", "a"}), "keys = %q, want [c a]", keys),
		expect(b.finalized == 1, "evicted value finalized %d times, want 1", b.finalized),
		expect(a.finalized == 0 && cc.finalized == 0, "live values were finalized"),
	)
}

func sortedMapQueries() error {
	m := collections.NewSortedMap()
	defer heap.Release(m)
	for _, k := range []string{"pear", "apple", "mango"} {
		m.Set(rtstr.FromLiteral(k), nil)
	}
	keys := seqTexts(m.Keys())
	checks := []struct {
		name string
		got  *rtstr.String
		want string
	}{
		{"first", m.First(), "apple"},
		{"last", m.Last(), "pear"},
		{"floor(banana)", m.Floor(rtstr.FromLiteral("banana")), "apple"},
		{"ceil(banana)", m.Ceil(rtstr.FromLiteral("banana")), "mango"},
		{"floor(aardvark)", m.Floor(rtstr.FromLiteral("aardvark")), ""},
	}
	errs := []error{expect(slices.Equal(keys, []string{"apple", "mango", "pear"}), "keys = %q", keys)}
	for _, c := range checks {
		got := rtstr.Text(c.got)
		rtstr.Release(c.got)
		errs = append(errs, expect(got == c.want, "%s = %q, want %q", c.name, got, c.want))
	}
	return errors.Join(errs...)
}

func contextIsolation() error {
	a, b := rtctx.New(), rtctx.New()
	prev := rtctx.Current()
	defer rtctx.SetCurrent(prev)

	rtctx.SetCurrent(a)
	*rtctx.AddrI64("g") = 17
	rtctx.SetCurrent(nil)

	rtctx.SetCurrent(b)
	*rtctx.AddrI64("g") = 42
	gotB := *rtctx.AddrI64("g")
	rtctx.SetCurrent(nil)

	rtctx.SetCurrent(a)
	gotA := *rtctx.AddrI64("g")
	rtctx.SetCurrent(nil)

	errA := rtctx.Cleanup(a)
	stillB := *b.AddrI64("g")
	return errors.Join(
		expect(gotB == 42, "context B read %d, want 42", gotB),
		expect(gotA == 17, "context A read %d, want 17", gotA),
		expect(stillB == 42, "cleaning up A disturbed B (g = %d)", stillB),
		errA,
		rtctx.Cleanup(b),
	)
}

// seqTexts copies a sequence of strings out and releases it.
func seqTexts(s *collections.Seq) []string {
	out := make([]string, s.Len())
	for i := range out {
		out[i] = rtstr.Text(s.Get(i).(*rtstr.String))
	}
	heap.Release(s)
	return out
}
