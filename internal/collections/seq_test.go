package collections

import (
	"slices"
	"testing"

	"viper/internal/box"
	"viper/internal/heap"
	"viper/internal/rtctx"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

func TestSeqPushGetPop(t *testing.T) {
	s := NewSeq()
	defer heap.Release(s)
	for i := int64(0); i < 100; i++ {
		s.Push(i)
	}
	if s.Len() != 100 || s.Cap() < 100 || s.IsEmpty() {
		t.Fatalf("unexpected shape len=%d cap=%d", s.Len(), s.Cap())
	}
	if s.Get(42) != int64(42) || s.First() != int64(0) || s.Last() != int64(99) || s.Peek() != int64(99) {
		t.Fatal("element access mismatch")
	}
	if s.Pop() != int64(99) || s.Len() != 99 {
		t.Fatal("Pop must remove the last element")
	}
	expectTrap(t, trap.CodeOutOfRange, func() { s.Get(99) })
	expectTrap(t, trap.CodeOutOfRange, func() { s.Get(-1) })
	expectTrap(t, trap.CodeOutOfRange, func() { s.Set(500, nil) })
	expectTrap(t, trap.CodeOutOfRange, func() { s.At(1 << 62) })

	s.Clear()
	s.Clear()
	if !s.IsEmpty() {
		t.Fatal("Clear must empty the sequence")
	}
	expectTrap(t, trap.CodeEmpty, func() { s.Pop() })
	expectTrap(t, trap.CodeEmpty, func() { s.First() })
	expectTrap(t, trap.CodeInvalidArgument, func() { NewSeqWithCapacity(-1) })

	var nilSeq *Seq
	expectTrap(t, trap.CodeNull, func() { nilSeq.Len() })
}

func TestSeqInsertRemove(t *testing.T) {
	s := NewSeq()
	defer heap.Release(s)
	s.Push("a")
	s.Push("c")
	s.Insert(1, "b")
	s.Insert(3, "d")
	if got := s.Values(); !slices.Equal(got, []any{"a", "b", "c", "d"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if s.Remove(0) != "a" || s.Len() != 3 {
		t.Fatal("Remove must return the removed element")
	}
	expectTrap(t, trap.CodeOutOfRange, func() { s.Insert(5, "x") })
}

func TestSeqReleasesElementsExactlyOnce(t *testing.T) {
	a, b, c := newProbe(), newProbe(), newProbe()
	s := NewSeq()
	s.Push(a.obj)
	s.Push(b.obj)
	s.Push(c.obj)
	heap.Release(a.obj)
	heap.Release(b.obj)
	heap.Release(c.obj)

	s.Set(0, "replacement")
	if a.finalized != 1 {
		t.Fatal("Set must release the replaced element")
	}
	v := s.Remove(1)
	if b.finalized != 0 {
		t.Fatal("Remove hands the reference to the caller")
	}
	heap.Release(v.(heap.Object))
	if b.finalized != 1 {
		t.Fatal("caller release must free the removed element")
	}
	heap.Release(s)
	if c.finalized != 1 || a.finalized != 1 {
		t.Fatal("finalizer must release remaining elements once")
	}
}

func TestSeqPushAllSelf(t *testing.T) {
	p := newProbe()
	s := NewSeq()
	s.Push(p.obj)
	s.Push(int64(2))
	s.PushAll(s)
	if s.Len() != 4 || s.Get(2) != p.obj || s.Get(3) != int64(2) {
		t.Fatalf("self append must double contents, got %v", s.Values())
	}
	if heap.RefCount(p.obj) != 3 {
		t.Fatalf("each copy holds a reference, rc=%d", heap.RefCount(p.obj))
	}
	heap.Release(s)
	heap.Release(p.obj)
	if p.finalized != 1 {
		t.Fatal("object must be freed once every reference is gone")
	}
}

func TestSeqNonOwning(t *testing.T) {
	p := newProbe()
	s := NewSeq()
	s.SetOwnsElements(false)
	s.Push(p.obj)
	if heap.RefCount(p.obj) != 1 {
		t.Fatal("non-owning sequences must not retain")
	}
	expectTrap(t, trap.CodeInvalidArgument, func() { s.SetOwnsElements(true) })
	heap.Release(s)
	if p.finalized != 0 {
		t.Fatal("non-owning sequences must not release")
	}
	heap.Release(p.obj)
}

func TestSeqFindByElementKind(t *testing.T) {
	one, other := box.I64(1), box.I64(1)
	defer heap.Release(one)
	defer heap.Release(other)

	plain := NewSeq()
	defer heap.Release(plain)
	plain.Push(one)
	if plain.Find(other) != -1 || plain.Find(one) != 0 {
		t.Fatal("plain sequences compare by identity")
	}

	boxed := NewSeqOf(heap.ElemBox)
	defer heap.Release(boxed)
	boxed.Push(one)
	if !boxed.Contains(other) {
		t.Fatal("boxed sequences compare by content")
	}

	strs := NewSeqOf(heap.ElemStr)
	defer heap.Release(strs)
	strs.Push(lit("x"))
	strs.Push(lit("y"))
	strs.Push(lit("x"))
	d := strs.Distinct()
	if got := texts(t, d); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("Distinct kept %v", got)
	}
	if got := strs.GetStr(1); text(got) != "y" {
		t.Fatal("GetStr mismatch")
	}
	expectTrap(t, trap.CodeTypeMismatch, func() { plain.GetStr(0) })
}

func TestSeqSort(t *testing.T) {
	s := NewSeq()
	defer heap.Release(s)
	for _, w := range []string{"pear", "apple", "mango"} {
		s.Push(lit(w))
	}
	s.Push(nil)
	s.Sort()
	if s.Get(0) != nil {
		t.Fatal("nil sorts first")
	}
	var got []string
	for i := 1; i < s.Len(); i++ {
		got = append(got, rtstr.Text(s.Get(i).(*rtstr.String)))
	}
	if !slices.Equal(got, []string{"apple", "mango", "pear"}) {
		t.Fatalf("unexpected order %v", got)
	}
	s.SortDesc()
	if rtstr.Text(s.First().(*rtstr.String)) != "pear" || s.Last() != nil {
		t.Fatal("SortDesc must reverse the order")
	}

	type rec struct{ k, id int }
	r := NewSeq()
	defer heap.Release(r)
	for i, k := range []int{2, 1, 2, 1} {
		r.Push(rec{k, i})
	}
	r.SortBy(func(a, b any) int { return a.(rec).k - b.(rec).k })
	want := []any{rec{1, 1}, rec{1, 3}, rec{2, 0}, rec{2, 2}}
	if !slices.Equal(r.Values(), want) {
		t.Fatalf("SortBy must be stable, got %v", r.Values())
	}
}

func TestSeqReverseSliceClone(t *testing.T) {
	s := NewSeq()
	defer heap.Release(s)
	for i := 1; i <= 5; i++ {
		s.Push(i)
	}
	s.Reverse()
	if !slices.Equal(s.Values(), []any{5, 4, 3, 2, 1}) {
		t.Fatal("Reverse failed")
	}
	sub := s.Slice(1, 3)
	if !slices.Equal(sub.Values(), []any{4, 3}) {
		t.Fatalf("Slice got %v", sub.Values())
	}
	heap.Release(sub)
	clamped := s.Slice(-4, 99)
	if clamped.Len() != 5 {
		t.Fatal("Slice must clamp its bounds")
	}
	heap.Release(clamped)
	c := s.Clone()
	c.Push(6)
	if s.Len() != 5 || c.Len() != 6 {
		t.Fatal("Clone must be independent")
	}
	heap.Release(c)

	even := s.Keep(func(v any) bool { return v.(int)%2 == 0 })
	odd := s.Reject(func(v any) bool { return v.(int)%2 == 0 })
	if even.Len() != 2 || odd.Len() != 3 {
		t.Fatal("Keep/Reject must partition")
	}
	heap.Release(even)
	heap.Release(odd)
}

func TestSeqShuffleUsesContextRNG(t *testing.T) {
	run := func() []any {
		ctx := rtctx.New()
		rtctx.SetCurrent(ctx)
		defer func() {
			rtctx.SetCurrent(nil)
			_ = rtctx.Cleanup(ctx)
		}()
		ctx.Randomize(99)
		s := NewSeq()
		defer heap.Release(s)
		for i := 0; i < 20; i++ {
			s.Push(i)
		}
		s.Shuffle()
		return s.Values()
	}
	a, b := run(), run()
	if !slices.Equal(a, b) {
		t.Fatal("equal seeds must shuffle identically")
	}
	sorted := slices.Clone(a)
	slices.SortFunc(sorted, func(x, y any) int { return x.(int) - y.(int) })
	for i, v := range sorted {
		if v != i {
			t.Fatal("Shuffle must permute")
		}
	}
}

func TestSeqFunctionalQueries(t *testing.T) {
	s := NewSeq()
	defer heap.Release(s)
	for i := 1; i <= 6; i++ {
		s.Push(i)
	}
	even := func(v any) bool { return v.(int)%2 == 0 }
	small := func(v any) bool { return v.(int) < 4 }
	never := func(any) bool { return false }

	cases := []struct {
		name string
		got  any
		want any
	}{
		{"all small", s.All(small), false},
		{"all positive", s.All(func(v any) bool { return v.(int) > 0 }), true},
		{"all nil pred", s.All(nil), true},
		{"any even", s.Any(even), true},
		{"any never", s.Any(never), false},
		{"any nil pred", s.Any(nil), false},
		{"none never", s.None(never), true},
		{"none even", s.None(even), false},
		{"count even", s.CountWhere(even), 3},
		{"count nil pred", s.CountWhere(nil), 6},
		{"find even", s.FindWhere(even), 2},
		{"find never", s.FindWhere(never), nil},
		{"find nil pred", s.FindWhere(nil), 1},
		{"index even", s.FindIndexWhere(even), 1},
		{"fold sum", s.Fold(0, func(acc, v any) any { return acc.(int) + v.(int) }), 21},
		{"fold nil fn", s.Fold("init", nil), "init"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	empty := NewSeq()
	defer heap.Release(empty)
	if !empty.All(never) || empty.Any(nil) || empty.FindWhere(nil) != nil {
		t.Fatal("empty sequence queries")
	}
}

func TestSeqFunctionalDerivations(t *testing.T) {
	s := NewSeq()
	defer heap.Release(s)
	for i := 1; i <= 5; i++ {
		s.Push(i)
	}
	small := func(v any) bool { return v.(int) < 3 }

	cases := []struct {
		name string
		got  *Seq
		want []any
	}{
		{"take 2", s.Take(2), []any{1, 2}},
		{"take 0", s.Take(0), []any{}},
		{"take negative", s.Take(-3), []any{}},
		{"take past end", s.Take(100), []any{1, 2, 3, 4, 5}},
		{"drop 2", s.Drop(2), []any{3, 4, 5}},
		{"drop negative", s.Drop(-1), []any{1, 2, 3, 4, 5}},
		{"drop past end", s.Drop(100), []any{}},
		{"take while", s.TakeWhile(small), []any{1, 2}},
		{"take while nil", s.TakeWhile(nil), []any{1, 2, 3, 4, 5}},
		{"drop while", s.DropWhile(small), []any{3, 4, 5}},
		{"drop while nil", s.DropWhile(nil), []any{}},
		{"apply", s.Apply(func(v any) any { return v.(int) * 10 }), []any{10, 20, 30, 40, 50}},
		{"apply nil", s.Apply(nil), []any{1, 2, 3, 4, 5}},
	}
	for _, c := range cases {
		if got := c.got.Values(); !slices.Equal(got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
		heap.Release(c.got)
	}
	if s.Len() != 5 {
		t.Fatal("derivations must leave the source untouched")
	}
}

func TestSeqDerivationsRetainElements(t *testing.T) {
	a, b := newProbe(), newProbe()
	s := NewSeq()
	s.Push(a.obj)
	s.Push(b.obj)
	heap.Release(a.obj)
	heap.Release(b.obj)

	isA := func(v any) bool { return v == any(a.obj) }
	derived := []*Seq{
		s.Take(1),
		s.Drop(1),
		s.TakeWhile(isA),
		s.DropWhile(isA),
		s.Apply(func(v any) any { return v }),
	}
	if rc := heap.RefCount(a.obj); rc != 4 {
		t.Fatalf("a is held by the source and three derivations, rc=%d", rc)
	}
	if rc := heap.RefCount(b.obj); rc != 4 {
		t.Fatalf("b is held by the source and three derivations, rc=%d", rc)
	}
	if s.FindWhere(isA) != any(a.obj) || heap.RefCount(a.obj) != 4 {
		t.Fatal("FindWhere borrows")
	}
	heap.Release(s)
	for _, d := range derived {
		heap.Release(d)
	}
	if a.finalized != 1 || b.finalized != 1 {
		t.Fatalf("every reference must be dropped once, a=%d b=%d", a.finalized, b.finalized)
	}
}
