package box_test

import (
	"math"
	"testing"

	"viper/internal/box"
	"viper/internal/heap"
	"viper/internal/object"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

func expectTrap(t *testing.T, code trap.Code, fn func()) {
	t.Helper()
	err := trap.Catch(fn)
	if err == nil || err.Code != code {
		t.Fatalf("expected trap %v, got %v", code, err)
	}
}

func TestRoundTrips(t *testing.T) {
	for _, v := range []int64{0, -1, math.MaxInt64, math.MinInt64} {
		b := box.I64(v)
		if box.UnboxI64(b) != v {
			t.Fatalf("i64 %d did not round trip", v)
		}
		heap.Release(b)
	}
	for _, v := range []float64{0, -2.5, math.Inf(1), math.SmallestNonzeroFloat64} {
		b := box.F64(v)
		if box.UnboxF64(b) != v {
			t.Fatalf("f64 %v did not round trip", v)
		}
		heap.Release(b)
	}
	for _, v := range []bool{true, false} {
		b := box.Bool(v)
		if box.UnboxBool(b) != v {
			t.Fatalf("bool %v did not round trip", v)
		}
		heap.Release(b)
	}
}

func TestBoxHeader(t *testing.T) {
	b := box.I64(9)
	defer heap.Release(b)
	if b.Kind() != heap.KindObject || b.Elem() != heap.ElemBox || object.ClassID(b) != box.ClassID {
		t.Fatalf("unexpected box header kind=%v elem=%v class=%d", b.Kind(), b.Elem(), b.ClassID())
	}
	if heap.RefCount(b) != 1 {
		t.Fatalf("expected refcount 1, got %d", heap.RefCount(b))
	}
}

func TestStringBoxOwnsItsString(t *testing.T) {
	s := rtstr.FromString("boxed")
	b := box.Str(s)
	if rtstr.RefCount(s) != 2 {
		t.Fatalf("boxing must retain the string, rc=%d", rtstr.RefCount(s))
	}
	out := box.UnboxStr(b)
	if out != s || rtstr.RefCount(s) != 3 {
		t.Fatalf("UnboxStr must retain, rc=%d", rtstr.RefCount(s))
	}
	rtstr.Release(out)
	heap.Release(b)
	if rtstr.RefCount(s) != 1 {
		t.Fatalf("freeing the box must release the string, rc=%d", rtstr.RefCount(s))
	}
	rtstr.Release(s)
}

func TestUnboxTraps(t *testing.T) {
	i := box.I64(1)
	defer heap.Release(i)
	var nilBox *box.Box

	expectTrap(t, trap.CodeTypeMismatch, func() { box.UnboxF64(i) })
	expectTrap(t, trap.CodeTypeMismatch, func() { box.UnboxStr(i) })
	expectTrap(t, trap.CodeTypeMismatch, func() { box.UnboxBool(i) })
	expectTrap(t, trap.CodeNull, func() { box.UnboxI64(nil) })
	expectTrap(t, trap.CodeNull, func() { box.UnboxI64(nilBox) })
	expectTrap(t, trap.CodeTypeMismatch, func() { box.UnboxI64(object.New(1, 8)) })
}

func TestTagOf(t *testing.T) {
	b := box.F64(1)
	defer heap.Release(b)
	if box.TagOf(b) != int(box.TagF64) {
		t.Fatalf("unexpected tag %d", box.TagOf(b))
	}
	if box.TagOf(nil) != -1 || box.TagOf(rtstr.Empty()) != -1 {
		t.Fatal("non-boxes report -1")
	}
}

func TestContentHashAndEqual(t *testing.T) {
	a, b := box.I64(5), box.I64(5)
	c := box.F64(5)
	s1 := box.Str(rtstr.FromLiteral("k"))
	s2 := box.Str(rtstr.FromLiteral("k"))
	defer func() {
		for _, x := range []*box.Box{a, b, c, s1, s2} {
			heap.Release(x)
		}
	}()

	if !box.Equal(a, b) || box.Hash(a) != box.Hash(b) {
		t.Fatal("equal i64 boxes must compare and hash equal")
	}
	if box.Equal(a, c) {
		t.Fatal("different tags are never equal")
	}
	if !box.Equal(s1, s2) || box.Hash(s1) != box.Hash(s2) {
		t.Fatal("string boxes compare by content")
	}

	o1, o2 := object.New(1, 8), object.New(1, 8)
	defer heap.Release(o1)
	defer heap.Release(o2)
	if box.Equal(o1, o2) || !box.Equal(o1, o1) {
		t.Fatal("plain objects compare by identity")
	}
	if box.Hash(o1) != box.Hash(o1) {
		t.Fatal("identity hash must be stable")
	}
	if !box.Equal(nil, nil) || box.Equal(a, nil) {
		t.Fatal("nil only equals nil")
	}
}
