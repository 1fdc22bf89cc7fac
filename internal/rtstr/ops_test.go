package rtstr

import (
	"math"
	"strings"
	"testing"

	"viper/internal/heap"
	"viper/internal/trap"
)

func TestConcatConsumesOperands(t *testing.T) {
	a := FromBytes([]byte("foo"))
	b := FromBytes([]byte("bar"))
	if RefCount(a) != 1 || RefCount(b) != 1 {
		t.Fatalf("expected fresh refcounts, got %d/%d", RefCount(a), RefCount(b))
	}
	c := Concat(a, b)
	defer Release(c)

	if Len(c) != 6 || Text(c) != "foobar" {
		t.Fatalf("unexpected concat result %q", Text(c))
	}
	if !heap.IsFreed(a.Block()) || !heap.IsFreed(b.Block()) {
		t.Fatal("concat must release both operands")
	}
}

func TestConcatRetainedOperandSurvives(t *testing.T) {
	a := FromString("keep")
	b := FromString("me")
	Retain(a)
	c := Concat(a, b)
	defer Release(c)
	defer Release(a)

	if heap.IsFreed(a.Block()) || RefCount(a) != 1 {
		t.Fatalf("retained operand should survive with refcount 1, got %d", RefCount(a))
	}
	if Text(a) != "keep" {
		t.Fatalf("operand corrupted: %q", Text(a))
	}
}

func TestConcatDecompositionLaw(t *testing.T) {
	const whole = "decomposition"
	for i := 0; i <= len(whole); i++ {
		c := Concat(FromString(whole[:i]), FromString(whole[i:]))
		if Len(c) != len(whole) || Text(c) != whole {
			t.Fatalf("split at %d: got %q", i, Text(c))
		}
		Release(c)
	}
}

func TestConcatEmptyAndNil(t *testing.T) {
	if Concat(nil, nil) != Empty() || Concat(Empty(), nil) != Empty() {
		t.Fatal("empty concatenation must be the singleton")
	}
	a := FromString("solo")
	c := Concat(a, Empty())
	if c != a || RefCount(c) != 1 {
		t.Fatal("concat with empty should hand the operand back")
	}
	Release(c)
}

func TestSliceClamping(t *testing.T) {
	s := FromString("abcdef")
	defer Release(s)

	cases := []struct {
		start, length int64
		want          string
	}{
		{0, 3, "abc"},
		{2, 2, "cd"},
		{-5, 2, "ab"},
		{4, 100, "ef"},
		{100, 3, ""},
		{3, -1, ""},
	}
	for _, tc := range cases {
		got := Slice(s, tc.start, tc.length)
		if Text(got) != tc.want {
			t.Errorf("Slice(%d, %d) = %q, want %q", tc.start, tc.length, Text(got), tc.want)
		}
		if tc.want == "" && got != Empty() {
			t.Errorf("Slice(%d, %d) should return the empty singleton", tc.start, tc.length)
		}
		Release(got)
	}
}

func TestSliceWholeAliases(t *testing.T) {
	s := FromString("whole")
	defer Release(s)

	w := Slice(s, 0, 5)
	if w != s || RefCount(s) != 2 {
		t.Fatalf("full slice should alias and retain, rc=%d", RefCount(s))
	}
	Release(w)
}

func TestLeftRightMid(t *testing.T) {
	s := FromString("Hello World")
	defer Release(s)

	check := func(name string, got *String, want string) {
		t.Helper()
		if Text(got) != want {
			t.Errorf("%s = %q, want %q", name, Text(got), want)
		}
		Release(got)
	}
	check("Left 5", Left(s, 5), "Hello")
	check("Left 0", Left(s, 0), "")
	check("Left 99", Left(s, 99), "Hello World")
	check("Right 5", Right(s, 5), "World")
	check("Right 99", Right(s, 99), "Hello World")
	check("Mid2 7", Mid2(s, 7), "World")
	check("Mid2 1", Mid2(s, 1), "Hello World")
	check("Mid2 50", Mid2(s, 50), "")
	check("Mid3 7 3", Mid3(s, 7, 3), "Wor")
	check("Mid3 1 99", Mid3(s, 1, 99), "Hello World")

	err := expectTrap(t, trap.CodeInvalidArgument, func() { Left(s, -1) })
	if !strings.Contains(err.Message, "LEFT$: len must be >= 0 (got -1)") {
		t.Fatalf("unexpected message %q", err.Message)
	}
	expectTrap(t, trap.CodeInvalidArgument, func() { Right(s, -2) })
	expectTrap(t, trap.CodeInvalidArgument, func() { Mid2(s, 0) })
	expectTrap(t, trap.CodeInvalidArgument, func() { Mid3(s, 1, -1) })
	expectTrap(t, trap.CodeNull, func() { Left(nil, 1) })
}

func TestFindAndInstr(t *testing.T) {
	hay := FromLiteral("abcabc")
	bc := FromLiteral("bc")
	none := FromLiteral("zz")

	if got := Find(hay, 0, bc); got != 2 {
		t.Fatalf("Find = %d, want 2", got)
	}
	if got := Find(hay, 2, bc); got != 5 {
		t.Fatalf("Find from 2 = %d, want 5", got)
	}
	if got := Find(hay, 0, none); got != 0 {
		t.Fatalf("missing needle = %d, want 0", got)
	}
	if got := Find(hay, 3, Empty()); got != 4 {
		t.Fatalf("empty needle = %d, want start+1", got)
	}
	if got := Find(hay, 99, Empty()); got != 7 {
		t.Fatalf("empty needle past end = %d, want 7", got)
	}
	if Instr(hay, bc) != 2 || InstrFrom(3, hay, bc) != 5 || InstrFrom(-4, hay, bc) != 2 {
		t.Fatal("INSTR variants disagree with Find")
	}
	if Find(nil, 0, bc) != 0 || Instr(hay, nil) != 0 {
		t.Fatal("nil operands must not match")
	}
}

func TestTrim(t *testing.T) {
	s := FromString(" \t padded\t ")
	defer Release(s)

	for name, got := range map[string]*String{
		"LTrim": LTrim(s), "RTrim": RTrim(s), "Trim": Trim(s),
	} {
		want := map[string]string{"LTrim": "padded\t ", "RTrim": " \t padded", "Trim": "padded"}[name]
		if Text(got) != want {
			t.Errorf("%s = %q, want %q", name, Text(got), want)
		}
		Release(got)
	}
	blank := FromLiteral(" \t ")
	if Trim(blank) != Empty() {
		t.Fatal("trimming only blanks must give the empty singleton")
	}
	nl := FromLiteral("\nx\n")
	if got := Trim(nl); got != nl {
		t.Fatal("newlines are not trimmed")
	}
}

func TestCaseIsASCIIOnly(t *testing.T) {
	s := FromString("MiXeD ß é 123")
	defer Release(s)

	up := UCase(s)
	lo := LCase(s)
	defer Release(up)
	defer Release(lo)
	if Text(up) != "MIXED ß é 123" {
		t.Fatalf("UCase = %q", Text(up))
	}
	if Text(lo) != "mixed ß é 123" {
		t.Fatalf("LCase = %q", Text(lo))
	}
	if Text(s) != "MiXeD ß é 123" {
		t.Fatal("case mapping must not modify its input")
	}
}

func TestComparisons(t *testing.T) {
	a := FromLiteral("apple")
	b := FromLiteral("banana")
	a2 := FromString("apple")
	hi := FromBytes([]byte{0xff})
	defer Release(a2)
	defer Release(hi)

	if !Equal(a, a2) || Equal(a, b) {
		t.Fatal("Equal is byte-wise")
	}
	if Equal(nil, nil) || Equal(a, nil) {
		t.Fatal("nil handles are never equal")
	}
	if !Less(a, b) || !LessEq(a, a2) || !Greater(b, a) || !GreaterEq(a2, a) {
		t.Fatal("ordering is byte-wise")
	}
	if !Greater(hi, b) {
		t.Fatal("bytes compare unsigned")
	}
	if Less(nil, a) || GreaterEq(a, nil) {
		t.Fatal("nil operands compare false")
	}
	if Compare(a, a2) != 0 || Compare(a, b) != -1 || Compare(b, a) != 1 {
		t.Fatal("Compare disagrees")
	}
}

func TestChrAsc(t *testing.T) {
	for _, code := range []int64{0, 65, 255} {
		s := Chr(code)
		if Len(s) != 1 || Asc(s) != code {
			t.Fatalf("Chr/Asc round trip failed for %d", code)
		}
		Release(s)
	}
	if Asc(Empty()) != 0 {
		t.Fatal("Asc of empty must be 0")
	}
	expectTrap(t, trap.CodeOutOfRange, func() { Chr(256) })
	expectTrap(t, trap.CodeOutOfRange, func() { Chr(-1) })
}

func TestIntegerRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64} {
		s := FromI64(v)
		if got := ToI64(s); got != v {
			t.Fatalf("round trip %d gave %d", v, got)
		}
		Release(s)
	}
}

func TestToI64(t *testing.T) {
	if got := ToI64(FromLiteral("  -17\t")); got != -17 {
		t.Fatalf("got %d, want -17", got)
	}
	expectTrap(t, trap.CodeInvalidArgument, func() { ToI64(FromLiteral("   ")) })
	expectTrap(t, trap.CodeInvalidArgument, func() { ToI64(FromLiteral("12abc")) })
	expectTrap(t, trap.CodeOverflow, func() { ToI64(FromLiteral("99999999999999999999")) })
	expectTrap(t, trap.CodeNull, func() { ToI64(nil) })
}

func TestToF64AndVal(t *testing.T) {
	cases := map[string]float64{
		"3.5":       3.5,
		"  -2e3xyz": -2000,
		"1e":        1,
		".5":        0.5,
		"abc":       0,
		"+7.25 kg":  7.25,
		"0x1p4":     16,
		"0x1.8":     1.5,
		"-0X10 hex": -16,
		"0x":        0,
		"1e-999":    0,
		"inf":       math.Inf(1),
		"-Infinity": math.Inf(-1),
		" INFx":     math.Inf(1),
	}
	for in, want := range cases {
		if got := ToF64(FromLiteral(in)); got != want {
			t.Errorf("ToF64(%q) = %v, want %v", in, got, want)
		}
		if got := Val(FromLiteral(in)); got != want {
			t.Errorf("Val(%q) = %v, want %v", in, got, want)
		}
	}
	if !math.IsInf(ToF64(FromLiteral("1e999")), 1) {
		t.Fatal("ToF64 saturates on overflow")
	}
	expectTrap(t, trap.CodeOverflow, func() { Val(FromLiteral("1e999")) })
	if !math.IsNaN(ToF64(FromLiteral("nan"))) || !math.IsNaN(Val(FromLiteral("-NaN(1)"))) {
		t.Fatal("nan must parse to NaN")
	}
}

func TestFromF64(t *testing.T) {
	cases := map[float64]string{
		0.1:         "0.1",
		2:           "2",
		-1.5:        "-1.5",
		1e21:        "1e+21",
		math.Inf(1): "Inf",
	}
	for v, want := range cases {
		s := FromF64(v)
		if Text(s) != want {
			t.Errorf("FromF64(%v) = %q, want %q", v, Text(s), want)
		}
		Release(s)
	}
}
