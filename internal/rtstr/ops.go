package rtstr

import (
	"bytes"
	"fmt"

	"viper/internal/heap"
	"viper/internal/trap"
)

// Concat returns a new string holding a followed by b and releases both
// operands. Nil operands count as "". Callers that need an operand
// afterwards must retain it first.
func Concat(a, b *String) *String {
	ab := viewOrEmpty("rtstr.Concat", a)
	bb := viewOrEmpty("rtstr.Concat", b)
	switch {
	case len(ab) == 0 && len(bb) == 0:
		Release(a)
		Release(b)
		return Empty()
	case len(bb) == 0 && a != nil:
		Release(b)
		return a
	case len(ab) == 0 && b != nil:
		Release(a)
		return b
	}
	if len(ab) > heap.MaxAlloc-1-len(bb) {
		trap.Raisef(trap.CodeOverflow, "rtstr.Concat: %d + %d bytes overflows", len(ab), len(bb))
	}
	total := len(ab) + len(bb)
	out := heap.Alloc(heap.KindString, heap.ElemNone, total, total, total+1)
	raw := out.Raw()
	copy(raw, ab)
	copy(raw[len(ab):], bb)
	Release(a)
	Release(b)
	return &String{magic: Magic, blk: out}
}

// Slice returns length bytes of s starting at the zero-based start.
// start is clamped to [0, Len(s)] and length to the remaining suffix.
// A zero-length result is the empty singleton; a slice covering all of s
// is s itself, retained.
func Slice(s *String, start, length int64) *String {
	data := view("rtstr.Slice", s)
	n := int64(len(data))
	start = max(0, min(start, n))
	length = max(0, min(length, n-start))
	if length == 0 {
		return Empty()
	}
	if start == 0 && length == n {
		return Retain(s)
	}
	return FromBytes(data[start : start+length])
}

// Left returns the first n bytes of s. Negative n traps.
func Left(s *String, n int64) *String {
	view("LEFT$", s)
	if n < 0 {
		trap.Raise(trap.CodeInvalidArgument, fmt.Sprintf("LEFT$: len must be >= 0 (got %d)", n))
	}
	return Slice(s, 0, n)
}

// Right returns the last n bytes of s. Negative n traps.
func Right(s *String, n int64) *String {
	data := view("RIGHT$", s)
	if n < 0 {
		trap.Raise(trap.CodeInvalidArgument, fmt.Sprintf("RIGHT$: len must be >= 0 (got %d)", n))
	}
	total := int64(len(data))
	if n >= total {
		return Retain(s)
	}
	return Slice(s, total-n, n)
}

// Mid2 returns the suffix of s starting at the one-based position start.
func Mid2(s *String, start int64) *String {
	view("MID$", s)
	checkMidStart(start)
	return Slice(s, start-1, Len64(s))
}

// Mid3 returns at most length bytes of s starting at the one-based
// position start.
func Mid3(s *String, start, length int64) *String {
	view("MID$", s)
	checkMidStart(start)
	if length < 0 {
		trap.Raise(trap.CodeInvalidArgument, fmt.Sprintf("MID$: len must be >= 0 (got %d)", length))
	}
	return Slice(s, start-1, length)
}

func checkMidStart(start int64) {
	if start < 1 {
		trap.Raise(trap.CodeInvalidArgument, fmt.Sprintf("MID$: start must be >= 1 (got %d)", start))
	}
}

// Find searches hay for needle starting at the zero-based offset start
// and returns the one-based position of the first match, or 0.
// An empty needle matches at start+1 (start clamped to the haystack).
// Nil operands never match.
func Find(hay *String, start int64, needle *String) int64 {
	if hay == nil || needle == nil {
		return 0
	}
	h := view("rtstr.Find", hay)
	nd := view("rtstr.Find", needle)
	start = max(0, min(start, int64(len(h))))
	if len(nd) == 0 {
		return start + 1
	}
	i := bytes.Index(h[start:], nd)
	if i < 0 {
		return 0
	}
	return start + int64(i) + 1
}

// Instr is BASIC INSTR(hay, needle): Find from the first byte.
func Instr(hay, needle *String) int64 {
	return Find(hay, 0, needle)
}

// InstrFrom is BASIC INSTR(start, hay, needle) with a one-based start.
// Starts below 1 search from the beginning.
func InstrFrom(start int64, hay, needle *String) int64 {
	return Find(hay, max(start, 1)-1, needle)
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// LTrim strips leading spaces and tabs.
func LTrim(s *String) *String {
	data := view("rtstr.LTrim", s)
	i := 0
	for i < len(data) && isBlank(data[i]) {
		i++
	}
	return Slice(s, int64(i), int64(len(data)-i))
}

// RTrim strips trailing spaces and tabs.
func RTrim(s *String) *String {
	data := view("rtstr.RTrim", s)
	j := len(data)
	for j > 0 && isBlank(data[j-1]) {
		j--
	}
	return Slice(s, 0, int64(j))
}

// Trim strips spaces and tabs from both ends.
func Trim(s *String) *String {
	data := view("rtstr.Trim", s)
	i, j := 0, len(data)
	for i < j && isBlank(data[i]) {
		i++
	}
	for j > i && isBlank(data[j-1]) {
		j--
	}
	return Slice(s, int64(i), int64(j-i))
}

// UCase maps ASCII a-z to A-Z; every other byte is copied unchanged.
func UCase(s *String) *String {
	return mapASCII("rtstr.UCase", s, 'a', 'z')
}

// LCase maps ASCII A-Z to a-z; every other byte is copied unchanged.
func LCase(s *String) *String {
	return mapASCII("rtstr.LCase", s, 'A', 'Z')
}

// mapASCII flips the case bit of every byte in [lo, hi].
func mapASCII(op string, s *String, lo, hi byte) *String {
	data := view(op, s)
	if len(data) == 0 {
		return Empty()
	}
	out := FromBytes(data)
	raw := out.blk.Raw()[:len(data)]
	for i, c := range raw {
		if c >= lo && c <= hi {
			raw[i] = c ^ 0x20
		}
	}
	return out
}

// Compare orders a and b byte-wise as unsigned bytes and returns -1, 0
// or +1. Both operands must be non-nil.
func Compare(a, b *String) int {
	return bytes.Compare(view("rtstr.Compare", a), view("rtstr.Compare", b))
}

// Equal reports byte equality. Two nil handles are not equal.
func Equal(a, b *String) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return bytes.Equal(view("rtstr.Equal", a), view("rtstr.Equal", b))
}

// Less reports a < b. Nil operands compare false.
func Less(a, b *String) bool { return a != nil && b != nil && Compare(a, b) < 0 }

// LessEq reports a <= b. Nil operands compare false.
func LessEq(a, b *String) bool { return a != nil && b != nil && Compare(a, b) <= 0 }

// Greater reports a > b. Nil operands compare false.
func Greater(a, b *String) bool { return a != nil && b != nil && Compare(a, b) > 0 }

// GreaterEq reports a >= b. Nil operands compare false.
func GreaterEq(a, b *String) bool { return a != nil && b != nil && Compare(a, b) >= 0 }

// Chr returns the one-byte string for code. Codes outside 0..255 trap.
func Chr(code int64) *String {
	if code < 0 || code > 255 {
		trap.Raise(trap.CodeOutOfRange, fmt.Sprintf("CHR$: code must be 0-255 (got %d)", code))
	}
	return FromBytes([]byte{byte(code)})
}

// Asc returns the first byte of s, or 0 for "".
func Asc(s *String) int64 {
	data := view("ASC", s)
	if len(data) == 0 {
		return 0
	}
	return int64(data[0])
}
