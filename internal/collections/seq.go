package collections

import (
	"reflect"
	"slices"

	"fortio.org/safecast"

	"viper/internal/box"
	"viper/internal/hashutil"
	"viper/internal/heap"
	"viper/internal/rtctx"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// Seq is a dynamic array of opaque values.
//
// By default a Seq owns its elements: Push retains, Get borrows, Pop and
// Remove hand the reference to the caller, Set and Clear release what
// they drop. SetOwnsElements(false) turns it into a plain view.
type Seq struct {
	heap.Header
	items []any
	elem  heap.Elem
	owns  bool
}

// NewSeq returns an empty sequence.
func NewSeq() *Seq { return NewSeqWithCapacity(0) }

// NewSeqWithCapacity returns an empty sequence with room for n values.
func NewSeqWithCapacity(n int) *Seq {
	if n < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "Seq.New: capacity must be >= 0 (got %d)", n)
	}
	s := &Seq{items: make([]any, 0, n), owns: true}
	track(s, ClassSeq, finalizeSeq)
	return s
}

// NewSeqOf returns an empty sequence whose elements are of kind elem.
// Boxed and string sequences compare elements by content.
func NewSeqOf(elem heap.Elem) *Seq {
	s := NewSeq()
	s.elem = elem
	return s
}

func finalizeSeq(obj heap.Object) {
	s := obj.(*Seq)
	s.dropAll()
	s.items = nil
}

func (s *Seq) check(op string) {
	if s == nil {
		nullReceiver(op)
	}
}

func (s *Seq) index(op string, i int) {
	if i < 0 || i >= len(s.items) {
		outOfRange(op, i, len(s.items))
	}
}

func (s *Seq) dropAll() {
	if s.owns {
		for _, v := range s.items {
			release(v)
		}
	}
	clear(s.items)
	s.items = s.items[:0]
}

// SetOwnsElements switches element ownership. Only an empty sequence may
// change mode.
func (s *Seq) SetOwnsElements(owns bool) {
	s.check("Seq.SetOwnsElements")
	if len(s.items) != 0 && owns != s.owns {
		trap.Raise(trap.CodeInvalidArgument, "Seq.SetOwnsElements: sequence is not empty")
	}
	s.owns = owns
}

// OwnsElements reports whether s retains its elements.
func (s *Seq) OwnsElements() bool { return s.owns }

// ElemKind returns the published element kind.
func (s *Seq) ElemKind() heap.Elem { return s.elem }

// Len returns the number of elements.
func (s *Seq) Len() int {
	s.check("Seq.Len")
	return len(s.items)
}

// Len64 returns Len as an int64.
func (s *Seq) Len64() int64 { return int64(s.Len()) }

// Cap returns the current capacity.
func (s *Seq) Cap() int {
	s.check("Seq.Cap")
	return cap(s.items)
}

// IsEmpty reports whether s has no elements.
func (s *Seq) IsEmpty() bool { return s.Len() == 0 }

// Get returns the element at i, borrowed.
func (s *Seq) Get(i int) any {
	s.check("Seq.Get")
	s.index("Seq.Get", i)
	return s.items[i]
}

// GetStr returns the string at i, retained for the caller.
func (s *Seq) GetStr(i int) *rtstr.String {
	v := s.Get(i)
	str, ok := v.(*rtstr.String)
	if !ok || str == nil {
		trap.Raisef(trap.CodeTypeMismatch, "Seq.GetStr: element %d is %T, not a string", i, v)
	}
	return rtstr.Retain(str)
}

// At converts a 64-bit index, trapping when it does not fit an int.
func (s *Seq) At(i int64) any {
	n, err := safecast.Conv[int](i)
	if err != nil {
		trap.Raisef(trap.CodeOutOfRange, "Seq.Get: index %d out of bounds", i)
	}
	return s.Get(n)
}

// Set replaces the element at i, releasing the previous one.
func (s *Seq) Set(i int, v any) {
	s.check("Seq.Set")
	s.index("Seq.Set", i)
	if s.owns {
		retain(v)
		release(s.items[i])
	}
	s.items[i] = v
}

// Push appends v.
func (s *Seq) Push(v any) {
	s.check("Seq.Push")
	if s.owns {
		retain(v)
	}
	s.items = append(s.items, v)
}

// pushOwned appends v, adopting the caller's reference.
func (s *Seq) pushOwned(v any) {
	s.items = append(s.items, v)
}

// PushAll appends every element of other. other may be s itself.
func (s *Seq) PushAll(other *Seq) {
	s.check("Seq.PushAll")
	other.check("Seq.PushAll")
	src := other.items[:len(other.items):len(other.items)]
	if s.owns {
		for _, v := range src {
			retain(v)
		}
	}
	s.items = append(s.items, src...)
}

func (s *Seq) takeLast(op string) any {
	s.check(op)
	n := len(s.items)
	if n == 0 {
		trap.Raise(trap.CodeEmpty, op+": sequence is empty")
	}
	v := s.items[n-1]
	s.items[n-1] = nil
	s.items = s.items[:n-1]
	return v
}

// Pop removes and returns the last element; the caller owns it.
func (s *Seq) Pop() any { return s.takeLast("Seq.Pop") }

func (s *Seq) edge(op string, last bool) any {
	s.check(op)
	if len(s.items) == 0 {
		trap.Raise(trap.CodeEmpty, op+": sequence is empty")
	}
	if last {
		return s.items[len(s.items)-1]
	}
	return s.items[0]
}

// Peek returns the last element without removing it.
func (s *Seq) Peek() any { return s.edge("Seq.Peek", true) }

// First returns the first element.
func (s *Seq) First() any { return s.edge("Seq.First", false) }

// Last returns the last element.
func (s *Seq) Last() any { return s.edge("Seq.Last", true) }

// Insert places v at i, shifting later elements right. i may equal Len.
func (s *Seq) Insert(i int, v any) {
	s.check("Seq.Insert")
	if i < 0 || i > len(s.items) {
		outOfRange("Seq.Insert", i, len(s.items))
	}
	if s.owns {
		retain(v)
	}
	s.items = slices.Insert(s.items, i, v)
}

// Remove deletes the element at i and returns it; the caller owns it.
func (s *Seq) Remove(i int) any {
	s.check("Seq.Remove")
	s.index("Seq.Remove", i)
	v := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	return v
}

// Clear drops every element.
func (s *Seq) Clear() {
	s.check("Seq.Clear")
	s.dropAll()
}

func (s *Seq) equal(a, b any) bool {
	switch s.elem {
	case heap.ElemBox:
		return box.Equal(a, b)
	case heap.ElemStr:
		sa, okA := a.(*rtstr.String)
		sb, okB := b.(*rtstr.String)
		if okA && okB {
			return rtstr.Equal(sa, sb)
		}
	}
	return box.Identical(a, b)
}

// Find returns the index of the first element equal to v, or -1.
func (s *Seq) Find(v any) int {
	s.check("Seq.Find")
	for i, x := range s.items {
		if s.equal(x, v) {
			return i
		}
	}
	return -1
}

// Contains reports whether Find(v) >= 0.
func (s *Seq) Contains(v any) bool { return s.Find(v) >= 0 }

// Reverse reverses s in place.
func (s *Seq) Reverse() {
	s.check("Seq.Reverse")
	slices.Reverse(s.items)
}

// Shuffle permutes s in place with the effective context's RNG.
func (s *Seq) Shuffle() {
	s.check("Seq.Shuffle")
	ctx := rtctx.Effective()
	for i := len(s.items) - 1; i > 0; i-- {
		j := int(ctx.RandInt(int64(i + 1)))
		s.items[i], s.items[j] = s.items[j], s.items[i]
	}
}

func (s *Seq) derive(n int) *Seq {
	d := NewSeqWithCapacity(n)
	d.elem = s.elem
	return d
}

// Slice returns a new sequence holding elements [start, end). Bounds are
// clamped to the sequence.
func (s *Seq) Slice(start, end int) *Seq {
	s.check("Seq.Slice")
	n := len(s.items)
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	d := s.derive(end - start)
	for _, v := range s.items[start:end] {
		d.Push(v)
	}
	return d
}

// Clone returns a shallow copy of s.
func (s *Seq) Clone() *Seq { return s.Slice(0, s.Len()) }

// Keep returns a new sequence of the elements for which pred is true.
func (s *Seq) Keep(pred func(any) bool) *Seq {
	s.check("Seq.Keep")
	d := s.derive(0)
	for _, v := range s.items {
		if pred(v) {
			d.Push(v)
		}
	}
	return d
}

// Reject returns a new sequence of the elements for which pred is false.
func (s *Seq) Reject(pred func(any) bool) *Seq {
	return s.Keep(func(v any) bool { return !pred(v) })
}

// Apply returns a new sequence of fn applied to every element. Results
// are retained as they are pushed; fn returns a borrowed value. A nil fn
// clones s.
func (s *Seq) Apply(fn func(any) any) *Seq {
	s.check("Seq.Apply")
	if fn == nil {
		return s.Clone()
	}
	d := NewSeqWithCapacity(len(s.items))
	for _, v := range s.items {
		d.Push(fn(v))
	}
	return d
}

// All reports whether pred holds for every element. It is true for an
// empty sequence or a nil pred.
func (s *Seq) All(pred func(any) bool) bool {
	s.check("Seq.All")
	if pred == nil {
		return true
	}
	for _, v := range s.items {
		if !pred(v) {
			return false
		}
	}
	return true
}

// Any reports whether pred holds for some element.
func (s *Seq) Any(pred func(any) bool) bool {
	s.check("Seq.Any")
	return pred != nil && s.FindIndexWhere(pred) >= 0
}

// None is the negation of Any.
func (s *Seq) None(pred func(any) bool) bool { return !s.Any(pred) }

// CountWhere returns how many elements satisfy pred; a nil pred counts
// them all.
func (s *Seq) CountWhere(pred func(any) bool) int {
	s.check("Seq.CountWhere")
	if pred == nil {
		return len(s.items)
	}
	n := 0
	for _, v := range s.items {
		if pred(v) {
			n++
		}
	}
	return n
}

// FindIndexWhere returns the index of the first element satisfying pred,
// or -1.
func (s *Seq) FindIndexWhere(pred func(any) bool) int {
	s.check("Seq.FindIndexWhere")
	if pred == nil {
		if len(s.items) == 0 {
			return -1
		}
		return 0
	}
	for i, v := range s.items {
		if pred(v) {
			return i
		}
	}
	return -1
}

// FindWhere returns the first element satisfying pred, borrowed, or nil.
// A nil pred matches the first element.
func (s *Seq) FindWhere(pred func(any) bool) any {
	if i := s.FindIndexWhere(pred); i >= 0 {
		return s.items[i]
	}
	return nil
}

// Take returns a new sequence of the first n elements. n <= 0 yields an
// empty sequence and n past the end copies everything.
func (s *Seq) Take(n int) *Seq {
	s.check("Seq.Take")
	return s.Slice(0, max(n, 0))
}

// Drop returns a new sequence without the first n elements.
func (s *Seq) Drop(n int) *Seq {
	s.check("Seq.Drop")
	return s.Slice(max(n, 0), len(s.items))
}

// TakeWhile returns the longest prefix whose elements satisfy pred. A nil
// pred takes everything.
func (s *Seq) TakeWhile(pred func(any) bool) *Seq {
	s.check("Seq.TakeWhile")
	end := 0
	for end < len(s.items) && (pred == nil || pred(s.items[end])) {
		end++
	}
	return s.Slice(0, end)
}

// DropWhile returns what remains after the longest prefix satisfying
// pred. A nil pred drops everything.
func (s *Seq) DropWhile(pred func(any) bool) *Seq {
	s.check("Seq.DropWhile")
	start := 0
	for start < len(s.items) && (pred == nil || pred(s.items[start])) {
		start++
	}
	return s.Slice(start, len(s.items))
}

// Fold combines the elements left to right, starting from init. The
// sequence takes no part in the accumulator's ownership; a nil fn
// returns init.
func (s *Seq) Fold(init any, fn func(acc, v any) any) any {
	s.check("Seq.Fold")
	if fn == nil {
		return init
	}
	acc := init
	for _, v := range s.items {
		acc = fn(acc, v)
	}
	return acc
}

// Distinct returns a new sequence with the first occurrence of every
// element, using the sequence's equality.
func (s *Seq) Distinct() *Seq {
	s.check("Seq.Distinct")
	d := s.derive(0)
	seen := make(map[uint64][]any, len(s.items))
	for _, v := range s.items {
		h := s.hash(v)
		dup := false
		for _, w := range seen[h] {
			if s.equal(v, w) {
				dup = true
				break
			}
		}
		if !dup {
			seen[h] = append(seen[h], v)
			d.Push(v)
		}
	}
	return d
}

func (s *Seq) hash(v any) uint64 {
	if str, ok := v.(*rtstr.String); ok && s.elem == heap.ElemStr && str != nil {
		return hashutil.FNV1a(hashutil.StrView(str))
	}
	if s.elem == heap.ElemBox {
		return box.Hash(v)
	}
	if box.Identical(v, v) {
		return box.Hash(v)
	}
	return 0
}

// Sort orders s ascending, stably: nil first, strings by bytes, anything
// else by address.
func (s *Seq) Sort() { s.SortBy(compareDefault) }

// SortDesc orders s descending, stably.
func (s *Seq) SortDesc() {
	s.SortBy(func(a, b any) int { return compareDefault(b, a) })
}

// SortBy orders s stably with cmp, which returns a negative, zero or
// positive result.
func (s *Seq) SortBy(cmp func(a, b any) int) {
	s.check("Seq.SortBy")
	if cmp == nil {
		trap.Raise(trap.CodeNull, "Seq.SortBy: null comparator")
	}
	slices.SortStableFunc(s.items, cmp)
}

func compareDefault(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	sa, okA := a.(*rtstr.String)
	sb, okB := b.(*rtstr.String)
	if okA && okB {
		return rtstr.Compare(sa, sb)
	}
	pa, pb := address(a), address(b)
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	}
	return 0
}

func address(v any) uintptr {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Slice:
		return rv.Pointer()
	}
	return 0
}

// Values returns the elements as a Go slice, borrowed.
func (s *Seq) Values() []any {
	s.check("Seq.Values")
	return slices.Clone(s.items)
}
