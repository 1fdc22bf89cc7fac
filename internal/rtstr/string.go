// Package rtstr implements the runtime string handle.
//
// A *String is a small handle. Its bytes live either in a STRING-kind heap
// block (heap-backed) or in caller-owned read-only memory (a literal).
// Heap-backed payloads reserve one byte past the logical length and keep
// it zero. Literal handles and the empty singleton are immortal.
package rtstr

import (
	"sync"
	"unsafe"

	"fortio.org/safecast"

	"viper/internal/heap"
	"viper/internal/trap"
)

// Magic is the cookie stored in every live handle. Other runtime layers use
// it to tell a string handle apart from any other managed value.
const Magic uint64 = 0x5649505253545221

// String is a runtime string handle.
type String struct {
	magic uint64
	blk   *heap.Block // nil iff literal
	lit   string
}

var empty = sync.OnceValue(func() *String {
	b := heap.Alloc(heap.KindString, heap.ElemNone, 1, 0, 1)
	heap.MakeImmortal(b)
	return &String{magic: Magic, blk: b}
})

// Empty returns the process-wide immortal empty string.
func Empty() *String { return empty() }

// FromBytes copies src into a new heap-backed string with refcount 1.
// Zero-length input yields the empty singleton.
func FromBytes(src []byte) *String {
	n := len(src)
	if n == 0 {
		return Empty()
	}
	if n >= heap.MaxAlloc {
		trap.Raisef(trap.CodeOverflow, "rtstr.FromBytes: length %d too large", n)
	}
	b := heap.Alloc(heap.KindString, heap.ElemNone, n, n, n+1)
	copy(b.Raw(), src)
	return &String{magic: Magic, blk: b}
}

// FromString copies s into a new heap-backed string.
func FromString(s string) *String {
	if s == "" {
		return Empty()
	}
	return FromBytes(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// FromLiteral wraps lit without copying. The handle is immortal; lit must
// outlive every use of it, which holds for Go string constants.
func FromLiteral(lit string) *String {
	if lit == "" {
		return Empty()
	}
	return &String{magic: Magic, lit: lit}
}

// IsHandle reports whether v is a live string handle.
func IsHandle(v any) bool {
	s, ok := v.(*String)
	return ok && s != nil && s.magic == Magic
}

// IsLiteral reports whether s borrows literal storage.
func (s *String) IsLiteral() bool { return s != nil && s.blk == nil }

// Block returns the backing heap block, or nil for literals.
func (s *String) Block() *heap.Block {
	if s == nil {
		return nil
	}
	return s.blk
}

// Retain adds a reference to s and returns it. Nil is allowed.
func Retain(s *String) *String {
	if s == nil || s.blk == nil {
		return s
	}
	heap.Retain(s.blk)
	return s
}

// Release drops a reference to s, freeing its payload at zero. Nil and
// literal handles are ignored.
func Release(s *String) {
	if s == nil || s.blk == nil {
		return
	}
	heap.Release(s.blk)
}

// Decrement drops a reference without freeing and reports whether the
// count reached zero. Pair a true result with Free.
func Decrement(s *String) bool {
	if s == nil || s.blk == nil {
		return false
	}
	return heap.Decrement(s.blk) == 0
}

// Free returns the payload of a string whose count already reached zero.
func Free(s *String) {
	if s == nil || s.blk == nil {
		return
	}
	heap.Free(s.blk)
}

// RefCount reports the reference count; literals report heap.Immortal.
func RefCount(s *String) uint64 {
	switch {
	case s == nil:
		return 0
	case s.blk == nil:
		return heap.Immortal
	default:
		return heap.RefCount(s.blk)
	}
}

// Len returns the byte length of s; nil has length 0.
func Len(s *String) int {
	if s == nil {
		return 0
	}
	if s.blk == nil {
		return len(s.lit)
	}
	return s.blk.Len()
}

// Len64 is Len as an int64, the width generated code uses.
func Len64(s *String) int64 {
	n, err := safecast.Conv[int64](Len(s))
	if err != nil {
		trap.Raise(trap.CodeOverflow, "rtstr.Len: "+err.Error())
	}
	return n
}

// view returns the bytes of s without copying. Literal views alias
// read-only memory and must never be written.
func view(op string, s *String) []byte {
	if s == nil {
		trap.Raise(trap.CodeNull, op+": null string")
	}
	if s.magic != Magic {
		trap.Raise(trap.CodeTypeMismatch, op+": not a string handle")
	}
	if s.blk == nil {
		if s.lit == "" {
			trap.Raise(trap.CodeNull, op+": null data")
		}
		return unsafe.Slice(unsafe.StringData(s.lit), len(s.lit))
	}
	if heap.IsFreed(s.blk) {
		trap.Raise(trap.CodeUseAfterFree, op+": string already released")
	}
	return s.blk.Bytes()
}

// viewOrEmpty is view with nil treated as "".
func viewOrEmpty(op string, s *String) []byte {
	if s == nil {
		return nil
	}
	return view(op, s)
}

// Bytes returns a read-only view of the bytes of s. Traps on nil.
func Bytes(s *String) []byte { return view("rtstr.Bytes", s) }

// CStr returns the text of s as a Go string sharing its storage.
// Traps on nil or on a handle without data.
func CStr(s *String) string {
	b := view("rtstr.CStr", s)
	if s.blk == nil {
		return s.lit
	}
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Text returns a Go copy of the text of s ("" for nil).
func Text(s *String) string {
	if s == nil {
		return ""
	}
	return string(view("rtstr.Text", s))
}

// String implements fmt.Stringer.
func (s *String) String() string { return Text(s) }
