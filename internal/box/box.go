// Package box wraps scalars in small OBJECT allocations so that
// containers storing opaque values can hold them, and provides the
// content-aware hash and equality those containers use.
package box

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"viper/internal/hashutil"
	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// ClassID tags every box allocation. Runtime classes use negative ids.
const ClassID int64 = -1

// payloadSize is the accounting size of a box: tag word plus payload word.
const payloadSize = 16

// Tag identifies the boxed scalar type.
type Tag int

const (
	TagI64 Tag = iota
	TagF64
	TagBool
	TagStr
)

func (t Tag) String() string {
	switch t {
	case TagI64:
		return "i64"
	case TagF64:
		return "f64"
	case TagBool:
		return "bool"
	case TagStr:
		return "str"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Box is a boxed scalar. bits carries i64 values, f64 bit patterns and
// bools as 0/1; str holds a retained string for TagStr.
type Box struct {
	heap.Header
	tag  Tag
	bits uint64
	str  *rtstr.String
}

func newBox(tag Tag, bits uint64, s *rtstr.String) *Box {
	b := &Box{tag: tag, bits: bits, str: s}
	heap.Track(b, heap.KindObject, heap.ElemBox, ClassID, payloadSize)
	if tag == TagStr {
		heap.SetFinalizer(b, finalizeStr)
	}
	return b
}

func finalizeStr(obj heap.Object) {
	b := obj.(*Box)
	rtstr.Release(b.str)
	b.str = nil
}

// I64 boxes v.
func I64(v int64) *Box { return newBox(TagI64, uint64(v), nil) }

// F64 boxes v.
func F64(v float64) *Box { return newBox(TagF64, math.Float64bits(v), nil) }

// Bool boxes v.
func Bool(v bool) *Box {
	var bits uint64
	if v {
		bits = 1
	}
	return newBox(TagBool, bits, nil)
}

// Str boxes s and retains it. A nil s boxes the empty string.
func Str(s *rtstr.String) *Box {
	if s == nil {
		s = rtstr.Empty()
	}
	return newBox(TagStr, 0, rtstr.Retain(s))
}

// Tag returns the box tag.
func (b *Box) Tag() Tag { return b.tag }

// As returns v as a box, or nil when v is not one.
func As(v any) *Box {
	b, ok := v.(*Box)
	if !ok || b == nil {
		return nil
	}
	return b
}

// IsBox reports whether v is a box.
func IsBox(v any) bool { return As(v) != nil }

// TagOf returns the tag of a boxed v, or -1 for nil and non-boxes.
func TagOf(v any) int {
	if b := As(v); b != nil {
		return int(b.tag)
	}
	return -1
}

func unbox(op string, v any, want Tag) *Box {
	if v == nil {
		trap.Raise(trap.CodeNull, op+": null box")
	}
	b := As(v)
	if b == nil {
		if reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil() {
			trap.Raise(trap.CodeNull, op+": null box")
		}
		trap.Raisef(trap.CodeTypeMismatch, "%s: %T is not a box", op, v)
	}
	if b.tag != want {
		trap.Raisef(trap.CodeTypeMismatch, "%s: box holds %s, not %s", op, b.tag, want)
	}
	return b
}

// UnboxI64 returns the integer in v. Traps on nil or a different tag.
func UnboxI64(v any) int64 { return int64(unbox("box.UnboxI64", v, TagI64).bits) }

// UnboxF64 returns the float in v.
func UnboxF64(v any) float64 {
	return math.Float64frombits(unbox("box.UnboxF64", v, TagF64).bits)
}

// UnboxBool returns the boolean in v.
func UnboxBool(v any) bool { return unbox("box.UnboxBool", v, TagBool).bits != 0 }

// UnboxStr returns the string in v, retained for the caller.
func UnboxStr(v any) *rtstr.String {
	return rtstr.Retain(unbox("box.UnboxStr", v, TagStr).str)
}

// Hash returns the content hash of v. Boxes hash their tag and payload
// bytes with FNV-1a; any other value hashes its identity.
func Hash(v any) uint64 {
	if b := As(v); b != nil {
		h := hashutil.Extend(hashutil.Offset64, []byte{byte(b.tag)})
		if b.tag == TagStr {
			return hashutil.Extend(h, hashutil.StrView(b.str))
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], b.bits)
		return hashutil.Extend(h, buf[:])
	}
	return identityHash(v)
}

func identityHash(v any) uint64 {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return hashutil.FNV1aUint64(uint64(rv.Pointer()))
	}
	return hashutil.FNV1aString(fmt.Sprintf("%T:%v", v, v))
}

// Equal compares boxes of the same tag by payload and everything else by
// identity.
func Equal(a, b any) bool {
	ba, bb := As(a), As(b)
	if ba != nil && bb != nil {
		if ba.tag != bb.tag {
			return false
		}
		if ba.tag == TagStr {
			return ba.str == bb.str || rtstr.Equal(ba.str, bb.str)
		}
		return ba.bits == bb.bits
	}
	return Identical(a, b)
}

// Identical reports whether a and b are the same value: the same pointer
// for references, == for other comparable values.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
