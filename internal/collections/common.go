// Package collections implements the runtime container family: Seq, Map
// (and its Dictionary alias), SortedMap, Bag, CountMap, BiMap, WeakMap,
// LRU, PQueue, UnionFind, FrozenMap and FrozenSet.
//
// Every container is a tracked OBJECT allocation whose finalizer releases
// the values it retained. Values are opaque (any): string handles and heap
// objects are retained on insertion and released on removal, replacement,
// Clear or finalization; other Go values pass through untouched. Keys of
// string-keyed containers are stored as owned byte copies, so key identity
// is by bytes, never by handle.
//
// Containers are not safe for concurrent mutation.
package collections

import (
	"strings"

	"viper/internal/heap"
	"viper/internal/object"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// Class ids of the built-in containers. Runtime classes are negative so
// they never collide with user classes.
const (
	ClassSeq int64 = -(iota + 10)
	ClassMap
	ClassSortedMap
	ClassBag
	ClassCountMap
	ClassBiMap
	ClassWeakMap
	ClassLRU
	ClassPQueue
	ClassUnionFind
	ClassFrozenMap
	ClassFrozenSet
)

// containerSize is the accounting size reported to the heap for a
// container header. Element storage lives in Go slices and maps.
const containerSize = 64

func track(obj heap.Object, classID int64, fin heap.Finalizer) {
	heap.Track(obj, heap.KindObject, heap.ElemObj, classID, containerSize)
	heap.SetFinalizer(obj, fin)
}

func retain(v any)  { object.RetainMaybe(v) }
func release(v any) { object.Release(v) }

// keyView returns the bytes of k as a string aliasing its storage. Use it
// for lookups only; stored keys go through ownKey.
func keyView(op string, k *rtstr.String) string {
	if k == nil {
		trap.Raise(trap.CodeNull, op+": null key")
	}
	return rtstr.CStr(k)
}

// ownKey returns an owned copy of a viewed key.
func ownKey(view string) string { return strings.Clone(view) }

func nullReceiver(op string) {
	trap.Raise(trap.CodeNull, op+": null receiver")
}

func outOfRange(op string, idx, n int) {
	trap.Raisef(trap.CodeOutOfRange, "%s: index %d out of bounds (len %d)", op, idx, n)
}

// Container is the surface shared by every mutable collection.
type Container interface {
	heap.Object
	Len() int
	IsEmpty() bool
	Clear()
}

// strElem returns the text of v, which must be a string handle.
func strElem(op string, v any) string {
	s, ok := v.(*rtstr.String)
	if !ok {
		trap.Raisef(trap.CodeTypeMismatch, "%s: %T is not a string", op, v)
	}
	if s == nil {
		trap.Raise(trap.CodeNull, op+": null string")
	}
	return rtstr.CStr(s)
}

// keysSeq builds a sequence of fresh strings, one per key.
func keysSeq(keys []string) *Seq {
	out := NewSeqWithCapacity(len(keys))
	out.elem = heap.ElemStr
	for _, k := range keys {
		out.pushOwned(rtstr.FromString(k))
	}
	return out
}

// valuesSeq builds a sequence retaining each value.
func valuesSeq(vals []any) *Seq {
	out := NewSeqWithCapacity(len(vals))
	for _, v := range vals {
		out.Push(v)
	}
	return out
}
