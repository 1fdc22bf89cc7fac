// Package heap is the refcounted allocation substrate shared by every
// runtime object: strings, boxes, user objects and containers.
//
// Every heap object embeds a Header as its first field. The header holds
// the atomic reference count, the kind and element tags, the logical
// length and capacity of the payload, the class id of OBJECT allocations
// and an optional finalizer. Raw allocations are returned as *Block, whose
// payload is a zero-filled byte slice; typed runtime objects embed Header
// directly and register themselves with Track.
package heap

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Immortal is the refcount sentinel for objects that are never freed.
// Retain and release leave it untouched. The string layer uses the same
// value for literal handles and the empty singleton.
const Immortal uint64 = math.MaxUint64 - 1

// MaxAlloc is the largest payload a single allocation may request.
const MaxAlloc = 1 << 40

// HeaderSize is the accounting size of a header, reported to alloc hooks.
const HeaderSize = 64

// Kind identifies the kind of heap allocation.
type Kind uint8

const (
	KindObject     Kind = iota + 1 // user objects, boxes, containers
	KindString                     // string payloads
	KindArray                      // array of primitive elements
	KindBoxedArray                 // array of boxed elements
	KindOpaque                     // untyped host buffers
)

// String returns the label used in leak reports and snapshots.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindBoxedArray:
		return "boxed-array"
	case KindOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Elem describes the element type of a payload.
type Elem uint8

const (
	ElemNone Elem = iota
	ElemI16
	ElemI32
	ElemI64
	ElemF64
	ElemBool
	ElemStr
	ElemBox
	ElemObj
)

// String returns a short element label.
func (e Elem) String() string {
	switch e {
	case ElemNone:
		return "none"
	case ElemI16:
		return "i16"
	case ElemI32:
		return "i32"
	case ElemI64:
		return "i64"
	case ElemF64:
		return "f64"
	case ElemBool:
		return "bool"
	case ElemStr:
		return "str"
	case ElemBox:
		return "box"
	case ElemObj:
		return "obj"
	default:
		return fmt.Sprintf("Elem(%d)", e)
	}
}

// Finalizer runs once, when the refcount of an OBJECT allocation reaches zero.
type Finalizer func(Object)

// Header is the fixed metadata in front of every heap payload.
type Header struct {
	refcnt    atomic.Uint64
	freed     atomic.Bool
	kind      Kind
	elem      Elem
	length    int
	capacity  int
	classID   int64
	finalizer Finalizer
	id        uint64
}

// Hdr returns the header itself; embedding Header makes a type an Object.
func (h *Header) Hdr() *Header { return h }

// Kind returns the allocation kind.
func (h *Header) Kind() Kind { return h.kind }

// Elem returns the payload element tag.
func (h *Header) Elem() Elem { return h.elem }

// Len returns the logical payload length in bytes.
func (h *Header) Len() int { return h.length }

// Cap returns the allocated payload capacity in bytes.
func (h *Header) Cap() int { return h.capacity }

// ClassID returns the class tag of OBJECT allocations, zero otherwise.
func (h *Header) ClassID() int64 { return h.classID }

// ID returns the allocation serial number.
func (h *Header) ID() uint64 { return h.id }

// Object is anything that carries a heap header.
type Object interface {
	Hdr() *Header
}

// Block is a raw allocation: a header followed by a zero-filled payload.
type Block struct {
	Header
	data []byte
}

// Bytes returns the logical payload (length bytes).
func (b *Block) Bytes() []byte {
	if b.data == nil {
		return nil
	}
	return b.data[:b.length]
}

// Raw returns the whole payload (capacity bytes).
func (b *Block) Raw() []byte { return b.data }

// SetLen updates the logical length. The new length must fit the capacity.
func (b *Block) SetLen(n int) {
	if n < 0 || n > b.capacity {
		raiseRange("heap.SetLen", n, b.capacity)
	}
	b.length = n
}

// HeaderOf returns the header of obj, or nil for a nil object.
func HeaderOf(obj Object) *Header {
	if obj == nil {
		return nil
	}
	return obj.Hdr()
}

// Len returns the logical payload length of obj.
func Len(obj Object) int {
	if h := HeaderOf(obj); h != nil {
		return h.length
	}
	return 0
}

// Cap returns the payload capacity of obj.
func Cap(obj Object) int {
	if h := HeaderOf(obj); h != nil {
		return h.capacity
	}
	return 0
}

// SetClassID tags an OBJECT allocation with its class id.
// Non-object kinds keep class id zero.
func SetClassID(obj Object, classID int64) {
	h := HeaderOf(obj)
	if h == nil || h.kind != KindObject {
		return
	}
	h.classID = classID
}

// SetFinalizer registers fn on an OBJECT allocation. A nil fn clears it.
// Null objects and non-object kinds are ignored.
func SetFinalizer(obj Object, fn Finalizer) {
	h := HeaderOf(obj)
	if h == nil || h.kind != KindObject {
		return
	}
	h.finalizer = fn
}

// HasFinalizer reports whether a finalizer is still registered.
func HasFinalizer(obj Object) bool {
	h := HeaderOf(obj)
	return h != nil && h.finalizer != nil
}
