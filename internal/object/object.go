// Package object is the façade compiled code uses to manage any runtime
// value: user objects, boxes, containers and string handles.
//
// Values travel as Go interfaces. A value is managed when it is a
// *rtstr.String or a heap.Object; nil and every other Go value are
// treated as unmanaged and ignored by the refcount helpers.
package object

import (
	"reflect"

	"fortio.org/safecast"

	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// New allocates a zeroed OBJECT block of size bytes tagged with classID.
func New(classID int64, size int64) *heap.Block {
	n, err := safecast.Conv[int](size)
	if err != nil {
		trap.Raisef(trap.CodeOverflow, "object.New: size %d: %v", size, err)
	}
	b := heap.Alloc(heap.KindObject, heap.ElemNone, 1, n, n)
	heap.SetClassID(b, classID)
	return b
}

func managed(v any) (heap.Object, *rtstr.String) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *rtstr.String:
		if x == nil || !rtstr.IsHandle(x) {
			return nil, nil
		}
		return nil, x
	case heap.Object:
		if isNilObject(x) {
			return nil, nil
		}
		return x, nil
	}
	return nil, nil
}

// isNilObject catches typed nil pointers stored in an interface.
func isNilObject(o heap.Object) bool {
	rv := reflect.ValueOf(o)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// IsManaged reports whether v participates in reference counting.
func IsManaged(v any) bool {
	o, s := managed(v)
	return o != nil || s != nil
}

// ClassID returns the class tag of v, or 0 for nil and non-objects.
func ClassID(v any) int64 {
	o, _ := managed(v)
	if o == nil {
		return 0
	}
	return o.Hdr().ClassID()
}

// SetFinalizer registers fn on an OBJECT value. Nil values and other
// kinds are ignored; a nil fn clears the slot.
func SetFinalizer(v any, fn heap.Finalizer) {
	o, _ := managed(v)
	if o == nil {
		return
	}
	heap.SetFinalizer(o, fn)
}

// RetainMaybe adds a reference to v if it is managed.
func RetainMaybe(v any) {
	o, s := managed(v)
	switch {
	case s != nil:
		rtstr.Retain(s)
	case o != nil:
		heap.Retain(o)
	}
}

// ReleaseCheckZero drops a reference to v and reports whether this call
// took the count to zero. The value is not freed; call FreeZeroRef.
func ReleaseCheckZero(v any) bool {
	o, s := managed(v)
	switch {
	case s != nil:
		return rtstr.Decrement(s)
	case o != nil:
		return heap.Decrement(o) == 0
	}
	return false
}

// FreeZeroRef runs any finalizer still registered on v and frees it.
// v must have reached zero through ReleaseCheckZero.
func FreeZeroRef(v any) {
	o, s := managed(v)
	switch {
	case s != nil:
		rtstr.Free(s)
	case o != nil:
		heap.Free(o)
	}
}

// Release drops a reference to v and frees it when the count hits zero.
func Release(v any) {
	if ReleaseCheckZero(v) {
		FreeZeroRef(v)
	}
}
