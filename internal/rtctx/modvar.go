package rtctx

import (
	"viper/internal/heap"
	"viper/internal/rtstr"
)

// ModKind is the storage kind of a module variable slot.
type ModKind uint8

const (
	ModI64 ModKind = iota + 1
	ModF64
	ModBool
	ModPtr
	ModStr
)

func (k ModKind) String() string {
	switch k {
	case ModI64:
		return "i64"
	case ModF64:
		return "f64"
	case ModBool:
		return "bool"
	case ModPtr:
		return "ptr"
	case ModStr:
		return "str"
	default:
		return "?"
	}
}

type modKey struct {
	name string
	kind ModKind
}

// slot is the heap-tracked storage behind one module variable.
type slot[T any] struct {
	heap.Header
	v T
}

type modvar struct {
	obj  heap.Object
	addr any // *int64, *float64, *bool, *any or **rtstr.String
}

func (k ModKind) layout() (heap.Elem, int) {
	switch k {
	case ModI64:
		return heap.ElemI64, 8
	case ModF64:
		return heap.ElemF64, 8
	case ModBool:
		return heap.ElemBool, 1
	case ModStr:
		return heap.ElemStr, 8
	default:
		return heap.ElemObj, 8
	}
}

func lookupSlot[T any](c *Context, name string, kind ModKind) *T {
	key := modKey{name: name, kind: kind}
	if mv, ok := c.modvars[key]; ok {
		return mv.addr.(*T)
	}
	s := new(slot[T])
	elem, size := kind.layout()
	heap.Track(s, heap.KindOpaque, elem, 0, size)
	c.modvars[key] = &modvar{obj: s, addr: &s.v}
	c.modvarSeq = append(c.modvarSeq, key)
	return &s.v
}

// AddrI64 returns the zero-initialized i64 slot for name. The address
// is stable until the context is cleaned up.
func (c *Context) AddrI64(name string) *int64 { return lookupSlot[int64](c, name, ModI64) }

// AddrF64 returns the f64 slot for name.
func (c *Context) AddrF64(name string) *float64 { return lookupSlot[float64](c, name, ModF64) }

// AddrBool returns the bool slot for name.
func (c *Context) AddrBool(name string) *bool { return lookupSlot[bool](c, name, ModBool) }

// AddrPtr returns the opaque-value slot for name. The slot does not own
// its value.
func (c *Context) AddrPtr(name string) *any { return lookupSlot[any](c, name, ModPtr) }

// AddrStr returns the string slot for name. A string stored there is
// owned by the slot and released on cleanup.
func (c *Context) AddrStr(name string) **rtstr.String {
	return lookupSlot[*rtstr.String](c, name, ModStr)
}

// ModvarCount reports how many slots the context holds.
func (c *Context) ModvarCount() int { return len(c.modvars) }

func (c *Context) freeModvars() {
	for _, key := range c.modvarSeq {
		mv := c.modvars[key]
		if key.kind == ModStr {
			p := mv.addr.(**rtstr.String)
			rtstr.Release(*p)
			*p = nil
		}
		heap.Release(mv.obj)
	}
	c.modvars = make(map[modKey]*modvar)
	c.modvarSeq = nil
}

// AddrI64 resolves name in the effective context.
func AddrI64(name string) *int64 { return Effective().AddrI64(name) }

// AddrF64 resolves name in the effective context.
func AddrF64(name string) *float64 { return Effective().AddrF64(name) }

// AddrBool resolves name in the effective context.
func AddrBool(name string) *bool { return Effective().AddrBool(name) }

// AddrPtr resolves name in the effective context.
func AddrPtr(name string) *any { return Effective().AddrPtr(name) }

// AddrStr resolves name in the effective context.
func AddrStr(name string) **rtstr.String { return Effective().AddrStr(name) }
