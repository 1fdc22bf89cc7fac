package rtctx

import (
	"sort"

	"viper/internal/heap"
	"viper/internal/trap"
)

// Method is a compiled method body. self is the receiver object.
type Method func(self heap.Object, args []any) any

// VTable is the method table of a class. Slots not defined locally are
// resolved through the parent chain.
type VTable struct {
	class   *Class
	parent  *VTable
	methods []Method
}

// Lookup returns the method in slot, walking parent vtables, or nil.
func (vt *VTable) Lookup(slot int) Method {
	for v := vt; v != nil; v = v.parent {
		if slot >= 0 && slot < len(v.methods) {
			if m := v.methods[slot]; m != nil {
				return m
			}
		}
	}
	return nil
}

// LookupLocal returns the method in slot of this vtable only.
func (vt *VTable) LookupLocal(slot int) Method {
	if slot >= 0 && slot < len(vt.methods) {
		return vt.methods[slot]
	}
	return nil
}

// SetMethod installs m in slot, growing the table as needed.
func (vt *VTable) SetMethod(slot int, m Method) {
	if slot < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.SetMethod: negative slot %d", slot)
	}
	if slot >= len(vt.methods) {
		grown := make([]Method, slot+1)
		copy(grown, vt.methods)
		vt.methods = grown
	}
	vt.methods[slot] = m
}

// Len returns the number of local slots, empty ones included.
func (vt *VTable) Len() int { return len(vt.methods) }

// Class is a registered class.
type Class struct {
	ID     int64
	Name   string
	Parent *Class
	VTable *VTable
}

// Interface is a registered interface with a fixed number of slots.
type Interface struct {
	ID    int64
	Name  string
	Slots int
}

type bindKey struct{ class, iface int64 }

// Registry holds the classes, interfaces and interface bindings of a
// context.
type Registry struct {
	classes  map[int64]*Class
	ifaces   map[int64]*Interface
	bindings map[bindKey][]Method
}

func newRegistry() *Registry {
	return &Registry{
		classes:  make(map[int64]*Class),
		ifaces:   make(map[int64]*Interface),
		bindings: make(map[bindKey][]Method),
	}
}

// Empty reports whether nothing is registered. A nil registry is empty.
func (r *Registry) Empty() bool {
	return r == nil || (len(r.classes) == 0 && len(r.ifaces) == 0)
}

// RegisterClass registers class id with the given methods. parentID 0
// means no parent; otherwise the parent must already be registered and
// the new vtable inherits from it. Duplicate ids trap.
func (r *Registry) RegisterClass(id int64, name string, parentID int64, methods []Method) *Class {
	if id == 0 {
		trap.Raise(trap.CodeInvalidArgument, "rtctx.RegisterClass: class id 0 is reserved")
	}
	if _, dup := r.classes[id]; dup {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.RegisterClass: class %d (%s) already registered", id, name)
	}
	c := &Class{ID: id, Name: name}
	var parentVT *VTable
	if parentID != 0 {
		p, ok := r.classes[parentID]
		if !ok {
			trap.Raisef(trap.CodeInvalidArgument, "rtctx.RegisterClass: %s: unknown parent class %d", name, parentID)
		}
		c.Parent = p
		parentVT = p.VTable
	}
	c.VTable = &VTable{class: c, parent: parentVT, methods: append([]Method(nil), methods...)}
	r.classes[id] = c
	return c
}

// RegisterInterface registers an interface with slots method slots.
func (r *Registry) RegisterInterface(id int64, name string, slots int) *Interface {
	if _, dup := r.ifaces[id]; dup {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.RegisterInterface: interface %d (%s) already registered", id, name)
	}
	if slots < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.RegisterInterface: %s: negative slot count", name)
	}
	it := &Interface{ID: id, Name: name, Slots: slots}
	r.ifaces[id] = it
	return it
}

// Bind records that class implements iface with the given itable, whose
// length must match the interface.
func (r *Registry) Bind(classID, ifaceID int64, itable []Method) {
	if _, ok := r.classes[classID]; !ok {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.Bind: unknown class %d", classID)
	}
	it, ok := r.ifaces[ifaceID]
	if !ok {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.Bind: unknown interface %d", ifaceID)
	}
	if len(itable) != it.Slots {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.Bind: %s expects %d slots, got %d", it.Name, it.Slots, len(itable))
	}
	r.bindings[bindKey{classID, ifaceID}] = append([]Method(nil), itable...)
}

// Class returns the class registered under id.
func (r *Registry) Class(id int64) (*Class, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.classes[id]
	return c, ok
}

// Interface returns the interface registered under id.
func (r *Registry) Interface(id int64) (*Interface, bool) {
	if r == nil {
		return nil, false
	}
	it, ok := r.ifaces[id]
	return it, ok
}

// ClassIDs returns the registered class ids in ascending order.
func (r *Registry) ClassIDs() []int64 {
	if r == nil {
		return nil
	}
	ids := make([]int64, 0, len(r.classes))
	for id := range r.classes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LookupMethod resolves a virtual slot of classID.
func (r *Registry) LookupMethod(classID int64, slot int) Method {
	c, ok := r.Class(classID)
	if !ok {
		return nil
	}
	return c.VTable.Lookup(slot)
}

// LookupInterface resolves slot of iface for classID, searching the
// class and then its ancestors for a binding.
func (r *Registry) LookupInterface(classID, ifaceID int64, slot int) Method {
	c, _ := r.Class(classID)
	for ; c != nil; c = c.Parent {
		if itable, ok := r.bindings[bindKey{c.ID, ifaceID}]; ok {
			if slot >= 0 && slot < len(itable) {
				return itable[slot]
			}
			return nil
		}
	}
	return nil
}

// Implements reports whether classID or an ancestor binds ifaceID.
func (r *Registry) Implements(classID, ifaceID int64) bool {
	c, _ := r.Class(classID)
	for ; c != nil; c = c.Parent {
		if _, ok := r.bindings[bindKey{c.ID, ifaceID}]; ok {
			return true
		}
	}
	return false
}

// IsA reports whether obj's class is classID or derives from it.
func (r *Registry) IsA(obj heap.Object, classID int64) bool {
	if obj == nil {
		return false
	}
	c, _ := r.Class(obj.Hdr().ClassID())
	for ; c != nil; c = c.Parent {
		if c.ID == classID {
			return true
		}
	}
	return false
}

// Invoke calls virtual slot on obj. A nil receiver or a missing method
// traps.
func (r *Registry) Invoke(obj heap.Object, slot int, args ...any) any {
	if obj == nil {
		trap.Raise(trap.CodeNull, "rtctx.Invoke: null receiver")
	}
	classID := obj.Hdr().ClassID()
	m := r.LookupMethod(classID, slot)
	if m == nil {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.Invoke: class %d has no method in slot %d", classID, slot)
	}
	return m(obj, args)
}

// Types returns the class registry of c, creating it on first use.
func (c *Context) Types() *Registry {
	handoff.Lock()
	defer handoff.Unlock()
	if c.types == nil {
		c.types = newRegistry()
	}
	return c.types
}

// Types returns the registry of the effective context.
func Types() *Registry { return Effective().Types() }
