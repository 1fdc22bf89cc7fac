package rtctx

import (
	"testing"

	"viper/internal/heap"
	"viper/internal/trap"
)

const (
	slotName = iota
	slotArea
)

func constMethod(v string) Method {
	return func(heap.Object, []any) any { return v }
}

func newInstance(classID int64) *heap.Block {
	b := heap.Alloc(heap.KindObject, heap.ElemNone, 1, 8, 8)
	heap.SetClassID(b, classID)
	return b
}

func TestVirtualDispatchWalksParents(t *testing.T) {
	r := newRegistry()
	r.RegisterClass(1, "Shape", 0, []Method{constMethod("shape"), constMethod("area?")})
	r.RegisterClass(2, "Circle", 1, []Method{slotName: constMethod("circle")})

	c := newInstance(2)
	defer heap.Release(c)

	if got := r.Invoke(c, slotName); got != "circle" {
		t.Fatalf("override not used: %v", got)
	}
	if got := r.Invoke(c, slotArea); got != "area?" {
		t.Fatalf("inherited slot not found: %v", got)
	}
	if !r.IsA(c, 1) || !r.IsA(c, 2) || r.IsA(c, 3) {
		t.Fatal("IsA must follow the parent chain")
	}
	if r.LookupMethod(99, 0) != nil {
		t.Fatal("unknown class has no methods")
	}
	expectTrap(t, trap.CodeInvalidArgument, func() { r.Invoke(c, 7) })
	expectTrap(t, trap.CodeNull, func() { r.Invoke(nil, 0) })
}

func TestInvokePassesReceiverAndArgs(t *testing.T) {
	r := newRegistry()
	r.RegisterClass(5, "Adder", 0, []Method{func(self heap.Object, args []any) any {
		return self.Hdr().ClassID() + args[0].(int64) + args[1].(int64)
	}})
	obj := newInstance(5)
	defer heap.Release(obj)
	if got := r.Invoke(obj, 0, int64(1), int64(2)); got != int64(8) {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestInterfaces(t *testing.T) {
	r := newRegistry()
	r.RegisterClass(1, "Base", 0, nil)
	r.RegisterClass(2, "Derived", 1, nil)
	r.RegisterInterface(100, "Printable", 1)
	r.Bind(1, 100, []Method{constMethod("base print")})

	if !r.Implements(2, 100) {
		t.Fatal("derived classes inherit interface bindings")
	}
	if got := r.LookupInterface(2, 100, 0); got == nil || got(nil, nil) != "base print" {
		t.Fatal("interface slot must resolve through the parent")
	}
	if r.LookupInterface(2, 100, 5) != nil || r.Implements(2, 101) {
		t.Fatal("unknown slots and interfaces resolve to nothing")
	}
	expectTrap(t, trap.CodeInvalidArgument, func() { r.Bind(1, 100, nil) })
	expectTrap(t, trap.CodeInvalidArgument, func() { r.Bind(9, 100, nil) })
	expectTrap(t, trap.CodeInvalidArgument, func() { r.Bind(1, 9, nil) })
}

func TestRegisterClassValidation(t *testing.T) {
	r := newRegistry()
	r.RegisterClass(1, "A", 0, nil)
	expectTrap(t, trap.CodeInvalidArgument, func() { r.RegisterClass(1, "A again", 0, nil) })
	expectTrap(t, trap.CodeInvalidArgument, func() { r.RegisterClass(2, "Orphan", 42, nil) })
	expectTrap(t, trap.CodeInvalidArgument, func() { r.RegisterClass(0, "Zero", 0, nil) })
	if ids := r.ClassIDs(); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestVTableSetMethodGrows(t *testing.T) {
	r := newRegistry()
	c := r.RegisterClass(3, "Grow", 0, nil)
	c.VTable.SetMethod(4, constMethod("late"))
	if c.VTable.Len() != 5 || c.VTable.LookupLocal(4) == nil || c.VTable.LookupLocal(0) != nil {
		t.Fatal("SetMethod must grow the table and leave gaps empty")
	}
}
