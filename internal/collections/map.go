package collections

import (
	"viper/internal/box"
	"viper/internal/heap"
	"viper/internal/rtstr"
	"viper/internal/trap"
)

// Map is a string-keyed hash map of opaque values.
type Map struct {
	heap.Header
	t table[any]
}

// Dictionary is the name the BASIC front end uses for Map.
type Dictionary = Map

// NewMap returns an empty map.
func NewMap() *Map {
	m := &Map{}
	track(m, ClassMap, finalizeMap)
	return m
}

// NewDictionary returns an empty map.
func NewDictionary() *Dictionary { return NewMap() }

func finalizeMap(obj heap.Object) { obj.(*Map).Clear() }

func dropValue(e *entry[any]) { release(e.val) }

func (m *Map) check(op string) {
	if m == nil {
		nullReceiver(op)
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	m.check("Map.Len")
	return m.t.count
}

// IsEmpty reports whether m has no entries.
func (m *Map) IsEmpty() bool { return m.Len() == 0 }

// Get returns the value for key, borrowed, or nil on a miss.
func (m *Map) Get(key *rtstr.String) any {
	return m.GetOr(key, nil)
}

// GetOr returns the value for key or def. A miss does not insert.
func (m *Map) GetOr(key *rtstr.String, def any) any {
	m.check("Map.Get")
	if e := m.t.find(keyView("Map.Get", key)); e != nil {
		return e.val
	}
	return def
}

// Has reports whether key is present.
func (m *Map) Has(key *rtstr.String) bool {
	m.check("Map.Has")
	return m.t.find(keyView("Map.Has", key)) != nil
}

// Set inserts or replaces the value for key. A replaced value is released.
func (m *Map) Set(key *rtstr.String, v any) {
	m.check("Map.Set")
	e, created := m.t.upsert(keyView("Map.Set", key))
	retain(v)
	if !created {
		release(e.val)
	}
	e.val = v
}

// SetIfMissing stores v only when key is absent and reports whether it did.
func (m *Map) SetIfMissing(key *rtstr.String, v any) bool {
	m.check("Map.SetIfMissing")
	e, created := m.t.upsert(keyView("Map.SetIfMissing", key))
	if created {
		retain(v)
		e.val = v
	}
	return created
}

// Remove deletes key and releases its value.
func (m *Map) Remove(key *rtstr.String) bool {
	m.check("Map.Remove")
	e, ok := m.t.remove(keyView("Map.Remove", key))
	if ok {
		release(e.val)
	}
	return ok
}

// Clear removes every entry.
func (m *Map) Clear() {
	m.check("Map.Clear")
	m.t.reset(dropValue)
}

// Keys returns a sequence of fresh strings, one per key, in table order.
func (m *Map) Keys() *Seq {
	m.check("Map.Keys")
	keys := make([]string, 0, m.t.count)
	m.t.each(func(e *entry[any]) { keys = append(keys, e.key) })
	return keysSeq(keys)
}

// Values returns a sequence of the values, retained, in table order.
func (m *Map) Values() *Seq {
	m.check("Map.Values")
	vals := make([]any, 0, m.t.count)
	m.t.each(func(e *entry[any]) { vals = append(vals, e.val) })
	return valuesSeq(vals)
}

func (m *Map) setBoxed(key *rtstr.String, b *box.Box) {
	m.Set(key, b)
	heap.Release(b)
}

// SetInt stores v boxed.
func (m *Map) SetInt(key *rtstr.String, v int64) { m.setBoxed(key, box.I64(v)) }

// SetFloat stores v boxed.
func (m *Map) SetFloat(key *rtstr.String, v float64) { m.setBoxed(key, box.F64(v)) }

// SetStr stores v boxed; v is retained by the box.
func (m *Map) SetStr(key *rtstr.String, v *rtstr.String) { m.setBoxed(key, box.Str(v)) }

// GetInt returns the boxed integer for key, or 0 on a miss.
func (m *Map) GetInt(key *rtstr.String) int64 { return m.GetIntOr(key, 0) }

// GetIntOr returns the boxed integer for key, or def on a miss.
func (m *Map) GetIntOr(key *rtstr.String, def int64) int64 {
	v := m.Get(key)
	if v == nil {
		return def
	}
	return box.UnboxI64(v)
}

// GetFloat returns the boxed float for key, or 0 on a miss.
func (m *Map) GetFloat(key *rtstr.String) float64 { return m.GetFloatOr(key, 0) }

// GetFloatOr returns the boxed float for key, or def on a miss. Boxed
// integers are widened.
func (m *Map) GetFloatOr(key *rtstr.String, def float64) float64 {
	v := m.Get(key)
	if v == nil {
		return def
	}
	if box.TagOf(v) == int(box.TagI64) {
		return float64(box.UnboxI64(v))
	}
	return box.UnboxF64(v)
}

// GetStr returns the string for key, retained, or the empty string on a
// miss. Both boxed strings and bare string values are accepted.
func (m *Map) GetStr(key *rtstr.String) *rtstr.String {
	switch v := m.Get(key).(type) {
	case nil:
		return rtstr.Empty()
	case *rtstr.String:
		return rtstr.Retain(v)
	case *box.Box:
		return box.UnboxStr(v)
	default:
		trap.Raisef(trap.CodeTypeMismatch, "Map.GetStr: value is %T, not a string", v)
		return nil
	}
}
