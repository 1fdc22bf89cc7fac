package collections

import (
	"viper/internal/heap"
	"viper/internal/rtstr"
)

// Bag is a set of strings.
type Bag struct {
	heap.Header
	t table[struct{}]
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	b := &Bag{}
	track(b, ClassBag, finalizeBag)
	return b
}

func finalizeBag(obj heap.Object) { obj.(*Bag).t.reset(nil) }

func (b *Bag) check(op string) {
	if b == nil {
		nullReceiver(op)
	}
}

// Len returns the number of members.
func (b *Bag) Len() int {
	b.check("Bag.Len")
	return b.t.count
}

// IsEmpty reports whether b has no members.
func (b *Bag) IsEmpty() bool { return b.Len() == 0 }

// Put adds key and reports whether it was new.
func (b *Bag) Put(key *rtstr.String) bool {
	b.check("Bag.Put")
	_, created := b.t.upsert(keyView("Bag.Put", key))
	return created
}

// Drop removes key and reports whether it was present.
func (b *Bag) Drop(key *rtstr.String) bool {
	b.check("Bag.Drop")
	_, ok := b.t.remove(keyView("Bag.Drop", key))
	return ok
}

// Has reports whether key is a member.
func (b *Bag) Has(key *rtstr.String) bool {
	b.check("Bag.Has")
	return b.t.find(keyView("Bag.Has", key)) != nil
}

// Clear removes every member.
func (b *Bag) Clear() {
	b.check("Bag.Clear")
	b.t.reset(nil)
}

func (b *Bag) keys() []string {
	keys := make([]string, 0, b.t.count)
	b.t.each(func(e *entry[struct{}]) { keys = append(keys, e.key) })
	return keys
}

// Items returns the members as fresh strings, in table order.
func (b *Bag) Items() *Seq {
	b.check("Bag.Items")
	return keysSeq(b.keys())
}

func (b *Bag) has(key string) bool { return b.t.find(key) != nil }

// Union returns a new bag holding the members of b and other.
func (b *Bag) Union(other *Bag) *Bag {
	b.check("Bag.Union")
	other.check("Bag.Union")
	out := NewBag()
	for _, k := range b.keys() {
		out.t.upsert(k)
	}
	for _, k := range other.keys() {
		out.t.upsert(k)
	}
	return out
}

// Intersect returns a new bag of the members common to b and other.
func (b *Bag) Intersect(other *Bag) *Bag {
	b.check("Bag.Intersect")
	other.check("Bag.Intersect")
	out := NewBag()
	for _, k := range b.keys() {
		if other.has(k) {
			out.t.upsert(k)
		}
	}
	return out
}

// Difference returns a new bag of the members of b absent from other.
func (b *Bag) Difference(other *Bag) *Bag {
	b.check("Bag.Difference")
	other.check("Bag.Difference")
	out := NewBag()
	for _, k := range b.keys() {
		if !other.has(k) {
			out.t.upsert(k)
		}
	}
	return out
}
