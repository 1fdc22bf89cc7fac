package collections

import (
	"viper/internal/heap"
	"viper/internal/trap"
)

// UnionFind tracks a partition of 0..n-1 into disjoint sets. Out-of-range
// indices yield -1, false or 0 instead of trapping.
type UnionFind struct {
	heap.Header
	parent []int
	size   []int
	sets   int
}

// NewUnionFind returns n singleton sets. n must not be negative.
func NewUnionFind(n int) *UnionFind {
	if n < 0 {
		trap.Raisef(trap.CodeInvalidArgument, "UnionFind.New: n must be >= 0 (got %d)", n)
	}
	u := &UnionFind{parent: make([]int, n), size: make([]int, n)}
	u.Reset()
	track(u, ClassUnionFind, finalizeUnionFind)
	return u
}

func finalizeUnionFind(obj heap.Object) {
	u := obj.(*UnionFind)
	u.parent, u.size = nil, nil
}

func (u *UnionFind) check(op string) {
	if u == nil {
		nullReceiver(op)
	}
}

func (u *UnionFind) valid(i int) bool { return i >= 0 && i < len(u.parent) }

// Len returns the number of elements.
func (u *UnionFind) Len() int {
	u.check("UnionFind.Len")
	return len(u.parent)
}

// IsEmpty reports whether u has no elements.
func (u *UnionFind) IsEmpty() bool { return u.Len() == 0 }

// Find returns the representative of i, compressing the path, or -1.
func (u *UnionFind) Find(i int) int {
	u.check("UnionFind.Find")
	if !u.valid(i) {
		return -1
	}
	root := i
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[i] != root {
		u.parent[i], i = root, u.parent[i]
	}
	return root
}

// Union merges the sets of a and b and reports whether they were apart.
func (u *UnionFind) Union(a, b int) bool {
	ra, rb := u.Find(a), u.Find(b)
	if ra < 0 || rb < 0 || ra == rb {
		return false
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	u.sets--
	return true
}

// Connected reports whether a and b share a set.
func (u *UnionFind) Connected(a, b int) bool {
	ra := u.Find(a)
	return ra >= 0 && ra == u.Find(b)
}

// SetSize returns the size of the set holding i, or 0.
func (u *UnionFind) SetSize(i int) int {
	r := u.Find(i)
	if r < 0 {
		return 0
	}
	return u.size[r]
}

// Count returns the number of distinct sets.
func (u *UnionFind) Count() int {
	u.check("UnionFind.Count")
	return u.sets
}

// Reset restores every element to its own set.
func (u *UnionFind) Reset() {
	u.check("UnionFind.Reset")
	for i := range u.parent {
		u.parent[i] = i
		u.size[i] = 1
	}
	u.sets = len(u.parent)
}

// Clear is Reset.
func (u *UnionFind) Clear() { u.Reset() }
