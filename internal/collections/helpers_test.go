package collections

import (
	"slices"
	"testing"

	"viper/internal/heap"
	"viper/internal/object"
	"viper/internal/rtstr"
	"viper/internal/testkit"
	"viper/internal/trap"
)

func expectTrap(t *testing.T, code trap.Code, fn func()) {
	t.Helper()
	testkit.ExpectTrap(t, code, fn)
}

func lit(s string) *rtstr.String { return rtstr.FromLiteral(s) }

// probe is a tracked object that counts its finalizations.
type probe struct {
	obj       *heap.Block
	finalized int
}

func newProbe() *probe {
	p := &probe{obj: object.New(1, 8)}
	object.SetFinalizer(p.obj, func(heap.Object) { p.finalized++ })
	return p
}

// texts drains a sequence of strings into Go strings and releases it.
func texts(t *testing.T, s *Seq) []string {
	t.Helper()
	out := make([]string, s.Len())
	for i := range out {
		out[i] = rtstr.Text(s.Get(i).(*rtstr.String))
	}
	heap.Release(s)
	return out
}

func sortedTexts(t *testing.T, s *Seq) []string {
	t.Helper()
	out := texts(t, s)
	slices.Sort(out)
	return out
}

func text(s *rtstr.String) string {
	out := rtstr.Text(s)
	rtstr.Release(s)
	return out
}
