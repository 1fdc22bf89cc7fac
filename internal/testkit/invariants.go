// Package testkit holds assertions shared by the runtime's tests.
package testkit

import (
	"fmt"
	"testing"

	"viper/internal/heap"
	"viper/internal/trap"
)

// ExpectTrap fails t unless fn raises a trap with code.
func ExpectTrap(t testing.TB, code trap.Code, fn func()) *trap.Error {
	t.Helper()
	err := trap.Catch(fn)
	if err == nil {
		t.Fatalf("expected trap %v, got none", code)
	}
	if err.Code != code {
		t.Fatalf("expected trap %v, got %v", code, err)
	}
	return err
}

// CheckBalanced reports blocks allocated since before that were never
// freed. Immortal singletons must be built before the snapshot.
func CheckBalanced(before heap.StatsSnapshot) error {
	d := heap.Stats().Sub(before)
	if d.Allocs != d.Frees {
		return fmt.Errorf("heap unbalanced: %d allocs, %d frees", d.Allocs, d.Frees)
	}
	if d.Retains > d.Releases {
		return fmt.Errorf("refcount unbalanced: %d retains, %d releases", d.Retains, d.Releases)
	}
	return nil
}

// LeakGuard checks at the end of the test that every block allocated
// during it was freed. Tests using it must not run in parallel.
func LeakGuard(t testing.TB) {
	t.Helper()
	before := heap.Stats()
	t.Cleanup(func() {
		if err := CheckBalanced(before); err != nil {
			t.Error(err)
		}
	})
}
