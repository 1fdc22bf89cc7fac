package trace

import "sync/atomic"

type holder struct{ t Tracer }

var current atomic.Pointer[holder]

// Set installs the process-wide tracer used by the runtime core and
// returns the previous one. A nil t restores Nop.
func Set(t Tracer) Tracer {
	if t == nil {
		t = Nop
	}
	prev := current.Swap(&holder{t: t})
	if prev == nil {
		return Nop
	}
	return prev.t
}

// Get returns the process-wide tracer (Nop until Set is called).
func Get() Tracer {
	if h := current.Load(); h != nil {
		return h.t
	}
	return Nop
}

// On reports whether the process-wide tracer would emit at scope.
func On(scope Scope) bool {
	t := Get()
	return t.Enabled() && t.Level().ShouldEmit(scope)
}
