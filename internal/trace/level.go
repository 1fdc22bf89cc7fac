package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity. Each level past LevelError admits
// one more Scope.
type Level uint8

const (
	LevelOff     Level = iota // nothing
	LevelError                // traps only
	LevelContext              // host phases, context bind/unbind/handoff
	LevelObject               // plus finalizers and object lifecycle
	LevelHeap                 // plus every alloc and free
)

var levelNames = [...]string{"off", "error", "context", "object", "heap"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the level names case-insensitively; "" means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// maxScope is the finest scope a level admits.
func (l Level) maxScope() Scope {
	switch l {
	case LevelContext:
		return ScopeContext
	case LevelObject:
		return ScopeObject
	case LevelHeap:
		return ScopeHeap
	default:
		return 0
	}
}

// ShouldEmit reports whether spans and points at scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return scope != 0 && scope <= l.maxScope()
}

// Accepts reports whether ev passes the level filter. Traps pass every
// level except off.
func (l Level) Accepts(ev *Event) bool {
	if ev == nil || l == LevelOff {
		return false
	}
	return ev.Kind == KindTrap || l.ShouldEmit(ev.Scope)
}
