// Package trap is the single fatal-error entry point of the runtime core.
//
// Every component reports contract violations and exhaustion through
// Raise. A trap never returns: the error is handed to the installed hook
// (if any) and then panicked as a *Error. Hosts recover at their own
// boundary with Catch.
package trap

import (
	"fmt"
	"sync/atomic"
)

// Code identifies the kind of trap.
type Code int

// Stable trap codes - do not change values.
const (
	CodeNull            Code = 2001 // RT2001: null where forbidden
	CodeOutOfRange      Code = 2002 // RT2002: index or argument out of range
	CodeTypeMismatch    Code = 2003 // RT2003: unbox tag mismatch, wrong handle type
	CodeEmpty           Code = 2004 // RT2004: pop/peek on an empty container
	CodeInvalidArgument Code = 2005 // RT2005: bad radix, negative length, ...
	CodeUseAfterFree    Code = 2006 // RT2006: release of a freed block
	CodeClosed          Code = 2007 // RT2007: use of a closed resource

	CodeOutOfMemory Code = 3001 // RT3001: allocation refused
	CodeOverflow    Code = 3002 // RT3002: size computation overflow

	CodeEncoding Code = 4001 // RT4001: invalid hex, bad padding
)

// Kind groups codes into the runtime's error taxonomy.
type Kind uint8

const (
	KindContract Kind = iota + 1
	KindExhaustion
	KindEncoding
)

// String returns the code as "RT2001" format.
func (c Code) String() string {
	return fmt.Sprintf("RT%d", c)
}

// Kind reports the taxonomy family of the code.
func (c Code) Kind() Kind {
	switch {
	case c >= 4000:
		return KindEncoding
	case c >= 3000:
		return KindExhaustion
	default:
		return KindContract
	}
}

func (k Kind) String() string {
	switch k {
	case KindContract:
		return "contract"
	case KindExhaustion:
		return "exhaustion"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error is the value carried by a trap panic.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("trap %s: %s", e.Code, e.Message)
}

// Hook observes a trap before it unwinds.
type Hook func(*Error)

var hook atomic.Pointer[Hook]

// SetHook installs h and returns the previous hook. A nil h removes it.
func SetHook(h Hook) Hook {
	var prev *Hook
	if h == nil {
		prev = hook.Swap(nil)
	} else {
		prev = hook.Swap(&h)
	}
	if prev == nil {
		return nil
	}
	return *prev
}

// Raise reports a fatal contract violation. It does not return.
func Raise(code Code, msg string) {
	e := &Error{Code: code, Message: msg}
	if h := hook.Load(); h != nil {
		(*h)(e)
	}
	panic(e)
}

// Raisef is Raise with fmt formatting.
func Raisef(code Code, format string, args ...any) {
	Raise(code, fmt.Sprintf(format, args...))
}

// Catch runs fn and converts a trap into a returned *Error.
// Panics that are not traps keep unwinding.
func Catch(fn func()) (err *Error) {
	defer func() {
		if r := recover(); r != nil {
			te, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			err = te
		}
	}()
	fn()
	return nil
}
