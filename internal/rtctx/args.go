package rtctx

import (
	"strings"

	"viper/internal/rtstr"
	"viper/internal/trap"
)

// SetArgs replaces the argument vector with copies of argv. argv[0] is
// the program name.
func (c *Context) SetArgs(argv []string) {
	fresh := make([]*rtstr.String, len(argv))
	for i, a := range argv {
		fresh[i] = rtstr.FromString(a)
	}
	handoff.Lock()
	old := c.args
	c.args = fresh
	handoff.Unlock()
	for _, a := range old {
		rtstr.Release(a)
	}
}

// ArgCount returns the number of arguments, program name included.
func (c *Context) ArgCount() int64 {
	handoff.Lock()
	defer handoff.Unlock()
	return int64(len(c.args))
}

// Arg returns argument i, retained for the caller. Out-of-range indices
// trap.
func (c *Context) Arg(i int64) *rtstr.String {
	handoff.Lock()
	n := int64(len(c.args))
	var s *rtstr.String
	if i >= 0 && i < n {
		s = rtstr.Retain(c.args[i])
	}
	handoff.Unlock()
	if s == nil {
		trap.Raisef(trap.CodeOutOfRange, "rtctx.Arg: index %d out of range [0, %d)", i, n)
	}
	return s
}

// Cmdline returns the arguments after the program name joined by single
// spaces, as a new string.
func (c *Context) Cmdline() *rtstr.String {
	handoff.Lock()
	parts := make([]string, 0, len(c.args))
	for i := 1; i < len(c.args); i++ {
		parts = append(parts, rtstr.Text(c.args[i]))
	}
	handoff.Unlock()
	return rtstr.FromString(strings.Join(parts, " "))
}

// SetArgs sets the arguments of the effective context.
func SetArgs(argv []string) { Effective().SetArgs(argv) }

// ArgCount reports the argument count of the effective context.
func ArgCount() int64 { return Effective().ArgCount() }

// Arg returns argument i of the effective context.
func Arg(i int64) *rtstr.String { return Effective().Arg(i) }

// Cmdline returns the joined arguments of the effective context.
func Cmdline() *rtstr.String { return Effective().Cmdline() }
