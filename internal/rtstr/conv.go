package rtstr

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"viper/internal/trap"
)

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// ToI64 parses s as a base-10 integer. Surrounding whitespace is ignored;
// anything else that is not part of the number traps, as do empty input
// and values outside the int64 range.
func ToI64(s *String) int64 {
	data := view("rtstr.ToI64", s)
	i, j := 0, len(data)
	for i < j && isSpace(data[i]) {
		i++
	}
	for j > i && isSpace(data[j-1]) {
		j--
	}
	if i == j {
		trap.Raise(trap.CodeInvalidArgument, "rtstr.ToI64: empty")
	}
	v, err := strconv.ParseInt(string(data[i:j]), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			trap.Raise(trap.CodeOverflow, "rtstr.ToI64: out of range")
		}
		trap.Raise(trap.CodeInvalidArgument, "rtstr.ToI64: invalid")
	}
	return v
}

// floatPrefix returns the longest leading float literal of data after
// optional whitespace, in strtod's grammar: an optionally signed decimal
// [digits][.digits][(e|E)[+-]digits], a hex float 0x[hex][.hex][(p|P)[+-]digits],
// or the words inf, infinity and nan in any case.
func floatPrefix(data []byte) []byte {
	i := 0
	for i < len(data) && isSpace(data[i]) {
		i++
	}
	start := i
	if i < len(data) && (data[i] == '+' || data[i] == '-') {
		i++
	}
	if n := wordPrefix(data[i:]); n > 0 {
		return data[start : i+n]
	}
	if end := hexFloatEnd(data, i); end > 0 {
		return data[start:end]
	}
	i, digits := scanDigits(data, i, isDigit)
	if i < len(data) && data[i] == '.' {
		var frac int
		i, frac = scanDigits(data, i+1, isDigit)
		digits += frac
	}
	if digits == 0 {
		return nil
	}
	return data[start:exponentEnd(data, i, 'e')]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c|0x20) >= 'a' && (c|0x20) <= 'f'
}

func scanDigits(data []byte, i int, ok func(byte) bool) (int, int) {
	n := 0
	for i < len(data) && ok(data[i]) {
		i++
		n++
	}
	return i, n
}

// exponentEnd extends i over an exponent introduced by marker (either
// case) when the exponent has at least one digit.
func exponentEnd(data []byte, i int, marker byte) int {
	if i >= len(data) || data[i]|0x20 != marker {
		return i
	}
	k := i + 1
	if k < len(data) && (data[k] == '+' || data[k] == '-') {
		k++
	}
	if end, n := scanDigits(data, k, isDigit); n > 0 {
		return end
	}
	return i
}

// hexFloatEnd returns the end of a hex float starting at i, or 0.
func hexFloatEnd(data []byte, i int) int {
	if i+1 >= len(data) || data[i] != '0' || data[i+1]|0x20 != 'x' {
		return 0
	}
	k, digits := scanDigits(data, i+2, isHexDigit)
	if k < len(data) && data[k] == '.' {
		var frac int
		k, frac = scanDigits(data, k+1, isHexDigit)
		digits += frac
	}
	if digits == 0 {
		return 0
	}
	return exponentEnd(data, k, 'p')
}

// wordPrefix matches infinity, inf or nan case-insensitively and returns
// the matched length.
func wordPrefix(data []byte) int {
	for _, w := range []string{"infinity", "inf", "nan"} {
		if len(data) >= len(w) && strings.EqualFold(string(data[:len(w)]), w) {
			return len(w)
		}
	}
	return 0
}

func parsePrefix(op string, s *String) (float64, bool) {
	p := floatPrefix(view(op, s))
	if p == nil {
		return 0, true
	}
	lit := string(p)
	if isHexLiteral(p) && !strings.ContainsAny(lit, "pP") {
		// strconv requires a binary exponent on hex floats.
		lit += "p0"
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return v, !math.IsInf(v, 0)
		}
		return 0, true
	}
	return v, true
}

func isHexLiteral(p []byte) bool {
	if len(p) > 0 && (p[0] == '+' || p[0] == '-') {
		p = p[1:]
	}
	return len(p) > 1 && p[0] == '0' && p[1]|0x20 == 'x'
}

// ToF64 parses the leading number of s. Text after the number is ignored
// and input without a number yields 0. Overflow saturates to ±Inf; the
// words inf, infinity and nan parse to the matching special values.
func ToF64(s *String) float64 {
	v, _ := parsePrefix("rtstr.ToF64", s)
	return v
}

// Val is BASIC VAL: ToF64, except that a finite literal too large for
// float64 traps. An explicit inf is not an overflow.
func Val(s *String) float64 {
	v, ok := parsePrefix("VAL", s)
	if !ok {
		trap.Raise(trap.CodeOverflow, "VAL: overflow")
	}
	return v
}

// FromI64 formats v in base 10.
func FromI64(v int64) *String {
	var buf [20]byte
	return FromBytes(strconv.AppendInt(buf[:0], v, 10))
}

// FromF64 formats v in the shortest %g form that round-trips.
// Infinities render as "Inf" and "-Inf".
func FromF64(v float64) *String {
	switch {
	case math.IsInf(v, 1):
		return FromLiteral("Inf")
	case math.IsInf(v, -1):
		return FromLiteral("-Inf")
	case math.IsNaN(v):
		return FromLiteral("NaN")
	}
	var buf [32]byte
	return FromBytes(strconv.AppendFloat(buf[:0], v, 'g', -1, 64))
}
