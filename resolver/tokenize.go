package resolver

import (
	"strconv"
	"strings"
)

// parseFloatInvariant parses a numeric literal using invariant,
// locale-independent rules: optional sign, decimal point, optional
// e/E exponent with optional sign. Embedded whitespace is rejected.
func parseFloatInvariant(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, " \t\n\r") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// looksNumeric reports whether s appears to be an attempted numeric
// literal (leading sign/digit/decimal point) even though it failed to
// parse as one - used to choose NumericParseError over UnknownName.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if c == '+' || c == '-' || c == '.' {
		return len(s) > 1 && isDigit(s[1])
	}
	return isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// lastNonSpaceByte returns the last non-space byte of expr[:i], and
// whether one exists.
func lastNonSpaceByte(expr string, i int) (byte, bool) {
	for j := i - 1; j >= 0; j-- {
		if expr[j] != ' ' {
			return expr[j], true
		}
	}
	return 0, false
}

func (r *Resolver[T]) isOperatorByte(c byte) bool {
	if _, ok := r.unary[c]; ok {
		return true
	}
	_, ok := r.binary[c]
	return ok
}

func (r *Resolver[T]) isSeek(c byte) bool {
	switch c {
	case ' ', '(', ')', ',':
		return true
	}
	return r.isOperatorByte(c)
}

// scanSubtoken reads a sub-token starting at i by scanning forward to
// the next seek character (space, '(', ',', ')', or a registered
// operator token), with the signed-exponent numeric literal widening
// described in the grammar: if the scan stops on an operator
// character, peek one character past it and scan onward; if the
// widened slice parses as a float, consume it instead (this is what
// lets "1e+7" tokenise as one literal rather than splitting on '+').
func (r *Resolver[T]) scanSubtoken(expr string, i int) (string, int) {
	j := i
	for j < len(expr) && !r.isSeek(expr[j]) {
		j++
	}
	if j < len(expr) && r.isOperatorByte(expr[j]) {
		k := j + 1
		for k < len(expr) && !r.isSeek(expr[k]) {
			k++
		}
		if k > j {
			widened := expr[i:k]
			if _, ok := parseFloatInvariant(widened); ok {
				return widened, k
			}
		}
	}
	return expr[i:j], j
}
