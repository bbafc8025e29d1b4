package utils

import (
	"strconv"
	"strings"
)

// CharSet returns the set of runes in s.
func CharSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// IsStrictCharSubset reports whether the rune set of a is a proper subset of the rune set of b.
// Two strings with the same rune set are never subsets of each other.
func IsStrictCharSubset(a, b string) bool {
	if a == b {
		return false
	}
	sa, sb := CharSet(a), CharSet(b)
	if len(sa) >= len(sb) {
		return false
	}
	for r := range sa {
		if _, ok := sb[r]; !ok {
			return false
		}
	}
	return true
}

// FormatWithCommas renders n with thousands separators.
func FormatWithCommas(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatPercent renders a ratio as a percentage with two decimals.
func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}
