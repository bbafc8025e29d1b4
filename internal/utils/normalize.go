package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeNFKC folds full-width and compatibility forms so that the same
// diagnosis typed on different keyboards compares equal.
func NormalizeNFKC(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

// NormalizeAll returns a copy of items with NormalizeNFKC applied to each.
func NormalizeAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = NormalizeNFKC(s)
	}
	return out
}

// FoldKey is the case-insensitive key used for synonym and equality lookups.
func FoldKey(s string) string {
	return strings.ToUpper(s)
}
