package utils

import (
	"unicode"
)

// IsSeparator checks if a rune is a separator character
func IsSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '、' || r == ',' || r == '，'
}

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// HasLetters reports whether s has at least one letter (Han characters count).
func HasLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsValidPhrase checks if input is worth normalizing.
// Rejects empty strings, bare numbers and strings without any letter.
func IsValidPhrase(s string) bool {
	if len(s) == 0 {
		return false
	}
	if IsOnlyNumbers(s) {
		return false
	}
	return HasLetters(s)
}

// SplitPhrases splits a line of free text on separators, dropping empty parts.
func SplitPhrases(line string) []string {
	var out []string
	start := -1
	for i, r := range line {
		if IsSeparator(r) {
			if start >= 0 {
				out = append(out, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, line[start:])
	}
	return out
}
