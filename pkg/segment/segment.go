// Package segment splits canonical text into dictionary terms by greedy longest-prefix matching.
package segment

import (
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// Lexicon is the read-only view of the dictionary the segmenter needs.
type Lexicon interface {
	Contains(term string) bool
	HasPrefix(s string) bool
	LongestPrefixOf(text string) (string, bool)
}

// DefaultMaxLiveStates bounds the recovery walk per anchor.
const DefaultMaxLiveStates = 1024

// Segmenter extracts terms from canonical text. It holds no mutable state
// and is safe for concurrent use.
type Segmenter struct {
	lex           Lexicon
	experimental  bool
	maxLiveStates int
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithExperimental toggles subsequence recovery for text no prefix matches.
func WithExperimental(on bool) Option {
	return func(s *Segmenter) { s.experimental = on }
}

// WithMaxLiveStates caps the number of trie positions tracked during recovery.
func WithMaxLiveStates(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.maxLiveStates = n
		}
	}
}

// New creates a Segmenter over lex.
func New(lex Lexicon, opts ...Option) *Segmenter {
	s := &Segmenter{lex: lex, maxLiveStates: DefaultMaxLiveStates}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Experimental reports whether recovery is enabled.
func (s *Segmenter) Experimental() bool {
	return s.experimental
}

// Segment returns the dictionary terms found in text, in order of discovery.
// Every iteration consumes at least one rune, so it always terminates.
func (s *Segmenter) Segment(text string) []string {
	out := []string{}
	if text == "" {
		return out
	}
	if s.lex.Contains(text) {
		return append(out, text)
	}

	for text != "" {
		if term, ok := s.lex.LongestPrefixOf(text); ok {
			out = append(out, term)
			text = text[len(term):]
			continue
		}
		_, size := utf8.DecodeRuneInString(text)
		if s.experimental && s.lex.HasPrefix(text[:size]) {
			found := s.recover(text, size)
			if len(found) > 0 {
				log.Debugf("Recovered %v from %q", found, text)
			}
			out = append(out, found...)
		}
		text = text[size:]
	}
	return out
}

// recover walks the trie from the anchor rune text[:size] over the rest of
// text, keeping every live position at once. A position either stays (the
// rune is skipped) or advances when the trie still has a subtree for the
// extended string. Positions are deduplicated, which bounds the walk by the
// number of distinct dictionary prefixes instead of the number of subsequences.
// Every live position that is a complete term is returned in discovery order.
func (s *Segmenter) recover(text string, size int) []string {
	anchor := text[:size]
	live := []string{anchor}
	seen := map[string]struct{}{anchor: {}}

	for _, r := range text[size:] {
		n := len(live)
		for i := 0; i < n && len(live) < s.maxLiveStates; i++ {
			ext := live[i] + string(r)
			if _, ok := seen[ext]; ok {
				continue
			}
			if s.lex.HasPrefix(ext) {
				seen[ext] = struct{}{}
				live = append(live, ext)
			}
		}
	}

	var found []string
	for _, state := range live {
		if s.lex.Contains(state) {
			found = append(found, state)
		}
	}
	return found
}
