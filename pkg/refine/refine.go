// Package refine post-processes raw segmenter output into at most four distinct terms.
package refine

import (
	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/bastiangx/icdnorm/pkg/record"
)

// Synonyms resolves a term to its synonym group.
type Synonyms interface {
	SynonymGroupOf(term string) (int, bool)
}

// Refiner applies subset removal, synonym collapse, dedup and fixed-width fit.
type Refiner struct {
	syn   Synonyms
	width int
}

// New creates a Refiner. syn may be nil, which disables synonym collapse.
func New(syn Synonyms) *Refiner {
	return &Refiner{syn: syn, width: record.SlotWidth}
}

// Refine runs Clean and then fits the result to exactly SlotWidth entries.
func (r *Refiner) Refine(raw []string) []string {
	return Fit(r.Clean(raw), r.width)
}

// Clean runs the three filtering steps without padding.
func (r *Refiner) Clean(raw []string) []string {
	terms := RemoveSubsets(raw)
	terms = CollapseSynonyms(terms, r.syn)
	return utils.Dedup(terms)
}

// RemoveSubsets drops every entry whose character set is a proper subset of
// another entry's character set. Entries with equal character sets are kept.
// Since proper subset is transitive, checking against the full input gives
// the same result as checking against survivors only.
func RemoveSubsets(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, a := range terms {
		covered := false
		for _, b := range terms {
			if utils.IsStrictCharSubset(a, b) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, a)
		}
	}
	return out
}

// CollapseSynonyms keeps the first-seen member of each synonym group.
func CollapseSynonyms(terms []string, syn Synonyms) []string {
	if syn == nil {
		return append([]string(nil), terms...)
	}
	seen := make(map[int]struct{})
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if g, ok := syn.SynonymGroupOf(t); ok {
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
		}
		out = append(out, t)
	}
	return out
}

// Fit pads terms with "" or truncates the tail so the result has exactly width entries.
func Fit(terms []string, width int) []string {
	out := make([]string, width)
	copy(out, terms)
	return out
}
