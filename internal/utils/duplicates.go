package utils

// TermFilter drops repeated terms while preserving first-seen order.
// Not safe for concurrent use; create one per call.
type TermFilter struct {
	seen map[string]struct{}
	key  func(string) string
}

// NewTermFilter creates a filter comparing terms exactly.
func NewTermFilter(capacity int) *TermFilter {
	return &TermFilter{seen: make(map[string]struct{}, capacity)}
}

// NewFoldedTermFilter creates a filter comparing terms by FoldKey.
func NewFoldedTermFilter(capacity int) *TermFilter {
	return &TermFilter{seen: make(map[string]struct{}, capacity), key: FoldKey}
}

// ShouldInclude reports whether term is new, and records it.
func (f *TermFilter) ShouldInclude(term string) bool {
	k := term
	if f.key != nil {
		k = f.key(term)
	}
	if _, ok := f.seen[k]; ok {
		return false
	}
	f.seen[k] = struct{}{}
	return true
}

// Dedup returns terms with exact duplicates removed, order preserved.
func Dedup(terms []string) []string {
	f := NewTermFilter(len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if f.ShouldInclude(t) {
			out = append(out, t)
		}
	}
	return out
}
