/*
Package dictionary holds the closed vocabulary of canonical diagnosis terms.

A Dictionary is built once from an ordered term list, a list of synonym groups
and an exclusion list, and is read-only afterwards. Terms are kept in a
Patricia trie so that the segmenter can ask three questions cheaply:

	d.Contains("高血壓")           // exact membership
	d.HasPrefix("高血")            // does any term start with this
	d.LongestPrefixOf("高血壓心臟病") // longest term that prefixes the text

Synonym groups never influence matching; they are consulted by the refiner and
the validator only.
*/
package dictionary

import (
	"fmt"
	"sort"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Sources is the raw material for Build.
type Sources struct {
	Terms      []string
	Synonyms   [][]string
	Exclusions []string
}

// termInfo is the trie item stored per term.
type termInfo struct {
	order int
}

// Dictionary is an immutable set of canonical terms with synonym groups.
// All methods are safe for concurrent use.
type Dictionary struct {
	trie   *patricia.Trie
	terms  []string
	groups map[string]int
	nGroup int
}

// Build assembles a Dictionary. Terms are NFKC normalized, deduplicated with
// the first insertion winning, and exclusions are removed last. Excluding a
// term that was never added only logs a warning.
func Build(src Sources) (*Dictionary, error) {
	d := &Dictionary{
		trie:   patricia.NewTrie(),
		groups: make(map[string]int),
	}

	excluded := make(map[string]bool, len(src.Exclusions))
	for _, e := range src.Exclusions {
		if e = utils.NormalizeNFKC(e); e != "" {
			excluded[e] = false
		}
	}

	filter := utils.NewTermFilter(len(src.Terms))
	for _, t := range src.Terms {
		t = utils.NormalizeNFKC(t)
		if t == "" || !filter.ShouldInclude(t) {
			continue
		}
		if _, ok := excluded[t]; ok {
			excluded[t] = true
			continue
		}
		d.trie.Insert(patricia.Prefix(t), &termInfo{order: len(d.terms)})
		d.terms = append(d.terms, t)
	}
	for e, hit := range excluded {
		if !hit {
			log.Warnf("Excluded term %q does not exist in the dictionary", e)
		}
	}

	for i, g := range src.Synonyms {
		if err := d.addGroup(g); err != nil {
			return nil, &ConfigError{Source: fmt.Sprintf("synonym group #%d", i+1), Err: err}
		}
	}
	d.nGroup = d.countGroups()

	log.Debugf("Dictionary built: %d terms, %d synonym groups", len(d.terms), d.nGroup)
	return d, nil
}

// addGroup registers one synonym group. A group sharing a member with an
// existing group is merged into it so membership stays a partition.
func (d *Dictionary) addGroup(members []string) error {
	filter := utils.NewFoldedTermFilter(len(members))
	var keys []string
	for _, m := range members {
		m = utils.NormalizeNFKC(m)
		if m == "" || !filter.ShouldInclude(m) {
			continue
		}
		keys = append(keys, utils.FoldKey(m))
	}
	if len(keys) < 2 {
		return fmt.Errorf("%w: got %d distinct terms", ErrSmallGroup, len(keys))
	}

	id := -1
	for _, k := range keys {
		if gid, ok := d.groups[k]; ok && (id == -1 || gid < id) {
			id = gid
		}
	}
	if id == -1 {
		id = d.nGroup
		d.nGroup++
	}
	for _, k := range keys {
		if old, ok := d.groups[k]; ok && old != id {
			for kk, g := range d.groups {
				if g == old {
					d.groups[kk] = id
				}
			}
		}
		d.groups[k] = id
	}
	return nil
}

func (d *Dictionary) countGroups() int {
	seen := make(map[int]struct{})
	for _, g := range d.groups {
		seen[g] = struct{}{}
	}
	return len(seen)
}

// Contains reports whether term is a canonical term.
func (d *Dictionary) Contains(term string) bool {
	if term == "" {
		return false
	}
	return d.trie.Match(patricia.Prefix(term))
}

// HasPrefix reports whether some term begins with s.
func (d *Dictionary) HasPrefix(s string) bool {
	if s == "" {
		return false
	}
	return d.trie.MatchSubtree(patricia.Prefix(s))
}

// LongestPrefixOf returns the longest term that is a prefix of text.
// Distinct prefixes of one text always differ in length, so there are no ties.
func (d *Dictionary) LongestPrefixOf(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	best := -1
	err := d.trie.VisitPrefixes(patricia.Prefix(text), func(p patricia.Prefix, _ patricia.Item) error {
		if len(p) > best {
			best = len(p)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie prefixes: %v", err)
		return "", false
	}
	if best <= 0 {
		return "", false
	}
	return text[:best], true
}

// SynonymGroupOf returns the synonym group id of term. Lookup is case-insensitive.
func (d *Dictionary) SynonymGroupOf(term string) (int, bool) {
	if term == "" {
		return 0, false
	}
	id, ok := d.groups[utils.FoldKey(term)]
	return id, ok
}

// Order returns the insertion index of term.
func (d *Dictionary) Order(term string) (int, bool) {
	item := d.trie.Get(patricia.Prefix(term))
	if item == nil {
		return 0, false
	}
	return item.(*termInfo).order, true
}

// Terms returns a copy of the terms in insertion order.
func (d *Dictionary) Terms() []string {
	out := make([]string, len(d.terms))
	copy(out, d.terms)
	return out
}

// Len returns the number of terms.
func (d *Dictionary) Len() int {
	return len(d.terms)
}

// Groups returns the number of synonym groups.
func (d *Dictionary) Groups() int {
	return d.nGroup
}

// GroupMembers returns the members of every group keyed by id, sorted, in folded form.
func (d *Dictionary) GroupMembers() map[int][]string {
	out := make(map[int][]string, d.nGroup)
	for k, g := range d.groups {
		out[g] = append(out[g], k)
	}
	for _, members := range out {
		sort.Strings(members)
	}
	return out
}

// Stats returns basic counters for diagnostics.
func (d *Dictionary) Stats() map[string]int {
	return map[string]int{
		"terms":    len(d.terms),
		"groups":   d.nGroup,
		"synonyms": len(d.groups),
	}
}
